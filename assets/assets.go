// Package assets uploads user-supplied media (avatars, cover images) to
// object storage and returns publicly addressable URLs.
package assets

import (
	"context"
	"io"
)

// Source is one uploadable file, typically taken from a multipart form.
type Source struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// Uploader stores a source and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, src Source) (string, error)
}
