// Package httpapi serves the credential flows over HTTP. Every response
// uses a single JSON envelope, and every engine error is translated to a
// status code in exactly one place.
package httpapi
