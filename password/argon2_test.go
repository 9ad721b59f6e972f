package password

import (
	"strings"
	"testing"
)

func testHasher(t *testing.T) *Argon2 {
	t.Helper()

	// small but valid parameters to keep tests fast
	a, err := NewArgon2(Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	})
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}
	return a
}

func TestHashVerifyRoundTrip(t *testing.T) {
	a := testHasher(t)

	hash, err := a.Hash("correct horse battery")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("unexpected hash format: %s", hash)
	}

	ok, err := a.Verify("correct horse battery", hash)
	if err != nil || !ok {
		t.Fatalf("expected verification to pass, ok=%v err=%v", ok, err)
	}

	ok, err = a.Verify("wrong password!", hash)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if ok {
		t.Fatal("expected wrong password to fail")
	}
}

func TestHashIsSalted(t *testing.T) {
	a := testHasher(t)

	h1, err := a.Hash("same password")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	h2, err := a.Hash("same password")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if h1 == h2 {
		t.Fatal("expected distinct salts to produce distinct hashes")
	}
}

func TestHashAcceptsAnyLengthByDefault(t *testing.T) {
	a := testHasher(t)

	hash, err := a.Hash("p")
	if err != nil {
		t.Fatalf("Hash failed for 1-byte password: %v", err)
	}
	ok, err := a.Verify("p", hash)
	if err != nil || !ok {
		t.Fatalf("expected verification to pass, ok=%v err=%v", ok, err)
	}
}

func TestHashEnforcesConfiguredMinLength(t *testing.T) {
	a, err := NewArgon2(Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
		MinLength:   12,
	})
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}

	if _, err := a.Hash("short"); err == nil {
		t.Fatal("expected error below the configured floor")
	}
	if _, err := a.Hash("long enough password"); err != nil {
		t.Fatalf("Hash failed above the floor: %v", err)
	}
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	a := testHasher(t)

	for _, h := range []string{
		"",
		"plain-text",
		"$bcrypt$v=19$m=8192,t=1,p=1$AAAA$BBBB",
		"$argon2id$v=19$m=8192,t=1,p=1$notbase64!!$AAAA",
	} {
		if _, err := a.Verify("whatever-pass", h); err == nil {
			t.Fatalf("expected error for malformed hash %q", h)
		}
	}
}
