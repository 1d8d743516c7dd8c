package service

import (
	"strings"
	"testing"
)

func TestSHA256Hasher_KnownDigest(t *testing.T) {
	h := SHA256Hasher{}

	got, err := h.Hash("abc")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if !h.Verify(want, "abc") {
		t.Fatal("expected digest to verify")
	}
	if h.Verify(want, "abd") {
		t.Fatal("expected different password to fail")
	}
}

func TestSHA256Hasher_Unsalted(t *testing.T) {
	h := SHA256Hasher{}
	a, _ := h.Hash("pw12345")
	b, _ := h.Hash("pw12345")
	if a != b {
		t.Fatal("sha256 scheme is expected to be deterministic")
	}
}

func TestBcryptHasher_Salted(t *testing.T) {
	h := BcryptHasher{Cost: 4}
	a, err := h.Hash("pw12345")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	b, _ := h.Hash("pw12345")
	if a == b {
		t.Fatal("bcrypt hashes of the same password must differ")
	}
	if !strings.HasPrefix(a, "$2a$") {
		t.Fatalf("unexpected bcrypt prefix: %s", a)
	}
	if !h.Verify(a, "pw12345") || h.Verify(a, "wrong") {
		t.Fatal("bcrypt verify mismatch")
	}
	if h.Verify("not-a-hash", "pw12345") {
		t.Fatal("malformed hash must not verify")
	}
}

func TestNewPasswordHasher(t *testing.T) {
	cases := map[string]bool{"": true, "sha256": true, "SHA256": true, "bcrypt": true, "md5": false}
	for scheme, ok := range cases {
		h, err := NewPasswordHasher(scheme)
		if ok && (err != nil || h == nil) {
			t.Errorf("scheme %q: expected hasher, got %v", scheme, err)
		}
		if !ok && err == nil {
			t.Errorf("scheme %q: expected error", scheme)
		}
	}
}
