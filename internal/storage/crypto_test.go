package storage

import (
	"bytes"
	"testing"
)

func TestSealOpenRoundTrip(t *testing.T) {
	plain := []byte("not a very big artifact")
	sealed, err := seal(plain, "hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(sealed, plain) {
		t.Fatal("sealed payload contains plaintext")
	}

	got, err := open(sealed, "hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, plain) {
		t.Fatalf("round trip = %q, want %q", got, plain)
	}
}

func TestOpenWrongPassword(t *testing.T) {
	sealed, err := seal([]byte("secret"), "right")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := open(sealed, "wrong"); err == nil {
		t.Fatal("open with wrong password should fail")
	}
}

func TestOpenTruncated(t *testing.T) {
	if _, err := open([]byte("short"), "pw"); err == nil {
		t.Fatal("open on truncated payload should fail")
	}
}
