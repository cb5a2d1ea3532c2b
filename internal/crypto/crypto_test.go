package crypto

import (
	"bytes"
	"crypto/sha256"
	"testing"
)

func TestRandomBytes(t *testing.T) {
	a, err := RandomBytes(SaltSize)
	if err != nil {
		t.Fatalf("RandomBytes failed: %v", err)
	}
	if len(a) != SaltSize {
		t.Errorf("len = %d; want %d", len(a), SaltSize)
	}

	b, _ := RandomBytes(SaltSize)
	if bytes.Equal(a, b) {
		t.Error("two calls returned the same bytes")
	}

	empty, err := RandomBytes(0)
	if err != nil || len(empty) != 0 {
		t.Errorf("RandomBytes(0) = %v, %v; want empty, nil", empty, err)
	}
}

func TestStartKey(t *testing.T) {
	want := sha256.Sum256([]byte("secret"))
	if got := StartKey([]byte("secret")); !bytes.Equal(got, want[:]) {
		t.Errorf("StartKey = %x; want %x", got, want)
	}
}

func TestDeriveKeyPBKDF2(t *testing.T) {
	start := StartKey([]byte("test-password"))
	salt := make([]byte, SaltSize)
	for i := range salt {
		salt[i] = byte(i)
	}

	key1, err := DeriveKeyPBKDF2(start, salt, 1000)
	if err != nil {
		t.Fatalf("DeriveKeyPBKDF2 failed: %v", err)
	}
	if len(key1) != KeySize {
		t.Errorf("Key length = %d; want %d", len(key1), KeySize)
	}

	// Same inputs should produce same outputs (deterministic)
	key1b, _ := DeriveKeyPBKDF2(start, salt, 1000)
	if !bytes.Equal(key1, key1b) {
		t.Error("Same inputs should produce same key")
	}

	key2, _ := DeriveKeyPBKDF2(start, salt, 1001)
	if bytes.Equal(key1, key2) {
		t.Error("Different iteration counts should produce different keys")
	}

	salt[0] ^= 0xff
	key3, _ := DeriveKeyPBKDF2(start, salt, 1000)
	if bytes.Equal(key1, key3) {
		t.Error("Different salts should produce different keys")
	}
}

func TestDeriveKeyPBKDF2Invalid(t *testing.T) {
	start := StartKey([]byte("pw"))
	if _, err := DeriveKeyPBKDF2(start, nil, 1000); err == nil {
		t.Error("expected error for empty salt")
	}
	if _, err := DeriveKeyPBKDF2(start, make([]byte, SaltSize), 0); err == nil {
		t.Error("expected error for zero iterations")
	}
}

func TestDeriveKeyArgon2(t *testing.T) {
	start := StartKey([]byte("test-password"))
	salt := make([]byte, SaltSize)

	// Small parameters keep the test fast; the algorithm is the same.
	key1, err := DeriveKeyArgon2(start, salt, 1, 1024, 1)
	if err != nil {
		t.Fatalf("DeriveKeyArgon2 failed: %v", err)
	}
	if len(key1) != KeySize {
		t.Errorf("Key length = %d; want %d", len(key1), KeySize)
	}

	key2, _ := DeriveKeyArgon2(start, salt, 2, 1024, 1)
	if bytes.Equal(key1, key2) {
		t.Error("Different passes should produce different keys")
	}

	if _, err := DeriveKeyArgon2(start, salt, 0, 1024, 1); err == nil {
		t.Error("expected error for zero passes")
	}
	if _, err := DeriveKeyArgon2(start, nil, 1, 1024, 1); err == nil {
		t.Error("expected error for empty salt")
	}
}

func TestCBCRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, KeySize)
	iv := bytes.Repeat([]byte{0x24}, CBCIVSize)

	for _, size := range []int{0, 1, 15, 16, 17, 1000} {
		plain := bytes.Repeat([]byte{'a'}, size)

		ct, err := encryptCBC(key, iv, plain)
		if err != nil {
			t.Fatalf("size %d: encryptCBC failed: %v", size, err)
		}
		if len(ct)%CBCIVSize != 0 || len(ct) <= size {
			t.Errorf("size %d: ciphertext length %d not padded", size, len(ct))
		}

		got, err := decryptCBC(key, iv, ct)
		if err != nil {
			t.Fatalf("size %d: decryptCBC failed: %v", size, err)
		}
		if !bytes.Equal(got, plain) {
			t.Errorf("size %d: round trip mismatch", size)
		}
	}
}

func TestCBCInvalidInputs(t *testing.T) {
	key := make([]byte, KeySize)

	if _, err := encryptCBC(key, make([]byte, 8), []byte("x")); err == nil {
		t.Error("expected error for short IV")
	}
	if _, err := encryptCBC(make([]byte, 7), make([]byte, CBCIVSize), []byte("x")); err == nil {
		t.Error("expected error for bad key size")
	}
	if _, err := decryptCBC(key, make([]byte, CBCIVSize), make([]byte, 17)); err == nil {
		t.Error("expected error for unaligned ciphertext")
	}
	if _, err := decryptCBC(key, make([]byte, CBCIVSize), nil); err == nil {
		t.Error("expected error for empty ciphertext")
	}
}

func TestGCMRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, KeySize)
	iv := bytes.Repeat([]byte{0x24}, GCMIVSize)
	plain := []byte("compressed bytes")

	ct, err := encryptGCM(key, iv, plain)
	if err != nil {
		t.Fatalf("encryptGCM failed: %v", err)
	}
	if len(ct) != len(plain)+GCMTagSize {
		t.Errorf("ciphertext length = %d; want %d", len(ct), len(plain)+GCMTagSize)
	}

	got, err := decryptGCM(key, iv, ct)
	if err != nil {
		t.Fatalf("decryptGCM failed: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Error("round trip mismatch")
	}

	ct[0] ^= 1
	if _, err := decryptGCM(key, iv, ct); err == nil {
		t.Error("tampered ciphertext should not open")
	}

	if _, err := encryptGCM(key, make([]byte, CBCIVSize), plain); err == nil {
		t.Error("expected error for 16-byte GCM nonce")
	}
}
