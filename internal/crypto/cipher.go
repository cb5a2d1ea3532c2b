package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"odfcrypt/internal/encoding"
)

// IV sizes per mode.
const (
	CBCIVSize  = aes.BlockSize
	GCMIVSize  = 12
	GCMTagSize = 16
)

// encryptCBC pads data (ISO 10126) and encrypts it with AES-CBC.
func encryptCBC(key, iv, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}
	if len(iv) != block.BlockSize() {
		return nil, fmt.Errorf("IV must be %d bytes, got %d", block.BlockSize(), len(iv))
	}

	padded, err := encoding.Pad(data)
	if err != nil {
		return nil, err
	}
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(padded, padded)
	return padded, nil
}

// decryptCBC reverses encryptCBC.
func decryptCBC(key, iv, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}
	if len(iv) != block.BlockSize() {
		return nil, fmt.Errorf("IV must be %d bytes, got %d", block.BlockSize(), len(iv))
	}
	if len(data) == 0 || len(data)%block.BlockSize() != 0 {
		return nil, fmt.Errorf("ciphertext length %d is not a multiple of the block size", len(data))
	}

	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, data)
	return encoding.Unpad(out)
}

// encryptGCM encrypts data with AES-GCM; the tag is appended to the ciphertext.
func encryptGCM(key, iv, data []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != aead.NonceSize() {
		return nil, fmt.Errorf("IV must be %d bytes, got %d", aead.NonceSize(), len(iv))
	}
	return aead.Seal(nil, iv, data, nil), nil
}

// decryptGCM opens data produced by encryptGCM.
func decryptGCM(key, iv, data []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != aead.NonceSize() {
		return nil, fmt.Errorf("IV must be %d bytes, got %d", aead.NonceSize(), len(iv))
	}
	return aead.Open(nil, iv, data, nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return aead, nil
}
