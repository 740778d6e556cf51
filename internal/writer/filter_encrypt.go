package writer

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// pbkdf2Salt and pbkdf2Iterations are fixed so the same passphrase always
// derives the same key across an encode and a later decode; the mode bit
// on the superblock (not a key-derivation nonce) is what tells a decoder
// whether to ask for a passphrase at all.
var pbkdf2Salt = []byte("paperback-cli/v1")

const (
	pbkdf2Iterations = 100000
	aesKeyLen        = 32 // AES-256
)

// EncryptionFilter implements the optional symmetric encryption stage:
// AES-256 in CBC mode, keyed by PBKDF2 over the user passphrase. Apply
// prepends a random IV; Remove reads it back off the front.
type EncryptionFilter struct {
	key []byte
}

// NewEncryptionFilter derives an AES-256 key from passphrase.
func NewEncryptionFilter(passphrase string) *EncryptionFilter {
	key := pbkdf2.Key([]byte(passphrase), pbkdf2Salt, pbkdf2Iterations, aesKeyLen, sha256.New)
	return &EncryptionFilter{key: key}
}

// Name identifies the filter for pipeline error messages.
func (f *EncryptionFilter) Name() string {
	return "aes-cbc"
}

// Apply encrypts data, which must already be a multiple of the AES block
// size (the caller pads the compressed stream to 16 bytes beforehand).
// The output is the random IV followed by the ciphertext.
func (f *EncryptionFilter) Apply(data []byte) ([]byte, error) {
	if len(data)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("encryption input not block-aligned: %d bytes", len(data))
	}
	block, err := aes.NewCipher(f.key)
	if err != nil {
		return nil, fmt.Errorf("aes cipher: %w", err)
	}

	out := make([]byte, aes.BlockSize+len(data))
	iv := out[:aes.BlockSize]
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("iv: %w", err)
	}

	mode := cipher.NewCBCEncrypter(block, iv)
	mode.CryptBlocks(out[aes.BlockSize:], data)
	return out, nil
}

// Remove reverses Apply: splits off the leading IV and decrypts the rest.
func (f *EncryptionFilter) Remove(data []byte) ([]byte, error) {
	if len(data) < aes.BlockSize || (len(data)-aes.BlockSize)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("encrypted stream has invalid length: %d bytes", len(data))
	}
	block, err := aes.NewCipher(f.key)
	if err != nil {
		return nil, fmt.Errorf("aes cipher: %w", err)
	}

	iv := data[:aes.BlockSize]
	ciphertext := data[aes.BlockSize:]
	out := make([]byte, len(ciphertext))

	mode := cipher.NewCBCDecrypter(block, iv)
	mode.CryptBlocks(out, ciphertext)
	return out, nil
}
