// pkg/store/encrypt.go

package store

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

type Encryptor interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

type aesEncryptor struct {
	aead cipher.AEAD
}

// NewAESEncryptor derives a 256-bit key from the passphrase with PBKDF2
// and encrypts with AES-GCM. The salt must be stable across processes
// for the same data set (the namespace root works well).
func NewAESEncryptor(passphrase string, salt []byte) (Encryptor, error) {
	key := pbkdf2.Key([]byte(passphrase), salt, 10000, 32, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &aesEncryptor{aead: aead}, nil
}

func (e *aesEncryptor) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return e.aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (e *aesEncryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < e.aead.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce := ciphertext[:e.aead.NonceSize()]
	return e.aead.Open(nil, nonce, ciphertext[e.aead.NonceSize():], nil)
}

type encrypted struct {
	Store
	enc Encryptor
}

// NewEncrypted encrypts chunk payloads at rest. File records stay in the
// clear; the server-side checksum covers the stored ciphertext.
func NewEncrypted(s Store, enc Encryptor) Store {
	return &encrypted{s, enc}
}

func (e *encrypted) GetChunk(ctx context.Context, root, id string, n int64) ([]byte, error) {
	data, err := e.Store.GetChunk(ctx, root, id, n)
	if err != nil {
		return nil, err
	}
	return e.enc.Decrypt(data)
}

func (e *encrypted) PutChunk(ctx context.Context, root, id string, n int64, data []byte) error {
	ciphertext, err := e.enc.Encrypt(data)
	if err != nil {
		return err
	}
	return e.Store.PutChunk(ctx, root, id, n, ciphertext)
}
