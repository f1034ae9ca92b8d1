package krypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrUnknownKey indicates that the key used to encrypt the data is unknown.
	ErrUnknownKey = errors.New("unknown key")
	// ErrInvalidData indicates that the data is invalid.
	ErrInvalidData = errors.New("invalid data")
)

const indexBytes = 4

// Encryptor encrypts and decrypts data using AES-GCM.
//
// Keys form an append only list, new data is always encrypted with the last
// key. Every message starts with the big endian index of its key so data
// encrypted with an older key can still be read after a new key was added.
//
// Every message is bound to a label, for example the column it is stored in.
// A message only decrypts with the label it was encrypted with, so encrypted
// values can't be moved between columns unnoticed.
type Encryptor struct {
	aeads []cipher.AEAD
}

// NewEncryptor creates a new encryptor with the provided keys.
func NewEncryptor(keys []Key) (*Encryptor, error) {
	if len(keys) == 0 {
		return nil, errors.New("at least one key is required")
	}

	aeads := make([]cipher.AEAD, 0, len(keys))
	for i, k := range keys {
		block, err := aes.NewCipher(k.value)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, errors.Join(ErrInvalidKey, err))
		}

		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}

		aeads = append(aeads, gcm)
	}

	return &Encryptor{
		aeads: aeads,
	}, nil
}

// Encrypt encrypts data for label using the latest key.
// The result is laid out as: key index | nonce | ciphertext.
func (s *Encryptor) Encrypt(data []byte, label string) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrInvalidData
	}

	index := len(s.aeads) - 1
	gcm := s.aeads[index]

	nonce, err := randBytes(gcm.NonceSize())
	if err != nil {
		return nil, err
	}

	out := make([]byte, indexBytes, indexBytes+len(nonce)+len(data)+gcm.Overhead())
	binary.BigEndian.PutUint32(out, uint32(index))
	out = append(out, nonce...)

	return gcm.Seal(out, nonce, data, additionalData(out[:indexBytes], label)), nil
}

// Decrypt decrypts a message that was encrypted for label.
func (s *Encryptor) Decrypt(message []byte, label string) ([]byte, error) {
	if len(message) < indexBytes {
		return nil, ErrInvalidData
	}

	index := binary.BigEndian.Uint32(message[:indexBytes])
	if uint64(index) >= uint64(len(s.aeads)) {
		return nil, ErrUnknownKey
	}

	gcm := s.aeads[index]

	minLen := indexBytes + gcm.NonceSize()
	if len(message) <= minLen {
		return nil, ErrInvalidData
	}

	nonce := message[indexBytes:minLen]
	ciphertext := message[minLen:]

	data, err := gcm.Open(nil, nonce, ciphertext, additionalData(message[:indexBytes], label))
	if err != nil {
		return nil, errors.Join(ErrInvalidData, err)
	}

	return data, nil
}

func additionalData(index []byte, label string) []byte {
	ad := make([]byte, 0, len(index)+len(label))
	ad = append(ad, index...)
	return append(ad, label...)
}

func randBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}
