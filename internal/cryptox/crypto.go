// Package cryptox implements encryption at rest for the store file and
// password credential hashing.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

// StoreKeySalt is the fixed, versioned salt for deriving the store key, so
// the same secret yields the same key across restarts.
const StoreKeySalt = "daily-ops-v1"

// EnvelopeVersion is written into every envelope.
const EnvelopeVersion = 1

const (
	nonceSize = 12
	tagSize   = 16
	keySize   = 32
)

var ErrInvalidEnvelope = errors.New("invalid encrypted data payload")

// Envelope is the on-disk wrapper for the encrypted store. All byte fields
// are standard base64.
type Envelope struct {
	Version int    `json:"version"`
	IV      string `json:"iv"`
	Tag     string `json:"tag"`
	Data    string `json:"data"`
}

// DeriveStoreKey derives the AES-256 key for the store file from secret
// using scrypt (N=16384, r=8, p=1).
func DeriveStoreKey(secret string) ([]byte, error) {
	return scrypt.Key([]byte(secret), []byte(StoreKeySalt), 1<<14, 8, 1, keySize)
}

// Seal encrypts plaintext with AES-256-GCM under a fresh random 96-bit nonce.
func Seal(plaintext, key []byte) (*Envelope, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	// GCM appends the tag to the ciphertext; the envelope keeps them apart.
	sealed := aesgcm.Seal(nil, nonce, plaintext, nil)
	ciphertext, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	return &Envelope{
		Version: EnvelopeVersion,
		IV:      base64.StdEncoding.EncodeToString(nonce),
		Tag:     base64.StdEncoding.EncodeToString(tag),
		Data:    base64.StdEncoding.EncodeToString(ciphertext),
	}, nil
}

// Open authenticates and decrypts env with key.
func Open(env *Envelope, key []byte) ([]byte, error) {
	if env == nil || env.IV == "" || env.Tag == "" || env.Data == "" {
		return nil, ErrInvalidEnvelope
	}

	nonce, err := base64.StdEncoding.DecodeString(env.IV)
	if err != nil {
		return nil, fmt.Errorf("%w: iv: %v", ErrInvalidEnvelope, err)
	}
	tag, err := base64.StdEncoding.DecodeString(env.Tag)
	if err != nil {
		return nil, fmt.Errorf("%w: tag: %v", ErrInvalidEnvelope, err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(env.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: data: %v", ErrInvalidEnvelope, err)
	}
	if len(nonce) != nonceSize || len(tag) != tagSize {
		return nil, ErrInvalidEnvelope
	}

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	return aesgcm.Open(nil, nonce, append(ciphertext, tag...), nil)
}

// ParseEnvelope reports whether b is a JSON object carrying envelope fields.
// ok is false for any other JSON (or non-JSON) input.
func ParseEnvelope(b []byte) (env *Envelope, ok bool) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(b, &probe); err != nil {
		return nil, false
	}
	_, hasIV := probe["iv"]
	_, hasTag := probe["tag"]
	_, hasData := probe["data"]
	if !hasIV && !hasTag && !hasData {
		return nil, false
	}

	env = &Envelope{}
	if err := json.Unmarshal(b, env); err != nil {
		// Envelope-shaped but with wrong field types: still an envelope,
		// Open rejects it.
		return &Envelope{}, true
	}
	return env, true
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
