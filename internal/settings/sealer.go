package settings

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const sealedPrefix = "enc:v1:"

// Sealer encrypts secrets at rest. The zero value (no secret) stores values in clear.
// Stored format: "enc:v1:" + base64(nonce || box).
type Sealer struct {
	key     [32]byte
	enabled bool
}

func NewSealer(secret string) (*Sealer, error) {
	s := &Sealer{}
	if secret == "" {
		return s, nil
	}
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("mentor-chat settings api key"))
	if _, err := io.ReadFull(r, s.key[:]); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	s.enabled = true
	return s, nil
}

func (s *Sealer) Seal(plaintext string) (string, error) {
	if !s.enabled || plaintext == "" {
		return plaintext, nil
	}
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key)
	return sealedPrefix + base64.StdEncoding.EncodeToString(box), nil
}

// Open reverses Seal. Values without the prefix were stored before sealing was enabled and
// are returned unchanged.
func (s *Sealer) Open(stored string) (string, error) {
	if !strings.HasPrefix(stored, sealedPrefix) {
		return stored, nil
	}
	if !s.enabled {
		return "", errors.New("api key is sealed but SETTINGS_SECRET is not set")
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, sealedPrefix))
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}
	if len(data) < 24 {
		return "", errors.New("sealed value too short")
	}
	var nonce [24]byte
	copy(nonce[:], data[:24])
	pt, ok := secretbox.Open(nil, data[24:], &nonce, &s.key)
	if !ok {
		return "", errors.New("sealed value does not open with the configured secret")
	}
	return string(pt), nil
}
