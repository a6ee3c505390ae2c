package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/crypto/argon2"
)

const (
	saltSize  = 16
	nonceSize = 12
	keySize   = 32
	argonTime = 3
	argonMem  = 64 * 1024
	argonPar  = 4

	// maxCachedKeys bounds the per-salt key cache. A stored session holds
	// at most two sealed tokens, so a handful covers rotation.
	maxCachedKeys = 8
)

// ErrDecrypt is returned when a sealed value cannot be opened, either
// because the passphrase is wrong or the data was tampered with.
var ErrDecrypt = errors.New("decrypt failed: wrong device secret or corrupted data")

// Sealer encrypts small values (tokens) with a key derived from a device
// passphrase. A Sealer with an empty passphrase is disabled and callers are
// expected to store values in the clear.
//
// Derived keys are cached per salt, so reopening the same sealed value
// skips the Argon2id derivation.
type Sealer struct {
	passphrase string

	mu          sync.Mutex
	keys        map[string][]byte
	derivations int
}

func NewSealer(passphrase string) *Sealer {
	return &Sealer{passphrase: passphrase}
}

// Enabled reports whether a passphrase is configured.
func (s *Sealer) Enabled() bool {
	return s != nil && s.passphrase != ""
}

func deriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, argonTime, argonMem, argonPar, keySize)
}

// key returns the key for salt, deriving it on first use.
func (s *Sealer) key(salt []byte) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	if k, ok := s.keys[string(salt)]; ok {
		return k
	}
	if s.keys == nil || len(s.keys) >= maxCachedKeys {
		s.keys = make(map[string][]byte)
	}
	k := deriveKey(s.passphrase, salt)
	s.derivations++
	s.keys[string(salt)] = k
	return k
}

// Seal encrypts plaintext.
// Output format: [16-byte salt][12-byte nonce][AES-256-GCM ciphertext]
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	if !s.Enabled() {
		return nil, errors.New("sealer disabled: no device secret")
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	gcm, err := newGCM(s.key(salt))
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	out := make([]byte, 0, saltSize+nonceSize+len(ciphertext))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, ciphertext...)
	return out, nil
}

// Open reverses Seal.
func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	if !s.Enabled() {
		return nil, errors.New("sealer disabled: no device secret")
	}
	if len(sealed) < saltSize+nonceSize {
		return nil, ErrDecrypt
	}

	salt := sealed[:saltSize]
	nonce := sealed[saltSize : saltSize+nonceSize]
	ciphertext := sealed[saltSize+nonceSize:]

	gcm, err := newGCM(s.key(salt))
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}
