package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	algorithmID           = "argon2id"

	// DefaultMinPasswordBytes is the shortest accepted password.
	DefaultMinPasswordBytes = 8
	// DefaultMaxPasswordBytes caps Argon2 input so huge bodies cannot pin a CPU.
	DefaultMaxPasswordBytes = 1024
)

var (
	// ErrPasswordTooShort is returned for passwords below MinPasswordBytes.
	ErrPasswordTooShort = errors.New("password too short")
	// ErrPasswordTooLong is returned for passwords above MaxPasswordBytes.
	ErrPasswordTooLong = errors.New("password too long")
	// ErrInvalidHash is returned when a stored hash is not a supported PHC string.
	ErrInvalidHash = errors.New("invalid password hash")
	// ErrInvalidConfig is returned by NewArgon2 for weak parameters.
	ErrInvalidConfig = errors.New("invalid password config")
)

// Config holds Argon2id cost parameters and password length bounds.
type Config struct {
	Memory           uint32
	Time             uint32
	Parallelism      uint8
	SaltLength       uint32
	KeyLength        uint32
	MinPasswordBytes int
	MaxPasswordBytes int
}

// DefaultConfig returns the OWASP-recommended Argon2id profile.
func DefaultConfig() Config {
	return Config{
		Memory:           64 * 1024,
		Time:             3,
		Parallelism:      2,
		SaltLength:       16,
		KeyLength:        32,
		MinPasswordBytes: DefaultMinPasswordBytes,
		MaxPasswordBytes: DefaultMaxPasswordBytes,
	}
}

// Argon2 hashes and verifies passwords. It is immutable after construction
// and safe for concurrent use.
type Argon2 struct {
	config Config
}

type phc struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	hash        []byte
}

// NewArgon2 validates cfg and returns a hasher. Zero length bounds fall back
// to the package defaults.
func NewArgon2(cfg Config) (*Argon2, error) {
	if cfg.MinPasswordBytes <= 0 {
		cfg.MinPasswordBytes = DefaultMinPasswordBytes
	}
	if cfg.MaxPasswordBytes <= 0 {
		cfg.MaxPasswordBytes = DefaultMaxPasswordBytes
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Argon2{config: cfg}, nil
}

// CheckPolicy reports whether password satisfies the configured length bounds.
// Lengths are measured in bytes with no Unicode normalization.
func (a *Argon2) CheckPolicy(password string) error {
	if len(password) < a.config.MinPasswordBytes {
		return ErrPasswordTooShort
	}
	if len(password) > a.config.MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// Hash derives a fresh salted PHC string for password.
func (a *Argon2) Hash(password string) (string, error) {
	if err := a.CheckPolicy(password); err != nil {
		return "", err
	}

	salt := make([]byte, a.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("password: read salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, a.config.Time, a.config.Memory, a.config.Parallelism, a.config.KeyLength)
	return encodePHC(phc{
		memory:      a.config.Memory,
		time:        a.config.Time,
		parallelism: a.config.Parallelism,
		salt:        salt,
		hash:        key,
	}), nil
}

// Verify reports whether password matches encodedHash in constant time.
// Over-long passwords are rejected before any key derivation.
func (a *Argon2) Verify(password, encodedHash string) (bool, error) {
	if len(password) > a.config.MaxPasswordBytes {
		return false, ErrPasswordTooLong
	}
	stored, err := decodePHC(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), stored.salt, stored.time, stored.memory, stored.parallelism, uint32(len(stored.hash)))
	return subtle.ConstantTimeCompare(computed, stored.hash) == 1, nil
}

// NeedsUpgrade reports whether encodedHash was produced with weaker cost
// parameters or a different key length than the current configuration.
func (a *Argon2) NeedsUpgrade(encodedHash string) (bool, error) {
	stored, err := decodePHC(encodedHash)
	if err != nil {
		return false, err
	}

	return a.config.Memory > stored.memory ||
		a.config.Time > stored.time ||
		a.config.Parallelism > stored.parallelism ||
		a.config.KeyLength != uint32(len(stored.hash)), nil
}

func encodePHC(p phc) string {
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		p.memory, p.time, p.parallelism,
		base64.RawStdEncoding.EncodeToString(p.salt),
		base64.RawStdEncoding.EncodeToString(p.hash),
	)
}

func decodePHC(encoded string) (phc, error) {
	var p phc

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != algorithmID {
		return p, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, fmt.Errorf("%w: unsupported version", ErrInvalidHash)
	}

	var parallelism uint32
	if n, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &parallelism); err != nil || n != 3 {
		return p, fmt.Errorf("%w: bad parameters", ErrInvalidHash)
	}
	if p.memory < minMemoryKB || p.time < minTimeCost || parallelism < uint32(minParallelism) || parallelism > 255 {
		return p, fmt.Errorf("%w: parameters out of range", ErrInvalidHash)
	}
	p.parallelism = uint8(parallelism)

	var err error
	if p.salt, err = decodeSegment(parts[4]); err != nil || len(p.salt) < int(minSaltLength) {
		return p, fmt.Errorf("%w: bad salt", ErrInvalidHash)
	}
	if p.hash, err = decodeSegment(parts[5]); err != nil || len(p.hash) == 0 {
		return p, fmt.Errorf("%w: bad key", ErrInvalidHash)
	}

	return p, nil
}

// decodeSegment accepts padded and unpadded standard base64.
func decodeSegment(s string) ([]byte, error) {
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

func (c Config) validate() error {
	switch {
	case c.Memory < minMemoryKB:
		return fmt.Errorf("%w: memory must be >= %d KB", ErrInvalidConfig, minMemoryKB)
	case c.Time < minTimeCost:
		return fmt.Errorf("%w: time must be >= %d", ErrInvalidConfig, minTimeCost)
	case c.Parallelism < minParallelism:
		return fmt.Errorf("%w: parallelism must be >= %d", ErrInvalidConfig, minParallelism)
	case c.SaltLength < minSaltLength:
		return fmt.Errorf("%w: salt length must be >= %d", ErrInvalidConfig, minSaltLength)
	case c.KeyLength < minKeyLength:
		return fmt.Errorf("%w: key length must be >= %d", ErrInvalidConfig, minKeyLength)
	case c.MaxPasswordBytes < c.MinPasswordBytes:
		return fmt.Errorf("%w: max password bytes below min", ErrInvalidConfig)
	}
	return nil
}
