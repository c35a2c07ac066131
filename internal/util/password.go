package util

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/njprem/web-starter-api/internal/domain"
)

const (
	DefaultArgonTime    = 2
	DefaultArgonMemory  = 100 * 1024
	DefaultArgonThreads = 8
	DefaultHashLength   = 32
	DefaultSaltLength   = 16

	argonPrefix = "$argon2id$"
)

// HasherConfig holds argon2id cost parameters. MemoryCost is in KiB. Zero
// fields fall back to the defaults above.
type HasherConfig struct {
	TimeCost    uint32
	MemoryCost  uint32
	Parallelism uint8
	HashLength  uint32
	SaltLength  uint32
}

func (c HasherConfig) withDefaults() HasherConfig {
	if c.TimeCost == 0 {
		c.TimeCost = DefaultArgonTime
	}
	if c.MemoryCost == 0 {
		c.MemoryCost = DefaultArgonMemory
	}
	if c.Parallelism == 0 {
		c.Parallelism = DefaultArgonThreads
	}
	if c.HashLength == 0 {
		c.HashLength = DefaultHashLength
	}
	if c.SaltLength == 0 {
		c.SaltLength = DefaultSaltLength
	}
	return c
}

// PasswordHasher hashes credentials with argon2id and encodes them in PHC
// form: $argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>.
// It is safe for concurrent use.
type PasswordHasher struct {
	cfg HasherConfig
}

func NewPasswordHasher(cfg HasherConfig) *PasswordHasher {
	return &PasswordHasher{cfg: cfg.withDefaults()}
}

func (h *PasswordHasher) Config() HasherConfig {
	return h.cfg
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	if len(password) == 0 {
		return "", domain.Invalid("password", "password cannot be empty")
	}
	salt := make([]byte, h.cfg.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(password), salt, h.cfg.TimeCost, h.cfg.MemoryCost, h.cfg.Parallelism, h.cfg.HashLength)
	return encodeHash(h.cfg.MemoryCost, h.cfg.TimeCost, h.cfg.Parallelism, salt, key), nil
}

// Verify never returns an error: empty input, malformed hashes and
// mismatches all report false.
func (h *PasswordHasher) Verify(password, hashed string) bool {
	if len(password) == 0 || len(hashed) == 0 {
		return false
	}
	params, err := decodeHash(hashed)
	if err != nil {
		return false
	}
	candidate := argon2.IDKey([]byte(password), params.salt, params.time, params.memory, params.threads, uint32(len(params.key)))
	return subtle.ConstantTimeCompare(candidate, params.key) == 1
}

// NeedsUpdate reports whether hashed was produced with weaker parameters than
// the current configuration or is not a recognised argon2id hash.
func (h *PasswordHasher) NeedsUpdate(hashed string) bool {
	params, err := decodeHash(hashed)
	if err != nil {
		return true
	}
	if params.version != argon2.Version {
		return true
	}
	return params.time < h.cfg.TimeCost ||
		params.memory < h.cfg.MemoryCost ||
		params.threads < h.cfg.Parallelism ||
		uint32(len(params.key)) < h.cfg.HashLength ||
		uint32(len(params.salt)) < h.cfg.SaltLength
}

// VerifyAndUpdate returns a replacement hash only when the password matches
// and the stored hash is outdated. The caller persists it.
func (h *PasswordHasher) VerifyAndUpdate(password, hashed string) (bool, string) {
	if !h.Verify(password, hashed) {
		return false, ""
	}
	if !h.NeedsUpdate(hashed) {
		return true, ""
	}
	fresh, err := h.Hash(password)
	if err != nil {
		return true, ""
	}
	return true, fresh
}

type hashParams struct {
	version int
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func encodeHash(memory, time uint32, threads uint8, salt, key []byte) string {
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		memory,
		time,
		threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
}

func decodeHash(encoded string) (*hashParams, error) {
	if !strings.HasPrefix(encoded, argonPrefix) {
		return nil, fmt.Errorf("unsupported hash format")
	}
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return nil, fmt.Errorf("invalid hash format")
	}

	var p hashParams
	if _, err := fmt.Sscanf(parts[2], "v=%d", &p.version); err != nil {
		return nil, fmt.Errorf("invalid hash version: %w", err)
	}

	var threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &threads); err != nil {
		return nil, fmt.Errorf("invalid hash parameters: %w", err)
	}
	if threads == 0 || threads > 255 {
		return nil, fmt.Errorf("invalid parallelism %d", threads)
	}
	if p.time == 0 || p.memory == 0 {
		return nil, fmt.Errorf("invalid cost parameters")
	}
	p.threads = uint8(threads)

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, fmt.Errorf("invalid salt: %w", err)
	}
	if p.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, fmt.Errorf("invalid hash: %w", err)
	}
	if len(p.key) == 0 || len(p.key) > 1<<10 {
		return nil, fmt.Errorf("invalid hash length %d", len(p.key))
	}
	return &p, nil
}
