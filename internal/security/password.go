// Package security содержит хеширование паролей и генерацию кодов.
package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argon2Variant = "argon2id"
	argon2Version = "v=19"
)

// ErrInvalidHash возвращается для строки хеша неизвестного формата.
var ErrInvalidHash = errors.New("argon2: invalid encoded hash format")

// Params задаёт параметры Argon2id.
type Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams задаёт параметры хеширования по умолчанию.
var DefaultParams = Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// Hasher хеширует и проверяет пароли.
type Hasher struct {
	params Params
}

// NewHasher создаёт Hasher с указанными параметрами.
func NewHasher(p Params) *Hasher {
	return &Hasher{params: p}
}

// Hash возвращает строку вида argon2id$v=19$m=..,t=..,p=..$<salt>$<hash>.
func (h *Hasher) Hash(password string) (string, error) {
	p := h.params

	salt := make([]byte, p.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("argon2: generate salt: %w", err)
	}

	sum := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)

	return strings.Join([]string{
		argon2Variant,
		argon2Version,
		fmt.Sprintf("m=%d,t=%d,p=%d", p.Memory, p.Iterations, p.Parallelism),
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	}, "$"), nil
}

// Verify сравнивает пароль с сохранённым хешем за постоянное время.
func (h *Hasher) Verify(password, encoded string) (bool, error) {
	if encoded == "" {
		return false, nil
	}

	parts := strings.Split(encoded, "$")
	if len(parts) != 5 || parts[0] != argon2Variant || parts[1] != argon2Version {
		return false, ErrInvalidHash
	}

	var (
		memory, iterations uint64
		parallelism        uint64
	)
	for _, kv := range strings.Split(parts[2], ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return false, ErrInvalidHash
		}
		var err error
		switch k {
		case "m":
			memory, err = strconv.ParseUint(v, 10, 32)
		case "t":
			iterations, err = strconv.ParseUint(v, 10, 32)
		case "p":
			parallelism, err = strconv.ParseUint(v, 10, 8)
		default:
			return false, ErrInvalidHash
		}
		if err != nil {
			return false, fmt.Errorf("argon2: parse %s: %w", k, err)
		}
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return false, fmt.Errorf("argon2: decode salt: %w", err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("argon2: decode hash: %w", err)
	}

	computed := argon2.IDKey([]byte(password), salt, uint32(iterations), uint32(memory), uint8(parallelism), uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}
