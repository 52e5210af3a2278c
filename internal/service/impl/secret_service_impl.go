package impl

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"

	"golang.org/x/crypto/argon2"
)

type Argon2Params struct {
	// Stored alongside the hash so verification uses the original cost.
	Time    uint32 `json:"t"` // iterations
	Memory  uint32 `json:"m"` // KiB
	Threads uint8  `json:"p"` // parallelism
	KeyLen  uint32 `json:"k"` // bytes
	SaltLen uint32 `json:"s"` // bytes
}

// SecretServiceImpl mints the per-car shared secret at registration and
// verifies presented secrets against the stored argon2id hash.
type SecretServiceImpl struct {
	cur        Argon2Params
	plainBytes int
}

func NewSecretServiceArgon2id() *SecretServiceImpl {
	return &SecretServiceImpl{
		plainBytes: 24,
		cur: Argon2Params{
			Time:    3,
			Memory:  64 * 1024, // 64 MiB
			Threads: 1,
			KeyLen:  32,
			SaltLen: 16,
		},
	}
}

func (s *SecretServiceImpl) Generate() (plaintext string, hash, salt, paramsJSON []byte, err error) {
	raw := make([]byte, s.plainBytes)
	if _, err = rand.Read(raw); err != nil {
		return "", nil, nil, nil, err
	}
	plaintext = base64.RawURLEncoding.EncodeToString(raw)

	salt = make([]byte, s.cur.SaltLen)
	if _, err = rand.Read(salt); err != nil {
		return "", nil, nil, nil, err
	}
	hash = argon2.IDKey([]byte(plaintext), salt, s.cur.Time, s.cur.Memory, s.cur.Threads, s.cur.KeyLen)
	paramsJSON, err = json.Marshal(s.cur)
	if err != nil {
		return "", nil, nil, nil, err
	}
	return plaintext, hash, salt, paramsJSON, nil
}

func (s *SecretServiceImpl) Verify(plaintext string, hash, salt, paramsJSON []byte) bool {
	var stored Argon2Params
	if err := json.Unmarshal(paramsJSON, &stored); err != nil {
		return false
	}
	calculated := argon2.IDKey([]byte(plaintext), salt, stored.Time, stored.Memory, stored.Threads, stored.KeyLen)
	return subtle.ConstantTimeCompare(calculated, hash) == 1
}
