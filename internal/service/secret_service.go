package service

// SecretService generates and verifies per-car shared secrets. The plaintext
// leaves the process exactly once, at registration.
type SecretService interface {
	Generate() (plaintext string, hash, salt, paramsJSON []byte, err error)
	Verify(plaintext string, hash, salt, paramsJSON []byte) bool
}
