package security

import "golang.org/x/crypto/bcrypt"

// Hasher hashes and checks passwords with bcrypt at a fixed cost.
type Hasher struct {
	cost      int
	dummyHash []byte
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	// used to burn the same time on unknown accounts as on real ones
	dummy, _ := bcrypt.GenerateFromPassword([]byte("noteflow-dummy-password"), cost)

	return &Hasher{cost: cost, dummyHash: dummy}
}

// Hash password hashes a plain text password with bcrypt.
func (h *Hasher) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// Check compares a bcrypt hash with a plaintext password.
func (h *Hasher) Check(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

// CheckDummy runs a comparison that always fails.
func (h *Hasher) CheckDummy(plain string) {
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(plain))
}

// ErrPasswordTooLong is returned by Hash for inputs over bcrypt's 72 bytes.
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong
