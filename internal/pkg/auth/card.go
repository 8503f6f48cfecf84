package auth

import "golang.org/x/crypto/bcrypt"

// CardHasher turns raw card numbers into one-way fingerprints.
type CardHasher interface {
	Fingerprint(number string) (string, error)
	Matches(fingerprint, number string) bool
}

// BcryptCardHasher fingerprints card numbers with bcrypt.
type BcryptCardHasher struct {
	cost int
}

// NewBcryptCardHasher creates BcryptCardHasher with provided cost.
func NewBcryptCardHasher(cost int) *BcryptCardHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptCardHasher{cost: cost}
}

func (h *BcryptCardHasher) Fingerprint(number string) (string, error) {
	encoded, err := bcrypt.GenerateFromPassword([]byte(number), h.cost)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func (h *BcryptCardHasher) Matches(fingerprint, number string) bool {
	return bcrypt.CompareHashAndPassword([]byte(fingerprint), []byte(number)) == nil
}
