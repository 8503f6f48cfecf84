package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidToken = errors.New("invalid cluster token")

const defaultTokenTTL = 5 * time.Minute

// HMACStrategy signs node ids with a shared cluster secret.
type HMACStrategy struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewHMACStrategy builds HMACStrategy. An empty secret disables signing.
func NewHMACStrategy(secret string, opts Options) *HMACStrategy {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &HMACStrategy{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Enabled reports whether a cluster secret is configured.
func (s *HMACStrategy) Enabled() bool {
	return len(s.secret) > 0
}

// IssueToken returns a signed token for nodeID, or an empty string when disabled.
func (s *HMACStrategy) IssueToken(nodeID int) (string, error) {
	if !s.Enabled() {
		return "", nil
	}
	payload := fmt.Sprintf("%d:%d", nodeID, s.now().Add(s.ttl).Unix())
	token := payload + ":" + s.sign(payload)
	return base64.RawURLEncoding.EncodeToString([]byte(token)), nil
}

// ParseToken validates token and returns the sender node id.
func (s *HMACStrategy) ParseToken(token string) (int, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, ErrInvalidToken
	}

	parts := strings.Split(string(raw), ":")
	if len(parts) != 3 {
		return 0, ErrInvalidToken
	}

	payload := parts[0] + ":" + parts[1]
	if !hmac.Equal([]byte(s.sign(payload)), []byte(parts[2])) {
		return 0, ErrInvalidToken
	}

	nodeID, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, ErrInvalidToken
	}

	expires, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || time.Unix(expires, 0).Before(s.now()) {
		return 0, ErrInvalidToken
	}

	return nodeID, nil
}

func (s *HMACStrategy) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
