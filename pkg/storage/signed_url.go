package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// SignedURLSigner creates and validates signed download tokens for stored objects.
type SignedURLSigner struct {
	secret  []byte
	ttl     time.Duration
	baseURL string
}

// NewSignedURLSigner constructs a signer with the provided secret, TTL and public base URL.
func NewSignedURLSigner(secret string, ttl time.Duration, baseURL string) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{
		secret:  []byte(secret),
		ttl:     ttl,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Generate returns a signed token referencing the object kind and path.
func (s *SignedURLSigner) Generate(kind, relPath string) (string, time.Time, error) {
	if kind == "" || relPath == "" {
		return "", time.Time{}, fmt.Errorf("kind and relPath required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := time.Now().Add(s.ttl)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(relPath))
	ts := fmt.Sprintf("%d", expiresAt.Unix())
	token := strings.Join([]string{kind, ts, encodedPath, s.sign(kind, ts, encodedPath)}, ".")
	return token, expiresAt, nil
}

// PublicURL signs relPath and returns an absolute download URL.
func (s *SignedURLSigner) PublicURL(kind, relPath string) (string, error) {
	token, _, err := s.Generate(kind, relPath)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/files/%s", s.baseURL, token), nil
}

// Parse validates a token and returns the embedded metadata.
// When allowExpired is true, the timestamp check is skipped.
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (kind, relPath string, expiresAt time.Time, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return "", "", time.Time{}, fmt.Errorf("invalid token format")
	}
	kind = parts[0]
	ts := parts[1]
	encodedPath := parts[2]
	signature := parts[3]

	rawPath, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("decode path: %w", err)
	}

	expUnix, err := parseUnix(ts)
	if err != nil {
		return "", "", time.Time{}, err
	}
	expiresAt = time.Unix(expUnix, 0)

	expected := s.sign(kind, ts, encodedPath)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return "", "", time.Time{}, fmt.Errorf("invalid token signature")
	}
	if !allowExpired && time.Now().After(expiresAt) {
		return "", "", time.Time{}, fmt.Errorf("token expired")
	}
	return kind, string(rawPath), expiresAt, nil
}

func (s *SignedURLSigner) sign(kind, ts, encodedPath string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(kind + "|" + ts + "|" + encodedPath))
	return hex.EncodeToString(mac.Sum(nil))
}

func parseUnix(raw string) (int64, error) {
	var ts int64
	_, err := fmt.Sscanf(raw, "%d", &ts)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp")
	}
	return ts, nil
}
