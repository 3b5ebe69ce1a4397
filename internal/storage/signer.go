package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

var (
	ErrTokenExpired = errors.New("signed url expired")
	ErrBadSignature = errors.New("signed url signature mismatch")
)

// Signer mints and checks the HMAC tokens behind signed chunk URLs. Expiry
// is part of the signed material, so a tampered deadline fails the signature
// check rather than the clock check.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Token returns the retrieval token for key, valid until expires.
func (s *Signer) Token(key string, expires time.Time) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s\n%d", key, expires.Unix())
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks token against key and its embedded expiry.
func (s *Signer) Verify(key, token string, expires time.Time, now time.Time) error {
	want := s.Token(key, expires)
	if !hmac.Equal([]byte(want), []byte(token)) {
		return ErrBadSignature
	}
	if now.After(expires) {
		return ErrTokenExpired
	}
	return nil
}

// signedURL builds the retrieval URL a Gateway hands out for key. The URL
// points back at the relay's chunk route; the session and chunk name become
// path segments and the token rides in the query string.
func signedURL(signer *Signer, baseURL, key string, ttl time.Duration, now time.Time) string {
	expires := now.Add(ttl)
	session, name, _ := strings.Cut(key, "/")
	return fmt.Sprintf("%s/api/chunks/%s/%s?expires=%d&token=%s",
		strings.TrimRight(baseURL, "/"),
		url.PathEscape(session),
		url.PathEscape(name),
		expires.Unix(),
		signer.Token(key, expires))
}
