// Package auth guards the two HTTP entry points: the admin API, which
// requires a bearer token, and the chat webhook, whose requests are
// signed by the chat platform with a shared secret.
package auth

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Admin bearer token                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// RequireAdminToken rejects requests whose Authorization header does not
// carry "Bearer <token>". An empty token rejects every request.
func RequireAdminToken(token string, logger *zap.Logger) func(http.Handler) http.Handler {
	want := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := bearer(r)
			if !ok || len(want) == 0 || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				logger.Warn("admin request rejected",
					zap.String("path", r.URL.Path),
					zap.Bool("header_present", ok))
				deny(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(h[len(prefix):]), true
}

/*─────────────────────────────────────────────────────────────────────────────*
| Chat request signatures                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	SignatureHeader = "X-Slack-Signature"
	TimestampHeader = "X-Slack-Request-Timestamp"

	signatureVersion = "v0"
	maxSkew          = 5 * time.Minute
	maxBody          = 1 << 20
)

var (
	ErrMissingSignature = errors.New("auth: missing request signature")
	ErrStaleRequest     = errors.New("auth: request timestamp outside allowed window")
	ErrBadSignature     = errors.New("auth: request signature mismatch")
)

// Sign computes the signature header value for body sent at ts.
func Sign(secret string, ts int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signatureVersion + ":" + strconv.FormatInt(ts, 10) + ":"))
	mac.Write(body)
	return signatureVersion + "=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signed request body against its headers.
func Verify(secret string, h http.Header, body []byte, now time.Time) error {
	sig := h.Get(SignatureHeader)
	tsRaw := h.Get(TimestampHeader)
	if sig == "" || tsRaw == "" {
		return ErrMissingSignature
	}
	ts, err := strconv.ParseInt(tsRaw, 10, 64)
	if err != nil {
		return ErrMissingSignature
	}
	if d := now.Sub(time.Unix(ts, 0)); d > maxSkew || d < -maxSkew {
		return ErrStaleRequest
	}
	if !hmac.Equal([]byte(sig), []byte(Sign(secret, ts, body))) {
		return ErrBadSignature
	}
	return nil
}

// VerifyChatSignature rejects webhook requests that are not signed with
// secret. The body is read, checked and put back for the next handler.
// With an empty secret the check is skipped.
func VerifyChatSignature(secret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			logger.Warn("chat signing secret not set; webhook signatures are not checked")
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
			if err != nil {
				deny(w, http.StatusBadRequest, "unreadable body")
				return
			}
			_ = r.Body.Close()

			if err := Verify(secret, r.Header, body, time.Now()); err != nil {
				logger.Warn("chat request rejected", zap.Error(err))
				deny(w, http.StatusUnauthorized, "invalid signature")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
