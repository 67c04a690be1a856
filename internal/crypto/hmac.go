// Package crypto holds request-signing helpers for authenticated exchange
// APIs.
package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// HMACAuth holds the credentials for HMAC-authenticated REST requests.
type HMACAuth struct {
	Key    string // API key, sent in a header
	Secret string // API secret, used as the HMAC key
}

// SignHex computes HMAC-SHA256 of payload using the secret and returns the
// result hex-encoded, the form Binance expects in the "signature" query
// parameter.
func (h *HMACAuth) SignHex(payload string) string {
	mac := hmac.New(sha256.New, []byte(h.Secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// TimestampMillis returns the current Unix epoch time in milliseconds as a
// decimal string.
func TimestampMillis() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}

// String returns a redacted representation suitable for logging.
func (h *HMACAuth) String() string {
	redact := func(s string) string {
		if len(s) <= 4 {
			return "****"
		}
		return s[:4] + "****"
	}
	return fmt.Sprintf("HMACAuth{key=%s, secret=%s}", redact(h.Key), redact(h.Secret))
}
