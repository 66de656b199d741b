// Package controlagent is the signed outbound RPC client talking to the
// external cloud control plane: HMAC request signing, bounded exponential
// backoff, and a process-wide circuit breaker guard every call.
package controlagent

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Sign computes the hex-lowercase HMAC-SHA256 over the canonical,
// LF-joined "METHOD\nPATH\nTIMESTAMP\nBODY". Matches the cloud side's own
// verifier byte for byte — any difference in method, path, timestamp, or
// body produces a different signature.
func Sign(secret, method, path string, timestamp int64, body string) string {
	canonical := strings.Join([]string{method, path, strconv.FormatInt(timestamp, 10), body}, "\n")
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}
