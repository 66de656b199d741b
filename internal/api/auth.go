package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"net/http"
	"strconv"
	"time"
)

const controlTimestampSkew = 300 * time.Second

// requireControlAuth gates the protected /v1/control/* endpoints: a bearer
// token match, a timestamp within +/-300s of now, and an HMAC-SHA256
// signature over "METHOD\nORIGINAL_PATH\nTS\n" (the empty trailing segment
// is the canonicalized empty body — these control endpoints take no body).
// Any mismatch is a 401, with no distinction given to the caller about
// which check failed.
func requireControlAuth(token, secret string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if len(auth) <= len(prefix) || auth[:len(prefix)] != prefix || auth[len(prefix):] != token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		tsHeader := r.Header.Get("x-vvtv-ts")
		ts, err := strconv.ParseInt(tsHeader, 10, 64)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if math.Abs(float64(time.Now().Unix()-ts)) > controlTimestampSkew.Seconds() {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		expected := signControlRequest(secret, r.Method, r.URL.Path, tsHeader)
		got := r.Header.Get("x-vvtv-signature")
		if !hmac.Equal([]byte(expected), []byte(got)) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		next(w, r)
	}
}

// signControlRequest computes the control-endpoint signature, distinct
// from controlagent.Sign's outbound-RPC canonical form: this one's body
// segment is always empty (these endpoints never read a request body).
func signControlRequest(secret, method, path, ts string) string {
	canonical := method + "\n" + path + "\n" + ts + "\n"
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}
