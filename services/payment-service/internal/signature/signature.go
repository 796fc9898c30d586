// Package signature verifies Razorpay checkout callbacks. The signature is
// an HMAC-SHA256 of "<order_id>|<payment_id>" keyed with the API secret,
// transmitted as lowercase hex.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

func Compute(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether the provided signature matches the expected HMAC.
// Comparison is constant time.
func Verify(orderID, paymentID, provided, secret string) bool {
	if orderID == "" || paymentID == "" || provided == "" {
		return false
	}
	expected := Compute(orderID, paymentID, secret)
	return hmac.Equal([]byte(expected), []byte(provided))
}
