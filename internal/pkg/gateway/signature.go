package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// VerifyCheckoutSignature checks the signature a client submits after
// completing checkout. The gateway signs `orderID|paymentID` with the key
// secret, HMAC-SHA256, hex encoded. Empty secret fails closed.
func VerifyCheckoutSignature(orderID, paymentID, signature, keySecret string) bool {
	secret := strings.TrimSpace(keySecret)
	if secret == "" || orderID == "" || paymentID == "" {
		return false
	}
	return verifyHexHMAC([]byte(orderID+"|"+paymentID), signature, secret)
}

// VerifyWebhookSignature checks the signature header of a webhook delivery
// against the raw, unparsed body bytes. The webhook secret is distinct from
// the checkout key secret. Empty secret fails closed.
func VerifyWebhookSignature(payload []byte, signatureHeader, webhookSecret string) bool {
	secret := strings.TrimSpace(webhookSecret)
	if secret == "" || len(payload) == 0 {
		return false
	}
	return verifyHexHMAC(payload, signatureHeader, secret)
}

func verifyHexHMAC(payload []byte, signature, secret string) bool {
	sig := strings.TrimSpace(signature)
	if sig == "" {
		return false
	}

	decodedSig, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), decodedSig)
}
