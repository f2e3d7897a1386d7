package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func signCheckout(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyCheckoutSignature(t *testing.T) {
	const secret = "key-secret"
	sig := signCheckout("order_123", "pay_456", secret)

	if !VerifyCheckoutSignature("order_123", "pay_456", sig, secret) {
		t.Fatalf("expected valid signature to verify")
	}
	if VerifyCheckoutSignature("order_123", "pay_457", sig, secret) {
		t.Fatalf("signature must not verify for a different payment id")
	}
	if VerifyCheckoutSignature("order_123", "pay_456", sig, "other-secret") {
		t.Fatalf("signature must not verify under a different secret")
	}
}

func TestVerifyCheckoutSignature_SingleCharMutation(t *testing.T) {
	const secret = "key-secret"
	sig := signCheckout("order_123", "pay_456", secret)

	for i := 0; i < len(sig); i++ {
		mutated := []byte(sig)
		if mutated[i] == '0' {
			mutated[i] = '1'
		} else {
			mutated[i] = '0'
		}
		if VerifyCheckoutSignature("order_123", "pay_456", string(mutated), secret) {
			t.Fatalf("mutated signature at index %d must fail verification", i)
		}
	}
}

func TestVerifyCheckoutSignature_FailsClosed(t *testing.T) {
	sig := signCheckout("order_123", "pay_456", "key-secret")

	if VerifyCheckoutSignature("order_123", "pay_456", sig, "") {
		t.Fatalf("empty secret must never verify")
	}
	if VerifyCheckoutSignature("order_123", "pay_456", "", "key-secret") {
		t.Fatalf("empty signature must never verify")
	}
	if VerifyCheckoutSignature("order_123", "pay_456", "not-hex!!", "key-secret") {
		t.Fatalf("malformed hex must never verify")
	}
}

func TestVerifyWebhookSignature(t *testing.T) {
	payload := []byte(`{"event":"payment.captured"}`)
	const secret = "webhook-secret"

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	validSig := hex.EncodeToString(mac.Sum(nil))

	if !VerifyWebhookSignature(payload, validSig, secret) {
		t.Fatalf("expected signature to validate")
	}
	if VerifyWebhookSignature(payload, validSig, "") {
		t.Fatalf("empty secret must fail closed")
	}
	if VerifyWebhookSignature([]byte(`{"event":"payment.failed"}`), validSig, secret) {
		t.Fatalf("signature over a different body must fail")
	}
	if VerifyWebhookSignature(payload, "deadbeef", secret) {
		t.Fatalf("expected invalid signature to fail")
	}
}
