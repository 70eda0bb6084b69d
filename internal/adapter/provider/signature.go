package provider

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
)

// SignatureHeader carries the provider's keyed-hash signature of the raw
// webhook body.
const SignatureHeader = "X-Webhook-Signature"

// Signature computes the hex HMAC-SHA512 of body under secret.
func Signature(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches body under secret. The
// comparison is constant time; callers must not parse the body on a false
// return.
func VerifySignature(secret string, body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	expected := Signature(secret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// WebhookVerifier checks inbound webhook signatures against the shared
// provider secret without handing the secret itself around.
type WebhookVerifier struct {
	secret string
}

// NewWebhookVerifier creates a verifier bound to the provider secret.
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

// Verify reports whether signature matches body.
func (v *WebhookVerifier) Verify(body []byte, signature string) bool {
	return VerifySignature(v.secret, body, signature)
}
