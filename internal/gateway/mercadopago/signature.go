package mercadopago

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// ValidateSignature validates the x-signature header Mercado Pago sends
// with every webhook.
//
// The x-signature header contains: ts=<timestamp>,v1=<signature>
// The signature is HMAC-SHA256 of: id:<data.id>;request-id:<x-request-id>;ts:<timestamp>;
func ValidateSignature(xSignature, xRequestID, dataID, secret string) bool {
	if xSignature == "" || secret == "" {
		return false
	}

	ts, hash := parseSignatureHeader(xSignature)
	if ts == "" || hash == "" {
		return false
	}

	manifest := buildManifest(dataID, xRequestID, ts)
	expected := calculateHMAC(manifest, secret)

	return hmac.Equal([]byte(hash), []byte(expected))
}

// parseSignatureHeader extracts ts and v1 values from the x-signature header.
func parseSignatureHeader(header string) (ts, hash string) {
	tsRegex := regexp.MustCompile(`ts=([^,]+)`)
	v1Regex := regexp.MustCompile(`v1=([^,]+)`)

	if m := tsRegex.FindStringSubmatch(header); len(m) > 1 {
		ts = m[1]
	}
	if m := v1Regex.FindStringSubmatch(header); len(m) > 1 {
		hash = m[1]
	}
	return ts, hash
}

// buildManifest constructs the string to be signed.
func buildManifest(dataID, requestID, ts string) string {
	var parts []string
	if dataID != "" {
		parts = append(parts, "id:"+dataID)
	}
	if requestID != "" {
		parts = append(parts, "request-id:"+requestID)
	}
	if ts != "" {
		parts = append(parts, "ts:"+ts)
	}
	return strings.Join(parts, ";") + ";"
}

// calculateHMAC computes HMAC-SHA256 of the manifest.
func calculateHMAC(manifest, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(manifest))
	return hex.EncodeToString(h.Sum(nil))
}
