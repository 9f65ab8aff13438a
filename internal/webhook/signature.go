package webhook

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"strings"

	apperrors "easymo/pkg/errors"
)

type Algorithm string

const (
	AlgorithmSHA1   Algorithm = "sha1"
	AlgorithmSHA256 Algorithm = "sha256"
	AlgorithmSHA512 Algorithm = "sha512"
)

func (a Algorithm) hasher() func() hash.Hash {
	switch a {
	case AlgorithmSHA1:
		return sha1.New
	case AlgorithmSHA512:
		return sha512.New
	default:
		return sha256.New
	}
}

// Verifier validates provider deliveries against the configured signing
// secret. It distinguishes a missing header (rejected request) from a
// missing secret (operator misconfiguration), so the handler can answer
// 403 vs 500.
type Verifier struct {
	secret    string
	algorithm Algorithm
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret, algorithm: AlgorithmSHA256}
}

// Verify checks the signature header against the HMAC of the exact raw
// body bytes. The optional "<algo>=" prefix and surrounding whitespace are
// stripped before comparison.
func (v *Verifier) Verify(signatureHeader string, body []byte) error {
	header := strings.TrimSpace(signatureHeader)
	if header == "" {
		return apperrors.ErrSignatureMissing
	}
	if v.secret == "" {
		return apperrors.ErrConfiguration.WithDetail("missing", "signing secret")
	}

	if !VerifyHMAC(header, body, v.secret, v.algorithm) {
		return apperrors.ErrSignatureInvalid
	}
	return nil
}

// VerifyHMAC is the generic comparator: true iff signature equals the hex
// HMAC digest of body under secret for the given algorithm. Any mismatch
// in length or content is a plain false, never an error.
func VerifyHMAC(signature string, body []byte, secret string, algorithm Algorithm) bool {
	sig := strings.TrimSpace(signature)
	sig = strings.TrimPrefix(sig, string(algorithm)+"=")
	sig = strings.TrimSpace(sig)
	if sig == "" || secret == "" {
		return false
	}

	mac := hmac.New(algorithm.hasher(), []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	// Hex digests compare case-insensitively.
	return constantTimeEqual(strings.ToLower(sig), expected)
}

// constantTimeEqual compares two strings without short-circuiting on the
// first mismatch: the length check happens first, then every byte
// contributes to an accumulated OR of XORs.
func constantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	var diff byte
	for i := 0; i < len(a); i++ {
		diff |= a[i] ^ b[i]
	}
	return diff == 0
}
