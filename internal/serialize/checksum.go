package serialize

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/presidioforts/PR-Diff-Ingestion/internal/diffmodel"
)

// crypto/sha256 is used directly rather than through a third-party hashing
// library: the checksum algorithm is a fixed constant (SHA-256), not a
// pluggable concern, and the standard library implementation is what every
// consumer verifying the checksum independently will also reach for.

// Payload canonicalizes p twice: once with provenance.checksum forced to
// empty so the digest does not depend on itself, then again with the real
// digest in place. It returns the final serialized text and the checksum
// that was embedded in it.
func Payload(p diffmodel.Payload) (serialized string, checksum string, err error) {
	unchecksummed := p
	unchecksummed.Provenance.Checksum = ""

	firstPass, err := Encode(buildPayload(unchecksummed))
	if err != nil {
		return "", "", err
	}

	sum := sha256.Sum256([]byte(firstPass))
	checksum = hex.EncodeToString(sum[:])

	finalPayload := p
	finalPayload.Provenance.Checksum = checksum
	final, err := Encode(buildPayload(finalPayload))
	if err != nil {
		return "", "", err
	}

	return final, checksum, nil
}

// Envelope canonicalizes a full, already-checksummed Envelope. Use Payload
// first to compute and embed the checksum on a success envelope; Envelope is
// the final encode step for both success and failure envelopes.
func Envelope(e diffmodel.Envelope) (string, error) {
	return Encode(BuildEnvelope(e))
}
