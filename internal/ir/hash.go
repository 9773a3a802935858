package ir

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainValue = "cable/value/v1"
	DomainGraph = "cable/graph/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ValueHash fingerprints a node value through its Describe rendering, so
// values without a JSON form still hash deterministically.
func ValueHash(v any) string {
	return hashWithDomain(DomainValue, []byte(Describe(v)))
}

// GraphHash fingerprints a graph shape. shape must be canonical-JSON
// encodable; cable graph passes node id -> kind and dependencies.
func GraphHash(shape any) (string, error) {
	data, err := MarshalCanonical(shape)
	if err != nil {
		return "", err
	}
	return hashWithDomain(DomainGraph, data), nil
}
