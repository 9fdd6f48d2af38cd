package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Hash domains. The version suffix allows the algorithm to change later
// without old fingerprints silently matching new ones.
const (
	DomainEngineConfig = "synthsweep/engine-config/v1"
	DomainReport       = "synthsweep/report/v1"
	DomainDefinition   = "synthsweep/definition/v1"
)

// HashWithDomain computes SHA256(domain + 0x00 + data) as lowercase hex.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint canonically marshals v and hashes it under domain.
func Fingerprint(domain string, v any) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", domain, err)
	}
	return HashWithDomain(domain, data), nil
}
