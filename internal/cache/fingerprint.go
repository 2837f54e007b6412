package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// digestBytes is the truncated digest width: 128 bits rendered as hex.
// Collision resistance beyond accidental collisions is not a goal; the
// fingerprint must never be used for security purposes.
const digestBytes = 16

// Fingerprinter derives deterministic cache keys from a request's semantic
// parameters. Two semantically identical requests collide to the same key
// regardless of keyword-argument order, which is a correctness property:
// a silently order-dependent key collapses the hit rate without any error.
type Fingerprinter struct {
	enc cbor.EncMode
}

// fingerprintEnvelope is the canonical form that gets hashed. CBOR core
// deterministic encoding sorts map keys and tags every value with its type,
// so equivalent argument sets always serialize to identical bytes.
type fingerprintEnvelope struct {
	Operation string         `cbor:"op"`
	Args      []any          `cbor:"args,omitempty"`
	Kwargs    map[string]any `cbor:"kwargs,omitempty"`
}

// NewFingerprinter creates a Fingerprinter backed by CBOR core deterministic
// encoding.
func NewFingerprinter() (*Fingerprinter, error) {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to build deterministic encoder: %w", err)
	}
	return &Fingerprinter{enc: enc}, nil
}

// Fingerprint hashes the operation and its arguments into a cache key of the
// form "<namespace>:<operation>:<digest>". The namespace and operation stay
// readable in the key so pattern-based invalidation can target them.
func (f *Fingerprinter) Fingerprint(namespace, operation string, args []any, kwargs map[string]any) (string, error) {
	payload := fingerprintEnvelope{
		Operation: operation,
		Args:      args,
		Kwargs:    kwargs,
	}

	data, err := f.enc.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode fingerprint payload: %w", err)
	}

	sum := sha256.Sum256(data)
	return namespace + ":" + operation + ":" + hex.EncodeToString(sum[:digestBytes]), nil
}
