package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for algorithm migration.
const (
	DomainTactic   = "cnl/tactic/v1"
	DomainDocument = "cnl/document/v1"
	DomainChunk    = "cnl/chunk/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TacticID computes the identity of a tactic from its canonical source
// text. Sources equal after NFC normalization share an ID.
func TacticID(source string) string {
	canonical, err := MarshalCanonical(source)
	if err != nil {
		// strings always marshal
		panic(fmt.Sprintf("TacticID: %v", err))
	}
	return hashWithDomain(DomainTactic, canonical)
}

// DocumentHash computes the content hash of a document's source text.
func DocumentHash(source string) string {
	canonical, err := MarshalCanonical(source)
	if err != nil {
		panic(fmt.Sprintf("DocumentHash: %v", err))
	}
	return hashWithDomain(DomainDocument, canonical)
}

// ChunkID computes the identity of one chunk of a checked document.
// Returns error if values cannot be canonically marshaled.
func ChunkID(documentID string, index int, kind, tacticID string, values Values) (string, error) {
	if values == nil {
		values = Values{}
	}
	canonical, err := MarshalCanonical(map[string]any{
		"document_id": documentID,
		"index":       index,
		"kind":        kind,
		"tactic_id":   tacticID,
		"values":      values,
	})
	if err != nil {
		return "", fmt.Errorf("ChunkID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainChunk, canonical), nil
}
