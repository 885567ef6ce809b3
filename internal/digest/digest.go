package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/distype/distype/internal/model"
)

// DomainSnapshot separates snapshot digests from any other hash of the
// same bytes. The version suffix allows the algorithm to change.
const DomainSnapshot = "distype/snapshot/v1"

// Prefix marks the hash algorithm in rendered digests.
const Prefix = "sha256:"

// content is the part of a snapshot covered by the digest. The schema
// version is excluded because it changes on every open.
type content struct {
	Chats      []model.Chat     `json:"chats"`
	Categories []model.Category `json:"categories"`
	Settings   model.Settings   `json:"settings"`
}

// Snapshot returns the content digest of snap, e.g. "sha256:9f86d0...".
func Snapshot(snap model.Snapshot) (string, error) {
	canonical, err := Canonical(content{
		Chats:      snap.Chats,
		Categories: snap.Categories,
		Settings:   snap.Settings,
	})
	if err != nil {
		return "", fmt.Errorf("snapshot digest: %w", err)
	}
	return Prefix + hashWithDomain(DomainSnapshot, canonical), nil
}

// hashWithDomain computes SHA256(domain || 0x00 || data). The separator
// keeps the domain and data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
