package pdfops

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Digest returns a hex content hash used as an entity tag for downloads.
func Digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:16])
}
