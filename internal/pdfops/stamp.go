package pdfops

import (
	"encoding/hex"
	"regexp"

	"golang.org/x/crypto/blake2b"
)

// pdfcpu stamps every written file with the current time in the Info
// dictionary and derives the file identifier from it. Both are rewritten in
// place with values of the same length, so cross-reference offsets stay valid.
var (
	infoDate  = regexp.MustCompile(`(/(?:CreationDate|ModDate)\s*\()D:\d{14}[+-]\d{2}'\d{2}'`)
	trailerID = regexp.MustCompile(`/ID\s*\[\s*<([0-9A-Fa-f]+)>\s*<([0-9A-Fa-f]+)>\s*\]`)
)

const fixedDate = "D:20000101000000+00'00'"

// stabilize makes writer output a pure function of its input: dates become
// fixedDate and both file identifiers are derived from seed.
func stabilize(data []byte, seed string) []byte {
	out := infoDate.ReplaceAll(data, []byte("${1}"+fixedDate))

	sum := blake2b.Sum256([]byte(seed))
	id := hex.EncodeToString(sum[:])
	for _, m := range trailerID.FindAllSubmatchIndex(out, -1) {
		for g := 1; g <= 2; g++ {
			start, end := m[2*g], m[2*g+1]
			for i := start; i < end; i++ {
				out[i] = id[(i-start)%len(id)]
			}
		}
	}
	return out
}
