// Package pdfops holds the document transformations: splitting a PDF into
// single-page documents, bundling pages into ZIP archives and merging PDFs.
// PDF object-model work is delegated to pdfcpu.
package pdfops

// MediaTypePDF is the declared media type of every document handled here.
const MediaTypePDF = "application/pdf"

// SourceDocument is an uploaded PDF. It is never mutated.
type SourceDocument struct {
	Name      string
	Data      []byte
	PageCount int
	MediaType string
	Size      int64
}

// PageDocument is one extracted page, a standalone single-page PDF.
type PageDocument struct {
	Data      []byte
	Index     int // 0-based position in the source
	Name      string
	Landscape bool
	Digest    string
}

// Number is the 1-based page number shown to users.
func (p PageDocument) Number() int { return p.Index + 1 }

// ArchiveEntry describes one file stored in an Archive.
type ArchiveEntry struct {
	Name string
	Size int
}

// Archive is an in-memory ZIP of page documents.
type Archive struct {
	Name    string
	Entries []ArchiveEntry
	Data    []byte
	Digest  string
}

// MergedDocument is the concatenation of several source documents.
type MergedDocument struct {
	Name      string
	Data      []byte
	PageCount int
	Digest    string
}

// NewPageDocuments wraps split output into page documents named after the
// source file. info may be nil; orientation is then left unset.
func NewPageDocuments(sourceName string, buffers [][]byte, info *Info) []PageDocument {
	pages := make([]PageDocument, len(buffers))
	for i, b := range buffers {
		pages[i] = PageDocument{
			Data:   b,
			Index:  i,
			Name:   PageFileName(sourceName, i),
			Digest: Digest(b),
		}
		if info != nil && i < len(info.Pages) {
			pages[i].Landscape = info.Pages[i].Landscape
		}
	}
	return pages
}
