package pdfops

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog/log"
)

// ArchiveBuffers bundles buffers into a ZIP whose entry i is named
// {baseName}_page_{i+1}.pdf.
func ArchiveBuffers(buffers [][]byte, baseName string) ([]byte, error) {
	pages := make([]PageDocument, len(buffers))
	for i, b := range buffers {
		pages[i] = PageDocument{Data: b, Index: i}
	}
	data, _, err := writeArchive(pages, baseName)
	return data, err
}

// ArchivePages bundles page documents into an archive called name. Pages are
// ordered by source index and each entry keeps its source page number, so an
// archive of a subset still names pages after their original position.
func ArchivePages(baseName, name string, pages []PageDocument) (*Archive, error) {
	sorted := make([]PageDocument, len(pages))
	copy(sorted, pages)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	data, entries, err := writeArchive(sorted, baseName)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("archive", name).Int("entries", len(entries)).Int("bytes", len(data)).Msg("archive built")
	return &Archive{Name: name, Entries: entries, Data: data, Digest: Digest(data)}, nil
}

// writeArchive builds the whole ZIP in memory. Entries carry no timestamps so
// identical pages yield identical archives.
func writeArchive(pages []PageDocument, baseName string) ([]byte, []ArchiveEntry, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	entries := make([]ArchiveEntry, 0, len(pages))
	seen := make(map[string]struct{}, len(pages))
	for _, p := range pages {
		name := EntryName(baseName, p.Index)
		if _, dup := seen[name]; dup {
			_ = zw.Close()
			return nil, nil, fmt.Errorf("%w: duplicate entry %s", ErrArchiveGeneration, name)
		}
		seen[name] = struct{}{}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
		if err != nil {
			_ = zw.Close()
			return nil, nil, fmt.Errorf("%w: %v", ErrArchiveGeneration, err)
		}
		if _, err := w.Write(p.Data); err != nil {
			_ = zw.Close()
			return nil, nil, fmt.Errorf("%w: %v", ErrArchiveGeneration, err)
		}
		entries = append(entries, ArchiveEntry{Name: name, Size: len(p.Data)})
	}
	if err := zw.Close(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrArchiveGeneration, err)
	}
	return buf.Bytes(), entries, nil
}
