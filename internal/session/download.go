package session

import (
	"fmt"
	"sort"
	"time"

	"github.com/local/pdfsplitter/internal/metrics"
	"github.com/local/pdfsplitter/internal/pdfops"
)

const (
	contentTypeZIP = "application/zip"
	contentTypePDF = pdfops.MediaTypePDF
)

// Download is a file ready to hand to the user.
type Download struct {
	Name        string
	ContentType string
	Data        []byte
	Digest      string
}

// DownloadAll returns the whole result: the page archive of a split, or the
// merged document.
func (s *Session) DownloadAll() (*Download, error) {
	res, err := s.result()
	if err != nil {
		return nil, err
	}
	switch r := res.(type) {
	case *SplitResult:
		return &Download{Name: r.Archive.Name, ContentType: contentTypeZIP, Data: r.Archive.Data, Digest: r.Archive.Digest}, nil
	case *MergeResult:
		d := r.Document
		return &Download{Name: d.Name, ContentType: contentTypePDF, Data: d.Data, Digest: d.Digest}, nil
	}
	return nil, fmt.Errorf("%w: unknown result", ErrInvalidState)
}

// DownloadPage returns one page of a split by 0-based index.
func (s *Session) DownloadPage(index int) (*Download, error) {
	sr, err := s.splitResult()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(sr.Pages) {
		return nil, fmt.Errorf("%w: page %d of %d", ErrInvalidSelection, index+1, len(sr.Pages))
	}
	p := sr.Pages[index]
	return &Download{Name: p.Name, ContentType: contentTypePDF, Data: p.Data, Digest: p.Digest}, nil
}

// DownloadSelected archives the chosen pages (0-based indices). Duplicates
// collapse; entries keep their original page numbers.
func (s *Session) DownloadSelected(indices []int) (*Download, error) {
	if len(indices) == 0 {
		return nil, ErrEmptySelection
	}
	sr, err := s.splitResult()
	if err != nil {
		return nil, err
	}

	seen := make(map[int]struct{}, len(indices))
	picked := make([]pdfops.PageDocument, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(sr.Pages) {
			return nil, fmt.Errorf("%w: page %d of %d", ErrInvalidSelection, i+1, len(sr.Pages))
		}
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		picked = append(picked, sr.Pages[i])
	}
	sort.Slice(picked, func(a, b int) bool { return picked[a].Index < picked[b].Index })

	name := sr.Source.Name
	start := time.Now()
	archive, err := pdfops.ArchivePages(name, pdfops.SelectedArchiveName(name, len(picked)), picked)
	metrics.ObserveOperation("archive_selected", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	return &Download{Name: archive.Name, ContentType: contentTypeZIP, Data: archive.Data, Digest: archive.Digest}, nil
}

func (s *Session) result() (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.expectLocked(KindCompleted); err != nil {
		return nil, err
	}
	return s.state.(Completed).Result, nil
}

func (s *Session) splitResult() (*SplitResult, error) {
	res, err := s.result()
	if err != nil {
		return nil, err
	}
	sr, ok := res.(*SplitResult)
	if !ok {
		return nil, fmt.Errorf("%w: result is a %s", ErrInvalidState, res.Mode())
	}
	return sr, nil
}
