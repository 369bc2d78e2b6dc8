package pdfops

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PageInfo holds the display geometry of one page, in PDF points.
type PageInfo struct {
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Landscape bool    `json:"landscape"`
}

// Info is the result of inspecting a document: page count and orientation.
type Info struct {
	PageCount int        `json:"page_count"`
	Pages     []PageInfo `json:"pages"`
}

// Inspect reads the page count and per-page dimensions of a PDF.
func Inspect(data []byte) (*Info, error) {
	dims, err := api.PageDims(bytes.NewReader(data), newConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}
	info := &Info{PageCount: len(dims), Pages: make([]PageInfo, len(dims))}
	for i, d := range dims {
		info.Pages[i] = PageInfo{Width: d.Width, Height: d.Height, Landscape: d.Width > d.Height}
	}
	return info, nil
}
