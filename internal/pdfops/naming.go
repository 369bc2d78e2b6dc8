package pdfops

import (
	"fmt"
	"strings"
)

const (
	defaultArchiveName  = "split-pages.zip"
	defaultSelectedBase = "doc"
	defaultMergedName   = "merged_document.pdf"
)

// BaseName strips a trailing ".pdf" (any case) from name.
func BaseName(name string) string {
	if len(name) >= 4 && strings.EqualFold(name[len(name)-4:], ".pdf") {
		return name[:len(name)-4]
	}
	return name
}

// PageNumber renders a 0-based index as the 1-based, two-digit page suffix.
func PageNumber(index int) string {
	return fmt.Sprintf("%02d", index+1)
}

// EntryName is the name of a page inside an archive: {base}_page_NN.pdf.
func EntryName(baseName string, index int) string {
	return BaseName(baseName) + "_page_" + PageNumber(index) + ".pdf"
}

// PageFileName is the download name of a single page: {base}_pNN.pdf.
func PageFileName(fileName string, index int) string {
	if fileName == "" {
		return "page_" + PageNumber(index) + ".pdf"
	}
	return BaseName(fileName) + "_p" + PageNumber(index) + ".pdf"
}

// ArchiveName is the download name of the whole-document archive.
func ArchiveName(fileName string) string {
	if fileName == "" {
		return defaultArchiveName
	}
	return BaseName(fileName) + ".zip"
}

// SelectedArchiveName is the download name of an archive holding count selected pages.
func SelectedArchiveName(fileName string, count int) string {
	base := BaseName(fileName)
	if base == "" {
		base = defaultSelectedBase
	}
	return fmt.Sprintf("%s_selected(%d).zip", base, count)
}

// MergedName returns the download name of a merged document. An empty name
// falls back to merged_document.pdf; a name without the extension gets one.
func MergedName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return defaultMergedName
	}
	if BaseName(name) == name {
		name += ".pdf"
	}
	return name
}
