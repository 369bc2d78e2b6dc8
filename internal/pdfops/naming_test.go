package pdfops

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNaming(t *testing.T) {
	assert.Equal(t, "report", BaseName("report.pdf"))
	assert.Equal(t, "report", BaseName("report.PDF"))
	assert.Equal(t, "report.pdf.bak", BaseName("report.pdf.bak"))
	assert.Equal(t, "notes", BaseName("notes"))

	assert.Equal(t, "report_page_01.pdf", EntryName("report.pdf", 0))
	assert.Equal(t, "report_page_10.pdf", EntryName("report", 9))
	assert.Equal(t, "report_page_100.pdf", EntryName("report", 99))

	assert.Equal(t, "report_p03.pdf", PageFileName("report.pdf", 2))
	assert.Equal(t, "page_03.pdf", PageFileName("", 2))

	assert.Equal(t, "report.zip", ArchiveName("report.Pdf"))
	assert.Equal(t, "split-pages.zip", ArchiveName(""))

	assert.Equal(t, "report_selected(2).zip", SelectedArchiveName("report.pdf", 2))
	assert.Equal(t, "doc_selected(1).zip", SelectedArchiveName("", 1))

	assert.Equal(t, "merged_document.pdf", MergedName(""))
	assert.Equal(t, "combined.pdf", MergedName("combined"))
	assert.Equal(t, "combined.PDF", MergedName(" combined.PDF "))
}
