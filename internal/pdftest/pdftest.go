// Package pdftest builds small, valid PDF documents in memory for tests.
// Every page gets its own MediaBox so tests can tell pages apart by size.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

// Page describes one generated page, sized in PDF points.
type Page struct {
	Width  float64
	Height float64
	Label  string
}

// Landscape reports whether the page is wider than it is tall.
func (p Page) Landscape() bool { return p.Width > p.Height }

// Pages returns n portrait pages whose widths start at base and grow by ten
// points per page, so page i of the result has width base+10*i.
func Pages(n int, base float64) []Page {
	out := make([]Page, n)
	for i := range out {
		out[i] = Page{Width: base + float64(10*i), Height: 800, Label: fmt.Sprintf("page %d", i+1)}
	}
	return out
}

// Doc returns a document of n pages built with Pages(n, base).
func Doc(n int, base float64) []byte { return Build(Pages(n, base)...) }

// Build writes a PDF 1.4 file with one content stream per page and a shared
// Helvetica font, with a classic cross-reference table.
func Build(pages ...Page) []byte {
	// 1 catalog, 2 page tree, 3 font, then a page and its content per page.
	total := 3 + 2*len(pages)
	offsets := make([]int, total+1)

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")
	write := func(num int, body string) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	write(1, "<< /Type /Catalog /Pages 2 0 R >>")
	write(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	write(3, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	for i, p := range pages {
		obj := 4 + 2*i
		write(obj, fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %g %g] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			p.Width, p.Height, obj+1))
		stream := fmt.Sprintf("BT /F1 12 Tf 20 20 Td (%s) Tj ET", p.Label)
		write(obj+1, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", total+1)
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= total; i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", total+1, xref)
	return buf.Bytes()
}
