package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/worldcheck-sorter/constants"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/classify"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/extract"
)

type stubRunner struct {
	stdout []byte
	err    error
	calls  [][]string
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.calls = append(s.calls, append([]string{name}, args...))
	return s.stdout, []byte("stub stderr"), s.err
}

func garbageFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(path, []byte("definitely not a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// writeTextPDF writes a one-page PDF that places each line with a Td move, the way report
// generators lay out text.
func writeTextPDF(t *testing.T, lines ...string) string {
	t.Helper()
	var content strings.Builder
	content.WriteString("BT\n/F1 12 Tf\n72 740 Td\n")
	for i, l := range lines {
		if i > 0 {
			content.WriteString("0 -16 Td\n")
		}
		l = strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(l)
		fmt.Fprintf(&content, "(%s) Tj\n", l)
	}
	content.WriteString("ET\n")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	path := filepath.Join(t.TempDir(), "report.pdf")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNativeKeepsLineBreaks(t *testing.T) {
	path := writeTextPDF(t,
		"WORLD-CHECK One",
		constants.MarkerMatchDetails,
		constants.MarkerCaseComparison,
		"Name John Smith",
		constants.MarkerKeyData,
	)
	// a failing runner proves the native reader produced the text
	e := newExtractor(Config{Backend: BackendAuto}, &stubRunner{err: errors.New("not installed")}, nil)

	pages, err := e.PageTexts(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	want := "WORLD-CHECK One\nWORLD-CHECK MATCH DETAILS REPORT\nCASE AND COMPARISON DATA\nName John Smith\nKEY DATA"
	if len(pages) != 1 || pages[0] != want {
		t.Fatalf("pages = %q, want %q", pages, []string{want})
	}

	line, ok := extract.NameLine(extract.JoinPages(pages))
	if !ok || line != "Name John Smith" {
		t.Errorf("NameLine = %q, %v", line, ok)
	}
	if got := extract.ResolveName(line); got != "John Smith" {
		t.Errorf("ResolveName = %q", got)
	}
}

func TestNativeUnresolvedCountStaysOnItsLine(t *testing.T) {
	path := writeTextPDF(t, "WORLD-CHECK One", constants.MarkerCaseReport, "Unresolved Matches 0", "012 Alerts", "Name Jane Roe")
	e := newExtractor(Config{Backend: BackendNative}, &stubRunner{}, nil)

	first, err := e.FirstPageText(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if !classify.Screen(first) {
		t.Fatalf("screen rejected %q", first)
	}
	if got := classify.Classify(first); got != constants.CategoryNoMatch {
		t.Errorf("Classify = %s, want %s", got, constants.CategoryNoMatch)
	}
}

func TestPageTextLayout(t *testing.T) {
	glyph := func(s string, x, y, w float64) pdf.Text {
		return pdf.Text{FontSize: 10, X: x, Y: y, W: w, S: s}
	}
	tests := []struct {
		name   string
		glyphs []pdf.Text
		want   string
	}{
		{"top to bottom", []pdf.Text{glyph("b", 10, 100, 5), glyph("a", 10, 200, 5)}, "a\nb"},
		{"left to right", []pdf.Text{glyph("y", 20, 100, 5), glyph("x", 10, 100, 5)}, "xy"},
		{"baseline jitter", []pdf.Text{glyph("x", 10, 100, 5), glyph("y", 15, 101, 5)}, "xy"},
		{"gap becomes space", []pdf.Text{glyph("Name", 10, 100, 20), glyph("ACME", 60, 100, 20)}, "Name ACME"},
		{"explicit space kept once", []pdf.Text{glyph("a", 10, 100, 5), glyph(" ", 15, 100, 3), glyph("b", 40, 100, 5)}, "a b"},
		{"zero width run", []pdf.Text{glyph("a", 10, 100, 0), glyph("b", 10, 100, 0)}, "ab"},
		{"line feeds dropped", []pdf.Text{glyph("a", 10, 100, 5), glyph("\n", 15, 100, 0)}, "a"},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pageText(tt.glyphs); got != tt.want {
				t.Errorf("pageText = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSplitPages(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"one\f", []string{"one"}},
		{"one\ftwo\f", []string{"one", "two"}},
		{"one\f\fthree\f", []string{"one", "", "three"}},
		{"no feed", []string{"no feed"}},
	}
	for _, tt := range tests {
		if got := splitPages(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("splitPages(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPdftotextBackend(t *testing.T) {
	r := &stubRunner{stdout: []byte("WORLD-CHECK page one\fpage two\f")}
	e := newExtractor(Config{Backend: BackendPdftotext, Pdftotext: "/opt/bin/pdftotext"}, r, nil)

	first, err := e.FirstPageText(context.Background(), "/in/report.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if first != "WORLD-CHECK page one" {
		t.Errorf("first page = %q", first)
	}
	want := []string{"/opt/bin/pdftotext", "-layout", "-enc", "UTF-8", "-eol", "unix", "-f", "1", "-l", "1", "/in/report.pdf", "-"}
	if !slices.Equal(r.calls[0], want) {
		t.Errorf("args = %q, want %q", r.calls[0], want)
	}

	pages, err := e.PageTexts(context.Background(), "/in/report.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 2 || pages[1] != "page two" {
		t.Errorf("pages = %q", pages)
	}
	if slices.Contains(r.calls[1], "-f") {
		t.Errorf("full read should not limit pages: %q", r.calls[1])
	}
}

func TestPdftotextFailure(t *testing.T) {
	r := &stubRunner{err: errors.New("exit status 1")}
	e := newExtractor(Config{Backend: BackendPdftotext}, r, nil)
	if _, err := e.FirstPageText(context.Background(), "x.pdf"); err == nil {
		t.Fatal("expected error")
	}
}

func TestNativeRejectsGarbage(t *testing.T) {
	e := newExtractor(Config{Backend: BackendNative}, &stubRunner{}, nil)
	if _, err := e.FirstPageText(context.Background(), garbageFile(t)); err == nil {
		t.Fatal("expected error for non-pdf input")
	}
}

func TestAutoFallsBackToPdftotext(t *testing.T) {
	r := &stubRunner{stdout: []byte("fallback text\f")}
	e := newExtractor(Config{}, r, nil)
	got, err := e.FirstPageText(context.Background(), garbageFile(t))
	if err != nil {
		t.Fatal(err)
	}
	if got != "fallback text" || len(r.calls) != 1 {
		t.Errorf("got %q after %d calls", got, len(r.calls))
	}
}

func TestAutoReportsBothFailures(t *testing.T) {
	r := &stubRunner{err: errors.New("missing binary")}
	e := newExtractor(Config{Backend: BackendAuto}, r, nil)
	if _, err := e.PageTexts(context.Background(), garbageFile(t)); err == nil {
		t.Fatal("expected error")
	}
}

func TestUnknownBackend(t *testing.T) {
	e := newExtractor(Config{Backend: "ocr"}, &stubRunner{}, nil)
	_, err := e.PageTexts(context.Background(), "x.pdf")
	if !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("err = %v, want ErrUnknownBackend", err)
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	if err := Validate(garbageFile(t)); err == nil {
		t.Fatal("expected validation error")
	}
	e := newExtractor(Config{Backend: BackendPdftotext, Validate: true}, &stubRunner{stdout: []byte("x")}, nil)
	if _, err := e.FirstPageText(context.Background(), garbageFile(t)); err == nil {
		t.Fatal("expected screening to fail validation")
	}
}
