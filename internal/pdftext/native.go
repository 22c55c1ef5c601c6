package pdftext

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Glyphs whose baselines differ by at most this many points share a line.
const baselineTolerance = 2.0

// nativePages reads page text with the pure Go parser. The parser panics on some malformed
// inputs, so those are turned into errors.
func nativePages(path string, firstOnly bool) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("pdf parse panic: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	n := r.NumPage()
	if n == 0 {
		return nil, ErrNoPages
	}
	if firstOnly {
		n = 1
	}

	pages = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, pageText(page.Content().Text))
	}
	return pages, nil
}

type textLine struct {
	y      float64
	glyphs []pdf.Text
}

// pageText rebuilds lines from positioned glyphs: glyphs on one baseline are read left to
// right, lines top to bottom. A horizontal gap between glyphs becomes a single space.
func pageText(glyphs []pdf.Text) string {
	var lines []*textLine
	for _, g := range glyphs {
		if g.S == "" || g.S == "\n" || g.S == "\r" {
			continue
		}
		var cur *textLine
		for _, l := range lines {
			if math.Abs(l.y-g.Y) <= baselineTolerance {
				cur = l
				break
			}
		}
		if cur == nil {
			cur = &textLine{y: g.Y}
			lines = append(lines, cur)
		}
		cur.glyphs = append(cur.glyphs, g)
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].y > lines[j].y })

	out := make([]string, 0, len(lines))
	for _, l := range lines {
		sort.SliceStable(l.glyphs, func(i, j int) bool { return l.glyphs[i].X < l.glyphs[j].X })
		var b strings.Builder
		for i, g := range l.glyphs {
			if i > 0 && wordGap(l.glyphs[i-1], g) {
				b.WriteByte(' ')
			}
			b.WriteString(g.S)
		}
		out = append(out, strings.TrimRight(b.String(), " "))
	}
	return strings.Join(out, "\n")
}

func wordGap(prev, next pdf.Text) bool {
	if prev.S == " " || next.S == " " {
		return false
	}
	return next.X-(prev.X+prev.W) > 0.2*math.Max(prev.FontSize, 1)
}
