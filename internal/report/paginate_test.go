package report

import (
	"fmt"
	"strings"
	"testing"
)

// charMeasurer treats every character as a fixed advance, which keeps the
// packing arithmetic exact in tests.
type charMeasurer struct{ advance float64 }

func (m charMeasurer) Width(text string, _ LineClass) float64 {
	return float64(len(text)) * m.advance
}

func TestPaginateEmpty(t *testing.T) {
	if got := Paginate("", DefaultClassifier(), charMeasurer{6}); len(got) != 0 {
		t.Fatalf("expected zero pages, got %d", len(got))
	}
	if got := Paginate("\n\n  \n", DefaultClassifier(), charMeasurer{6}); len(got) != 0 {
		t.Fatalf("expected zero pages for blank lines, got %d", len(got))
	}
}

func TestPaginateSinglePage(t *testing.T) {
	pages := Paginate("one\ntwo\nthree", DefaultClassifier(), charMeasurer{6})
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	if len(pages[0]) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(pages[0]))
	}
	for _, l := range pages[0] {
		if l.Class != LineBody {
			t.Errorf("line %q classified as %v", l.Text, l.Class)
		}
	}
}

func TestPaginateBreaksOnHeightBudget(t *testing.T) {
	// The text box after the bottom reserve fits 42 body lines
	// (842-100-100-50 = 592pt at 14pt per line).
	var b strings.Builder
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&b, "body line %d\n", i)
	}
	pages := Paginate(b.String(), DefaultClassifier(), charMeasurer{6})
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if len(pages[0]) != 42 {
		t.Errorf("expected 42 lines on first page, got %d", len(pages[0]))
	}
	if len(pages[1]) != 8 {
		t.Errorf("expected 8 lines on second page, got %d", len(pages[1]))
	}
}

func TestPaginateWrapsLongLines(t *testing.T) {
	// 30 ten-char words at 6pt per char cannot fit the 445pt text width
	// on one line.
	words := make([]string, 30)
	for i := range words {
		words[i] = "abcdefghij"
	}
	pages := Paginate(strings.Join(words, " "), DefaultClassifier(), charMeasurer{6})
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	if len(pages[0]) < 2 {
		t.Fatalf("long line did not wrap: %d lines", len(pages[0]))
	}
	m := charMeasurer{6}
	for _, l := range pages[0] {
		if m.Width(l.Text, l.Class) > TextWidth {
			t.Errorf("wrapped line exceeds text width: %q", l.Text)
		}
	}
}

func TestPaginateHeadingHeights(t *testing.T) {
	// Major headings consume 24pt, so only 24 of them fit a page.
	var b strings.Builder
	for i := 0; i < 25; i++ {
		b.WriteString("How you think\n")
	}
	pages := Paginate(b.String(), DefaultClassifier(), charMeasurer{6})
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if len(pages[0]) != 24 {
		t.Errorf("expected 24 major headings on first page, got %d", len(pages[0]))
	}
	if pages[0][0].Class != LineHeadingMajor {
		t.Errorf("heading not classified major: %v", pages[0][0].Class)
	}
}
