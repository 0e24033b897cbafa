package report

import "strings"

// A4 geometry in PDF points, shared by pagination and rendering.
const (
	PageWidthPt  = 595.0
	PageHeightPt = 842.0

	MarginLeft   = 75.0
	MarginRight  = 75.0
	MarginTop    = 100.0
	MarginBottom = 100.0

	// Extra reserve at the bottom of the text box so descenders and the
	// last baseline never collide with template artwork.
	bottomSafety = 50.0

	TextWidth  = PageWidthPt - MarginLeft - MarginRight
	TextHeight = PageHeightPt - MarginTop - MarginBottom

	LineHeightBody  = 14.0
	LineHeightMinor = 18.0
	LineHeightMajor = 24.0

	FontSizeBody  = 11.0
	FontSizeMinor = 14.0
	FontSizeMajor = 18.0
)

func LineHeight(class LineClass) float64 {
	switch class {
	case LineHeadingMajor:
		return LineHeightMajor
	case LineHeadingMinor:
		return LineHeightMinor
	}
	return LineHeightBody
}

func FontSize(class LineClass) float64 {
	switch class {
	case LineHeadingMajor:
		return FontSizeMajor
	case LineHeadingMinor:
		return FontSizeMinor
	}
	return FontSizeBody
}

// Measurer reports the rendered width of a string at the style used for the
// given line class. Pagination depends only on this, so layout logic is
// testable without loading real font files.
type Measurer interface {
	Width(text string, class LineClass) float64
}

// Line is one laid-out line: already wrapped to the text width, tagged with
// the style it will be drawn in.
type Line struct {
	Text  string
	Class LineClass
}

// Page is the ordered set of lines that fit one A4 text box.
type Page []Line

// wrapLine greedily packs words up to maxWidth. A single word wider than
// the box gets its own line rather than being split.
func wrapLine(text string, class LineClass, m Measurer, maxWidth float64) []string {
	if m.Width(text, class) <= maxWidth {
		return []string{text}
	}
	words := strings.Split(text, " ")
	var lines []string
	current := ""
	for _, word := range words {
		test := word
		if current != "" {
			test = current + " " + word
		}
		if m.Width(test, class) > maxWidth {
			if current != "" {
				lines = append(lines, current)
			}
			current = word
		} else {
			current = test
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

// Paginate cleans nothing: it expects already-cleaned text. Blank lines are
// dropped, each remaining line is classified, wrapped, and packed into pages
// by cumulative line height against the text box (minus the bottom safety
// reserve). A page break never produces an empty page, and empty input
// produces zero pages.
func Paginate(text string, c Classifier, m Measurer) []Page {
	var pages []Page
	var current Page
	height := 0.0

	for _, raw := range strings.Split(strings.TrimSpace(text), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		class := c.Classify(line)
		h := LineHeight(class)
		for _, wrapped := range wrapLine(line, class, m, TextWidth) {
			if height+h > TextHeight-bottomSafety && len(current) > 0 {
				pages = append(pages, current)
				current, height = nil, 0
			}
			current = append(current, Line{Text: wrapped, Class: class})
			height += h
		}
	}
	if len(current) > 0 {
		pages = append(pages, current)
	}
	return pages
}

// GeneratedPage is one unit of generated content flowing through the
// pipeline, tracked with its position in the document outline.
type GeneratedPage struct {
	GlobalPage  int    `json:"global_page"`
	SectionKey  string `json:"section_key"`
	SectionName string `json:"section_name"`
	PageNum     int    `json:"page_num"`
	Content     string `json:"content"`
}
