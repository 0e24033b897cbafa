package report

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	citationRe  = regexp.MustCompile(`\[\d+\]`)
	headingRes  = buildHeadingRes()
	hashRunRe   = regexp.MustCompile(`#{1,6}\s*`)
	hruleRe     = regexp.MustCompile(`(?m)^[-=_]{3,}\s*$`)
	codeMarkRe  = regexp.MustCompile("[`~]")
	boldRe      = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe    = regexp.MustCompile(`\*(.+?)\*`)
	bulletRe    = regexp.MustCompile(`(?m)^-\s+(.+)$`)
	numberedRe  = regexp.MustCompile(`^\d+\.\s+(.+)$`)
	blankRunsRe = regexp.MustCompile(`\n\s*\n\s*\n`)
	hspaceRe    = regexp.MustCompile(`[ \t]+`)
)

func buildHeadingRes() []*regexp.Regexp {
	// Deepest level first so ##### is not eaten by the # pattern.
	res := make([]*regexp.Regexp, 0, 5)
	for level := 5; level >= 1; level-- {
		res = append(res, regexp.MustCompile(`(?m)^`+strings.Repeat("#", level)+`\s+(.+)$`))
	}
	return res
}

// Clean normalizes generated markdown into plain prose ready for layout:
// headings become bare lines surrounded by blank lines, emphasis and rules
// are stripped, bullets get a uniform glyph. Numbered-list markers are
// collapsed only on short lines; long enumeration lines keep their numbers
// so multi-sentence items stay readable.
func Clean(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	text = citationRe.ReplaceAllString(text, "")
	for _, re := range headingRes {
		text = re.ReplaceAllString(text, "\n$1\n")
	}
	text = hashRunRe.ReplaceAllString(text, "")
	text = hruleRe.ReplaceAllString(text, "")
	text = codeMarkRe.ReplaceAllString(text, "")
	text = boldRe.ReplaceAllString(text, "$1")
	text = italicRe.ReplaceAllString(text, "$1")
	text = bulletRe.ReplaceAllString(text, "• $1")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !numberedRe.MatchString(line) {
			continue
		}
		if utf8.RuneCountInString(strings.TrimSpace(line)) < 80 {
			lines[i] = numberedRe.ReplaceAllString(line, "$1")
		}
	}
	text = strings.Join(lines, "\n")

	text = blankRunsRe.ReplaceAllString(text, "\n\n")
	text = hspaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

type LineClass int

const (
	LineBody LineClass = iota
	LineHeadingMinor
	LineHeadingMajor
)

// Classifier decides how a cleaned line is styled. The keyword lists are
// data, not logic: they follow the document's content language and are
// supplied by the caller, so the layout code stays language-neutral.
type Classifier struct {
	MajorKeywords []string
	MinorKeywords []string
}

// DefaultClassifier matches the stock section headings the generator is
// instructed to produce.
func DefaultClassifier() Classifier {
	return Classifier{
		MajorKeywords: []string{
			"how you think",
			"your personality type",
			"what patterns",
			"how you perceive",
		},
		MinorKeywords: []string{
			"supporting quote",
			"practical recommendations",
			"working techniques",
		},
	}
}

// Classify tags one line. A short line carrying a major keyword is a major
// heading; a line carrying a minor keyword, or a short line ending in a
// colon, is a minor heading; everything else is body text.
func (c Classifier) Classify(line string) LineClass {
	l := strings.TrimSpace(line)
	lower := strings.ToLower(l)
	n := utf8.RuneCountInString(l)
	if n < 120 {
		for _, k := range c.MajorKeywords {
			if strings.Contains(lower, k) {
				return LineHeadingMajor
			}
		}
	}
	for _, k := range c.MinorKeywords {
		if strings.Contains(lower, k) {
			return LineHeadingMinor
		}
	}
	if strings.HasSuffix(l, ":") && n < 100 {
		return LineHeadingMinor
	}
	return LineBody
}
