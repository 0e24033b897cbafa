package report

import (
	"strings"
	"testing"
)

func TestCleanEmptyInput(t *testing.T) {
	if Clean("") != "" {
		t.Error("empty input must stay empty")
	}
	if Clean("  \n\t ") != "" {
		t.Error("whitespace-only input must become empty")
	}
}

func TestCleanStripsCitations(t *testing.T) {
	got := Clean("Research shows[1] that sleep matters[12].")
	if got != "Research shows that sleep matters." {
		t.Errorf("citations not removed: %q", got)
	}
}

func TestCleanDemotesHeadings(t *testing.T) {
	got := Clean("# Top\nbody\n### Deep heading\nmore body")
	if strings.Contains(got, "#") {
		t.Errorf("heading markers survived: %q", got)
	}
	if !strings.Contains(got, "Top\n\nbody") {
		t.Errorf("heading not isolated by a blank line: %q", got)
	}
	if !strings.Contains(got, "Deep heading") {
		t.Errorf("deep heading text lost: %q", got)
	}
}

func TestCleanStripsEmphasisAndRules(t *testing.T) {
	got := Clean("**bold** and *italic* and `code`\n---\nafter")
	if got != "bold and italic and code\n\nafter" {
		t.Errorf("unexpected result: %q", got)
	}
}

func TestCleanBullets(t *testing.T) {
	got := Clean("- first item\n- second item")
	if got != "• first item\n• second item" {
		t.Errorf("bullets not normalized: %q", got)
	}
}

func TestCleanNumberedLists(t *testing.T) {
	long := "1. " + strings.Repeat("Each of these enumerated points spans multiple sentences. ", 3)
	got := Clean("1. short point\n" + long)
	if strings.Contains(got, "1. short point") {
		t.Errorf("short numbered marker not collapsed: %q", got)
	}
	if !strings.Contains(got, "short point") {
		t.Errorf("short item text lost: %q", got)
	}
	if !strings.HasSuffix(strings.Split(got, "\n")[1], "sentences.") || !strings.Contains(got, "1. Each") {
		t.Errorf("long numbered line lost its marker: %q", got)
	}
}

func TestCleanCollapsesWhitespace(t *testing.T) {
	got := Clean("a\n\n\n\nb\t\tc   d")
	if got != "a\n\nb c d" {
		t.Errorf("whitespace not collapsed: %q", got)
	}
}

func TestClassify(t *testing.T) {
	c := DefaultClassifier()
	cases := []struct {
		line string
		want LineClass
	}{
		{"How you think under pressure", LineHeadingMajor},
		{"Practical recommendations for the week", LineHeadingMinor},
		{"Supporting quote:", LineHeadingMinor},
		{"Key takeaways:", LineHeadingMinor},
		{"An ordinary sentence about habits.", LineBody},
		{strings.Repeat("x", 110) + " key takeaways:", LineBody},
	}
	for _, tc := range cases {
		if got := c.Classify(tc.line); got != tc.want {
			t.Errorf("Classify(%q) = %v, want %v", tc.line, got, tc.want)
		}
	}
}

func TestClassifyMajorLengthCutoff(t *testing.T) {
	c := DefaultClassifier()
	long := strings.Repeat("a ", 70) + "how you think"
	if got := c.Classify(long); got != LineBody {
		t.Errorf("overlong line classified as heading: %v", got)
	}
}
