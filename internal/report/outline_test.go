package report

import (
	"strings"
	"testing"
)

func TestPremiumOutlineShape(t *testing.T) {
	o := OutlineFor(TierPremium)
	if len(o.Sections) != 9 {
		t.Fatalf("expected 9 premium sections, got %d", len(o.Sections))
	}
	wantPages := map[string]int{
		"portrait":     10,
		"strengths":    5,
		"growth_zones": 7,
		"compensation": 7,
		"interaction":  8,
		"prognosis":    6,
		"practical":    8,
		"conclusion":   6,
		"appendix":     6,
	}
	for _, s := range o.Sections {
		if s.Pages() != wantPages[s.Key] {
			t.Errorf("section %s: expected %d pages, got %d", s.Key, wantPages[s.Key], s.Pages())
		}
		if strings.TrimSpace(s.Instructions) == "" {
			t.Errorf("section %s has no instructions", s.Key)
		}
	}
	if o.TotalPages() != 63 {
		t.Fatalf("expected 63 total pages, got %d", o.TotalPages())
	}
}

func TestFreeOutlineShape(t *testing.T) {
	o := OutlineFor(TierFree)
	if len(o.Sections) != 3 {
		t.Fatalf("expected 3 free sections, got %d", len(o.Sections))
	}
	if o.TotalPages() != 3 {
		t.Fatalf("expected 3 total pages, got %d", o.TotalPages())
	}
	wantKeys := []string{"personality_type", "thinking", "patterns"}
	for i, s := range o.Sections {
		if s.Key != wantKeys[i] {
			t.Errorf("section %d: expected key %s, got %s", i, wantKeys[i], s.Key)
		}
	}
}

func TestExpectedPageUnits(t *testing.T) {
	cases := []struct {
		descriptor string
		want       float64
	}{
		{"NATURAL TALENTS (2 pages)", 2.0},
		{"EMOTIONAL INTELLIGENCE (1-3 pages)", 2.0},
		{"APTITUDE AREAS (0.5 pages)", 0.5},
		{"NATURAL TALENTS (1,5 pages)", 1.5},
		{"BLIND SPOTS (1 page)", 1.0},
		{"NO HINT AT ALL", 1.0},
		{"BROKEN HINT (many pages)", 1.0},
	}
	for _, c := range cases {
		if got := ExpectedPageUnits(c.descriptor); got != c.want {
			t.Errorf("ExpectedPageUnits(%q) = %v, want %v", c.descriptor, got, c.want)
		}
	}
}

func TestPageDirectiveContent(t *testing.T) {
	o := OutlineFor(TierPremium)
	sec := o.Sections[3] // compensation
	d, err := PageDirective(sec, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(d, "PAGE 5 of 7") {
		t.Errorf("directive missing page position: %s", d)
	}
	// INDIVIDUAL DEVELOPMENT PLAN is hinted at 3 pages.
	if !strings.Contains(d, "9000") {
		t.Errorf("directive missing scaled character target: %s", d)
	}
	if !strings.Contains(d, "±100") {
		t.Errorf("directive missing tolerance: %s", d)
	}
}

func TestPageDirectiveOutOfRange(t *testing.T) {
	sec := OutlineFor(TierFree).Sections[0]
	if _, err := PageDirective(sec, 0); err == nil {
		t.Fatal("expected error for page 0")
	}
	if _, err := PageDirective(sec, 2); err == nil {
		t.Fatal("expected error past the section's page count")
	}
}

func TestFormatQASkipsUnanswered(t *testing.T) {
	got := FormatQA([]QA{
		{Order: 1, Question: "What energizes you?", Answer: "Quiet mornings."},
		{Order: 2, Question: "Skipped", Answer: "   "},
		{Order: 3, Question: "Biggest fear?", Answer: "Stagnation."},
	})
	if strings.Contains(got, "Skipped") {
		t.Errorf("unanswered question leaked into priming data: %s", got)
	}
	if !strings.Contains(got, "Question 1: What energizes you?\nAnswer: Quiet mornings.") {
		t.Errorf("missing first pair: %s", got)
	}
	if strings.Count(got, "\n\n") != 1 {
		t.Errorf("pairs not joined by blank line: %q", got)
	}
}
