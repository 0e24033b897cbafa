package report

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

func ParseTier(s string) (Tier, error) {
	switch Tier(strings.ToLower(s)) {
	case TierFree:
		return TierFree, nil
	case TierPremium:
		return TierPremium, nil
	}
	return "", fmt.Errorf("unknown tier %q", s)
}

// Section is an ordered group of generated pages that share one set of
// upstream instructions. PageTopics holds one descriptor per page; the
// descriptor may carry a length hint like "(2 pages)" or "(1-2 pages)"
// that scales the per-page character target.
type Section struct {
	Key          string
	Name         string
	Instructions string
	PageTopics   []string
}

func (s Section) Pages() int { return len(s.PageTopics) }

// Outline is the fixed per-tier document plan.
type Outline struct {
	Tier     Tier
	Sections []Section
}

func (o Outline) TotalPages() int {
	total := 0
	for _, s := range o.Sections {
		total += s.Pages()
	}
	return total
}

// charsPerPageUnit is the prose-density constant behind length directives.
const charsPerPageUnit = 3000

// charTolerance is quoted in the directive text as the acceptable deviation.
const charTolerance = 100

var (
	singlePageHint = regexp.MustCompile(`\((\d+(?:[.,]\d+)?)\s*pages?\)`)
	rangePageHint  = regexp.MustCompile(`\((\d+)\s*-\s*(\d+)\s*pages?\)`)
)

// ExpectedPageUnits parses a length hint out of a page descriptor. A range
// averages its endpoints; a missing or unparseable hint means one unit.
func ExpectedPageUnits(descriptor string) float64 {
	if m := rangePageHint.FindStringSubmatch(descriptor); m != nil {
		lo, _ := strconv.ParseFloat(m[1], 64)
		hi, _ := strconv.ParseFloat(m[2], 64)
		return (lo + hi) / 2
	}
	if m := singlePageHint.FindStringSubmatch(descriptor); m != nil {
		v, _ := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
		return v
	}
	return 1.0
}

// PageDirective builds the generation instruction for one page of a section.
// pageNum is 1-based. The character target is advisory; nothing downstream
// enforces it.
func PageDirective(sec Section, pageNum int) (string, error) {
	if pageNum < 1 || pageNum > sec.Pages() {
		return "", fmt.Errorf("page %d out of range for section %s (%d pages)", pageNum, sec.Key, sec.Pages())
	}
	topic := sec.PageTopics[pageNum-1]
	targetChars := int(ExpectedPageUnits(topic) * charsPerPageUnit)
	return fmt.Sprintf(
		"Write PAGE %d of %d.\n"+
			"CONTENT: %s\n"+
			"LENGTH: exactly %d characters (±%d at most).\n"+
			"Address the subject directly as \"you\" and \"your\". Quote at most 2-3 verbatim fragments from the answers. "+
			"Final size: %d ± %d characters.\n"+
			"Follow the section instructions already provided.",
		pageNum, sec.Pages(), topic, targetChars, charTolerance, targetChars, charTolerance,
	), nil
}

// SectionIntro is sent once before a section's pages to load its
// instructions into the conversation.
func SectionIntro(sec Section) string {
	return fmt.Sprintf(
		"Moving on to the section %q. Instructions:\n%s\nApply these instructions to every page of this section.",
		sec.Name, sec.Instructions,
	)
}

// BaseSystemPrompt is the first conversation message for either tier.
func BaseSystemPrompt(tier Tier) string {
	base := "You are an experienced psychologist producing a written personality analysis from questionnaire answers. " +
		"Ground every statement in the answers provided. Never invent quotes or examples: if no suitable verbatim fragment exists, make the point without one. " +
		"Address the subject directly as \"you\" and \"your\"; never write \"the user\" or \"the client\"."
	if tier == TierPremium {
		base += "\nIMPORTANT: these are the base instructions. Additional instructions for specific sections will be provided as needed."
	}
	return base
}

// PrimingMessage wraps the formatted questionnaire data into the second
// conversation message. The generator is expected to acknowledge it before
// any page is requested.
func PrimingMessage(tier Tier, userData string) string {
	label := "a psychological analysis"
	if tier == TierPremium {
		label = "a PREMIUM psychological analysis (50 questions)"
	}
	return fmt.Sprintf(
		"Here is the data for %s:\n\n%s\n\n"+
			"Study these answers and confirm you are ready to produce the analysis.\n\n"+
			"CRITICAL:\n"+
			"- Every quote must be a real verbatim fragment from the answers above\n"+
			"- Inventing examples is forbidden\n"+
			"- Address the subject as \"you\" and \"your\".",
		label, userData,
	)
}

// FormatQA renders question/answer pairs into the priming data block.
// Unanswered questions are skipped.
func FormatQA(pairs []QA) string {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if strings.TrimSpace(p.Answer) == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("Question %d: %s\nAnswer: %s", p.Order, p.Question, p.Answer))
	}
	return strings.Join(parts, "\n\n")
}

type QA struct {
	Order    int
	Question string
	Answer   string
}

// OutlineFor returns the fixed outline for a tier. Premium is a 63-page
// document across nine sections; free is three single-page sections.
func OutlineFor(tier Tier) Outline {
	if tier == TierPremium {
		return Outline{Tier: TierPremium, Sections: premiumSections}
	}
	return Outline{Tier: TierFree, Sections: freeSections}
}

var freeSections = []Section{
	{
		Key:  "personality_type",
		Name: "Personality Type",
		Instructions: "Describe the subject's core personality type: dominant traits, temperament, and how they show up in " +
			"daily behavior. Anchor each observation in specific answers.",
		PageTopics: []string{"PERSONALITY TYPE (1 page)"},
	},
	{
		Key:  "thinking",
		Name: "Thinking and Decisions",
		Instructions: "Analyze how the subject processes information and makes decisions: pace, reliance on logic versus " +
			"intuition, tolerance for ambiguity, and typical decision traps.",
		PageTopics: []string{"THINKING AND DECISIONS (1 page)"},
	},
	{
		Key:  "patterns",
		Name: "Limiting Patterns",
		Instructions: "Identify recurring limiting patterns visible in the answers: avoidance, self-criticism, " +
			"procrastination triggers. Describe each pattern and one first step to loosen it.",
		PageTopics: []string{"LIMITING PATTERNS (1 page)"},
	},
}

var premiumSections = []Section{
	{
		Key:  "portrait",
		Name: "Psychological Portrait",
		Instructions: "Build the foundational portrait: trait structure, cognitive style, emotional landscape, values and " +
			"motivation. Each page covers one lens; keep the lenses consistent with each other.",
		PageTopics: []string{
			"BIG FIVE ANALYSIS (1 page)",
			"MBTI TYPE DETERMINATION (1 page)",
			"ARCHETYPAL STRUCTURE (1 page)",
			"COGNITIVE PROFILE (1 page)",
			"EMOTIONAL INTELLIGENCE (1-2 pages)",
			"VALUE SYSTEM (1 page)",
			"COMMUNICATION STYLE (1 page)",
			"MOTIVATIONAL DRIVERS (1 page)",
			"SHADOW ASPECTS (1-2 pages)",
			"EXISTENTIAL FULFILLMENT (1-2 pages)",
		},
	},
	{
		Key:  "strengths",
		Name: "Strengths and Talents",
		Instructions: "Map natural talents and acquired competencies, the conditions under which the subject is most " +
			"resourceful, and where the strongest development leverage lies.",
		PageTopics: []string{
			"NATURAL TALENTS (1,5 pages)",
			"APTITUDE AREAS (0.5 pages)",
			"ACQUIRED COMPETENCIES (2 pages)",
			"RESOURCE STATES (2 pages)",
			"DEVELOPMENT POTENTIAL (1 page)",
		},
	},
	{
		Key:  "growth_zones",
		Name: "Growth Zones",
		Instructions: "Surface limiting beliefs, cognitive distortions, blind spots and self-sabotage patterns. Name each " +
			"pattern precisely and show the answer fragments that reveal it.",
		PageTopics: []string{
			"LIMITING BELIEFS (1 page)",
			"BELIEF TRANSFORMATION (0.5 pages)",
			"COGNITIVE DISTORTIONS (1 page)",
			"BLIND SPOTS (1 page)",
			"EMOTIONAL TRIGGERS (2 pages)",
			"SELF-SABOTAGE PATTERNS (1 page)",
			"SOMATIC MANIFESTATIONS (1 page)",
		},
	},
	{
		Key:  "compensation",
		Name: "Compensation Strategies",
		Instructions: "Turn the growth zones into concrete strategies: regulation techniques, alternative behavior models, " +
			"recovery resources and an individual development plan.",
		PageTopics: []string{
			"DEVELOPMENT STRATEGIES (2 pages)",
			"SELF-REGULATION TECHNIQUES (1 page)",
			"ALTERNATIVE BEHAVIOR MODELS (1 page)",
			"RECOVERY RESOURCES (1 page)",
			"INDIVIDUAL DEVELOPMENT PLAN (3 pages)",
			"RECOMMENDED PRACTICES (2 pages)",
			"SYMBOLIC IMAGERY WORK (1 page)",
		},
	},
	{
		Key:  "interaction",
		Name: "Interacting with Others",
		Instructions: "Describe how the subject connects with others: compatibility, communication style, team role, close " +
			"relationships and conflict behavior.",
		PageTopics: []string{
			"COMPATIBILITY (1 page)",
			"STRATEGIES FOR DIFFICULT PAIRINGS (1 page)",
			"PERSONAL COMMUNICATION STYLE (1 page)",
			"ADAPTIVE COMMUNICATION TECHNIQUES (1 page)",
			"TEAM ROLE (1 page)",
			"CLOSE RELATIONSHIPS (1 page)",
			"CONFLICT RESOLUTION (1 page)",
			"FAMILY PATTERNS AND BOUNDARIES (1 page)",
		},
	},
	{
		Key:  "prognosis",
		Name: "Prognosis",
		Instructions: "Project development forward: likely crises and growth points, self-realization scenarios, and how " +
			"key traits evolve under favorable and unfavorable conditions.",
		PageTopics: []string{
			"TWO-SCENARIO DEVELOPMENT FORECAST (1 page)",
			"CRISES AND GROWTH POINTS (1 page)",
			"SELF-REALIZATION (1 page)",
			"TRAIT DEVELOPMENT FORECAST (1 page)",
			"LONG-TERM OUTLOOK (1 page)",
			"FINAL RECOMMENDATIONS (1 page)",
		},
	},
	{
		Key:  "practical",
		Name: "Practical Application",
		Instructions: "Translate the analysis into daily practice: career, productivity, decision making, social skills, " +
			"health. Every page ends with actions the subject can take this week.",
		PageTopics: []string{
			"PROFESSIONAL REALIZATION (2 pages)",
			"PRODUCTIVITY (2 pages)",
			"DECISION MAKING (2 pages)",
			"SOCIAL SKILLS (2 pages)",
			"HEALTH AND WELLBEING (2 pages)",
			"TECHNIQUES FOR STRENGTHS (1 page)",
			"EXERCISES FOR GROWTH ZONES (1 page)",
			"CHECKLISTS AND TRACKERS (1 page)",
		},
	},
	{
		Key:  "conclusion",
		Name: "Conclusion",
		Instructions: "Synthesize the whole document: the central insights, how the strengths combine, and a motivational " +
			"closing message addressed directly to the subject.",
		PageTopics: []string{
			"INSIGHT SYNTHESIS (1 page)",
			"STRENGTHS SYNTHESIS (1 page)",
			"MOTIVATIONAL MESSAGE (1 page)",
			"USAGE RECOMMENDATIONS (1 page)",
			"PERSONALITY EVOLUTION (1 page)",
			"CLOSING MESSAGE (1 page)",
		},
	},
	{
		Key:  "appendix",
		Name: "Appendices",
		Instructions: "Close with reference material: a glossary of terms used, recommended resources, personal " +
			"affirmations and self-analysis templates tailored to the subject.",
		PageTopics: []string{
			"GLOSSARY OF TERMS (1 page)",
			"RECOMMENDED RESOURCES (2 pages)",
			"VISUALIZATIONS AND DIAGRAMS (1 page)",
			"PERSONAL AFFIRMATIONS (2 pages)",
			"SELF-ANALYSIS TEMPLATES (1 page)",
			"PROJECTIVE IMAGES AND METAPHORS (1 page)",
		},
	},
}
