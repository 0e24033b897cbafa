package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prizma-app/prizma-backend/internal/pkg/logger"
	"github.com/prizma-app/prizma-backend/internal/report"
)

// premiumBlockDirs maps outline section keys to their template folders, in
// document order.
var premiumBlockDirs = map[string]string{
	"portrait":     "block-1",
	"strengths":    "block-2",
	"growth_zones": "block-3",
	"compensation": "block-4",
	"interaction":  "block-5",
	"prognosis":    "block-6",
	"practical":    "block-7",
	"conclusion":   "block-8",
	"appendix":     "block-9",
}

// freeSectionTemplates maps free section keys to their content backgrounds.
var freeSectionTemplates = map[string]string{
	"personality_type": "3.png",
	"thinking":         "4.png",
	"patterns":         "5.png",
}

// Builder produces the final report artifacts. Static template pages come
// from templateDir (free tier, numbered 1.png..7.png) and premiumDir
// (block-1..block-9); generated pages are rendered into a temp directory
// and always removed, whether assembly succeeds or not.
type Builder struct {
	log         *logger.Logger
	renderer    *Renderer
	assembler   *Assembler
	templateDir string
	premiumDir  string
	outputDir   string
}

func NewBuilder(log *logger.Logger, renderer *Renderer, assembler *Assembler, templateDir, premiumDir, outputDir string) *Builder {
	return &Builder{
		log:         log.With("service", "ReportBuilder"),
		renderer:    renderer,
		assembler:   assembler,
		templateDir: templateDir,
		premiumDir:  premiumDir,
		outputDir:   outputDir,
	}
}

func artifactName(prefix string, userID uuid.UUID, ext string) string {
	ts := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s.%s", prefix, userID, ts, ext)
}

func cleanupTemp(files []string, dir string) {
	for _, f := range files {
		_ = os.Remove(f)
	}
	if dir != "" {
		// Removed only when nothing else lives there.
		_ = os.Remove(dir)
	}
}

func sortPages(pages []report.GeneratedPage) []report.GeneratedPage {
	out := make([]report.GeneratedPage, len(pages))
	copy(out, pages)
	sort.Slice(out, func(i, j int) bool { return out[i].GlobalPage < out[j].GlobalPage })
	return out
}

// BuildFree assembles the free-tier document: cover pages, one content run
// per section over that section's background, closing pages.
func (b *Builder) BuildFree(userID uuid.UUID, pages []report.GeneratedPage) (string, error) {
	if err := os.MkdirAll(b.outputDir, 0o755); err != nil {
		return "", err
	}
	tempDir := filepath.Join(b.outputDir, "temp_free")
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return "", err
	}

	var tempFiles []string
	defer func() { cleanupTemp(tempFiles, tempDir) }()

	parts := []string{
		filepath.Join(b.templateDir, "1.png"),
		filepath.Join(b.templateDir, "2.png"),
	}
	for _, page := range sortPages(pages) {
		tpl, ok := freeSectionTemplates[page.SectionKey]
		if !ok {
			return "", fmt.Errorf("no template for section %s", page.SectionKey)
		}
		rendered, err := b.renderer.RenderContentPages(
			filepath.Join(b.templateDir, tpl),
			page.Content,
			tempDir,
			fmt.Sprintf("%s_%02d", page.SectionKey, page.GlobalPage),
		)
		tempFiles = append(tempFiles, rendered...)
		if err != nil {
			return "", err
		}
		parts = append(parts, rendered...)
	}
	parts = append(parts,
		filepath.Join(b.templateDir, "6.png"),
		filepath.Join(b.templateDir, "7.png"),
	)

	outPath := filepath.Join(b.outputDir, artifactName("report", userID, "pdf"))
	if err := b.assembler.Combine(parts, outPath); err != nil {
		return "", err
	}
	return outPath, nil
}

// BuildPremium assembles the premium document block by block: personalized
// title, shared second title page, then per section its title page and, per
// generated page, an optional static insert followed by the rendered
// content. Optional statics are skipped silently; required pieces fail the
// build through the assembler's verification.
func (b *Builder) BuildPremium(userID uuid.UUID, userName string, pages []report.GeneratedPage) (string, error) {
	if err := os.MkdirAll(b.outputDir, 0o755); err != nil {
		return "", err
	}
	tempDir := filepath.Join(b.outputDir, "temp_premium")
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return "", err
	}

	var tempFiles []string
	defer func() { cleanupTemp(tempFiles, tempDir) }()

	var parts []string

	titleTpl := filepath.Join(b.premiumDir, "block-1", "title.png")
	if _, err := os.Stat(titleTpl); err == nil {
		customTitle := filepath.Join(tempDir, "custom_title.png")
		if err := b.renderer.RenderTitlePage(titleTpl, userName, time.Now().UTC(), customTitle); err != nil {
			return "", err
		}
		tempFiles = append(tempFiles, customTitle)
		parts = append(parts, customTitle)
	}
	if p := filepath.Join(b.premiumDir, "block-1", "title-2.png"); fileExists(p) {
		parts = append(parts, p)
	}

	bySection := map[string][]report.GeneratedPage{}
	for _, page := range sortPages(pages) {
		bySection[page.SectionKey] = append(bySection[page.SectionKey], page)
	}

	contentTpl := filepath.Join(b.templateDir, "3.png")
	for _, sec := range report.OutlineFor(report.TierPremium).Sections {
		sectionPages, ok := bySection[sec.Key]
		if !ok {
			continue
		}
		blockDir := filepath.Join(b.premiumDir, premiumBlockDirs[sec.Key])
		if !dirExists(blockDir) {
			continue
		}
		if p := filepath.Join(blockDir, "1.png"); fileExists(p) {
			parts = append(parts, p)
		}
		for i, page := range sectionPages {
			if static := filepath.Join(blockDir, fmt.Sprintf("%d.png", i+2)); fileExists(static) {
				parts = append(parts, static)
			}
			rendered, err := b.renderer.RenderContentPages(
				contentTpl,
				page.Content,
				tempDir,
				fmt.Sprintf("ai_%02d", page.GlobalPage),
			)
			tempFiles = append(tempFiles, rendered...)
			if err != nil {
				return "", err
			}
			parts = append(parts, rendered...)
		}
		if p := filepath.Join(blockDir, "note.png"); fileExists(p) {
			parts = append(parts, p)
		}
	}

	if p := filepath.Join(b.premiumDir, "block-9", "last.png"); fileExists(p) {
		parts = append(parts, p)
	}

	outPath := filepath.Join(b.outputDir, artifactName("premium_report", userID, "pdf"))
	if err := b.assembler.Combine(parts, outPath); err != nil {
		return "", err
	}
	return outPath, nil
}

// BuildText is the plain-text fallback used when PDF assembly is not
// possible. It works from whatever pages exist, so a partially generated
// document still yields a readable artifact.
func (b *Builder) BuildText(userID uuid.UUID, pages []report.GeneratedPage) (string, error) {
	if err := os.MkdirAll(b.outputDir, 0o755); err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, page := range sortPages(pages) {
		content := report.Clean(page.Content)
		if content == "" {
			content = "Analysis not available"
		}
		fmt.Fprintf(&sb, "PAGE %d: %s (%s, page %d)\n%s\n%s\n\n",
			page.GlobalPage, strings.ToUpper(page.SectionName), page.SectionKey, page.PageNum,
			strings.Repeat("=", 60), content)
	}
	outPath := filepath.Join(b.outputDir, artifactName("report", userID, "txt"))
	if err := os.WriteFile(outPath, []byte(strings.TrimSpace(sb.String())+"\n"), 0o644); err != nil {
		return "", err
	}
	return outPath, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
