package pdf

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fogleman/gg"

	"github.com/prizma-app/prizma-backend/internal/pkg/logger"
	"github.com/prizma-app/prizma-backend/internal/report"
)

// Text colors, one per line class.
var (
	colorBody  = [3]int{1, 28, 92}
	colorMajor = [3]int{218, 5, 52}
	colorMinor = [3]int{2, 88, 185}
)

// Renderer draws cleaned report text over PNG template backgrounds. Layout
// is computed in PDF points against the A4 geometry and scaled to the
// template's pixel width, so templates of any resolution line up with the
// final PDF pages.
type Renderer struct {
	log        *logger.Logger
	fonts      *FontLibrary
	classifier report.Classifier
}

func NewRenderer(log *logger.Logger, fonts *FontLibrary, classifier report.Classifier) *Renderer {
	return &Renderer{
		log:        log.With("service", "PageRenderer"),
		fonts:      fonts,
		classifier: classifier,
	}
}

// Measurer exposes the renderer's font metrics for pagination.
func (r *Renderer) Measurer() report.Measurer {
	return FaceMeasurer{Lib: r.fonts}
}

func classColor(class report.LineClass) [3]int {
	switch class {
	case report.LineHeadingMajor:
		return colorMajor
	case report.LineHeadingMinor:
		return colorMinor
	}
	return colorBody
}

// RenderContentPages cleans and paginates content, then renders each page
// over the template. Output files land in tempDir as <prefix>_<n>.png; the
// caller owns their cleanup. Content that cleans down to nothing produces
// no files.
func (r *Renderer) RenderContentPages(templatePath, content, tempDir, prefix string) ([]string, error) {
	cleaned := report.Clean(content)
	if cleaned == "" {
		return nil, nil
	}
	pages := report.Paginate(cleaned, r.classifier, r.Measurer())
	if len(pages) == 0 {
		return nil, nil
	}

	var outPaths []string
	for i, page := range pages {
		outPath := filepath.Join(tempDir, fmt.Sprintf("%s_%d.png", prefix, i+1))
		if err := r.renderPage(templatePath, page, outPath); err != nil {
			return outPaths, err
		}
		outPaths = append(outPaths, outPath)
	}
	return outPaths, nil
}

func (r *Renderer) renderPage(templatePath string, page report.Page, outPath string) error {
	img, err := gg.LoadImage(templatePath)
	if err != nil {
		return fmt.Errorf("failed to load template %s: %w", templatePath, err)
	}
	dc := gg.NewContextForImage(img)
	scale := float64(img.Bounds().Dx()) / report.PageWidthPt

	y := report.MarginTop * scale
	for _, line := range page {
		switch line.Class {
		case report.LineHeadingMajor:
			y += 10 * scale
		case report.LineHeadingMinor:
			y += 8 * scale
		}
		dc.SetFontFace(r.fonts.Face(report.FontSize(line.Class) * scale))
		c := classColor(line.Class)
		dc.SetRGB255(c[0], c[1], c[2])
		dc.DrawString(line.Text, report.MarginLeft*scale, y)
		y += report.LineHeight(line.Class) * scale
	}

	if err := dc.SavePNG(outPath); err != nil {
		return fmt.Errorf("failed to save rendered page: %w", err)
	}
	return nil
}

// RenderTitlePage personalizes the title template with the subject's name
// and completion date, both centered below the page middle.
func (r *Renderer) RenderTitlePage(templatePath, userName string, completedAt time.Time, outPath string) error {
	img, err := gg.LoadImage(templatePath)
	if err != nil {
		return fmt.Errorf("failed to load title template %s: %w", templatePath, err)
	}
	dc := gg.NewContextForImage(img)
	scale := float64(img.Bounds().Dx()) / report.PageWidthPt

	dc.SetFontFace(r.fonts.Face(16 * scale))
	dc.SetRGB255(colorBody[0], colorBody[1], colorBody[2])

	cx := report.PageWidthPt / 2 * scale
	y := (report.PageHeightPt/2 + 200) * scale
	for _, line := range []string{
		fmt.Sprintf("Created for %s", userName),
		completedAt.Format("02.01.2006"),
	} {
		w, _ := dc.MeasureString(line)
		dc.DrawString(line, cx-w/2, y)
		y += 25 * scale
	}

	if err := dc.SavePNG(outPath); err != nil {
		return fmt.Errorf("failed to save title page: %w", err)
	}
	return nil
}
