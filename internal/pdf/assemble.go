package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/prizma-app/prizma-backend/internal/pkg/logger"
	"github.com/prizma-app/prizma-backend/internal/report"
)

// Assembler stitches an ordered list of full-bleed page images into one
// A4 PDF.
type Assembler struct {
	log *logger.Logger
}

func NewAssembler(log *logger.Logger) *Assembler {
	return &Assembler{log: log.With("service", "PDFAssembler")}
}

// Combine writes every page image, in order, into a PDF at outPath. All
// inputs are verified up front so a missing template fails the run before
// anything is written. The document is built at a .partial path and renamed
// into place, so a crash mid-write never leaves a readable half-document.
func (a *Assembler) Combine(imagePaths []string, outPath string) error {
	if len(imagePaths) == 0 {
		return fmt.Errorf("no pages to combine")
	}
	for _, p := range imagePaths {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("page image missing: %s: %w", p, err)
		}
	}

	doc := gofpdf.New("P", "pt", "A4", "")
	for _, p := range imagePaths {
		imageType := strings.ToUpper(strings.TrimPrefix(filepath.Ext(p), "."))
		doc.AddPage()
		doc.ImageOptions(p, 0, 0, report.PageWidthPt, report.PageHeightPt, false,
			gofpdf.ImageOptions{ImageType: imageType}, 0, "")
	}
	if doc.Err() {
		return fmt.Errorf("pdf build failed: %v", doc.Error())
	}

	partial := outPath + ".partial"
	if err := doc.OutputFileAndClose(partial); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	if err := os.Rename(partial, outPath); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("failed to finalize pdf: %w", err)
	}
	a.log.Info("Assembled PDF", "path", outPath, "pages", len(imagePaths))
	return nil
}
