package pdf

import (
	"fmt"
	"os"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/prizma-app/prizma-backend/internal/report"
)

// FontLibrary hands out faces at arbitrary sizes from one parsed TTF. With
// no font configured it degrades to the fixed bitmap face, which keeps
// layout and tests working without font assets on disk.
type FontLibrary struct {
	tf *truetype.Font

	mu    sync.Mutex
	faces map[float64]font.Face
}

func LoadFontLibrary(fontPath string) (*FontLibrary, error) {
	lib := &FontLibrary{faces: map[float64]font.Face{}}
	if fontPath == "" {
		return lib, nil
	}
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	lib.tf = parsedFont
	return lib, nil
}

func (l *FontLibrary) Face(size float64) font.Face {
	if l.tf == nil {
		return basicfont.Face7x13
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if f, ok := l.faces[size]; ok {
		return f
	}
	f := truetype.NewFace(l.tf, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	l.faces[size] = f
	return f
}

// FaceMeasurer measures line widths with the same faces the renderer draws
// with, so pagination and rendering agree on wrapping.
type FaceMeasurer struct {
	Lib *FontLibrary
}

func (m FaceMeasurer) Width(text string, class report.LineClass) float64 {
	face := m.Lib.Face(report.FontSize(class))
	return float64(font.MeasureString(face, text)) / 64.0
}
