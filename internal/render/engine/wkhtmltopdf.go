package engine

import (
	"context"
	"fmt"
	"strings"

	wkhtmltopdf "github.com/SebastiaanKlippert/go-wkhtmltopdf"
)

// Page geometry is fixed: A4 with uniform margins, matching the printed
// letter forms.
const marginMM = 20

// WkhtmltopdfEngine runs one wkhtmltopdf process per conversion. The
// generator is created and discarded per call, so a crashed or hung engine
// never poisons later renders.
type WkhtmltopdfEngine struct{}

// NewWkhtmltopdf configures the binary path once and returns the engine.
// An empty path leaves the library's default lookup in place.
func NewWkhtmltopdf(binPath string) *WkhtmltopdfEngine {
	if binPath != "" {
		wkhtmltopdf.SetPath(binPath)
	}
	return &WkhtmltopdfEngine{}
}

func (e *WkhtmltopdfEngine) Convert(ctx context.Context, markup string) ([]byte, error) {
	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("create pdf generator: %w", err)
	}
	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA4)
	pdfg.MarginTop.Set(marginMM)
	pdfg.MarginBottom.Set(marginMM)
	pdfg.MarginLeft.Set(marginMM)
	pdfg.MarginRight.Set(marginMM)

	page := wkhtmltopdf.NewPageReader(strings.NewReader(markup))
	page.DisableExternalLinks.Set(true)
	pdfg.AddPage(page)

	// wkhtmltopdf can hang on malformed markup; run the conversion in a
	// goroutine so the caller's deadline always wins.
	done := make(chan error, 1)
	go func() {
		done <- pdfg.Create()
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("pdf conversion: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("pdf conversion: %w", err)
		}
	}

	out := pdfg.Bytes()
	if len(out) == 0 {
		return nil, fmt.Errorf("pdf conversion produced no output")
	}
	return out, nil
}
