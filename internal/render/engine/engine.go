// Package engine converts bound letter markup into a binary PDF. The real
// implementation shells out to wkhtmltopdf; the interface keeps the pipeline
// testable without a binary on the path.
package engine

import "context"

// Engine converts markup into a PDF document. Implementations must be safe
// for concurrent use and must tear down any per-call resources whether the
// conversion succeeds or fails.
type Engine interface {
	Convert(ctx context.Context, markup string) ([]byte, error)
}
