// Package source turns operator-supplied inputs into the raw text the
// generation step works from. Text input passes through unchanged; URL
// input is fetched and reduced to readable text; image input goes
// through a pluggable OCR-style extractor.
package source

import "context"

// TextExtractor pulls usable text out of an uploaded image. Real
// deployments plug in a vision-capable backend; dev and tests use
// StaticExtractor.
type TextExtractor interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
}

// StaticExtractor returns a fixed string for every image. It stands in
// for OCR in environments without a vision backend so the studio flow
// stays demonstrable.
type StaticExtractor struct {
	Text string
}

// ExtractText implements TextExtractor.
func (s *StaticExtractor) ExtractText(_ context.Context, _ []byte) (string, error) {
	return s.Text, nil
}
