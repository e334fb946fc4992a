package poster

import "strings"

// Wrap breaks text into lines no wider than maxWidth using greedy
// line-breaking: words accumulate into a line until the next word would
// overflow, then the line flushes. measure returns the rendered width of a
// string. The greedy behavior is intentional and must not be replaced with
// optimal-fit wrapping; poster layouts depend on these exact breaks.
//
// Wrapping text whose lines already fit returns the same breaks, so the
// operation is idempotent. A single word wider than maxWidth gets its own
// line rather than being split.
func Wrap(text string, maxWidth float64, measure func(string) float64) []string {
	var lines []string

	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			continue
		}

		line := words[0]
		for _, word := range words[1:] {
			candidate := line + " " + word
			if measure(candidate) > maxWidth {
				lines = append(lines, line)
				line = word
				continue
			}
			line = candidate
		}
		lines = append(lines, line)
	}

	return lines
}
