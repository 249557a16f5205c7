package vision

import (
	"context"
	"io"
)

// ClassifyPrompt asks the model for a one-word menu verdict. Both backends
// send it unchanged; ParseBool handles the response.
const ClassifyPrompt = `Look at this photo. Is it a photograph of a restaurant food menu
(a printed or displayed list of dishes)? Answer with exactly one word: yes or no.`

// ExtractPrompt asks for dish names, one per line. ParseDishes strips any
// bullets or numbering the model adds anyway.
const ExtractPrompt = `This photo shows a restaurant menu. List the names of the dishes
that appear on it, one dish name per line. Output only the dish names:
no prices, no descriptions, no numbering, no commentary.`

// MenuAnalyzer is implemented by hosted vision backends. Both calls send the
// same image; the backends differ only in transport and prompt plumbing.
type MenuAnalyzer interface {
	// ClassifyMenu reports whether the image depicts a food menu.
	ClassifyMenu(ctx context.Context, r io.Reader, mimeType string) (bool, error)
	// ExtractDishes returns dish names in the order the model listed them,
	// already truncated to domain.MaxDishes.
	ExtractDishes(ctx context.Context, r io.Reader, mimeType string) ([]string, error)
}
