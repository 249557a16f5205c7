// Package markdown renders scan results as the Markdown the chat front ends
// deliver. All output is deterministic: the same results always produce the
// same bytes.
package markdown

import (
	"fmt"
	"strings"

	"github.com/menupix/menupix/internal/domain"
)

// User-facing messages for the terminal pipeline outcomes.
const (
	MsgNotMenu       = "This doesn't look like a food menu. Please send a photo of a menu."
	MsgNoDishes      = "I couldn't detect any dishes on this menu."
	MsgAnalyzeFailed = "Sorry, I could not analyze this image."
)

// NoImagePlaceholder is rendered instead of a broken link when the search
// found nothing for a dish.
const NoImagePlaceholder = "_No image found._"

// Header introduces a scan that found n dishes.
func Header(n int) string {
	if n == 1 {
		return "Found 1 dish on the menu:\n\n"
	}
	return fmt.Sprintf("Found %d dishes on the menu:\n\n", n)
}

// DishBlock renders one dish as a heading plus either a clickable inline
// image or the no-image placeholder.
func DishBlock(r domain.PhotoResult) string {
	if r.ImageURL == "" {
		return fmt.Sprintf("### %s\n\n%s\n\n", r.Dish, NoImagePlaceholder)
	}
	return fmt.Sprintf("### %s\n\n[![%s](%s)](%s)\n\n", r.Dish, r.Dish, r.ImageURL, r.ImageURL)
}

// Render assembles a complete scan response from resolved results.
func Render(results []domain.PhotoResult) string {
	var sb strings.Builder
	sb.WriteString(Header(len(results)))
	for _, r := range results {
		sb.WriteString(DishBlock(r))
	}
	return sb.String()
}
