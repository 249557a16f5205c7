package vision

import (
	"fmt"
	"strings"

	"github.com/menupix/menupix/internal/domain"
)

// ParseBool interprets a classification response. Only the leading word
// counts; models often append qualifiers ("Yes, this is a menu.").
func ParseBool(raw string) (bool, error) {
	word := strings.ToLower(strings.TrimSpace(raw))
	if idx := strings.IndexAny(word, " \t\n.,!:;"); idx >= 0 {
		word = word[:idx]
	}
	switch word {
	case "yes":
		return true, nil
	case "no":
		return false, nil
	}
	return false, fmt.Errorf("unrecognised classification response %q", raw)
}

// ParseDishes parses an extraction response into dish names, one per line,
// in model order, capped at domain.MaxDishes. Bullets and numbering are
// stripped; preamble lines are skipped.
func ParseDishes(raw string) []string {
	lines := strings.Split(raw, "\n")
	dishes := make([]string, 0, domain.MaxDishes)

	for _, line := range lines {
		name := ParseDishLine(line)
		if name == "" {
			continue
		}
		dishes = append(dishes, name)
		if len(dishes) == domain.MaxDishes {
			break
		}
	}

	return dishes
}

// ParseDishLine extracts a dish name from a single response line, or returns
// "" if the line is empty, a list marker, or model preamble.
func ParseDishLine(line string) string {
	line = strings.TrimSpace(line)
	if line == "" {
		return ""
	}

	// Skip common preamble or trailing-commentary lines.
	for _, prefix := range []string{"Here", "I see", "I can see", "Based on", "The menu", "These are"} {
		if strings.HasPrefix(line, prefix) {
			return ""
		}
	}

	// Strip bullet markers.
	for _, marker := range []string{"-", "*", "•"} {
		line = strings.TrimSpace(strings.TrimPrefix(line, marker))
	}

	// Strip leading numbering like "1." or "2)".
	if idx := strings.IndexAny(line, ".)"); idx > 0 && idx <= 2 {
		if isDigits(line[:idx]) {
			line = strings.TrimSpace(line[idx+1:])
		}
	}

	return line
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}
