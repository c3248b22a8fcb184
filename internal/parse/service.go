package parse

import (
	"strings"

	"github.com/routepulse/collector-cli/internal/model"
)

// ClassifyService maps a free-text operator category string onto the
// controlled service vocabulary by keyword matching. Text that matches
// nothing is preserved verbatim with the Unclassified flag set rather
// than discarded.
func ClassifyService(raw string) model.ServiceLabel {
	cleaned := Sanitize(raw)
	text := strings.ToLower(cleaned)

	if text == "" || text == "n/a" {
		return model.ServiceLabel{Raw: cleaned, Unclassified: true}
	}

	ac := hasAC(text)
	nonAC := hasNonAC(text)

	switch {
	case strings.Contains(text, "semi sleeper") || strings.Contains(text, "semi-sleeper") || strings.Contains(text, "semisleeper"):
		if nonAC {
			return model.ServiceLabel{Class: model.ServiceNonACSemiSleep, Raw: cleaned}
		}
		if ac {
			return model.ServiceLabel{Class: model.ServiceACSemiSleeper, Raw: cleaned}
		}
		return model.ServiceLabel{Class: model.ServiceSemiSleeper, Raw: cleaned}
	case strings.Contains(text, "sleeper"):
		if nonAC {
			return model.ServiceLabel{Class: model.ServiceNonACSleeper, Raw: cleaned}
		}
		if ac {
			return model.ServiceLabel{Class: model.ServiceACSleeper, Raw: cleaned}
		}
		return model.ServiceLabel{Class: model.ServiceSleeper, Raw: cleaned}
	case strings.Contains(text, "seater"):
		if nonAC {
			return model.ServiceLabel{Class: model.ServiceNonACSeater, Raw: cleaned}
		}
		if ac {
			return model.ServiceLabel{Class: model.ServiceACSeater, Raw: cleaned}
		}
		return model.ServiceLabel{Class: model.ServiceSeater, Raw: cleaned}
	case nonAC:
		return model.ServiceLabel{Class: model.ServiceNonAC, Raw: cleaned}
	case ac:
		return model.ServiceLabel{Class: model.ServiceAC, Raw: cleaned}
	}

	return model.ServiceLabel{Raw: cleaned, Unclassified: true}
}

func hasNonAC(text string) bool {
	return strings.Contains(text, "non-ac") ||
		strings.Contains(text, "non ac") ||
		strings.Contains(text, "nonac")
}

func hasAC(text string) bool {
	if hasNonAC(text) {
		return false
	}
	// Match "ac" as a standalone token so "pushback" or "coach" don't trip it.
	for _, tok := range strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == '(' || r == ')' || r == ',' || r == '-'
	}) {
		if tok == "ac" || tok == "a/c" || tok == "a.c." || tok == "a.c" {
			return true
		}
	}
	return false
}
