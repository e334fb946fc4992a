package handlers

import (
	"strings"
	"unicode/utf8"

	"lumafin/internal/models"
)

// Validation limits for studio and settings form fields.
const (
	maxTitleLen     = 300
	maxSlugLen      = 300
	maxContentLen   = 100_000
	maxMetaDescLen  = 500
	maxRawSourceLen = 50_000
	maxNameLen      = 200
	maxPromptLen    = 2_000
)

// validateEditor checks editor form inputs and returns the first error found.
func validateEditor(title, slug, content, metaDesc string) string {
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "Title is too long (max 300 characters)."
	}
	if utf8.RuneCountInString(slug) > maxSlugLen {
		return "Slug is too long (max 300 characters)."
	}
	if utf8.RuneCountInString(content) > maxContentLen {
		return "Content is too long (max 100,000 characters)."
	}
	if utf8.RuneCountInString(metaDesc) > maxMetaDescLen {
		return "Meta description is too long (max 500 characters)."
	}
	return ""
}

// validateStrategy checks the strategy form inputs.
func validateStrategy(rawSource, prompt string) string {
	if utf8.RuneCountInString(rawSource) > maxRawSourceLen {
		return "Source material is too long (max 50,000 characters)."
	}
	if utf8.RuneCountInString(prompt) > maxPromptLen {
		return "Prompt is too long (max 2,000 characters)."
	}
	return ""
}

// validateBrand checks the brand settings form and returns the first
// error found.
func validateBrand(b models.BrandConfig) string {
	if strings.TrimSpace(b.CompanyName) == "" {
		return "Company name is required."
	}
	if utf8.RuneCountInString(b.CompanyName) > maxNameLen {
		return "Company name is too long (max 200 characters)."
	}
	for _, hex := range []string{b.PrimaryColor, b.SecondaryColor, b.AccentColor} {
		if hex != "" && !validHexColor(hex) {
			return "Colors must be #RRGGBB values."
		}
	}
	return ""
}

// validHexColor reports whether s is a #RRGGBB color value.
func validHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, c := range s[1:] {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
