package http

import (
	"chatbot_erp/internal/usecases"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Input validation constants
const (
	MaxQuestionLength  = 2000
	MaxTitleLength     = 256
	MaxVariationLength = 500
	MaxVariations      = 200
	MaxResponseLength  = 20000
	MaxUsernameLength  = 64
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// ValidUsername checks if a username is safe (alphanumeric, underscore, dot, hyphen)
func ValidUsername(s string) bool {
	return s != "" && len(s) <= MaxUsernameLength && usernamePattern.MatchString(s)
}

// SanitizeString removes null bytes and invalid UTF-8
func SanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	return s
}

// ValidateLength checks if string is within bounds, counting runes
func ValidateLength(s string, min, max int) bool {
	l := utf8.RuneCountInString(s)
	return l >= min && l <= max
}

// sanitizeIntentInput cleans every free-text field and enforces length limits.
func sanitizeIntentInput(in *usecases.NewIntentInput) error {
	in.Title = SanitizeString(in.Title)
	if !ValidateLength(in.Title, 0, MaxTitleLength) {
		return fmt.Errorf("title longer than %d characters", MaxTitleLength)
	}

	if len(in.Variations) > MaxVariations {
		return fmt.Errorf("at most %d variations per intent", MaxVariations)
	}
	for i, v := range in.Variations {
		in.Variations[i] = SanitizeString(v)
		if !ValidateLength(in.Variations[i], 0, MaxVariationLength) {
			return fmt.Errorf("variation %d longer than %d characters", i+1, MaxVariationLength)
		}
	}

	in.Response = SanitizeString(in.Response)
	if !ValidateLength(in.Response, 0, MaxResponseLength) {
		return fmt.Errorf("response longer than %d characters", MaxResponseLength)
	}
	if t := in.Template; t != nil {
		for i := range t.Variants {
			t.Variants[i] = SanitizeString(t.Variants[i])
		}
	}
	return nil
}

// parseID parses a positive int64 path parameter.
func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	return id, err == nil && id > 0
}
