package scorer

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ValidationResult contains the results of content validation
type ValidationResult struct {
	Valid  bool
	Issues []string
}

// ValidationOptions configures description validation. Lengths count
// characters (runes); MaxLength 0 disables the upper bound.
type ValidationOptions struct {
	MaxLength       int
	MinLength       int
	AllowEmpty      bool
	AllowWhitespace bool
	TrimWhitespace  bool
}

// DefaultValidationOptions rejects empty and whitespace-only descriptions and
// sets no upper bound on length
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{
		MaxLength:       0,
		MinLength:       MinContentLength,
		AllowEmpty:      false,
		AllowWhitespace: false,
		TrimWhitespace:  true,
	}
}

// ValidateContent reports every problem found with a description
func ValidateContent(content string, opts ValidationOptions) ValidationResult {
	result := ValidationResult{Valid: true}
	fail := func(issue string) {
		result.Valid = false
		result.Issues = append(result.Issues, issue)
	}

	if content == "" {
		if !opts.AllowEmpty {
			fail("content is empty")
		}
		return result
	}

	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		if !opts.AllowWhitespace {
			fail("content contains only whitespace")
		}
		return result
	}

	checkContent := content
	if opts.TrimWhitespace {
		checkContent = trimmed
	}
	length := utf8.RuneCountInString(checkContent)

	if length < opts.MinLength {
		fail(fmt.Sprintf("content too short (%d chars, minimum %d)", length, opts.MinLength))
	}

	if opts.MaxLength > 0 && length > opts.MaxLength {
		fail(fmt.Sprintf("content too long (%d chars, maximum %d)", length, opts.MaxLength))
	}

	return result
}

// ValidateDescription checks a description before it is sent for scoring.
// It returns nil or an error matching one of ErrEmptyInput,
// ErrContentWhitespace, ErrContentTooShort or ErrContentTooLong.
func ValidateDescription(description string, opts ValidationOptions) error {
	result := ValidateContent(description, opts)
	if result.Valid {
		return nil
	}

	var kind error
	switch issue := result.Issues[0]; {
	case issue == "content is empty":
		kind = ErrEmptyInput
	case issue == "content contains only whitespace":
		kind = ErrContentWhitespace
	case strings.HasPrefix(issue, "content too long"):
		kind = ErrContentTooLong
	default:
		kind = ErrContentTooShort
	}
	return fmt.Errorf("%w: %s", kind, strings.Join(result.Issues, "; "))
}
