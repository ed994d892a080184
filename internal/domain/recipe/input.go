package recipe

import (
	"strings"
	"unicode"
)

// missingValue stands in for any field the model left out.
const missingValue = "default"

// maxStemLen caps the sanitized stem so paths stay reasonable.
const maxStemLen = 64

// fallbackStem is used when nothing survives sanitizing.
const fallbackStem = "recipe"

// Input is the decoded transmit_recipe tool input.
type Input struct {
	Details     string
	ImagePrompt string
	FileStem    string
}

// ParseInput reads the tool input document. Missing or non-string fields
// become "default" rather than failing the call.
func ParseInput(raw map[string]any) Input {
	return Input{
		Details:     stringField(raw, FieldDetails),
		ImagePrompt: stringField(raw, FieldImagePrompt),
		FileStem:    stringField(raw, FieldFileStem),
	}
}

func stringField(raw map[string]any, key string) string {
	v, ok := raw[key]
	if !ok {
		return missingValue
	}
	s, ok := v.(string)
	if !ok {
		return missingValue
	}
	return s
}

// SanitizeStem makes a model-provided stem safe to use as a filename:
// lowercase [a-z0-9_] only, no leading/trailing or repeated underscores,
// at most 64 characters. Path separators and dots never survive, so the
// result cannot escape the output directory.
func SanitizeStem(stem string) string {
	var sb strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(stem) {
		ok := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !ok {
			if lastUnderscore {
				continue
			}
			sb.WriteByte('_')
			lastUnderscore = true
			continue
		}
		sb.WriteRune(r)
		lastUnderscore = false
	}

	out := strings.Trim(sb.String(), "_")
	if len(out) > maxStemLen {
		out = strings.TrimRight(out[:maxStemLen], "_")
	}
	if out == "" {
		return fallbackStem
	}
	return out
}

// Title extracts a display title from recipe details: the first non-empty
// line, without markdown heading markers or emphasis.
func Title(details string) string {
	for _, line := range strings.Split(details, "\n") {
		t := strings.TrimSpace(line)
		t = strings.TrimLeft(t, "#")
		t = strings.TrimFunc(t, func(r rune) bool {
			return r == '*' || r == '_' || unicode.IsSpace(r)
		})
		t = strings.TrimPrefix(t, "Title:")
		t = strings.TrimSpace(t)
		if t != "" {
			return t
		}
	}
	return ""
}
