package shortener

import (
	"fmt"
	"strings"
)

// ValidateTag trims tag and checks it is 1..MaxTagLength ASCII letters or digits.
func ValidateTag(tag string) (string, error) {
	tag = strings.TrimSpace(tag)

	if tag == "" || len(tag) > MaxTagLength {
		return "", fmt.Errorf("%w: length must be between 1 and %d", ErrInvalidTag, MaxTagLength)
	}

	for i := range len(tag) {
		c := tag[i]
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9') {
			return "", fmt.Errorf("%w: %q may only contain letters and digits", ErrInvalidTag, tag)
		}
	}

	return tag, nil
}

// CleanTags dedupes tags, silently drops invalid ones and keeps at most MaxTags.
func CleanTags(tags []string) []string {
	cleaned := make([]string, 0, min(len(tags), MaxTags))
	seen := make(map[string]struct{}, len(tags))

	for _, raw := range tags {
		tag, err := ValidateTag(raw)
		if err != nil {
			continue
		}

		if _, dup := seen[tag]; dup {
			continue
		}

		seen[tag] = struct{}{}
		cleaned = append(cleaned, tag)

		if len(cleaned) == MaxTags {
			break
		}
	}

	return cleaned
}
