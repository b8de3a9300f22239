package assets

import (
	"fmt"
	"strings"
)

// Style selects how the sequence suffix of an asset name is written.
type Style string

const (
	// StylePadded starts at _01 and always carries a two-digit suffix.
	StylePadded Style = "padded"
	// StylePlain leaves the first name unsuffixed, then uses _2, _3, ...
	StylePlain Style = "plain"
)

// Valid reports whether s is a known style.
func (s Style) Valid() bool {
	return s == StylePadded || s == StylePlain
}

// BaseName joins the entity and bucket keys.
func BaseName(entityKey, bucketKey string) string {
	return entityKey + "_" + bucketKey
}

func candidate(style Style, base string, seq int) string {
	if style == StylePlain {
		if seq == 1 {
			return base
		}
		return fmt.Sprintf("%s_%d", base, seq)
	}
	return fmt.Sprintf("%s_%02d", base, seq)
}

// NextName returns the first name for base, with the smallest sequence number,
// that collides with nothing in existing. Existing names match with or without ext.
func NextName(style Style, base, ext string, existing []string) string {
	taken := make(map[string]bool, len(existing))
	for _, name := range existing {
		taken[name] = true
		if ext != "" {
			taken[strings.TrimSuffix(name, ext)] = true
		}
	}
	for seq := 1; ; seq++ {
		name := candidate(style, base, seq)
		if !taken[name] && !taken[name+ext] {
			return name + ext
		}
	}
}
