package catalog

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// maxSKUAttempts bounds the numeric-suffix probe before falling back to a
// random suffix, so a pathological collision cluster cannot spin forever.
const maxSKUAttempts = 50

// GenerateSKU derives a human-readable SKU from the product name and the
// variant's option values: an abbreviated name prefix followed by sorted
// value abbreviations. Collisions get a numeric suffix; after
// maxSKUAttempts the suffix becomes random.
func GenerateSKU(productName string, values []string, taken func(string) bool) string {
	parts := []string{abbreviateName(productName)}

	sorted := append([]string(nil), values...)
	sort.Strings(sorted)
	for _, v := range sorted {
		if abbr := abbreviateWord(v); abbr != "" {
			parts = append(parts, abbr)
		}
	}

	base := strings.Join(parts, "-")
	if !taken(base) {
		return base
	}
	for i := 2; i <= maxSKUAttempts; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if !taken(candidate) {
			return candidate
		}
	}
	return fmt.Sprintf("%s-%s", base, strings.ToUpper(uuid.NewString()[:8]))
}

// abbreviateName takes the first letter of up to three words.
func abbreviateName(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		for _, r := range word {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(unicode.ToUpper(r))
				break
			}
		}
		if b.Len() >= 3 {
			break
		}
	}
	if b.Len() == 0 {
		return "SKU"
	}
	return b.String()
}

// abbreviateWord keeps the first three alphanumeric characters, uppercased.
func abbreviateWord(word string) string {
	var b strings.Builder
	for _, r := range word {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
		if b.Len() >= 3 {
			break
		}
	}
	return b.String()
}
