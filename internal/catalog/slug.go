package catalog

import (
	"fmt"

	"github.com/gosimple/slug"
)

// UniqueSlug builds a URL slug from name and appends -2, -3, ... until taken
// reports the candidate free.
func UniqueSlug(name string, taken func(string) bool) string {
	base := slug.Make(name)
	if base == "" {
		base = "item"
	}
	candidate := base
	for i := 2; taken(candidate); i++ {
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return candidate
}
