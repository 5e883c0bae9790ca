package catalog

import "testing"

func TestUniqueSlug(t *testing.T) {
	t.Parallel()

	never := func(string) bool { return false }

	if got := UniqueSlug("Green Tea Sampler", never); got != "green-tea-sampler" {
		t.Fatalf("expected green-tea-sampler, got %s", got)
	}

	taken := map[string]bool{
		"green-tea-sampler":   true,
		"green-tea-sampler-2": true,
	}
	got := UniqueSlug("Green Tea Sampler", func(s string) bool { return taken[s] })
	if got != "green-tea-sampler-3" {
		t.Fatalf("expected suffix -3, got %s", got)
	}

	if got := UniqueSlug("!!!", never); got != "item" {
		t.Fatalf("expected fallback slug, got %s", got)
	}
}
