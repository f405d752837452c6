package verify

import "testing"

func TestDefaultRelatedFileMatcherKeyword(t *testing.T) {
	candidates := []string{"internal/anton/controller.go", "internal/vaultstore/filevault.go", "README.md"}
	matches := DefaultRelatedFileMatcher("fix the vault search ranking", candidates)

	found := false
	for _, m := range matches {
		if m == "internal/vaultstore/filevault.go" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected vaultstore file to match, got %v", matches)
	}
}

func TestDefaultRelatedFileMatcherGlob(t *testing.T) {
	candidates := []string{"internal/anton/controller.go", "cmd/anton/main.go"}
	matches := DefaultRelatedFileMatcher("update internal/**/*.go for retry handling", candidates)
	if len(matches) != 1 || matches[0] != "internal/anton/controller.go" {
		t.Fatalf("unexpected matches: %v", matches)
	}
}

func TestDefaultRelatedFileMatcherNoMatch(t *testing.T) {
	matches := DefaultRelatedFileMatcher("unrelated task text", []string{"README.md"})
	if len(matches) != 0 {
		t.Fatalf("expected no matches, got %v", matches)
	}
}
