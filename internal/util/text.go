package util

import (
	"strings"
)

// ExtractMentions extracts @pseudonym mentions from text content.
// Returns unique pseudonyms in order of first appearance, without the @.
func ExtractMentions(content string) []string {
	var mentions []string
	seen := make(map[string]bool)

	for _, word := range strings.Fields(content) {
		if !strings.HasPrefix(word, "@") || len(word) < 2 {
			continue
		}
		name := strings.TrimRight(strings.TrimPrefix(word, "@"), ".,!?;:)'\"")
		key := strings.ToLower(name)
		if len(name) < 3 || len(name) > 30 || seen[key] {
			continue
		}
		seen[key] = true
		mentions = append(mentions, name)
	}
	return mentions
}
