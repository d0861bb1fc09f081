package crawler

import (
	"slices"
	"strings"

	"sjsage522/shiftcodeworker/internal/shiftcode"

	"github.com/PuerkitoBio/goquery"
)

// targetedScan collects code tokens from elements matching the selectors.
// It reports how many elements matched, whether or not they held a code.
func targetedScan(idx *docIndex, sel Selectors) ([]Candidate, int) {
	tag := strings.TrimSpace(sel.Tag)
	tokens := cleanTokens(sel.ClassTokens)
	if tag == "" || len(tokens) == 0 {
		return nil, 0
	}

	var candidates []Candidate
	matched := 0
	idx.doc.Find(tag).Each(func(_ int, s *goquery.Selection) {
		if !hasClasses(s, tokens, sel.RequireAll) {
			return
		}
		matched++

		// nodeText keeps a break between text nodes, so "CODE<br>CODE" stays two tokens
		pos := idx.order[s.Nodes[0]]
		for _, token := range shiftcode.Scan(nodeText(s.Nodes[0])) {
			candidates = append(candidates, Candidate{Code: token.Value, Pos: pos})
		}
	})

	return candidates, matched
}

// hasClasses checks the element's class attribute against the tokens
func hasClasses(s *goquery.Selection, tokens []string, requireAll bool) bool {
	classes := strings.Fields(s.AttrOr("class", ""))
	if len(classes) == 0 {
		return false
	}
	for _, token := range tokens {
		found := slices.Contains(classes, token)
		if found && !requireAll {
			return true
		}
		if !found && requireAll {
			return false
		}
	}
	return requireAll
}

func cleanTokens(tokens []string) []string {
	cleaned := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if token = strings.TrimSpace(token); token != "" {
			cleaned = append(cleaned, token)
		}
	}
	return cleaned
}

// selectorString renders the selectors for log messages, e.g. "span.task-name|bold"
func selectorString(sel Selectors) string {
	sep := "|"
	if sel.RequireAll {
		sep = "."
	}
	return sel.Tag + "." + strings.Join(cleanTokens(sel.ClassTokens), sep)
}
