package crawler

import "sjsage522/shiftcodeworker/internal/shiftcode"

// fallbackScan finds code-shaped tokens anywhere in the rendered text,
// independent of the page structure, then in attribute values such as
// href and data-*. An attribute candidate is positioned at the text offset
// of its element.
func fallbackScan(idx *docIndex) []Candidate {
	tokens := shiftcode.Scan(idx.text)
	candidates := make([]Candidate, 0, len(tokens))
	for _, token := range tokens {
		candidates = append(candidates, Candidate{Code: token.Value, Pos: token.Offset})
	}

	for _, attr := range idx.attrs {
		for _, token := range shiftcode.Scan(attr.value) {
			candidates = append(candidates, Candidate{Code: token.Value, Pos: idx.offsetOf(attr.pos)})
		}
	}
	return candidates
}
