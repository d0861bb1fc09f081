package crawler

import (
	"strings"

	"sjsage522/shiftcodeworker/internal/shiftcode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// NoExpiration is reported for codes the page lists as permanent
const NoExpiration = "No expiration"

// activeTableHeaders label the active table when its heading is missing
var activeTableHeaders = []string{"limited-time", "permanent"}

// extractExpirations reads the active codes table. Rows come in pairs: one
// holding the code, the next holding reward and expiry. The expiry is the
// text of a .simple-event element in the second cell, or the cell text.
func extractExpirations(idx *docIndex, label string) map[string]string {
	table := findActiveTable(idx, label)
	if table == nil {
		return nil
	}

	rows := goquery.NewDocumentFromNode(table).Find("tr")
	expirations := make(map[string]string)
	for i := 0; i < rows.Length(); i++ {
		codes := rowCodes(rows.Eq(i))
		if len(codes) == 0 {
			continue
		}

		expiration := ""
		if i+1 < rows.Length() {
			expiration = expiryText(rows.Eq(i + 1))
		}
		for _, code := range codes {
			expirations[code] = expiration
		}
		// the details row is consumed with its code row
		i++
	}
	return expirations
}

// findActiveTable returns the first table after the heading starting with
// label, or the first table whose header names limited-time or permanent codes.
func findActiveTable(idx *docIndex, label string) *html.Node {
	label = strings.ToLower(strings.Join(strings.Fields(label), " "))
	if label != "" {
		for _, h := range idx.headings {
			if !strings.HasPrefix(strings.ToLower(nodeText(h.node)), label) {
				continue
			}
			if table := nextTable(idx, idx.end[h.node]); table != nil {
				return table
			}
			break
		}
	}

	for _, th := range idx.doc.Find("th").Nodes {
		text := strings.ToLower(nodeText(th))
		for _, header := range activeTableHeaders {
			if !strings.Contains(text, header) {
				continue
			}
			for p := th.Parent; p != nil; p = p.Parent {
				if p.Type == html.ElementNode && p.DataAtom == atom.Table {
					return p
				}
			}
		}
	}
	return nil
}

// nextTable returns the first table starting at or after document position pos
func nextTable(idx *docIndex, pos int) *html.Node {
	var found *html.Node
	best := idx.size
	for _, table := range idx.doc.Find("table").Nodes {
		if p := idx.order[table]; p >= pos && p < best {
			found, best = table, p
		}
	}
	return found
}

// rowCodes returns the unique codes in a row's text and attribute values
func rowCodes(row *goquery.Selection) []string {
	var codes []string
	seen := make(map[string]struct{})
	add := func(text string) {
		for _, token := range shiftcode.Scan(text) {
			if _, ok := seen[token.Value]; ok {
				continue
			}
			seen[token.Value] = struct{}{}
			codes = append(codes, token.Value)
		}
	}

	add(nodeText(row.Nodes[0]))
	row.Find("*").AddSelection(row).Each(func(_ int, s *goquery.Selection) {
		for _, attr := range s.Nodes[0].Attr {
			add(attr.Val)
		}
	})
	return codes
}

// expiryText reads the expiry from a details row
func expiryText(row *goquery.Selection) string {
	container := row
	if cells := row.Find("td"); cells.Length() >= 2 {
		container = cells.Eq(1)
	}

	if event := container.Find(".simple-event").First(); event.Length() > 0 {
		if text := nodeText(event.Nodes[0]); text != "" {
			return text
		}
	}

	text := nodeText(container.Nodes[0])
	if strings.Contains(strings.ToLower(text), "no expiration") {
		return NoExpiration
	}
	return text
}
