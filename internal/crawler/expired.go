package crawler

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Region is the part of a document holding expired codes.
// Node positions and text offsets are half-open ranges.
type Region struct {
	StartPos    int
	EndPos      int
	StartOffset int
	EndOffset   int
}

// ContainsNode reports whether a document-order node index lies in the region
func (r *Region) ContainsNode(pos int) bool {
	return r != nil && pos >= r.StartPos && pos < r.EndPos
}

// ContainsOffset reports whether a rendered text offset lies in the region
func (r *Region) ContainsOffset(offset int) bool {
	return r != nil && offset >= r.StartOffset && offset < r.EndOffset
}

// findExpiredRegion locates the expired section. A heading whose text starts
// with label opens it; it runs to the next heading allowed by mode, or the end
// of the document. Without such a heading, a table whose header cell starts
// with label is used instead. Returns nil when neither exists.
func findExpiredRegion(idx *docIndex, label string, mode BoundaryMode) *Region {
	label = strings.ToLower(strings.Join(strings.Fields(label), " "))
	if label == "" {
		return nil
	}

	for i, h := range idx.headings {
		if !strings.HasPrefix(strings.ToLower(nodeText(h.node)), label) {
			continue
		}
		start := idx.end[h.node]
		end := idx.size
		for _, next := range idx.headings[i+1:] {
			if next.pos < start {
				// nested inside the matched heading
				continue
			}
			if mode == BoundaryAny || next.level <= h.level {
				end = next.pos
				break
			}
		}
		return idx.region(start, end)
	}

	if table := findLabelledTable(idx, label); table != nil {
		return idx.region(idx.order[table], idx.end[table])
	}
	return nil
}

func (idx *docIndex) region(start, end int) *Region {
	return &Region{
		StartPos:    start,
		EndPos:      end,
		StartOffset: idx.offsetOf(start),
		EndOffset:   idx.offsetOf(end),
	}
}

// findLabelledTable returns the table owning the first <th> that starts with label
func findLabelledTable(idx *docIndex, label string) *html.Node {
	for _, th := range idx.doc.Find("th").Nodes {
		if !strings.HasPrefix(strings.ToLower(nodeText(th)), label) {
			continue
		}
		for p := th.Parent; p != nil; p = p.Parent {
			if p.Type == html.ElementNode && p.DataAtom == atom.Table {
				return p
			}
		}
	}
	return nil
}
