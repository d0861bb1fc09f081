package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// textSpan locates one text node inside the rendered text
type textSpan struct {
	pos    int // document-order index of the text node
	offset int // byte offset of the node's data in docIndex.text
}

// attrValue is one attribute value of an element
type attrValue struct {
	pos   int // document-order index of the element
	value string
}

type heading struct {
	node  *html.Node
	level int
	pos   int
}

// docIndex numbers every node of a document in document order and keeps
// the rendered text together with the position of each text node in it.
type docIndex struct {
	doc      *goquery.Document
	order    map[*html.Node]int
	end      map[*html.Node]int // index following the node's last descendant
	headings []heading
	text     string
	spans    []textSpan
	attrs    []attrValue
	size     int
}

// skipped elements are never rendered as text
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
}

func newDocIndex(doc *goquery.Document) *docIndex {
	idx := &docIndex{
		doc:   doc,
		order: make(map[*html.Node]int),
		end:   make(map[*html.Node]int),
	}

	var text strings.Builder
	var walk func(n *html.Node, hidden bool)
	walk = func(n *html.Node, hidden bool) {
		pos := idx.size
		idx.order[n] = pos
		idx.size++

		switch n.Type {
		case html.ElementNode:
			if skipped[n.DataAtom] {
				hidden = true
			}
			if level := headingLevel(n); level > 0 {
				idx.headings = append(idx.headings, heading{node: n, level: level, pos: pos})
			}
			for _, attr := range n.Attr {
				if strings.TrimSpace(attr.Val) != "" {
					idx.attrs = append(idx.attrs, attrValue{pos: pos, value: attr.Val})
				}
			}
		case html.TextNode:
			if !hidden && strings.TrimSpace(n.Data) != "" {
				if text.Len() > 0 {
					// Separate nodes so adjacent cells never fuse into one token
					text.WriteByte('\n')
				}
				idx.spans = append(idx.spans, textSpan{pos: pos, offset: text.Len()})
				text.WriteString(n.Data)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, hidden)
		}
		idx.end[n] = idx.size
	}

	for _, root := range doc.Nodes {
		walk(root, false)
	}
	idx.text = text.String()
	return idx
}

// offsetOf returns the text offset of the first text node at or after pos
func (idx *docIndex) offsetOf(pos int) int {
	for _, span := range idx.spans {
		if span.pos >= pos {
			return span.offset
		}
	}
	return len(idx.text)
}

func headingLevel(n *html.Node) int {
	if n.Type != html.ElementNode {
		return 0
	}
	switch n.DataAtom {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	}
	return 0
}

// nodeText returns the whitespace-collapsed text of a node
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
