package crawler

import (
	"io"

	perrors "sjsage522/shiftcodeworker/pkg/errors"

	"github.com/PuerkitoBio/goquery"
)

// NewDocument creates a goquery document from a UTF-8 reader
func NewDocument(source string, reader io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, perrors.NewParsing(source, "failed to parse HTML", err)
	}
	return doc, nil
}
