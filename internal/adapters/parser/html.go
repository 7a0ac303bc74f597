package parser

import (
	"bytes"
	"fmt"

	"dm-archive-viewer/internal/ports"

	"github.com/PuerkitoBio/goquery"
)

// HTMLParser реализует интерфейс Parser для разбора HTML-архива
// в дерево документа с выборкой по CSS-селекторам.
type HTMLParser struct{}

// NewHTMLParser создает новый экземпляр HTMLParser.
func NewHTMLParser() ports.Parser {
	return &HTMLParser{}
}

// Parse преобразует срез байт с HTML в дерево документа.
func (p *HTMLParser) Parse(data []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return doc, nil
}
