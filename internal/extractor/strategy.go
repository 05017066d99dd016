package extractor

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/colegioelo/vagas/internal/domain/models"
	"github.com/colegioelo/vagas/pkg/clients/browser"
)

// Strategy converts the frame holding the rendered report into classroom records.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, frame browser.Frame) ([]models.ClassroomRecord, error)
}

// TextStrategy parses the visible text of the frame, where table cells are
// separated by tabs and rows by newlines.
type TextStrategy struct {
	parser *Parser
}

// NewTextStrategy builds the line-oriented strategy.
func NewTextStrategy(parser *Parser) *TextStrategy {
	return &TextStrategy{parser: parser}
}

// Name identifies the strategy in logs.
func (s *TextStrategy) Name() string { return "text" }

// Extract reads the frame text and parses it.
func (s *TextStrategy) Extract(ctx context.Context, frame browser.Frame) ([]models.ClassroomRecord, error) {
	text, err := frame.Text(ctx)
	if err != nil {
		return nil, fmt.Errorf("read frame text: %w", err)
	}
	return s.parser.ParseText(text), nil
}

// HTMLStrategy parses the frame markup table row by table row.
type HTMLStrategy struct {
	parser *Parser
}

// NewHTMLStrategy builds the markup strategy.
func NewHTMLStrategy(parser *Parser) *HTMLStrategy {
	return &HTMLStrategy{parser: parser}
}

// Name identifies the strategy in logs.
func (s *HTMLStrategy) Name() string { return "html" }

// Extract reads the frame markup and parses its table rows.
func (s *HTMLStrategy) Extract(ctx context.Context, frame browser.Frame) ([]models.ClassroomRecord, error) {
	markup, err := frame.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("read frame html: %w", err)
	}
	return s.ParseHTML(markup)
}

// ParseHTML flattens every table row into a tab-separated line and parses the
// result with the same rules as the text strategy.
func (s *HTMLStrategy) ParseHTML(markup string) ([]models.ClassroomRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse report html: %w", err)
	}

	var lines []string
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		var cells []string
		row.ChildrenFiltered("td, th").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.Join(strings.Fields(cell.Text()), " "))
		})
		if len(cells) > 0 {
			lines = append(lines, strings.Join(cells, "\t"))
		}
	})

	return s.parser.ParseLines(lines), nil
}
