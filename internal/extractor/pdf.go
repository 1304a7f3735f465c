package extractor

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	einopdf "github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoparser "github.com/cloudwego/eino/components/document/parser"
	lpdf "github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"
)

// pdfParseTimeout bounds a single parse attempt; corrupt cross-reference
// tables can otherwise spin for a long time.
const pdfParseTimeout = 30 * time.Second

// PDFExtractor pulls plain text out of PDF binaries. The eino parser is the
// primary engine; when it errors or yields nothing the pure-Go page walker
// takes a second pass, mirroring how the original tooling chained engines.
type PDFExtractor struct {
	parser *einopdf.PDFParser
	logger zerolog.Logger
}

// NewPDFExtractor builds the extractor. The context only scopes parser
// construction, not later calls.
func NewPDFExtractor(ctx context.Context, logger zerolog.Logger) (*PDFExtractor, error) {
	p, err := einopdf.NewPDFParser(ctx, &einopdf.Config{
		// One continuous text stream for the whole document; section
		// recovery runs on headings, not page boundaries.
		ToPages: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pdf parser: %w", err)
	}
	return &PDFExtractor{parser: p, logger: logger}, nil
}

// ExtractText returns the concatenated text content of the PDF.
func (e *PDFExtractor) ExtractText(ctx context.Context, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, pdfParseTimeout)
	defer cancel()

	text, primaryErr := e.extractWithEino(ctx, data)
	if primaryErr == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}

	if primaryErr != nil {
		e.logger.Debug().Err(primaryErr).Msg("primary pdf engine failed, trying fallback")
	}

	text, fallbackErr := extractWithPageWalk(data)
	if fallbackErr == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}

	if primaryErr == nil {
		primaryErr = fmt.Errorf("no text content")
	}
	if fallbackErr == nil {
		fallbackErr = fmt.Errorf("no text content")
	}
	return "", fmt.Errorf("pdf extraction failed: %v; fallback: %v", primaryErr, fallbackErr)
}

func (e *PDFExtractor) extractWithEino(ctx context.Context, data []byte) (string, error) {
	docs, err := e.parser.Parse(ctx, bytes.NewReader(data),
		einoparser.WithURI("resume.pdf"),
	)
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return "", fmt.Errorf("parser returned no documents")
	}

	var sb strings.Builder
	for i, doc := range docs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(doc.Content)
	}
	return sb.String(), nil
}

// extractWithPageWalk reads every page's plain text with the pure-Go engine.
func extractWithPageWalk(data []byte) (text string, err error) {
	// The page walker panics on some malformed files instead of returning
	// an error; contain that here.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	reader, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, pageErr := page.GetPlainText(nil)
		if pageErr != nil {
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
