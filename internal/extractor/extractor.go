// Package extractor converts uploaded resume binaries into labeled plain
// text sections. Supported formats are PDF and DOCX; anything else is
// rejected before any parser runs.
package extractor

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"resume-match-go/internal/logger"
	"resume-match-go/internal/pipeline"
	"resume-match-go/internal/types"
)

const (
	// defaultSizeLimit caps accepted uploads at 10 MiB.
	defaultSizeLimit = int64(10 << 20)
	// defaultMinSectionChars drops recovered sections shorter than this.
	defaultMinSectionChars = 3
)

var _ pipeline.DocumentExtractor = (*Extractor)(nil)

// Extractor is the document intake stage. Safe for concurrent use.
type Extractor struct {
	pdf             *PDFExtractor
	docx            *DOCXExtractor
	sizeLimit       int64
	minSectionChars int
	logger          zerolog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithSizeLimit overrides the input size cap in bytes.
func WithSizeLimit(limit int64) Option {
	return func(e *Extractor) {
		if limit > 0 {
			e.sizeLimit = limit
		}
	}
}

// WithMinSectionChars overrides the minimum section body length.
func WithMinSectionChars(min int) Option {
	return func(e *Extractor) {
		if min >= 0 {
			e.minSectionChars = min
		}
	}
}

// WithLogger overrides the default package logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Extractor) {
		e.logger = l
	}
}

// New builds an Extractor with both format engines ready.
func New(ctx context.Context, opts ...Option) (*Extractor, error) {
	e := &Extractor{
		docx:            NewDOCXExtractor(),
		sizeLimit:       defaultSizeLimit,
		minSectionChars: defaultMinSectionChars,
		logger:          logger.Logger,
	}
	for _, opt := range opts {
		opt(e)
	}

	pdfExtractor, err := NewPDFExtractor(ctx, e.logger)
	if err != nil {
		return nil, err
	}
	e.pdf = pdfExtractor
	return e, nil
}

// Extract converts the document into ordered labeled sections.
//
// Failure modes follow the intake taxonomy: ErrInputTooLarge for payloads
// over the cap, ErrUnsupportedFormat for formats outside PDF/DOCX, and
// ErrExtractionFailure for corrupt binaries or binaries with no text.
func (e *Extractor) Extract(ctx context.Context, doc types.Document) (*types.ExtractedText, error) {
	if doc.Size() == 0 {
		return nil, pipeline.NewExtractionError("document is empty")
	}
	if doc.Size() > e.sizeLimit {
		return nil, pipeline.NewInputTooLargeError(
			fmt.Sprintf("%d bytes exceeds limit of %d", doc.Size(), e.sizeLimit))
	}

	var (
		raw string
		err error
	)
	switch doc.Format {
	case types.FormatPDF:
		raw, err = e.pdf.ExtractText(ctx, doc.Data)
	case types.FormatDOCX:
		raw, err = e.docx.ExtractText(ctx, doc.Data)
	default:
		return nil, pipeline.NewUnsupportedFormatError(string(doc.Format))
	}
	if err != nil {
		return nil, pipeline.NewExtractionError(err.Error())
	}

	sections := splitSections(raw, e.minSectionChars)
	charCount := sectionCharCount(sections)
	if charCount == 0 {
		return nil, pipeline.NewExtractionError("no recoverable text in document")
	}

	e.logger.Debug().
		Str("format", string(doc.Format)).
		Int("sections", len(sections)).
		Int("chars", charCount).
		Msg("document extracted")

	return &types.ExtractedText{Sections: sections, CharCount: charCount}, nil
}
