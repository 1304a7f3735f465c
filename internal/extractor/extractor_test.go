package extractor

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-match-go/internal/pipeline"
	"resume-match-go/internal/types"
)

func newTestExtractor(t *testing.T, opts ...Option) *Extractor {
	t.Helper()
	e, err := New(context.Background(), opts...)
	require.NoError(t, err)
	return e
}

func TestExtractRejectsUnsupportedFormat(t *testing.T) {
	e := newTestExtractor(t)

	_, err := e.Extract(context.Background(), types.Document{
		Data:   []byte("plain text body"),
		Format: types.DocumentFormat("RTF"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrUnsupportedFormat)
}

func TestExtractRejectsOversizedInput(t *testing.T) {
	e := newTestExtractor(t, WithSizeLimit(16))

	_, err := e.Extract(context.Background(), types.Document{
		Data:   bytes.Repeat([]byte("a"), 17),
		Format: types.FormatPDF,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrInputTooLarge)

	// The cap is checked before any parser runs, so the same payload one
	// byte smaller reaches the engines and fails differently.
	_, err = e.Extract(context.Background(), types.Document{
		Data:   bytes.Repeat([]byte("a"), 16),
		Format: types.FormatPDF,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrExtractionFailure)
}

func TestExtractCorruptBinaries(t *testing.T) {
	e := newTestExtractor(t)

	testCases := []struct {
		name   string
		doc    types.Document
		sentry error
	}{
		{
			name:   "empty document",
			doc:    types.Document{Data: nil, Format: types.FormatPDF},
			sentry: pipeline.ErrExtractionFailure,
		},
		{
			name:   "garbage pdf",
			doc:    types.Document{Data: []byte("%PDF-not really a pdf"), Format: types.FormatPDF},
			sentry: pipeline.ErrExtractionFailure,
		},
		{
			name:   "garbage docx",
			doc:    types.Document{Data: []byte("PK garbage that is no zip"), Format: types.FormatDOCX},
			sentry: pipeline.ErrExtractionFailure,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.Extract(context.Background(), tc.doc)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.sentry)
		})
	}
}

func TestParseDocumentFormat(t *testing.T) {
	testCases := []struct {
		in     string
		want   types.DocumentFormat
		wantOK bool
	}{
		{in: "pdf", want: types.FormatPDF, wantOK: true},
		{in: ".PDF", want: types.FormatPDF, wantOK: true},
		{in: "docx", want: types.FormatDOCX, wantOK: true},
		{in: "DocX", want: types.FormatDOCX, wantOK: true},
		{in: "doc", wantOK: false},
		{in: "", wantOK: false},
	}

	for _, tc := range testCases {
		got, ok := types.ParseDocumentFormat(tc.in)
		assert.Equal(t, tc.wantOK, ok, tc.in)
		if tc.wantOK {
			assert.Equal(t, tc.want, got, tc.in)
		}
	}
}
