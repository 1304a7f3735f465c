package extractor

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

// DOCXExtractor pulls plain text out of Word (OOXML) binaries.
type DOCXExtractor struct{}

// NewDOCXExtractor builds the extractor.
func NewDOCXExtractor() *DOCXExtractor {
	return &DOCXExtractor{}
}

var (
	docxParagraphRe = regexp.MustCompile(`</w:p>`)
	docxBreakRe     = regexp.MustCompile(`<w:br[^>]*/?>`)
	docxTagRe       = regexp.MustCompile(`<[^>]+>`)
)

// ExtractText returns the document text with paragraph boundaries preserved
// as newlines.
func (e *DOCXExtractor) ExtractText(_ context.Context, data []byte) (text string, err error) {
	// The docx reader indexes into the zip and can panic on truncated files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("docx reader panic: %v", r)
		}
	}()

	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	return flattenDocxXML(doc.Editable().GetContent()), nil
}

// flattenDocxXML turns raw document.xml markup into plain text: paragraph
// ends and explicit breaks become newlines, every other tag is dropped, and
// the basic XML entities are unescaped.
func flattenDocxXML(content string) string {
	content = docxParagraphRe.ReplaceAllString(content, "\n")
	content = docxBreakRe.ReplaceAllString(content, "\n")
	content = docxTagRe.ReplaceAllString(content, "")

	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&apos;", "'",
	)
	return strings.TrimSpace(replacer.Replace(content))
}
