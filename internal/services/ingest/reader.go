package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

// Page is one page of extracted source text. Plain-text and markdown
// documents produce a single page.
type Page struct {
	Number int
	Text   string
}

// readDocument extracts raw text from a source document. The extraction
// backends (pdfcpu, goldmark) are opaque text producers; everything
// downstream only sees pages of plain text.
func readDocument(path string, logger arbor.ILogger) ([]Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source document: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return readPDF(path, logger)
	case ".md", ".markdown":
		return []Page{{Number: 1, Text: markdownToText(data)}}, nil
	default:
		return []Page{{Number: 1, Text: string(data)}}, nil
	}
}

// markdownToText flattens a markdown document to plain text, keeping
// headings and paragraphs separated by blank lines so the chunker sees
// the same boundaries a plain-text playbook would have.
func markdownToText(source []byte) string {
	md := goldmark.New()
	doc := md.Parser().Parse(gmtext.NewReader(source))

	var builder strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			switch n.Kind() {
			case ast.KindHeading, ast.KindParagraph, ast.KindListItem, ast.KindBlockquote:
				builder.WriteString("\n\n")
			}
			return ast.WalkContinue, nil
		}

		if t, ok := n.(*ast.Text); ok {
			builder.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				builder.WriteString("\n")
			}
		}
		return ast.WalkContinue, nil
	})

	return builder.String()
}

// readPDF extracts per-page text via pdfcpu. A page that fails extraction
// yields empty text for that page rather than aborting the ingestion.
func readPDF(path string, logger arbor.ILogger) ([]Page, error) {
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	pageCount := pdfCtx.PageCount

	outDir, err := os.MkdirTemp("", "livewire-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction directory: %w", err)
	}
	defer os.RemoveAll(outDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(path, outDir, nil, conf); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("PDF content extraction failed, pages will be empty")
		pages := make([]Page, 0, pageCount)
		for pageNum := 1; pageNum <= pageCount; pageNum++ {
			pages = append(pages, Page{Number: pageNum})
		}
		return pages, nil
	}

	files, _ := os.ReadDir(outDir)
	pageTexts := make(map[int]string)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err != nil {
			continue
		}
		// pdfcpu names extracted files by page number
		var pageNum int
		if _, err := fmt.Sscanf(file.Name(), "page_%d", &pageNum); err == nil {
			pageTexts[pageNum] = string(content)
		} else if _, err := fmt.Sscanf(file.Name(), "Content_page_%d", &pageNum); err == nil {
			pageTexts[pageNum] = string(content)
		}
	}

	pages := make([]Page, 0, pageCount)
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		pages = append(pages, Page{Number: pageNum, Text: pageTexts[pageNum]})
	}
	return pages, nil
}
