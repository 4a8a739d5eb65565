package knowledge

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
)

// Document kinds recognized by the extractor.
const (
	kindPDF  = "pdf"
	kindHTML = "html"
	kindText = "text"
)

// detectKind classifies a fetched body by Content-Type header, falling back
// to the URL's file extension. Anything unrecognized is treated as plain text.
func detectKind(contentType, sourceURL string) string {
	ct := strings.ToLower(contentType)
	if mediaType, _, found := strings.Cut(ct, ";"); found {
		ct = strings.TrimSpace(mediaType)
	}
	switch {
	case strings.Contains(ct, "pdf"):
		return kindPDF
	case strings.Contains(ct, "html"):
		return kindHTML
	case ct != "" && ct != "application/octet-stream":
		return kindText
	}

	if u, err := url.Parse(sourceURL); err == nil {
		switch strings.ToLower(path.Ext(u.Path)) {
		case ".pdf":
			return kindPDF
		case ".html", ".htm":
			return kindHTML
		}
	}
	return kindText
}

// extractText converts a fetched body into plain text according to its kind.
func extractText(ctx context.Context, body []byte, contentType, sourceURL string) (string, error) {
	switch detectKind(contentType, sourceURL) {
	case kindPDF:
		return extractPDF(ctx, body)
	case kindHTML:
		return extractHTML(body)
	default:
		return string(body), nil
	}
}

// extractPDF extracts plain text from all pages of a PDF document.
// Pages that fail text extraction are skipped; the document fails only
// when it cannot be opened at all.
func extractPDF(ctx context.Context, body []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return "", fmt.Errorf("parsing PDF: %w", err)
	}

	var sb strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(text)
	}

	return sb.String(), nil
}

// extractHTML extracts visible text from an HTML document, dropping
// script/style/noscript content.
func extractHTML(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	doc.Find("script, style, noscript").Remove()

	text := doc.Find("body").Text()
	if strings.TrimSpace(text) == "" {
		text = doc.Text()
	}
	return normalizeWhitespace(text), nil
}

// normalizeWhitespace collapses runs of blank lines and trims each line so
// HTML-derived text chunks cleanly on paragraph boundaries.
func normalizeWhitespace(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var sb strings.Builder
	blank := true
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank {
				sb.WriteString("\n\n")
				blank = true
			}
			continue
		}
		if !blank {
			sb.WriteString("\n")
		}
		sb.WriteString(line)
		blank = false
	}
	return strings.TrimSpace(sb.String())
}
