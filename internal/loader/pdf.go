// Package loader extracts page text from source documents.
package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/ledongthuc/pdf"

	"ragchat/internal/domain"
)

// Metadata keys attached to every page document.
const (
	MetaSource     = "source"
	MetaPage       = "page"
	MetaPageLabel  = "page_label"
	MetaTotalPages = "total_pages"
)

var infoKeys = map[string]string{
	"Title":        "title",
	"Author":       "author",
	"Creator":      "creator",
	"Producer":     "producer",
	"CreationDate": "creationdate",
}

// PDF loads one domain.Document per page of a PDF file.
type PDF struct{}

func NewPDF() *PDF { return &PDF{} }

// Load extracts the plain text of every page. Pages without extractable text
// are returned with empty content so page numbering stays aligned.
// The pdf package panics on some malformed streams; that is reported as an error.
func (l *PDF) Load(ctx context.Context, path string) (docs []domain.Document, err error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &domain.DocumentNotFoundError{Path: path}
		}
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			docs, err = nil, fmt.Errorf("read pdf %s: %v", path, r)
		}
	}()
	return l.load(ctx, path)
}

func (l *PDF) load(ctx context.Context, path string) ([]domain.Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	info := documentInfo(r)
	total := r.NumPage()
	docs := make([]domain.Document, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		var text string
		if !page.V.IsNull() {
			text, err = page.GetPlainText(nil)
			if err != nil {
				return nil, fmt.Errorf("extract page %d of %s: %w", i, path, err)
			}
		}
		docs = append(docs, domain.Document{
			Content:  text,
			Metadata: PageMetadata(path, i-1, total, info),
		})
	}
	return docs, nil
}

// PageMetadata builds the metadata of a zero-based page index.
func PageMetadata(source string, page, total int, info map[string]any) map[string]any {
	md := make(map[string]any, len(info)+4)
	for k, v := range info {
		md[k] = v
	}
	md[MetaSource] = source
	md[MetaPage] = page
	md[MetaPageLabel] = strconv.Itoa(page + 1)
	md[MetaTotalPages] = total
	return md
}

func documentInfo(r *pdf.Reader) map[string]any {
	out := make(map[string]any, len(infoKeys))
	dict := r.Trailer().Key("Info")
	for pdfKey, key := range infoKeys {
		out[key] = dict.Key(pdfKey).Text()
	}
	return out
}
