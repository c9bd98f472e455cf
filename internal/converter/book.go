package converter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuanying/epub2json/internal/config"
	"github.com/yuanying/epub2json/internal/epub"
)

// timestampLayout matches JavaScript's Date.prototype.toISOString.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Book is the JSON document written for one EPUB.
type Book struct {
	Title        string       `json:"title"`
	Creators     []string     `json:"creators"`
	Language     string       `json:"language"`
	SourceFile   string       `json:"sourceFile"`
	GeneratedAt  string       `json:"generatedAt"`
	ChapterCount int          `json:"chapterCount"`
	Chapters     []Chapter    `json:"chapters"`
	Cover        *CoverExport `json:"cover,omitempty"`
}

// Chapter is one emitted spine document.
type Chapter struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Source     string   `json:"source"`
	Paragraphs []string `json:"paragraphs"`
}

// assembleBook filters drafts through the content gate, assigns ids and
// titles in spine order, and fills in book metadata. A nil draft marks a
// spine entry that produced nothing.
func assembleBook(md epub.Metadata, drafts []*chapterDraft, nav epub.NavMap, sourceFile string, now time.Time, cfg *config.Config) *Book {
	book := &Book{
		Title:       md.Title,
		Creators:    md.CreatorNames(),
		Language:    md.Language,
		SourceFile:  sourceFile,
		GeneratedAt: now.UTC().Format(timestampLayout),
		Chapters:    []Chapter{},
	}
	if book.Title == "" {
		book.Title = strings.TrimSuffix(sourceFile, filepath.Ext(sourceFile))
	}
	if book.Language == "" {
		book.Language = cfg.DefaultLanguage
	}

	for _, d := range drafts {
		if d == nil || contentLength(d.Paragraphs) < cfg.MinContentLength {
			continue
		}
		seq := len(book.Chapters) + 1
		book.Chapters = append(book.Chapters, Chapter{
			ID:         chapterID(seq),
			Title:      resolveTitle(nav.Title(d.Source), d, seq, cfg),
			Source:     d.Source,
			Paragraphs: d.Paragraphs,
		})
	}
	book.ChapterCount = len(book.Chapters)

	return book
}

// MarshalIndent encodes the book with two-space indentation and without
// HTML escaping, so Japanese text and quotes stay readable.
func (b *Book) MarshalIndent() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return nil, fmt.Errorf("failed to encode book: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
