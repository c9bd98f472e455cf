package converter

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/yuanying/epub2json/internal/config"
	"github.com/yuanying/epub2json/internal/epub"
)

var fixedNow = time.Date(2024, 5, 6, 7, 8, 9, 123456789, time.FixedZone("JST", 9*60*60))

func draft(source, heading, docTitle string, paragraphs ...string) *chapterDraft {
	return &chapterDraft{Source: source, Heading: heading, DocTitle: docTitle, Paragraphs: paragraphs}
}

func TestResolveTitle(t *testing.T) {
	cfg := config.Default()
	body := "これは本文の最初の段落で二十二文字を超える長さがあります。"

	tests := []struct {
		name string
		nav  string
		d    *chapterDraft
		want string
	}{
		{name: "nav beats heading", nav: " 目次の題 ", d: draft("a", "見出し", "題名", body), want: "目次の題"},
		{name: "heading beats document title", d: draft("a", "見出し", "題名", body), want: "見出し"},
		{name: "document title", d: draft("a", "", "題名", body), want: "題名"},
		{name: "inferred", d: draft("a", "", "", body), want: "これは本文の最初の段落で二十二文字を超える長..."},
		{name: "section fallback", d: draft("a", "", "", "short"), want: "Section 4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveTitle(tt.nav, tt.d, 4, cfg); got != tt.want {
				t.Errorf("resolveTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChapterID(t *testing.T) {
	tests := []struct {
		seq  int
		want string
	}{
		{1, "chapter-001"},
		{42, "chapter-042"},
		{1000, "chapter-1000"},
	}
	for _, tt := range tests {
		if got := chapterID(tt.seq); got != tt.want {
			t.Errorf("chapterID(%d) = %q, want %q", tt.seq, got, tt.want)
		}
	}
}

func TestAssembleBook(t *testing.T) {
	cfg := config.Default()
	long := strings.Repeat("本", 30)
	md := epub.Metadata{
		Title:    "Test Book",
		Language: "en",
		Creators: []epub.Creator{{Name: "A"}, {Name: "B"}},
	}
	drafts := []*chapterDraft{
		nil,
		draft("OEBPS/front.xhtml", "", "", "0123456789"),
		draft("OEBPS/ch1.xhtml", "", "", long),
		draft("OEBPS/ch2.xhtml", "Heading", "", long),
	}
	nav := epub.NavMap{"OEBPS/ch1.xhtml": "第一章", "OEBPS/front.xhtml": "表紙"}

	book := assembleBook(md, drafts, nav, "test.epub", fixedNow, cfg)

	if book.Title != "Test Book" {
		t.Errorf("Title = %q, want %q", book.Title, "Test Book")
	}
	if book.Language != "en" {
		t.Errorf("Language = %q, want %q", book.Language, "en")
	}
	if strings.Join(book.Creators, ",") != "A,B" {
		t.Errorf("Creators = %v, want [A B]", book.Creators)
	}
	if book.SourceFile != "test.epub" {
		t.Errorf("SourceFile = %q, want %q", book.SourceFile, "test.epub")
	}
	if book.GeneratedAt != "2024-05-05T22:08:09.123Z" {
		t.Errorf("GeneratedAt = %q, want %q", book.GeneratedAt, "2024-05-05T22:08:09.123Z")
	}
	if book.ChapterCount != 2 || len(book.Chapters) != 2 {
		t.Fatalf("ChapterCount = %d, len(Chapters) = %d, want 2", book.ChapterCount, len(book.Chapters))
	}

	want := []Chapter{
		{ID: "chapter-001", Title: "第一章", Source: "OEBPS/ch1.xhtml"},
		{ID: "chapter-002", Title: "Heading", Source: "OEBPS/ch2.xhtml"},
	}
	for i, w := range want {
		got := book.Chapters[i]
		if got.ID != w.ID || got.Title != w.Title || got.Source != w.Source {
			t.Errorf("Chapters[%d] = {%s %s %s}, want {%s %s %s}", i, got.ID, got.Title, got.Source, w.ID, w.Title, w.Source)
		}
	}
}

func TestAssembleBook_Defaults(t *testing.T) {
	cfg := config.Default()
	book := assembleBook(epub.Metadata{}, nil, epub.NavMap{}, "吾輩は猫である.epub", fixedNow, cfg)

	if book.Title != "吾輩は猫である" {
		t.Errorf("Title = %q, want %q", book.Title, "吾輩は猫である")
	}
	if book.Language != "ja" {
		t.Errorf("Language = %q, want %q", book.Language, "ja")
	}
	if book.Creators == nil || book.Chapters == nil {
		t.Errorf("Creators/Chapters must be empty slices, got %v / %v", book.Creators, book.Chapters)
	}
	if book.ChapterCount != 0 {
		t.Errorf("ChapterCount = %d, want 0", book.ChapterCount)
	}
}

func TestAssembleBook_ContentGate(t *testing.T) {
	cfg := config.Default()
	tests := []struct {
		name      string
		paragraph []string
		wantKept  bool
	}{
		{name: "ten characters dropped", paragraph: []string{"0123456789"}, wantKept: false},
		{name: "twenty-three dropped", paragraph: []string{strings.Repeat("a", 23)}, wantKept: false},
		{name: "twenty-four kept", paragraph: []string{strings.Repeat("a", 24)}, wantKept: true},
		{name: "summed across paragraphs", paragraph: []string{strings.Repeat("あ", 12), strings.Repeat("い", 12)}, wantKept: true},
		{name: "supplementary characters count twice", paragraph: []string{strings.Repeat("𠮷", 12)}, wantKept: true},
		{name: "eleven supplementary characters dropped", paragraph: []string{strings.Repeat("𠮷", 11) + "a"}, wantKept: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drafts := []*chapterDraft{draft("x.xhtml", "", "", tt.paragraph...)}
			book := assembleBook(epub.Metadata{}, drafts, epub.NavMap{}, "x.epub", fixedNow, cfg)
			if got := book.ChapterCount == 1; got != tt.wantKept {
				t.Errorf("kept = %v, want %v", got, tt.wantKept)
			}
		})
	}
}

func TestAssembleBook_SectionFallbackUsesEmittedPosition(t *testing.T) {
	cfg := config.Default()
	filler := strings.Repeat("x", 5)
	para := []string{filler, filler, filler, filler, filler}
	drafts := []*chapterDraft{
		draft("a.xhtml", "", "", "short"),
		draft("b.xhtml", "", "", para...),
		draft("c.xhtml", "", "", para...),
	}

	book := assembleBook(epub.Metadata{}, drafts, epub.NavMap{}, "x.epub", fixedNow, cfg)
	if book.ChapterCount != 2 {
		t.Fatalf("ChapterCount = %d, want 2", book.ChapterCount)
	}
	if book.Chapters[1].Title != "Section 2" || book.Chapters[1].ID != "chapter-002" {
		t.Errorf("Chapters[1] = %s %q, want chapter-002 %q", book.Chapters[1].ID, book.Chapters[1].Title, "Section 2")
	}
}

func TestBook_MarshalIndent(t *testing.T) {
	book := &Book{
		Title:       "<Tom & Jerry>",
		Creators:    []string{},
		Language:    "ja",
		SourceFile:  "t.epub",
		GeneratedAt: "2024-01-01T00:00:00.000Z",
		Chapters:    []Chapter{{ID: "chapter-001", Title: "一", Source: "a.xhtml", Paragraphs: []string{"p"}}},
	}
	book.ChapterCount = len(book.Chapters)

	data, err := book.MarshalIndent()
	if err != nil {
		t.Fatalf("MarshalIndent() error = %v", err)
	}
	out := string(data)

	if !strings.HasPrefix(out, "{\n  \"title\": \"<Tom & Jerry>\",\n  \"creators\": [],") {
		t.Errorf("unexpected head:\n%s", out)
	}
	if strings.HasSuffix(out, "\n") {
		t.Error("output ends with a newline")
	}
	if strings.Contains(out, `"cover"`) {
		t.Error("cover must be omitted when not exported")
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	for _, key := range []string{"title", "creators", "language", "sourceFile", "generatedAt", "chapterCount", "chapters"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("key %q missing", key)
		}
	}
}
