package converter

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// nonProseSelector matches ruby annotations and non-rendered blocks, which
// must not leak into paragraph text or heading detection.
const nonProseSelector = "rt, rp, script, style, noscript"

const paragraphSelector = "body p, body li, body blockquote"

// chapterDraft is what a single spine document yields before the content
// gate, id assignment and title resolution.
type chapterDraft struct {
	Source     string
	Heading    string
	DocTitle   string
	Paragraphs []string
}

// extractChapter parses one XHTML/HTML document and collects its heading,
// its <title> and its paragraph-level text in document order.
func extractChapter(source string, data []byte) (*chapterDraft, error) {
	data = normalizeSelfClosingRawTags(toUTF8(data))
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", source, err)
	}

	doc.Find(nonProseSelector).Remove()

	draft := &chapterDraft{
		Source:     source,
		Heading:    firstHeading(doc),
		DocTitle:   documentTitle(doc.Find("head > title").First().Text()),
		Paragraphs: []string{},
	}

	doc.Find(paragraphSelector).Each(func(i int, s *goquery.Selection) {
		if text := cleanText(s.Text()); text != "" {
			draft.Paragraphs = append(draft.Paragraphs, text)
		}
	})

	if len(draft.Paragraphs) == 0 {
		if text := cleanText(doc.Find("body").Text()); text != "" {
			draft.Paragraphs = append(draft.Paragraphs, text)
		}
	}

	return draft, nil
}

// firstHeading returns the cleaned text of the first h1, falling back to
// the first h2 and then the first h3.
func firstHeading(doc *goquery.Document) string {
	for _, tag := range []string{"h1", "h2", "h3"} {
		if text := cleanText(doc.Find(tag).First().Text()); text != "" {
			return text
		}
	}
	return ""
}
