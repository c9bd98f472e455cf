package converter

import (
	"regexp"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
)

var (
	lineBreakPattern   = regexp.MustCompile(`\r?\n+`)
	multiSpacePattern  = regexp.MustCompile(` {2,}`)
	docSuffixPattern   = regexp.MustCompile(`(?i)\.(xhtml|html)$`)
	generatedTitleRegs = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^part\d+`),
		regexp.MustCompile(`(?i)^ch\d+$`),
		regexp.MustCompile(`(?i)^id\d+$`),
	}
)

// cleanText turns no-break spaces into spaces, folds line breaks and runs of
// spaces into a single space, and trims the result.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = lineBreakPattern.ReplaceAllString(s, " ")
	s = multiSpacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// looksLikeGeneratedTitle reports whether title is a tool-generated file
// label such as "Part0001", "ch3" or "id42".
func looksLikeGeneratedTitle(title string) bool {
	for _, re := range generatedTitleRegs {
		if re.MatchString(title) {
			return true
		}
	}
	return false
}

// documentTitle cleans a <title> value, drops a trailing .xhtml/.html and
// discards generated labels.
func documentTitle(raw string) string {
	title := docSuffixPattern.ReplaceAllString(cleanText(raw), "")
	if looksLikeGeneratedTitle(title) {
		return ""
	}
	return title
}

// textLength counts UTF-16 code units, so a supplementary-plane character
// such as 𠮷 counts as two. Thresholds and truncation are measured this way
// to match lengths recorded in existing book data.
func textLength(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// truncateText cuts s to at most maxLen UTF-16 code units. A surrogate pair
// that would straddle the limit is dropped whole.
func truncateText(s string, maxLen int) string {
	n := 0
	for i, r := range s {
		w := utf16.RuneLen(r)
		if n+w > maxLen {
			return s[:i]
		}
		n += w
	}
	return s
}

// inferTitle uses the first paragraph of at least minSource characters, cut
// to maxLen characters with "..." appended when longer.
func inferTitle(paragraphs []string, minSource, maxLen int) string {
	for _, p := range paragraphs {
		n := textLength(p)
		if n < minSource {
			continue
		}
		if n <= maxLen {
			return p
		}
		return truncateText(p, maxLen) + "..."
	}
	return ""
}

// contentLength is the total textLength of paragraphs.
func contentLength(paragraphs []string) int {
	total := 0
	for _, p := range paragraphs {
		total += textLength(p)
	}
	return total
}

// isHTMLMediaType matches "html" case-insensitively, which covers
// application/xhtml+xml and text/html.
func isHTMLMediaType(mediaType string) bool {
	return strings.Contains(strings.ToLower(mediaType), "html")
}

var xmlDeclEncodingPattern = regexp.MustCompile(`^\s*<\?xml\s[^>]*?\bencoding\s*=\s*["']([A-Za-z0-9._:-]+)["']`)

// toUTF8 re-decodes chapter bytes that are not valid UTF-8. A byte order
// mark wins, then the XML declaration's encoding, then <meta charset> and
// content sniffing.
func toUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}
	enc, name, certain := charset.DetermineEncoding(data, "text/html")
	if !certain {
		if m := xmlDeclEncodingPattern.FindSubmatch(data); m != nil {
			if declared, declaredName := charset.Lookup(string(m[1])); declared != nil {
				enc, name = declared, declaredName
			}
		}
	}
	if name == "utf-8" {
		return data
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return data
	}
	return decoded
}

var selfClosingRawTagPattern = regexp.MustCompile(`(?is)<(script|style|title|noscript)\b([^>]*?)\s*/>`)

// normalizeSelfClosingRawTags expands XHTML self-closing raw-text elements
// such as <script src="a.js"/>, which an HTML parser would otherwise treat
// as an unterminated start tag swallowing the rest of the document.
func normalizeSelfClosingRawTags(data []byte) []byte {
	if !selfClosingRawTagPattern.Match(data) {
		return data
	}
	return selfClosingRawTagPattern.ReplaceAll(data, []byte(`<$1$2></$1>`))
}
