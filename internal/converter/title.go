package converter

import (
	"fmt"

	"github.com/yuanying/epub2json/internal/config"
)

// resolveTitle picks the first non-empty of: the navigation label, the
// heading, the document <title>, a title inferred from the body, and
// "Section N" where seq is the 1-based position among emitted chapters.
func resolveTitle(navLabel string, d *chapterDraft, seq int, cfg *config.Config) string {
	candidates := []string{
		cleanText(navLabel),
		d.Heading,
		d.DocTitle,
		inferTitle(d.Paragraphs, cfg.InferredTitleMinSource, cfg.InferredTitleLength),
	}
	for _, title := range candidates {
		if title != "" {
			return title
		}
	}
	return fmt.Sprintf("Section %d", seq)
}

// chapterID formats the 1-based emitted position as chapter-NNN.
func chapterID(seq int) string {
	return fmt.Sprintf("chapter-%03d", seq)
}
