package epub

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseNavDocument reads an EPUB 3 navigation document. Entries of the toc nav
// (or the first nav when none is typed) are visited depth-first, and the
// first label seen for each target path wins.
func ParseNavDocument(content []byte, navPath string) (NavMap, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse nav document %s: %w", navPath, err)
	}

	nav := doc.Find("nav").FilterFunction(func(i int, s *goquery.Selection) bool {
		return hasEpubType(s, "toc")
	}).First()
	if nav.Length() == 0 {
		nav = doc.Find("nav").First()
	}

	titles := make(NavMap)
	walkNavList(nav.Find("ol").First(), navPath, titles)
	return titles, nil
}

func walkNavList(ol *goquery.Selection, navPath string, titles NavMap) {
	ol.ChildrenFiltered("li").Each(func(i int, li *goquery.Selection) {
		a := li.ChildrenFiltered("a").First()
		if a.Length() == 0 {
			a = li.ChildrenFiltered(":not(ol)").Find("a").First()
		}
		if href, ok := a.Attr("href"); ok && href != "" {
			titles.add(ResolveRef(navPath, href), strings.TrimSpace(a.Text()))
		}
		li.ChildrenFiltered("ol").Each(func(i int, child *goquery.Selection) {
			walkNavList(child, navPath, titles)
		})
	})
}

// hasEpubType reports whether s carries typeName among its epub:type tokens.
func hasEpubType(s *goquery.Selection, typeName string) bool {
	val, _ := s.Attr("epub:type")
	for _, t := range strings.Fields(val) {
		if t == typeName {
			return true
		}
	}
	return false
}
