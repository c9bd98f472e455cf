package epub

import (
	"fmt"

	"github.com/yuanying/epub2json/internal/xmltree"
)

// NavMap maps a resolved chapter path to the first navigation label that
// references it.
type NavMap map[string]string

// add records label for p unless p already has one or either is empty.
// Keys are NFC composed so lookups match however the href was spelled.
func (m NavMap) add(p, label string) {
	p = NormalizePath(p)
	if p == "" || label == "" {
		return
	}
	if _, seen := m[p]; seen {
		return
	}
	m[p] = label
}

// Title returns the label recorded for p.
func (m NavMap) Title(p string) string {
	return m[NormalizePath(p)]
}

// ParseNCX walks the navMap of an NCX document depth-first in document order.
// ncxPath is the archive path of the NCX file; content sources are resolved
// against its directory.
func ParseNCX(content []byte, ncxPath string) (NavMap, error) {
	doc, err := xmltree.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse NCX %s: %w", ncxPath, err)
	}

	titles := make(NavMap)
	walkNavPoints(xmltree.Children(xmltree.Path(doc, "ncx", "navMap"), "navPoint"), ncxPath, titles)
	return titles, nil
}

func walkNavPoints(points []xmltree.Node, ncxPath string, titles NavMap) {
	for _, point := range points {
		if src := xmltree.Attr(xmltree.Child(point, "content"), "src"); src != "" {
			label := xmltree.TextOf(xmltree.Path(point, "navLabel", "text"))
			if label == "" {
				label = xmltree.TextOf(xmltree.Child(point, "navLabel"))
			}
			titles.add(ResolveRef(ncxPath, src), label)
		}
		walkNavPoints(xmltree.Children(point, "navPoint"), ncxPath, titles)
	}
}

// LoadNavMap loads chapter titles from the NCX named by the spine's toc
// attribute, falling back to the EPUB 3 nav document. It returns the path of
// the document used, or an empty map and path when neither is available.
func LoadNavMap(a *Archive, opf *OPF) (NavMap, string, error) {
	if opf.NCXPath != "" {
		if data, ok := a.Lookup(opf.NCXPath); ok && len(data) > 0 {
			titles, err := ParseNCX(data, opf.NCXPath)
			if err != nil {
				return nil, "", err
			}
			return titles, opf.NCXPath, nil
		}
	}

	if opf.NavPath != "" {
		if data, ok := a.Lookup(opf.NavPath); ok && len(data) > 0 {
			titles, err := ParseNavDocument(data, opf.NavPath)
			if err != nil {
				return nil, "", err
			}
			return titles, opf.NavPath, nil
		}
	}

	return make(NavMap), "", nil
}
