package epub

import (
	"fmt"
	"strings"

	"github.com/yuanying/epub2json/internal/xmltree"
)

// ParsePackage parses the package document stored at packagePath. Manifest
// and guide hrefs are resolved against the package document's directory.
func ParsePackage(content []byte, packagePath string) (*OPF, error) {
	if len(content) == 0 {
		return nil, ErrMissingPackageDocument
	}

	doc, err := xmltree.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse package document %s: %w", packagePath, err)
	}
	pkg := xmltree.Child(doc, "package")

	opf := &OPF{
		Path:     CleanPath(packagePath),
		Manifest: make(map[string]ManifestItem),
	}
	opf.Metadata = parseMetadata(xmltree.Child(pkg, "metadata"))

	for _, item := range xmltree.Children(xmltree.Child(pkg, "manifest"), "item") {
		id := xmltree.Attr(item, "id")
		manifestItem := ManifestItem{
			ID:         id,
			Href:       ResolveRef(packagePath, xmltree.Attr(item, "href")),
			MediaType:  xmltree.Attr(item, "media-type"),
			Properties: strings.Fields(xmltree.Attr(item, "properties")),
		}
		if _, seen := opf.Manifest[id]; !seen {
			opf.ManifestOrder = append(opf.ManifestOrder, id)
		}
		opf.Manifest[id] = manifestItem
	}

	spine := xmltree.Child(pkg, "spine")
	for _, ref := range xmltree.Children(spine, "itemref") {
		opf.Spine = append(opf.Spine, SpineItem{
			IDRef:  xmltree.Attr(ref, "idref"),
			Linear: xmltree.Attr(ref, "linear") != "no",
		})
	}

	// Resolve NCX path from toc attribute
	opf.TocID = xmltree.Attr(spine, "toc")
	if opf.TocID != "" {
		if ncxItem, ok := opf.Manifest[opf.TocID]; ok {
			opf.NCXPath = ncxItem.Href
		}
	}

	if navPath, ok := findNAVPath(opf); ok {
		opf.NavPath = navPath
	}

	for _, ref := range xmltree.Children(xmltree.Child(pkg, "guide"), "reference") {
		opf.Guide = append(opf.Guide, GuideReference{
			Type:  xmltree.Attr(ref, "type"),
			Title: xmltree.Attr(ref, "title"),
			Href:  ResolveRef(packagePath, xmltree.Attr(ref, "href")),
		})
	}

	return opf, nil
}

// parseMetadata parses the metadata section
func parseMetadata(meta xmltree.Node) Metadata {
	md := Metadata{
		Title:       firstText(xmltree.Children(meta, "dc:title")),
		Language:    firstText(xmltree.Children(meta, "dc:language")),
		Identifier:  firstText(xmltree.Children(meta, "dc:identifier")),
		Publisher:   firstText(xmltree.Children(meta, "dc:publisher")),
		Date:        firstText(xmltree.Children(meta, "dc:date")),
		Description: firstText(xmltree.Children(meta, "dc:description")),
		Creators:    []Creator{},
		Subjects:    []string{},
	}

	for _, s := range xmltree.Children(meta, "dc:subject") {
		if text := xmltree.TextOf(s); text != "" {
			md.Subjects = append(md.Subjects, text)
		}
	}

	// Creators are kept in document order; duplicates are not merged.
	creatorIDs := make(map[string]int)
	for _, c := range xmltree.Children(meta, "dc:creator") {
		name := xmltree.TextOf(c)
		if name == "" {
			continue
		}
		if id := xmltree.Attr(c, "id"); id != "" {
			creatorIDs["#"+id] = len(md.Creators)
		}
		md.Creators = append(md.Creators, Creator{
			Name: name,
			Role: xmltree.Attr(c, "opf:role"),
		})
	}

	for _, m := range xmltree.Children(meta, "meta") {
		// EPUB 3.0 role refinement; the value is element text, or the content
		// attribute in hybrid files.
		if xmltree.Attr(m, "property") == "role" {
			if idx, ok := creatorIDs[xmltree.Attr(m, "refines")]; ok {
				role := xmltree.TextOf(m)
				if role == "" {
					role = xmltree.Attr(m, "content")
				}
				md.Creators[idx].Role = role
			}
		}
		if md.CoverID == "" && xmltree.Attr(m, "name") == "cover" {
			md.CoverID = xmltree.Attr(m, "content")
		}
	}

	return md
}

// firstText returns the first non-empty text among nodes.
func firstText(nodes []xmltree.Node) string {
	for _, n := range nodes {
		if text := xmltree.TextOf(n); text != "" {
			return text
		}
	}
	return ""
}

// findNAVPath returns the href of the first manifest item carrying the
// "nav" property.
func findNAVPath(opf *OPF) (string, bool) {
	for _, id := range opf.ManifestOrder {
		item := opf.Manifest[id]
		for _, prop := range item.Properties {
			if prop == "nav" {
				return item.Href, true
			}
		}
	}
	return "", false
}
