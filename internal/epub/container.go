package epub

import (
	"fmt"

	"github.com/yuanying/epub2json/internal/xmltree"
)

const containerPath = "META-INF/container.xml"

// LocatePackage reads META-INF/container.xml and returns the cleaned path
// of the first declared rootfile.
func LocatePackage(a *Archive) (string, error) {
	content, ok := a.Lookup(containerPath)
	if !ok || len(content) == 0 {
		return "", ErrMissingContainer
	}

	doc, err := xmltree.Parse(content)
	if err != nil {
		return "", fmt.Errorf("failed to parse container.xml: %w", err)
	}

	rootfile := xmltree.Child(xmltree.Path(doc, "container", "rootfiles"), "rootfile")
	fullPath := CleanPath(xmltree.Attr(rootfile, "full-path"))
	if fullPath == "" {
		return "", ErrMissingPackagePath
	}
	return fullPath, nil
}
