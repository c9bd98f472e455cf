package epub

import (
	"path"
	"strings"
)

// CoverInfo holds information about the detected cover image.
type CoverInfo struct {
	ManifestID      string
	Href            string
	MediaType       string
	DetectionMethod string // "properties", "meta", "guide", "filename"
}

// DetectCover detects the cover image from the OPF manifest using multiple methods.
// Methods are tried in priority order:
//  1. properties="cover-image" (EPUB 3.0)
//  2. meta name="cover" (EPUB 2.0)
//  3. guide type="cover" pointing directly at an image item
//  4. filename pattern (basename contains "cover", case-insensitive, SVG excluded)
//
// Returns nil if no cover image is found.
func (opf *OPF) DetectCover() *CoverInfo {
	for _, item := range opf.orderedItems() {
		for _, prop := range item.Properties {
			if prop == "cover-image" {
				return newCoverInfo(item, "properties")
			}
		}
	}

	if opf.Metadata.CoverID != "" {
		if item, ok := opf.Manifest[opf.Metadata.CoverID]; ok && isImageMediaType(item.MediaType) {
			return newCoverInfo(item, "meta")
		}
	}

	for _, ref := range opf.Guide {
		if ref.Type != "cover" {
			continue
		}
		for _, item := range opf.orderedItems() {
			if isImageMediaType(item.MediaType) && NormalizePath(item.Href) == NormalizePath(ref.Href) {
				return newCoverInfo(item, "guide")
			}
		}
	}

	for _, item := range opf.orderedItems() {
		if !isImageMediaType(item.MediaType) {
			continue
		}
		if strings.Contains(strings.ToLower(path.Base(item.Href)), "cover") {
			return newCoverInfo(item, "filename")
		}
	}

	return nil
}

func newCoverInfo(item ManifestItem, method string) *CoverInfo {
	return &CoverInfo{
		ManifestID:      item.ID,
		Href:            item.Href,
		MediaType:       item.MediaType,
		DetectionMethod: method,
	}
}

func (opf *OPF) orderedItems() []ManifestItem {
	items := make([]ManifestItem, 0, len(opf.ManifestOrder))
	for _, id := range opf.ManifestOrder {
		if item, ok := opf.Manifest[id]; ok {
			items = append(items, item)
		}
	}
	return items
}

// isImageMediaType checks if a media type is a raster image (SVG excluded).
func isImageMediaType(mediaType string) bool {
	if mediaType == "image/svg+xml" {
		return false
	}
	return strings.HasPrefix(mediaType, "image/")
}
