package converter

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/disintegration/imaging"
	"github.com/yuanying/epub2json/internal/config"
	"github.com/yuanying/epub2json/internal/epub"
)

// maxCoverPixels bounds the decoded size of a cover image.
const maxCoverPixels = 100 * 1000 * 1000

// ErrNoCover is returned when a cover export was requested but the book
// declares no usable cover image.
var ErrNoCover = errors.New("no cover image found")

// CoverExport describes the cover thumbnail written next to the book JSON.
type CoverExport struct {
	Source    string `json:"source"`
	MediaType string `json:"mediaType"`
	File      string `json:"file"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// locateCover finds the cover image using the manifest, then a guide cover
// page whose first <img> points at a manifest image.
func locateCover(a *epub.Archive, opf *epub.OPF) *epub.CoverInfo {
	if info := opf.DetectCover(); info != nil {
		return info
	}

	for _, ref := range opf.Guide {
		if !strings.EqualFold(ref.Type, "cover") || !looksLikeXHTML(ref.Href) {
			continue
		}
		data, ok := a.Lookup(ref.Href)
		if !ok {
			continue
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(normalizeSelfClosingRawTags(toUTF8(data))))
		if err != nil {
			continue
		}
		src, ok := doc.Find("img[src]").First().Attr("src")
		if !ok {
			src, ok = doc.Find("image").First().Attr("href")
		}
		if !ok {
			continue
		}
		target := epub.NormalizePath(epub.ResolveRef(ref.Href, src))
		for _, id := range opf.ManifestOrder {
			item := opf.Manifest[id]
			if epub.NormalizePath(item.Href) == target && strings.HasPrefix(item.MediaType, "image/") && item.MediaType != "image/svg+xml" {
				return &epub.CoverInfo{
					ManifestID:      item.ID,
					Href:            item.Href,
					MediaType:       item.MediaType,
					DetectionMethod: "guide-page",
				}
			}
		}
	}
	return nil
}

// renderCover decodes the cover image, shrinks it to cfg.MaxWidth when wider
// and encodes it as JPEG. outPath is only recorded in the returned export.
func renderCover(a *epub.Archive, opf *epub.OPF, outPath string, cfg config.CoverConfig) ([]byte, *CoverExport, error) {
	info := locateCover(a, opf)
	if info == nil {
		return nil, nil, ErrNoCover
	}

	data, err := a.ReadFile(info.Href)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read cover: %w", err)
	}

	imgCfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode cover %s: %w", info.Href, err)
	}
	if pixels := uint64(imgCfg.Width) * uint64(imgCfg.Height); pixels > maxCoverPixels {
		return nil, nil, fmt.Errorf("cover %s too large to decode: %dx%d", info.Href, imgCfg.Width, imgCfg.Height)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode cover %s: %w", info.Href, err)
	}
	if cfg.MaxWidth > 0 && img.Bounds().Dx() > cfg.MaxWidth {
		img = imaging.Resize(img, cfg.MaxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(cfg.JPEGQuality)); err != nil {
		return nil, nil, fmt.Errorf("failed to encode cover: %w", err)
	}

	return buf.Bytes(), &CoverExport{
		Source:    info.Href,
		MediaType: info.MediaType,
		File:      filepath.ToSlash(outPath),
		Width:     img.Bounds().Dx(),
		Height:    img.Bounds().Dy(),
	}, nil
}

func looksLikeXHTML(p string) bool {
	lower := strings.ToLower(p)
	return strings.HasSuffix(lower, ".xhtml") || strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm")
}
