// Probe for the package document and navigation parsers.
//
// Usage:
//
//	go run ./cmd/test/opf_parser <epub-file>
//
// Prints metadata, manifest summary, spine order with navigation labels,
// and the detected cover image.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/yuanying/epub2json/internal/epub"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <epub-file>\n", os.Args[0])
		os.Exit(1)
	}

	a, err := epub.Open(os.Args[1])
	if err != nil {
		fail("opening EPUB", err)
	}
	pkgPath, err := epub.LocatePackage(a)
	if err != nil {
		fail("locating package document", err)
	}
	data, _ := a.Lookup(pkgPath)
	opf, err := epub.ParsePackage(data, pkgPath)
	if err != nil {
		fail("parsing package document", err)
	}

	fmt.Printf("Package: %s\n\n", opf.Path)

	fmt.Println("--- Metadata ---")
	fmt.Printf("Title:       %s\n", opf.Metadata.Title)
	fmt.Printf("Language:    %s\n", opf.Metadata.Language)
	fmt.Printf("Identifier:  %s\n", opf.Metadata.Identifier)
	for i, c := range opf.Metadata.Creators {
		role := c.Role
		if role == "" {
			role = "unknown"
		}
		fmt.Printf("Creator %d:   %s (role: %s)\n", i+1, c.Name, role)
	}
	if opf.Metadata.Publisher != "" {
		fmt.Printf("Publisher:   %s\n", opf.Metadata.Publisher)
	}
	if opf.Metadata.Date != "" {
		fmt.Printf("Date:        %s\n", opf.Metadata.Date)
	}

	fmt.Printf("\n--- Manifest (%d items) ---\n", len(opf.Manifest))
	mediaTypes := make(map[string]int)
	for _, item := range opf.Manifest {
		mediaTypes[item.MediaType]++
	}
	keys := make([]string, 0, len(mediaTypes))
	for k := range mediaTypes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %s: %d\n", k, mediaTypes[k])
	}

	nav, navPath, err := epub.LoadNavMap(a, opf)
	if err != nil {
		fail("parsing navigation", err)
	}
	fmt.Printf("\n--- Navigation ---\n")
	if navPath == "" {
		fmt.Println("(none)")
	} else {
		fmt.Printf("%s: %d entries\n", navPath, len(nav))
	}

	fmt.Printf("\n--- Spine (%d items) ---\n", len(opf.Spine))
	for i, ref := range opf.Spine {
		item, ok := opf.Manifest[ref.IDRef]
		if !ok {
			fmt.Printf("  %d. [%s not in manifest]\n", i+1, ref.IDRef)
			continue
		}
		label := nav.Title(item.Href)
		if label == "" {
			label = "-"
		}
		fmt.Printf("  %d. %s (%s, linear: %v) %s\n", i+1, item.Href, item.MediaType, ref.Linear, label)
	}

	fmt.Printf("\n--- Cover ---\n")
	if cover := opf.DetectCover(); cover != nil {
		fmt.Printf("%s (%s, via %s)\n", cover.Href, cover.MediaType, cover.DetectionMethod)
	} else {
		fmt.Println("(not found)")
	}
}

func fail(step string, err error) {
	fmt.Fprintf(os.Stderr, "Error %s: %v\n", step, err)
	os.Exit(1)
}
