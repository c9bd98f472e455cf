// Probe for the archive index.
//
// Usage:
//
//	go run ./cmd/test/epub_reader <epub-file> (<archive-path> ...)
//
// Opens the archive, reports the mimetype check, the package document path
// from container.xml, every indexed entry, and prints the named entries.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/yuanying/epub2json/internal/epub"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./cmd/test/epub_reader <epub-file> (<archive-path> ...)")
		os.Exit(1)
	}

	epubPath := os.Args[1]
	filePaths := os.Args[2:]

	fmt.Printf("Opening EPUB file: %s\n", epubPath)
	a, err := epub.Open(epubPath)
	if err != nil {
		log.Fatalf("Failed to open EPUB: %v", err)
	}
	fmt.Printf("✓ Archive indexed\n")
	fmt.Printf("mimetype ok: %v\n", a.HasEPUBMimetype())

	pkgPath, err := epub.LocatePackage(a)
	if err != nil {
		log.Fatalf("Failed to locate package document: %v", err)
	}
	fmt.Printf("Package document: %s\n\n", pkgPath)

	names := a.Names()
	fmt.Printf("Total entries: %d\n", len(names))
	for _, name := range names {
		data, _ := a.Lookup(name)
		fmt.Printf("  - %s (%d bytes)\n", name, len(data))
	}
	for _, e := range a.Unreadable() {
		fmt.Printf("Unreadable: %s (%v)\n", e.Path, e.Err)
	}
	if skipped := a.Skipped(); len(skipped) > 0 {
		fmt.Printf("\nSkipped (over size limit): %d\n", len(skipped))
		for _, name := range skipped {
			fmt.Printf("  - %s\n", name)
		}
	}

	for _, filePath := range filePaths {
		fmt.Printf("\nReading: %s\n", filePath)
		content, err := a.ReadFile(filePath)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", filePath, err)
		}
		fmt.Printf("%s\n", content)
	}
}
