// Probe for chapter extraction.
//
// Usage:
//
//	go run ./cmd/test/content_loader <epub-file> [max-paragraphs]
//
// Runs the extraction pipeline with debug logging (so skipped spine items are
// reported on stderr) and prints each emitted chapter without writing JSON.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/yuanying/epub2json/internal/converter"
	"github.com/yuanying/epub2json/internal/epub"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <epub-file> [max-paragraphs]\n", filepath.Base(os.Args[0]))
		os.Exit(1)
	}

	maxParagraphs := 2
	if len(os.Args) > 2 {
		n, err := strconv.Atoi(os.Args[2])
		if err != nil || n < 0 {
			fmt.Fprintf(os.Stderr, "invalid max-paragraphs %q\n", os.Args[2])
			os.Exit(1)
		}
		maxParagraphs = n
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	a, err := epub.Open(os.Args[1])
	if err != nil {
		logger.Error("open failed", "error", err)
		os.Exit(1)
	}

	p := converter.NewPipeline(converter.ConvertOptions{Logger: logger})
	book, err := p.Extract(context.Background(), a, filepath.Base(os.Args[1]))
	if err != nil {
		logger.Error("extraction failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s / %v / %s\n", book.Title, book.Creators, book.Language)
	fmt.Printf("Chapters: %d\n\n", book.ChapterCount)

	for _, ch := range book.Chapters {
		chars := 0
		for _, para := range ch.Paragraphs {
			chars += len([]rune(para))
		}
		fmt.Printf("[%s] %s\n", ch.ID, ch.Title)
		fmt.Printf("    source: %s, paragraphs: %d, characters: %d\n", ch.Source, len(ch.Paragraphs), chars)
		for i, para := range ch.Paragraphs {
			if i >= maxParagraphs {
				fmt.Printf("    ...\n")
				break
			}
			fmt.Printf("    | %s\n", para)
		}
		fmt.Println()
	}
}
