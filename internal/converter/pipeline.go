package converter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuanying/epub2json/internal/config"
	"github.com/yuanying/epub2json/internal/epub"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNoInputFound = errors.New("no input EPUB found")
	ErrOutputWrite  = errors.New("failed to write output")
)

// ConvertOptions holds options for the conversion pipeline.
type ConvertOptions struct {
	InputPath  string
	OutputPath string
	// CoverPath, when set, receives a JPEG thumbnail of the cover image.
	CoverPath string

	Config *config.Config
	Logger *slog.Logger
	// Now stamps generatedAt; defaults to time.Now.
	Now func() time.Time
}

// Pipeline orchestrates the EPUB to JSON conversion.
type Pipeline struct {
	Options ConvertOptions
}

// NewPipeline creates a new conversion pipeline. Unset options take their
// defaults.
func NewPipeline(opts ConvertOptions) *Pipeline {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.OutputPath == "" {
		opts.OutputPath = opts.Config.OutputPath
	}
	return &Pipeline{Options: opts}
}

// Convert reads the input EPUB, extracts the book and writes it as JSON.
// Nothing is written unless extraction succeeds.
func (p *Pipeline) Convert(ctx context.Context) (*Book, error) {
	a, err := epub.Open(p.Options.InputPath, epub.WithMaxEntrySize(p.Options.Config.MaxEntrySize))
	if err != nil {
		return nil, err
	}

	book, opf, err := p.extract(ctx, a, filepath.Base(p.Options.InputPath))
	if err != nil {
		return nil, err
	}

	var coverData []byte
	if p.Options.CoverPath != "" {
		coverData, book.Cover, err = renderCover(a, opf, p.Options.CoverPath, p.Options.Config.Cover)
		if err != nil {
			return nil, fmt.Errorf("cover export: %w", err)
		}
	}

	data, err := book.MarshalIndent()
	if err != nil {
		return nil, err
	}

	if coverData != nil {
		if err := writeFileAtomic(p.Options.CoverPath, coverData); err != nil {
			return nil, err
		}
		p.Options.Logger.Debug("cover written", "path", p.Options.CoverPath, "source", book.Cover.Source)
	}
	if err := writeFileAtomic(p.Options.OutputPath, data); err != nil {
		return nil, err
	}

	return book, nil
}

// Extract builds the book from an indexed archive. sourceFile is the archive
// file name recorded in the output.
func (p *Pipeline) Extract(ctx context.Context, a *epub.Archive, sourceFile string) (*Book, error) {
	book, _, err := p.extract(ctx, a, sourceFile)
	return book, err
}

func (p *Pipeline) extract(ctx context.Context, a *epub.Archive, sourceFile string) (*Book, *epub.OPF, error) {
	log := p.Options.Logger

	if !a.HasEPUBMimetype() {
		log.Warn("mimetype entry missing or not application/epub+zip", "file", sourceFile)
	}
	for _, name := range a.Skipped() {
		log.Warn("skipping oversized archive entry", "path", name, "limit", p.Options.Config.MaxEntrySize)
	}
	for _, e := range a.Unreadable() {
		log.Warn("skipping unreadable archive entry", "path", e.Path, "error", e.Err)
	}

	pkgPath, err := epub.LocatePackage(a)
	if err != nil {
		return nil, nil, err
	}
	pkgData, _ := a.Lookup(pkgPath)
	opf, err := epub.ParsePackage(pkgData, pkgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", pkgPath, err)
	}

	nav, navPath, err := epub.LoadNavMap(a, opf)
	if err != nil {
		return nil, nil, err
	}
	if navPath == "" {
		log.Warn("no navigation document, titles fall back to chapter content")
	} else {
		log.Debug("navigation loaded", "path", navPath, "entries", len(nav))
	}

	drafts, err := p.extractDrafts(ctx, a, opf)
	if err != nil {
		return nil, nil, err
	}

	book := assembleBook(opf.Metadata, drafts, nav, sourceFile, p.Options.Now(), p.Options.Config)
	log.Debug("book assembled", "spine", len(opf.Spine), "chapters", book.ChapterCount)
	return book, opf, nil
}

// extractDrafts parses every qualifying spine document on a bounded worker
// pool. Results are stored by spine index so assembly sees spine order.
func (p *Pipeline) extractDrafts(ctx context.Context, a *epub.Archive, opf *epub.OPF) ([]*chapterDraft, error) {
	log := p.Options.Logger
	drafts := make([]*chapterDraft, len(opf.Spine))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Options.Config.WorkerCount())

	for i, ref := range opf.Spine {
		item, ok := opf.Manifest[ref.IDRef]
		if !ok {
			log.Debug("skipping spine item", "idref", ref.IDRef, "reason", "not in manifest")
			continue
		}
		if !isHTMLMediaType(item.MediaType) {
			log.Debug("skipping spine item", "idref", ref.IDRef, "reason", "media type "+item.MediaType)
			continue
		}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, ok := a.Lookup(item.Href)
			if !ok || len(data) == 0 {
				log.Debug("skipping spine item", "idref", ref.IDRef, "path", item.Href, "reason", "unreadable")
				return nil
			}
			draft, err := extractChapter(item.Href, data)
			if err != nil {
				log.Debug("skipping spine item", "idref", ref.IDRef, "path", item.Href, "reason", err.Error())
				return nil
			}
			drafts[i] = draft
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return drafts, nil
}

// FindDefaultInput returns the single .epub file in dir.
func FindDefaultInput(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoInputFound, err)
	}

	var found []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".epub") {
			continue
		}
		found = append(found, filepath.Join(dir, e.Name()))
	}

	switch len(found) {
	case 0:
		return "", fmt.Errorf("%w: no .epub file in %s", ErrNoInputFound, dir)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("%w: %d .epub files in %s, pass one explicitly", ErrNoInputFound, len(found), dir)
	}
}

// writeFileAtomic creates parent directories, writes to a temporary file in
// the target directory and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrOutputWrite, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOutputWrite, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %s: %v", ErrOutputWrite, path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrOutputWrite, path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrOutputWrite, path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrOutputWrite, path, err)
	}
	return nil
}
