package epub

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultMaxEntrySize caps the decompressed size of a single archive entry.
const DefaultMaxEntrySize int64 = 256 * 1024 * 1024

const mimetypeEPUB = "application/epub+zip"

var (
	ErrCorruptArchive         = errors.New("archive is not a readable zip container")
	ErrFileNotFound           = errors.New("file not found in archive")
	ErrMissingContainer       = errors.New("META-INF/container.xml not found")
	ErrMissingPackagePath     = errors.New("package document path not found in container.xml")
	ErrMissingPackageDocument = errors.New("package document not found")
)

// Archive is an immutable index of archive entries keyed by normalized path.
// It is safe for concurrent reads.
type Archive struct {
	files      map[string][]byte
	names      []string
	skipped    []string
	unreadable []UnreadableEntry
}

// UnreadableEntry is an archive entry that could not be decompressed.
type UnreadableEntry struct {
	Path string
	Err  error
}

type archiveOptions struct {
	maxEntrySize int64
}

// ArchiveOption configures OpenArchive.
type ArchiveOption func(*archiveOptions)

// WithMaxEntrySize sets the decompressed size limit for a single entry.
// Entries larger than the limit are left out of the index.
func WithMaxEntrySize(n int64) ArchiveOption {
	return func(o *archiveOptions) {
		if n > 0 {
			o.maxEntrySize = n
		}
	}
}

// Open reads an EPUB file from disk and indexes it.
func Open(filePath string, opts ...ArchiveOption) (*Archive, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read EPUB: %w", err)
	}
	return OpenArchive(data, opts...)
}

// OpenArchive indexes the entries of a zip container held in memory. Only a
// container that cannot be read at all is an error: entries that fail to
// decompress are left out of the index and reported by Unreadable.
func OpenArchive(data []byte, opts ...ArchiveOption) (*Archive, error) {
	o := archiveOptions{maxEntrySize: DefaultMaxEntrySize}
	for _, opt := range opts {
		opt(&o)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil && !(errors.Is(err, zip.ErrInsecurePath) && zr != nil) {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}

	a := &Archive{files: make(map[string][]byte, len(zr.File))}
	seen := make(map[string]bool, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := NormalizePath(f.Name)
		if seen[name] {
			continue
		}
		seen[name] = true

		content, err := readEntry(f, o.maxEntrySize)
		if errors.Is(err, errEntryTooLarge) {
			a.skipped = append(a.skipped, name)
			continue
		}
		if err != nil {
			a.unreadable = append(a.unreadable, UnreadableEntry{Path: name, Err: err})
			continue
		}
		a.files[name] = content
		a.names = append(a.names, name)
	}
	sort.Strings(a.names)

	return a, nil
}

var errEntryTooLarge = errors.New("entry exceeds size limit")

// readEntry reads one entry, reading at most limit+1 bytes so a forged
// uncompressed size cannot bypass the limit.
func readEntry(f *zip.File, limit int64) ([]byte, error) {
	if f.UncompressedSize64 > uint64(limit) {
		return nil, errEntryTooLarge
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	if int64(len(data)) > limit {
		return nil, errEntryTooLarge
	}
	return data, nil
}

// Lookup returns the content stored at p after normalization.
func (a *Archive) Lookup(p string) ([]byte, bool) {
	data, ok := a.files[NormalizePath(p)]
	return data, ok
}

// ReadFile is Lookup with an error for callers that propagate misses.
func (a *Archive) ReadFile(p string) ([]byte, error) {
	data, ok := a.Lookup(p)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, NormalizePath(p))
	}
	return data, nil
}

// Names returns every indexed path in lexical order.
func (a *Archive) Names() []string {
	return append([]string(nil), a.names...)
}

// Skipped returns the paths left out of the index for exceeding the size limit.
func (a *Archive) Skipped() []string {
	return append([]string(nil), a.skipped...)
}

// Unreadable returns the entries left out of the index because they could
// not be decompressed (unsupported method, checksum mismatch, truncation).
func (a *Archive) Unreadable() []UnreadableEntry {
	return append([]UnreadableEntry(nil), a.unreadable...)
}

// HasEPUBMimetype reports whether the mimetype entry declares an EPUB.
func (a *Archive) HasEPUBMimetype() bool {
	data, ok := a.Lookup("mimetype")
	return ok && strings.TrimSpace(string(data)) == mimetypeEPUB
}

// NormalizePath turns an archive path into its index key: CleanPath
// followed by NFC composition.
func NormalizePath(p string) string {
	return norm.NFC.String(CleanPath(p))
}

// CleanPath converts backslashes to forward slashes, collapses "." and ".."
// and strips a leading "./". The Unicode form of the name is kept as is.
func CleanPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	if p == "" {
		return ""
	}
	p = path.Clean(p)
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	if p == "." {
		return ""
	}
	return p
}

// ResolveRef resolves ref, which may be relative, percent-encoded and carry a
// fragment, against the directory of the document at basePath. The result
// is cleaned but not NFC composed; Lookup composes it when indexing.
//
//	ResolveRef("OEBPS/content.opf", "../text/ch01.xhtml#s2") == "text/ch01.xhtml"
func ResolveRef(basePath, ref string) string {
	ref, _ = splitFragment(strings.TrimSpace(ref))
	if decoded, err := url.PathUnescape(ref); err == nil {
		ref = decoded
	}
	return CleanPath(path.Join(path.Dir(CleanPath(basePath)), ref))
}

// splitFragment splits a source path into the path and fragment identifier.
func splitFragment(src string) (p, fragment string) {
	if src == "" {
		return "", ""
	}
	parts := strings.SplitN(src, "#", 2)
	p = parts[0]
	if len(parts) == 2 {
		fragment = parts[1]
	}
	return p, fragment
}
