package epub

// OPF represents the parsed Open Package Format document
type OPF struct {
	Path          string // archive path of the package document
	Metadata      Metadata
	Manifest      map[string]ManifestItem // id -> item
	ManifestOrder []string                // manifest ids in document order
	Spine         []SpineItem
	TocID         string // spine toc attribute (manifest id of the NCX)
	NCXPath       string
	NavPath       string // EPUB 3 nav document (properties="nav")
	Guide         []GuideReference
}

// Metadata represents the metadata section of the OPF
type Metadata struct {
	Title       string
	Creators    []Creator
	Language    string
	Identifier  string
	Publisher   string
	Date        string
	Description string
	Subjects    []string
	CoverID     string // EPUB 2.0 cover image manifest item ID (from meta name="cover")
}

// CreatorNames returns the creator names in document order.
func (m Metadata) CreatorNames() []string {
	names := make([]string, 0, len(m.Creators))
	for _, c := range m.Creators {
		names = append(names, c.Name)
	}
	return names
}

// Creator represents a creator (author, editor, etc.) of the book
type Creator struct {
	Name string
	Role string // e.g., "aut" for author, "edt" for editor
}

// ManifestItem represents an item in the manifest
type ManifestItem struct {
	ID         string
	Href       string // resolved archive path
	MediaType  string
	Properties []string
}

// SpineItem represents an item reference in the spine
type SpineItem struct {
	IDRef  string
	Linear bool
}

// GuideReference represents a reference element in the EPUB 2 guide
type GuideReference struct {
	Type  string
	Title string
	Href  string // resolved archive path, fragment removed
}
