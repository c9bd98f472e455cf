package xmltree

import (
	"errors"
	"testing"
)

func TestParse_ShapeNormalization(t *testing.T) {
	doc, err := Parse([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<root>
  <single>one</single>
  <multi>a</multi>
  <multi>b</multi>
  <multi id="c">c</multi>
  <empty/>
</root>`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	root := Child(doc, "root")
	if root == nil {
		t.Fatal("Child(doc, root) = nil")
	}

	tests := []struct {
		name      string
		wantCount int
		wantTexts []string
	}{
		{name: "single", wantCount: 1, wantTexts: []string{"one"}},
		{name: "multi", wantCount: 3, wantTexts: []string{"a", "b", "c"}},
		{name: "empty", wantCount: 1, wantTexts: []string{""}},
		{name: "absent", wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kids := Children(root, tt.name)
			if len(kids) != tt.wantCount {
				t.Fatalf("len(Children(%q)) = %d, want %d", tt.name, len(kids), tt.wantCount)
			}
			for i, want := range tt.wantTexts {
				if got := TextOf(kids[i]); got != want {
					t.Errorf("TextOf(Children(%q)[%d]) = %q, want %q", tt.name, i, got, want)
				}
			}
		})
	}
}

func TestTextOf_NestedFallback(t *testing.T) {
	doc, err := Parse([]byte(`<metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
  <dc:title><span lang="ja"><ruby>  吾輩は猫である  </ruby></span></dc:title>
  <dc:creator id="c1" opf:role="aut">夏目漱石</dc:creator>
  <dc:publisher><a/><b>  </b><c>late</c></dc:publisher>
</metadata>`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	meta := Child(doc, "metadata")

	if got := TextOf(Child(meta, "dc:title")); got != "吾輩は猫である" {
		t.Errorf("title = %q, want %q", got, "吾輩は猫である")
	}
	creator := Child(meta, "creator")
	if got := TextOf(creator); got != "夏目漱石" {
		t.Errorf("creator = %q, want %q", got, "夏目漱石")
	}
	if got := Attr(creator, "opf:role"); got != "aut" {
		t.Errorf("Attr(role) = %q, want %q", got, "aut")
	}
	if got := TextOf(Child(meta, "publisher")); got != "late" {
		t.Errorf("publisher = %q, want %q", got, "late")
	}
}

func TestAccessors_NilAndText(t *testing.T) {
	var missing Node
	if got := Children(missing, "x"); got != nil {
		t.Errorf("Children(nil) = %v, want nil", got)
	}
	if got := Child(missing, "x"); got != nil {
		t.Errorf("Child(nil) = %v, want nil", got)
	}
	if got := TextOf(missing); got != "" {
		t.Errorf("TextOf(nil) = %q, want empty", got)
	}
	if got := Attr(missing, "x"); got != "" {
		t.Errorf("Attr(nil) = %q, want empty", got)
	}

	text := Text("  padded  ")
	if got := TextOf(text); got != "padded" {
		t.Errorf("TextOf(Text) = %q, want %q", got, "padded")
	}
	if got := Children(text, "x"); got != nil {
		t.Errorf("Children(Text) = %v, want nil", got)
	}
	if got := Attr(text, "x"); got != "" {
		t.Errorf("Attr(Text) = %q, want empty", got)
	}
}

func TestPath(t *testing.T) {
	doc, err := Parse([]byte(`<ncx><navMap><navPoint id="a"><navLabel><text>One</text></navLabel></navPoint></navMap></ncx>`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	point := Path(doc, "ncx", "navMap", "navPoint")
	if got := Attr(point, "id"); got != "a" {
		t.Errorf("Attr(id) = %q, want %q", got, "a")
	}
	if got := TextOf(Path(point, "navLabel", "text")); got != "One" {
		t.Errorf("label = %q, want %q", got, "One")
	}
	if got := Path(doc, "ncx", "missing", "navPoint"); got != nil {
		t.Errorf("Path(missing) = %v, want nil", got)
	}
}

func TestParse_EntitiesAndBOM(t *testing.T) {
	doc, err := Parse([]byte("\xef\xbb\xbf<navLabel><text>A &amp; B &#x3042;</text></navLabel>"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := TextOf(Path(doc, "navLabel", "text")); got != "A & B あ" {
		t.Errorf("text = %q, want %q", got, "A & B あ")
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "empty", data: ""},
		{name: "no root element", data: "this is not xml"},
		{name: "broken tag", data: "<<>>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if !errors.Is(err, ErrMalformedXML) {
				t.Errorf("Parse(%q) error = %v, want ErrMalformedXML", tt.data, err)
			}
		})
	}
}
