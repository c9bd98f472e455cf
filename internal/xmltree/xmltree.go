// Package xmltree parses XML documents into a shape-agnostic tree.
//
// Package, container and NCX documents do not say statically whether a child
// occurs once or many times, or whether a text-bearing element is bare text or
// carries attributes and nested markup. The tree keeps both cases explicit as
// a Text or an *Element, and Children, TextOf and Attr are the only way to read
// it so callers never branch on shape.
package xmltree

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

// ErrMalformedXML is returned when a document cannot be parsed as XML.
var ErrMalformedXML = errors.New("malformed XML document")

// Node is either a Text or an *Element.
type Node interface {
	node()
}

// Text is an element that held nothing but character data.
type Text string

func (Text) node() {}

// Element is an element with attributes, child elements, or both.
type Element struct {
	Name  string
	attrs map[string]string
	text  string
	kids  []Node
	index map[string][]Node
}

func (*Element) node() {}

// Parse parses data into a tree. The returned element is a synthetic document
// node whose only child is the document's root element.
func Parse(data []byte) (*Element, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	doc := etree.NewDocument()
	doc.ReadSettings.Permissive = true
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedXML, err)
	}

	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrMalformedXML)
	}

	document := &Element{index: make(map[string][]Node)}
	document.add(root.Tag, convert(root))
	return document, nil
}

// convert maps an etree element onto the tagged union.
func convert(el *etree.Element) Node {
	var sb strings.Builder
	for _, tok := range el.Child {
		if cd, ok := tok.(*etree.CharData); ok {
			sb.WriteString(cd.Data)
		}
	}
	text := strings.TrimSpace(sb.String())

	children := el.ChildElements()
	if len(el.Attr) == 0 && len(children) == 0 {
		return Text(text)
	}

	e := &Element{
		Name:  el.Tag,
		attrs: make(map[string]string, len(el.Attr)),
		text:  text,
		index: make(map[string][]Node),
	}
	for _, a := range el.Attr {
		// first wins when two prefixes share a local name
		if _, exists := e.attrs[a.Key]; !exists {
			e.attrs[a.Key] = a.Value
		}
	}
	for _, child := range children {
		e.add(child.Tag, convert(child))
	}
	return e
}

func (e *Element) add(name string, n Node) {
	e.kids = append(e.kids, n)
	e.index[name] = append(e.index[name], n)
}

// localName drops a namespace prefix ("dc:title" -> "title").
func localName(name string) string {
	if i := strings.LastIndexByte(name, ':'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// Children returns the children of n named name, in document order. It returns
// nil when n is nil, is a Text, or has no such children.
func Children(n Node, name string) []Node {
	e, ok := n.(*Element)
	if !ok || e == nil {
		return nil
	}
	return e.index[localName(name)]
}

// Child returns the first child of n named name, or nil.
func Child(n Node, name string) Node {
	if kids := Children(n, name); len(kids) > 0 {
		return kids[0]
	}
	return nil
}

// Path follows a chain of names, taking the first child at each step.
func Path(n Node, names ...string) Node {
	for _, name := range names {
		n = Child(n, name)
		if n == nil {
			return nil
		}
	}
	return n
}

// Attr returns the attribute of n with the given local name.
func Attr(n Node, name string) string {
	e, ok := n.(*Element)
	if !ok || e == nil {
		return ""
	}
	return e.attrs[localName(name)]
}

// TextOf returns the best-effort text of n. Text values are returned trimmed.
// For an element, its own character data wins; otherwise the first descendant
// in document order that carries text is used.
func TextOf(n Node) string {
	switch v := n.(type) {
	case Text:
		return strings.TrimSpace(string(v))
	case *Element:
		if v == nil {
			return ""
		}
		if v.text != "" {
			return v.text
		}
		for _, kid := range v.kids {
			if t := TextOf(kid); t != "" {
				return t
			}
		}
	}
	return ""
}
