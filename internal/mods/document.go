package mods

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

const (
	NamespaceMODS   = "http://www.loc.gov/mods/v3"
	NamespaceEmblem = "http://diglib.hab.de/rules/schema/emblem"
	NamespaceXLink  = "http://www.w3.org/1999/xlink"
	NamespaceXSI    = "http://www.w3.org/2001/XMLSchema-instance"

	modsSchemaLocation   = "http://www.loc.gov/mods/v3 http://www.loc.gov/standards/mods/mods.xsd"
	emblemSchemaLocation = modsSchemaLocation + " http://diglib.hab.de/rules/schema/emblem http://diglib.hab.de/rules/schema/emblem/emblem-1-2.xsd"
	modsVersion          = "3.7"
)

// ErrMalformedDocument means the input cannot be traversed: it is not XML,
// it is empty, or it holds no MODS record.
var ErrMalformedDocument = errors.New("malformed document")

// Kind describes which schema wraps the MODS records
type Kind string

const (
	KindSpine Kind = "spine"
	KindMODS  Kind = "mods"
	KindOther Kind = "other"
)

// Document is a parsed metadata record. It is mutated in place by annotation
// and is not safe for concurrent use.
type Document struct {
	tree *etree.Document
}

// Parse reads an XML document
func Parse(data []byte) (*Document, error) {
	tree := etree.NewDocument()
	if err := tree.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if tree.Root() == nil {
		return nil, fmt.Errorf("%w: no root element", ErrMalformedDocument)
	}
	return &Document{tree: tree}, nil
}

// Bytes serializes the document
func (d *Document) Bytes() ([]byte, error) {
	b, err := d.tree.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize document: %w", err)
	}
	return b, nil
}

// Kind reports spine for emblem book descriptions, mods for bare MODS
func (d *Document) Kind() Kind {
	if len(d.findAll(NamespaceEmblem, "biblioDesc")) > 0 {
		return KindSpine
	}
	if len(d.findAll(NamespaceMODS, "mods")) > 0 {
		return KindMODS
	}
	return KindOther
}

// UpgradeSchema points MODS records at MODS 3.7 and sets the schema
// locations of emblem book descriptions.
func (d *Document) UpgradeSchema() {
	for _, bd := range d.findAll(NamespaceEmblem, "biblioDesc") {
		setSchemaLocation(bd, emblemSchemaLocation)
	}
	for _, m := range d.findAll(NamespaceMODS, "mods") {
		setSchemaLocation(m, modsSchemaLocation)
		m.CreateAttr("version", modsVersion)
	}
}

func setSchemaLocation(el *etree.Element, value string) {
	for i := range el.Attr {
		a := &el.Attr[i]
		if a.Key == "schemaLocation" && a.NamespaceURI() == NamespaceXSI {
			a.Value = value
			return
		}
	}
	prefix := xsiPrefix(el)
	if prefix == "" {
		prefix = "xsi"
		el.CreateAttr("xmlns:xsi", NamespaceXSI)
	}
	el.CreateAttr(prefix+":schemaLocation", value)
}

// xsiPrefix finds the prefix bound to the XML Schema instance namespace in scope
func xsiPrefix(el *etree.Element) string {
	for e := el; e != nil; e = e.Parent() {
		for _, a := range e.Attr {
			if a.Space == "xmlns" && a.Value == NamespaceXSI {
				return a.Key
			}
		}
	}
	return ""
}

func (d *Document) findAll(namespace, local string) []*etree.Element {
	var out []*etree.Element
	var walk func(*etree.Element)
	walk = func(e *etree.Element) {
		if is(e, namespace, local) {
			out = append(out, e)
		}
		for _, c := range e.ChildElements() {
			walk(c)
		}
	}
	walk(d.tree.Root())
	return out
}

func is(e *etree.Element, namespace, local string) bool {
	return e.Tag == local && e.NamespaceURI() == namespace
}

func children(e *etree.Element, local string) []*etree.Element {
	var out []*etree.Element
	for _, c := range e.ChildElements() {
		if is(c, NamespaceMODS, local) {
			out = append(out, c)
		}
	}
	return out
}

func text(e *etree.Element) string {
	return strings.TrimSpace(e.Text())
}
