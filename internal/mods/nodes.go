package mods

import (
	"fmt"

	"github.com/beevik/etree"
)

const (
	attrAuthorityURI = "authorityURI"
	attrValueURI     = "valueURI"
)

// Node is an element that can carry an authorityURI/valueURI pair
type Node struct {
	el *etree.Element
}

// Text returns the element's own text, trimmed
func (n Node) Text() string {
	return text(n.el)
}

// Tag returns the element's local name
func (n Node) Tag() string {
	return n.el.Tag
}

// ValueURI returns the resolved identifier, if any
func (n Node) ValueURI() string {
	return n.el.SelectAttrValue(attrValueURI, "")
}

// AuthorityURI returns the owning vocabulary's root identifier, if any
func (n Node) AuthorityURI() string {
	return n.el.SelectAttrValue(attrAuthorityURI, "")
}

// HasValueURI reports whether the node is already identified
func (n Node) HasValueURI() bool {
	return n.ValueURI() != ""
}

// SetIdentifier records a resolved identifier. A node that already carries a
// different valueURI is left untouched and false is returned.
func (n Node) SetIdentifier(authorityURI, valueURI string) bool {
	if current := n.ValueURI(); current != "" && current != valueURI {
		return false
	}
	n.el.CreateAttr(attrAuthorityURI, authorityURI)
	n.el.CreateAttr(attrValueURI, valueURI)
	return true
}

// Component is one ordered part of a subject heading
type Component struct {
	Node
	// NameParts is set for name components only
	NameParts []string
}

// IsName reports whether the component is an embedded name
func (c Component) IsName() bool {
	return c.Tag() == "name"
}

// Subject is a subject[@authority='lcsh'] heading
type Subject struct {
	Node
	Components []Component
}

// Name is a personal or corporate name entry with its roles
type Name struct {
	Node
	displayForm *etree.Element
	Parts       []string
	Roles       []Node
}

// DisplayForm returns the current display label and whether one exists
func (n *Name) DisplayForm() (string, bool) {
	if n.displayForm == nil {
		return "", false
	}
	return text(n.displayForm), true
}

// SetDisplayForm replaces the display label, adding the element if missing
func (n *Name) SetDisplayForm(label string) {
	if n.displayForm == nil {
		tag := "displayForm"
		if n.el.Space != "" {
			tag = n.el.Space + ":" + tag
		}
		n.displayForm = n.el.CreateElement(tag)
	}
	n.displayForm.SetText(label)
}

// Record is the typed view of one mods:mods element, in traversal order
type Record struct {
	Languages []Node
	Places    []Node
	Subjects  []Subject
	Names     []Name
}

// Records enumerates every MODS record once, collecting the node kinds the
// annotator resolves.
func (d *Document) Records() ([]Record, error) {
	roots := d.findAll(NamespaceMODS, "mods")
	if len(roots) == 0 {
		return nil, fmt.Errorf("%w: no MODS record found", ErrMalformedDocument)
	}

	records := make([]Record, 0, len(roots))
	for _, m := range roots {
		records = append(records, collect(m))
	}
	return records, nil
}

func collect(m *etree.Element) Record {
	var r Record

	for _, lang := range children(m, "language") {
		for _, term := range children(lang, "languageTerm") {
			if term.SelectAttrValue("type", "") == "code" {
				r.Languages = append(r.Languages, Node{el: term})
				break
			}
		}
	}

	for _, origin := range children(m, "originInfo") {
		for _, place := range children(origin, "place") {
			for _, term := range children(place, "placeTerm") {
				if term.SelectAttrValue("authority", "") == "marccountry" {
					r.Places = append(r.Places, Node{el: term})
					break
				}
			}
		}
	}

	for _, sub := range children(m, "subject") {
		if sub.SelectAttrValue("authority", "") != "lcsh" {
			continue
		}
		s := Subject{Node: Node{el: sub}}
		for _, c := range sub.ChildElements() {
			if c.NamespaceURI() != NamespaceMODS {
				continue
			}
			comp := Component{Node: Node{el: c}}
			if c.Tag == "name" {
				comp.NameParts = partTexts(c)
			}
			s.Components = append(s.Components, comp)
		}
		r.Subjects = append(r.Subjects, s)
	}

	for _, nm := range children(m, "name") {
		n := Name{Node: Node{el: nm}, Parts: partTexts(nm)}
		if dfs := children(nm, "displayForm"); len(dfs) > 0 {
			n.displayForm = dfs[0]
		}
		for _, role := range children(nm, "role") {
			for _, term := range children(role, "roleTerm") {
				n.Roles = append(n.Roles, Node{el: term})
			}
		}
		r.Names = append(r.Names, n)
	}

	return r
}

func partTexts(e *etree.Element) []string {
	var parts []string
	for _, p := range children(e, "namePart") {
		parts = append(parts, text(p))
	}
	return parts
}
