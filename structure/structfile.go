package structure

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
)

// LoadFile parses a precomputed structure file (the `-S` CLI flag: static
// structure recovered offline, e.g. by a separate run of the loop-
// structure recovery driver against a disassembly this module never
// performs itself) into a Tree for moduleName.
//
// The file uses the same tag vocabulary as the scopes themselves — PGM,
// GROUP, LM, F, P, A, L, S — nested to mirror the scope tree, with
// attributes n (name), f (file), b (begin line), e (end line). Like
// writer.WriteXML, this does not fit encoding/xml's one-type-per-element
// struct-tag marshaling (the element name varies with Kind), so the file
// is walked token by token instead.
func LoadFile(r io.Reader, moduleName string) (*Tree, error) {
	tree := NewTree(moduleName)
	dec := xml.NewDecoder(r)

	var stack []*Scope
	top := func() *Scope {
		if len(stack) == 0 {
			return tree.Root
		}
		return stack[len(stack)-1]
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("structure file: %w", err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			kind, ok := kindForTag(el.Name.Local)
			if !ok {
				continue
			}
			scope := tree.New(kind, attrValue(el, "n"), attrValue(el, "f"), attrInt(el, "b"), attrInt(el, "e"))
			top().AddChild(scope)
			stack = append(stack, scope)
		case xml.EndElement:
			if _, ok := kindForTag(el.Name.Local); ok && len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	return tree, nil
}

func kindForTag(tag string) (Kind, bool) {
	switch tag {
	case "PGM":
		return Program, true
	case "GROUP":
		return Group, true
	case "LM":
		return LoadModuleScope, true
	case "F":
		return File, true
	case "P":
		return Proc, true
	case "A":
		return Alien, true
	case "L":
		return Loop, true
	case "S":
		return Statement, true
	default:
		return 0, false
	}
}

func attrValue(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func attrInt(el xml.StartElement, name string) int {
	v, _ := strconv.Atoi(attrValue(el, name))
	return v
}
