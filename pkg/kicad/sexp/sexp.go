// Package sexp provides reading and writing of the s-expression syntax used
// by KiCad file formats. Parsed documents are mutable trees, so a board file
// can be loaded, patched in place and written back.
package sexp

import (
	"fmt"
	"strconv"
)

// Node is a single element of an s-expression tree: either an Atom or a List.
type Node interface {
	isNode()
}

// Atom is a leaf token. Quoted records whether the token was written as a
// quoted string, so round-tripping preserves the original form.
type Atom struct {
	Value  string
	Quoted bool
}

func (*Atom) isNode() {}

// List is a parenthesized sequence of nodes.
type List struct {
	Items []Node
}

func (*List) isNode() {}

// Symbol returns an unquoted atom.
func Symbol(v string) *Atom { return &Atom{Value: v} }

// String returns a quoted atom.
func String(v string) *Atom { return &Atom{Value: v, Quoted: true} }

// Float returns an unquoted atom with KiCad's float formatting (shortest
// representation, no exponent for typical board coordinates).
func Float(v float64) *Atom {
	return &Atom{Value: strconv.FormatFloat(v, 'f', -1, 64)}
}

// Int returns an unquoted integer atom.
func Int(v int) *Atom { return &Atom{Value: strconv.Itoa(v)} }

// NewList builds a list from the given nodes.
func NewList(items ...Node) *List { return &List{Items: items} }

// Name returns the first atom of the list, which identifies the node type in
// KiCad files (e.g. "footprint", "segment"). Empty when the list does not
// start with an atom.
func (l *List) Name() string {
	if len(l.Items) == 0 {
		return ""
	}
	if a, ok := l.Items[0].(*Atom); ok {
		return a.Value
	}
	return ""
}

// Find returns the first child list named key.
func (l *List) Find(key string) (*List, bool) {
	for _, item := range l.Items {
		if sub, ok := item.(*List); ok && sub.Name() == key {
			return sub, true
		}
	}
	return nil, false
}

// FindAll returns every child list named key, in file order.
func (l *List) FindAll(key string) []*List {
	var result []*List
	for _, item := range l.Items {
		if sub, ok := item.(*List); ok && sub.Name() == key {
			result = append(result, sub)
		}
	}
	return result
}

// Remove deletes the first occurrence of node from the list's direct
// children. It reports whether the node was found.
func (l *List) Remove(node Node) bool {
	for i, item := range l.Items {
		if item == node {
			l.Items = append(l.Items[:i], l.Items[i+1:]...)
			return true
		}
	}
	return false
}

// Append adds a node at the end of the list.
func (l *List) Append(node Node) {
	l.Items = append(l.Items, node)
}

// Str returns the atom value at index, unescaped and unquoted.
func (l *List) Str(index int) (string, error) {
	if index < 0 || index >= len(l.Items) {
		return "", fmt.Errorf("index %d out of bounds (length %d)", index, len(l.Items))
	}
	a, ok := l.Items[index].(*Atom)
	if !ok {
		return "", fmt.Errorf("expected atom at index %d, got list", index)
	}
	return a.Value, nil
}

// Float returns the atom at index parsed as float64.
func (l *List) Float(index int) (float64, error) {
	s, err := l.Str(index)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse float %q: %w", s, err)
	}
	return v, nil
}

// Int returns the atom at index parsed as int.
func (l *List) Int(index int) (int, error) {
	s, err := l.Str(index)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("failed to parse int %q: %w", s, err)
	}
	return v, nil
}

// SetFloat replaces the atom at index with a float atom. Missing trailing
// positions are appended, so (at x y) can be extended to (at x y angle).
func (l *List) SetFloat(index int, v float64) error {
	if index < 0 || index > len(l.Items) {
		return fmt.Errorf("index %d out of bounds (length %d)", index, len(l.Items))
	}
	if index == len(l.Items) {
		l.Items = append(l.Items, Float(v))
		return nil
	}
	l.Items[index] = Float(v)
	return nil
}

// SetStr replaces the atom at index keeping its quoting style.
func (l *List) SetStr(index int, v string) error {
	if index < 0 || index >= len(l.Items) {
		return fmt.Errorf("index %d out of bounds (length %d)", index, len(l.Items))
	}
	quoted := false
	if a, ok := l.Items[index].(*Atom); ok {
		quoted = a.Quoted
	}
	l.Items[index] = &Atom{Value: v, Quoted: quoted}
	return nil
}
