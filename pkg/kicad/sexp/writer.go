package sexp

import (
	"bufio"
	"io"
	"strings"
)

// Write renders node as KiCad-style s-expression text. Lists containing
// sub-lists are broken across lines with tab indentation, matching the
// layout pcbnew produces closely enough for diff-friendly output.
func Write(w io.Writer, node Node) error {
	bw := bufio.NewWriter(w)
	writeNode(bw, node, 0)
	bw.WriteByte('\n')
	return bw.Flush()
}

// Format renders node to a string.
func Format(node Node) string {
	var sb strings.Builder
	writeNode(&sb, node, 0)
	sb.WriteByte('\n')
	return sb.String()
}

type stringWriter interface {
	io.Writer
	WriteString(string) (int, error)
	WriteByte(byte) error
}

func writeNode(w stringWriter, node Node, depth int) {
	switch n := node.(type) {
	case *Atom:
		writeAtom(w, n)
	case *List:
		writeList(w, n, depth)
	}
}

func writeAtom(w stringWriter, a *Atom) {
	if !a.Quoted {
		w.WriteString(a.Value)
		return
	}
	w.WriteByte('"')
	for _, r := range a.Value {
		switch r {
		case '"':
			w.WriteString(`\"`)
		case '\\':
			w.WriteString(`\\`)
		case '\n':
			w.WriteString(`\n`)
		case '\t':
			w.WriteString(`\t`)
		default:
			w.WriteString(string(r))
		}
	}
	w.WriteByte('"')
}

func writeList(w stringWriter, l *List, depth int) {
	w.WriteByte('(')
	if isFlat(l) {
		for i, item := range l.Items {
			if i > 0 {
				w.WriteByte(' ')
			}
			writeNode(w, item, depth+1)
		}
		w.WriteByte(')')
		return
	}

	// Atoms up to the first sub-list stay on the opening line.
	i := 0
	for ; i < len(l.Items); i++ {
		if _, ok := l.Items[i].(*List); ok {
			break
		}
		if i > 0 {
			w.WriteByte(' ')
		}
		writeNode(w, l.Items[i], depth+1)
	}
	for ; i < len(l.Items); i++ {
		w.WriteByte('\n')
		indent(w, depth+1)
		writeNode(w, l.Items[i], depth+1)
	}
	w.WriteByte('\n')
	indent(w, depth)
	w.WriteByte(')')
}

// isFlat reports whether the list contains only atoms.
func isFlat(l *List) bool {
	for _, item := range l.Items {
		if _, ok := item.(*List); ok {
			return false
		}
	}
	return true
}

func indent(w stringWriter, depth int) {
	for i := 0; i < depth; i++ {
		w.WriteByte('\t')
	}
}
