package sexp

import (
	"fmt"
	"io"
	"strings"
)

// Parse reads all top-level s-expressions from r.
func Parse(r io.Reader) ([]Node, error) {
	p := &parser{lexer: newLexer(r)}
	return p.parseAll()
}

// ParseString reads all top-level s-expressions from a string.
func ParseString(input string) ([]Node, error) {
	return Parse(strings.NewReader(input))
}

// ParseOne reads the single root expression of a KiCad file.
func ParseOne(r io.Reader) (*List, error) {
	nodes, err := Parse(r)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("empty file or no valid s-expressions found")
	}
	root, ok := nodes[0].(*List)
	if !ok {
		return nil, fmt.Errorf("expected list at top level, got atom")
	}
	return root, nil
}

type parser struct {
	lexer   *lexer
	current token
}

func (p *parser) parseAll() ([]Node, error) {
	var result []Node

	tok, err := p.lexer.next()
	if err != nil {
		return nil, err
	}
	p.current = tok

	for p.current.typ != tokenEOF {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		result = append(result, expr)

		tok, err := p.lexer.next()
		if err != nil {
			return nil, err
		}
		p.current = tok
	}

	return result, nil
}

func (p *parser) parseExpr() (Node, error) {
	switch p.current.typ {
	case tokenLeftParen:
		return p.parseList()
	case tokenSymbol:
		return &Atom{Value: p.current.value}, nil
	case tokenString:
		return &Atom{Value: p.current.value, Quoted: true}, nil
	case tokenRightParen:
		return nil, fmt.Errorf("unexpected ')'")
	case tokenEOF:
		return nil, fmt.Errorf("unexpected EOF")
	default:
		return nil, fmt.Errorf("unexpected token type: %v", p.current.typ)
	}
}

func (p *parser) parseList() (Node, error) {
	list := &List{}

	for {
		tok, err := p.lexer.next()
		if err != nil {
			return nil, err
		}
		p.current = tok

		if p.current.typ == tokenRightParen {
			break
		}
		if p.current.typ == tokenEOF {
			return nil, fmt.Errorf("unexpected EOF in list")
		}

		elem, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		list.Items = append(list.Items, elem)
	}

	return list, nil
}
