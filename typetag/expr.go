package typetag

import (
	"fmt"
	"strings"
)

var scalarNames = map[string]Kind{
	"bool":    KindBoolean,
	"boolean": KindBoolean,
	"string":  KindString,
	"bytes":   KindByteArray,
	"byte":    KindByte,
	"int8":    KindByte,
	"short":   KindShort,
	"int16":   KindShort,
	"int":     KindInt,
	"int32":   KindInt,
	"long":    KindLong,
	"int64":   KindLong,
	"float":   KindFloat,
	"float32": KindFloat,
	"double":  KindDouble,
	"float64": KindDouble,
}

// ParseExpr parses a type expression such as "list<map<string,list<int>>>"
// into a tag. It accepts everything Tag.String produces, plus the Go names
// of the scalar types (int32, float64, ...).
func ParseExpr(expr string) (*Tag, error) {
	p := exprParser{src: expr}
	tag, err := p.parse()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected %q after type", p.src[p.pos:])
	}
	return tag, nil
}

// MustParseExpr is like ParseExpr but panics on error.
func MustParseExpr(expr string) *Tag {
	tag, err := ParseExpr(expr)
	if err != nil {
		panic(err)
	}
	return tag
}

type exprParser struct {
	src string
	pos int
}

func (p *exprParser) parse() (*Tag, error) {
	name := strings.ToLower(p.ident())
	if name == "" {
		return nil, p.errorf("expected type name")
	}

	if k, ok := scalarNames[name]; ok {
		return leaves[k], nil
	}

	switch name {
	case "list":
		if err := p.expect('<'); err != nil {
			return nil, err
		}
		elem, err := p.parse()
		if err != nil {
			return nil, err
		}
		if err := p.expect('>'); err != nil {
			return nil, err
		}
		return List(elem), nil

	case "map":
		if err := p.expect('<'); err != nil {
			return nil, err
		}
		key, err := p.parse()
		if err != nil {
			return nil, err
		}
		if err := p.expect(','); err != nil {
			return nil, err
		}
		value, err := p.parse()
		if err != nil {
			return nil, err
		}
		if err := p.expect('>'); err != nil {
			return nil, err
		}
		return Map(key, value), nil
	}

	return nil, p.errorf("unknown type %q", name)
}

func (p *exprParser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

func (p *exprParser) expect(c byte) error {
	p.skipSpace()
	if p.pos >= len(p.src) || p.src[p.pos] != c {
		return p.errorf("expected %q", c)
	}
	p.pos++
	return nil
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *exprParser) errorf(format string, args ...any) error {
	return fmt.Errorf("typetag: %s at offset %d in %q", fmt.Sprintf(format, args...), p.pos, p.src)
}
