package caps

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse parses caps in GStreamer text form, e.g.
//
//	video/x-raw, format=(string)YUY2, width=(int)[ 1, 1920 ], height=(int)480; image/jpeg
//
// Type annotations are optional. Untyped values of the form a/b are fractions,
// other numbers are integers and everything else is a string. "EMPTY" parses to
// empty caps.
func Parse(s string) (Caps, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "EMPTY" {
		return Caps{}, nil
	}
	if s == "ANY" {
		return nil, fmt.Errorf("caps ANY cannot be represented")
	}
	p := &parser{s: s}
	var c Caps
	for {
		p.skipSpace()
		if p.eof() {
			break
		}
		st, err := p.structure()
		if err != nil {
			return nil, err
		}
		c = append(c, st)
		p.skipSpace()
		if p.eof() {
			break
		}
		if !p.consume(';') {
			return nil, p.errorf("expected ';' between structures")
		}
	}
	return c, nil
}

type parser struct {
	s   string
	pos int
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("parsing caps at offset %d: %s", p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) eof() bool {
	return p.pos >= len(p.s)
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.s[p.pos]
}

func (p *parser) skipSpace() {
	for !p.eof() && (p.s[p.pos] == ' ' || p.s[p.pos] == '\t' || p.s[p.pos] == '\n' || p.s[p.pos] == '\r') {
		p.pos++
	}
}

func (p *parser) consume(c byte) bool {
	p.skipSpace()
	if p.peek() == c {
		p.pos++
		return true
	}
	return false
}

// token reads until one of the stop characters, trimming surrounding space.
func (p *parser) token(stop string) string {
	p.skipSpace()
	start := p.pos
	for !p.eof() && !strings.ContainsRune(stop, rune(p.s[p.pos])) {
		p.pos++
	}
	return strings.TrimSpace(p.s[start:p.pos])
}

func (p *parser) structure() (Structure, error) {
	name := p.token(",;")
	if name == "" {
		return Structure{}, p.errorf("missing structure name")
	}
	st := Structure{Name: name}
	for p.consume(',') {
		key := p.token("=,;")
		if key == "" {
			return Structure{}, p.errorf("missing field name in %s", name)
		}
		if !p.consume('=') {
			return Structure{}, p.errorf("expected '=' after field %q", key)
		}
		v, err := p.value()
		if err != nil {
			return Structure{}, fmt.Errorf("field %q: %w", key, err)
		}
		st.Fields = append(st.Fields, Field{key, v})
	}
	return st, nil
}

func (p *parser) value() (Value, error) {
	typ := ""
	if p.consume('(') {
		typ = p.token(")")
		if !p.consume(')') {
			return nil, p.errorf("unterminated type annotation")
		}
	}
	p.skipSpace()
	switch p.peek() {
	case '[':
		p.pos++
		var elems []string
		for {
			elems = append(elems, p.token(",]"))
			if p.consume(']') {
				break
			}
			if !p.consume(',') {
				return nil, p.errorf("unterminated range")
			}
		}
		return rangeValue(typ, elems)
	case '{', '<':
		end := byte('}')
		if p.peek() == '<' {
			end = '>'
		}
		p.pos++
		l := List{}
		if p.consume(end) {
			return l, nil
		}
		for {
			v, err := p.listElem(typ, end)
			if err != nil {
				return nil, err
			}
			l = append(l, v)
			if p.consume(end) {
				return l, nil
			}
			if !p.consume(',') {
				return nil, p.errorf("unterminated list")
			}
		}
	case '"':
		return p.quoted()
	}
	tok := p.token(",;")
	return scalar(typ, tok)
}

func (p *parser) listElem(typ string, end byte) (Value, error) {
	// gst-device-monitor annotates each element, e.g. { (fraction)30/1, (fraction)15/1 }.
	if p.consume('(') {
		typ = p.token(")")
		if !p.consume(')') {
			return nil, p.errorf("unterminated type annotation")
		}
	}
	p.skipSpace()
	if p.peek() == '"' {
		return p.quoted()
	}
	return scalar(typ, p.token(","+string(end)))
}

func (p *parser) quoted() (Value, error) {
	start := p.pos
	p.pos++
	for !p.eof() {
		switch p.s[p.pos] {
		case '\\':
			p.pos += 2
			continue
		case '"':
			p.pos++
			s, err := strconv.Unquote(p.s[start:p.pos])
			if err != nil {
				return nil, p.errorf("bad quoted string: %v", err)
			}
			return String(s), nil
		}
		p.pos++
	}
	return nil, p.errorf("unterminated string")
}

func scalar(typ, tok string) (Value, error) {
	if tok == "" {
		return nil, fmt.Errorf("empty value")
	}
	switch typ {
	case "int", "i":
		n, err := strconv.Atoi(tok)
		if err != nil {
			return nil, fmt.Errorf("bad int %q", tok)
		}
		return Int(n), nil
	case "fraction":
		f, ok := parseFraction(tok)
		if !ok {
			return nil, fmt.Errorf("bad fraction %q", tok)
		}
		return f, nil
	case "":
		if f, ok := parseFraction(tok); ok && strings.Contains(tok, "/") {
			return f, nil
		}
		if n, err := strconv.Atoi(tok); err == nil {
			return Int(n), nil
		}
	}
	return String(tok), nil
}

func rangeValue(typ string, elems []string) (Value, error) {
	if len(elems) < 2 || len(elems) > 3 {
		return nil, fmt.Errorf("range needs 2 or 3 elements, got %d", len(elems))
	}
	if typ == "fraction" || (typ == "" && strings.Contains(elems[0], "/")) {
		min, ok1 := parseFraction(elems[0])
		max, ok2 := parseFraction(elems[1])
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("bad fraction range [%s]", strings.Join(elems, ", "))
		}
		return FractionRange{min, max}, nil
	}
	min, err1 := strconv.Atoi(elems[0])
	max, err2 := strconv.Atoi(elems[1])
	if err1 != nil || err2 != nil {
		return nil, fmt.Errorf("bad int range [%s]", strings.Join(elems, ", "))
	}
	return IntRange{min, max}, nil
}

func parseFraction(s string) (Fraction, bool) {
	t := strings.SplitN(s, "/", 2)
	num, err := strconv.Atoi(strings.TrimSpace(t[0]))
	if err != nil {
		return Fraction{}, false
	}
	if len(t) == 1 {
		return Fraction{num, 1}, true
	}
	den, err := strconv.Atoi(strings.TrimSpace(t[1]))
	if err != nil {
		return Fraction{}, false
	}
	return Fraction{num, den}, true
}
