package babylon

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"
)

// TSFormat handles TypeScript message modules of the form
//
//	export default {
//	  greeting: 'Hello',
//	  shop: { prev: "Previous" },
//	};
//
// Nested objects flatten to dotted keys in source order; null and undefined
// are absent messages. Anything before "export default" is ignored.
type TSFormat struct{}

func (TSFormat) Decode(data []byte) (*Messages, error) {
	msgs := NewMessages()
	if len(bytes.TrimSpace(data)) == 0 {
		return msgs, nil
	}
	p := &tsParser{src: string(data)}
	if err := p.seekExportDefault(); err != nil {
		return nil, err
	}
	if err := p.object("", msgs); err != nil {
		return nil, err
	}
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], "as const") {
		p.pos += len("as const")
		p.skipSpace()
	}
	if p.peek() == ';' {
		p.pos++
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, p.errorf("unexpected %q after the exported object", p.peek())
	}
	return msgs, nil
}

func (TSFormat) Encode(msgs *Messages) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("export default {\n")
	for _, k := range msgs.Keys() {
		v, _ := msgs.Get(k)
		if v == nil {
			continue
		}
		buf.WriteString("  ")
		if isTSIdentifier(k) {
			buf.WriteString(k)
		} else {
			buf.WriteString(quoteTS(k))
		}
		buf.WriteString(": ")
		buf.WriteString(quoteTS(*v))
		buf.WriteString(",\n")
	}
	buf.WriteString("};\n")
	return buf.Bytes(), nil
}

type tsParser struct {
	src string
	pos int
}

func (p *tsParser) errorf(format string, args ...any) error {
	line := 1 + strings.Count(p.src[:p.pos], "\n")
	return fmt.Errorf("line %d: %s", line, fmt.Sprintf(format, args...))
}

func (p *tsParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

// skipSpace skips whitespace and comments.
func (p *tsParser) skipSpace() {
	for p.pos < len(p.src) {
		rest := p.src[p.pos:]
		switch {
		case strings.HasPrefix(rest, "//"):
			end := strings.IndexByte(rest, '\n')
			if end < 0 {
				p.pos = len(p.src)
				return
			}
			p.pos += end + 1
		case strings.HasPrefix(rest, "/*"):
			end := strings.Index(rest[2:], "*/")
			if end < 0 {
				p.pos = len(p.src)
				return
			}
			p.pos += end + 4
		default:
			r, size := utf8.DecodeRuneInString(rest)
			if !unicode.IsSpace(r) {
				return
			}
			p.pos += size
		}
	}
}

func (p *tsParser) seekExportDefault() error {
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return p.errorf("no \"export default\" object")
		}
		if strings.HasPrefix(p.src[p.pos:], "export") {
			save := p.pos
			p.pos += len("export")
			p.skipSpace()
			if strings.HasPrefix(p.src[p.pos:], "default") {
				p.pos += len("default")
				p.skipSpace()
				return nil
			}
			p.pos = save
		}
		if err := p.skipStatementToken(); err != nil {
			return err
		}
	}
}

// skipStatementToken steps over one token of a preamble statement, keeping
// strings intact so their content cannot fake an export.
func (p *tsParser) skipStatementToken() error {
	switch c := p.peek(); c {
	case '\'', '"', '`':
		_, err := p.str()
		return err
	default:
		_, size := utf8.DecodeRuneInString(p.src[p.pos:])
		p.pos += size
		return nil
	}
}

func (p *tsParser) object(prefix string, msgs *Messages) error {
	if p.peek() != '{' {
		return p.errorf("expected an object literal")
	}
	p.pos++
	for {
		p.skipSpace()
		if p.peek() == '}' {
			p.pos++
			return nil
		}
		key, err := p.key()
		if err != nil {
			return err
		}
		if prefix != "" {
			key = prefix + "." + key
		}
		p.skipSpace()
		if p.peek() != ':' {
			return p.errorf("expected ':' after %q", key)
		}
		p.pos++
		p.skipSpace()
		if err := p.value(key, msgs); err != nil {
			return err
		}
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case '}':
		default:
			return p.errorf("expected ',' or '}' after %q", key)
		}
	}
}

func (p *tsParser) key() (string, error) {
	switch c := p.peek(); {
	case c == '\'' || c == '"':
		return p.str()
	case c == 0:
		return "", p.errorf("unterminated object")
	default:
		start := p.pos
		for p.pos < len(p.src) {
			r, size := utf8.DecodeRuneInString(p.src[p.pos:])
			if r != '_' && r != '$' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				break
			}
			p.pos += size
		}
		if p.pos == start {
			return "", p.errorf("unexpected %q in object key", c)
		}
		return p.src[start:p.pos], nil
	}
}

func (p *tsParser) value(key string, msgs *Messages) error {
	switch c := p.peek(); c {
	case '{':
		return p.object(key, msgs)
	case '\'', '"', '`':
		s, err := p.str()
		if err != nil {
			return err
		}
		msgs.Set(key, s)
		return nil
	}
	for _, lit := range []string{"null", "undefined"} {
		if strings.HasPrefix(p.src[p.pos:], lit) {
			p.pos += len(lit)
			msgs.Put(key, nil)
			return nil
		}
	}
	return p.errorf("%q must be a string or an object", key)
}

// str reads a quoted string or a template literal without substitutions.
func (p *tsParser) str() (string, error) {
	quote := p.src[p.pos]
	p.pos++
	var b strings.Builder
	for {
		if p.pos >= len(p.src) {
			return "", p.errorf("unterminated string")
		}
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return b.String(), nil
		case c == '\n' && quote != '`':
			return "", p.errorf("newline in string")
		case c == '$' && quote == '`' && strings.HasPrefix(p.src[p.pos:], "${"):
			return "", p.errorf("template substitutions are not supported")
		case c == '\\':
			if err := p.escape(&b); err != nil {
				return "", err
			}
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
}

func (p *tsParser) escape(b *strings.Builder) error {
	p.pos++
	if p.pos >= len(p.src) {
		return p.errorf("unterminated string")
	}
	c := p.src[p.pos]
	p.pos++
	switch c {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'v':
		b.WriteByte('\v')
	case '0':
		b.WriteByte(0)
	case '\n':
		// line continuation
	case 'u':
		r, err := p.unicodeEscape()
		if err != nil {
			return err
		}
		b.WriteRune(r)
	case 'x':
		if p.pos+2 > len(p.src) {
			return p.errorf("bad \\x escape")
		}
		n, err := strconv.ParseUint(p.src[p.pos:p.pos+2], 16, 8)
		if err != nil {
			return p.errorf("bad \\x escape")
		}
		p.pos += 2
		b.WriteRune(rune(n))
	default:
		b.WriteByte(c)
	}
	return nil
}

func (p *tsParser) unicodeEscape() (rune, error) {
	var hex string
	if p.peek() == '{' {
		end := strings.IndexByte(p.src[p.pos:], '}')
		if end < 0 {
			return 0, p.errorf("bad \\u escape")
		}
		hex = p.src[p.pos+1 : p.pos+end]
		p.pos += end + 1
	} else {
		if p.pos+4 > len(p.src) {
			return 0, p.errorf("bad \\u escape")
		}
		hex = p.src[p.pos : p.pos+4]
		p.pos += 4
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil || n > unicode.MaxRune {
		return 0, p.errorf("bad \\u escape")
	}
	r := rune(n)
	if utf16.IsSurrogate(r) && strings.HasPrefix(p.src[p.pos:], "\\u") {
		save := p.pos
		p.pos += 2
		low, err := p.unicodeEscape()
		if pair := utf16.DecodeRune(r, low); err == nil && pair != unicode.ReplacementChar {
			return pair, nil
		}
		p.pos = save
	}
	return r, nil
}

func isTSIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}

// quoteTS renders s as a single-quoted string literal.
func quoteTS(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			b.WriteString(`\'`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
