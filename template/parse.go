package template

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Konsultn-Engineering/sqlkit/args"
	"github.com/Konsultn-Engineering/sqlkit/sqlerr"
	"github.com/Konsultn-Engineering/sqlkit/types"
)

// parseState walks a SQL text once, copying quoted strings, comments and
// dollar-quoted bodies verbatim and cutting placeholders into segments.
type parseState struct {
	src   string
	n     int
	i     int
	lit   strings.Builder
	segs  []Segment
	rules *RuleRegistry

	// base is the offset of src inside the top-level text, so errors raised
	// inside rule bodies still point at the original position.
	base int
	root string
}

func parseTemplate(text string, rules *RuleRegistry) (*Template, error) {
	return parseAt(text, text, 0, rules)
}

func parseAt(root, text string, base int, rules *RuleRegistry) (*Template, error) {
	s := &parseState{src: text, n: len(text), rules: rules, base: base, root: root}
	if err := s.run(); err != nil {
		return nil, err
	}
	return &Template{text: text, segments: s.segs}, nil
}

func (s *parseState) errorf(at int, reason string) error {
	return sqlerr.NewParseError(s.root, s.base+at, reason)
}

func (s *parseState) peek(k int) byte {
	if s.i+k < s.n {
		return s.src[s.i+k]
	}
	return 0
}

func (s *parseState) flush() {
	if s.lit.Len() == 0 {
		return
	}
	s.segs = append(s.segs, Segment{Kind: SegmentLiteral, Text: s.lit.String()})
	s.lit.Reset()
}

func (s *parseState) emit(seg Segment) {
	s.flush()
	s.segs = append(s.segs, seg)
}

// copyTo moves src[i:end] into the current literal run.
func (s *parseState) copyTo(end int) {
	if end > s.n {
		end = s.n
	}
	s.lit.WriteString(s.src[s.i:end])
	s.i = end
}

func (s *parseState) run() error {
	for s.i < s.n {
		c := s.src[s.i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			s.copyTo(s.quotedEnd(s.i, c))
		case c == '-' && s.peek(1) == '-':
			s.copyTo(s.lineEnd())
		case c == '/' && s.peek(1) == '*':
			s.copyTo(s.blockCommentEnd())
		case c == '$' && s.peek(1) == '{':
			if err := s.brace(SegmentInject); err != nil {
				return err
			}
		case c == '$':
			s.copyTo(s.dollarQuotedEnd())
		case c == '#' && s.peek(1) == '{':
			if err := s.brace(SegmentNamed); err != nil {
				return err
			}
		case c == '@' && s.peek(1) == '{':
			if err := s.brace(SegmentRule); err != nil {
				return err
			}
		case c == '?':
			s.emit(Segment{Kind: SegmentPositional, Text: "?"})
			s.i++
		case c == ':' || c == '&':
			if err := s.prefixed(c); err != nil {
				return err
			}
		default:
			s.lit.WriteByte(c)
			s.i++
		}
	}
	s.flush()
	return nil
}

// quotedEnd returns the index after the closing quote. A doubled quote is an
// escaped quote. An unterminated literal runs to the end of the text.
func (s *parseState) quotedEnd(from int, q byte) int {
	j := from + 1
	for j < s.n {
		if s.src[j] == q {
			if j+1 < s.n && s.src[j+1] == q {
				j += 2
				continue
			}
			return j + 1
		}
		j++
	}
	return s.n
}

func (s *parseState) lineEnd() int {
	j := strings.IndexByte(s.src[s.i:], '\n')
	if j < 0 {
		return s.n
	}
	return s.i + j
}

func (s *parseState) blockCommentEnd() int {
	j := strings.Index(s.src[s.i+2:], "*/")
	if j < 0 {
		return s.n
	}
	return s.i + 2 + j + 2
}

// dollarQuotedEnd handles $$body$$ and $tag$body$tag$. Anything else, such
// as a $1 placeholder already in the text, is a one byte literal.
func (s *parseState) dollarQuotedEnd() int {
	j := s.i + 1
	for j < s.n && s.src[j] != '$' {
		c := s.src[j]
		if c != '_' && !(c >= 'a' && c <= 'z') && !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9' && j > s.i+1) {
			return s.i + 1
		}
		j++
	}
	if j >= s.n {
		return s.i + 1
	}
	tag := s.src[s.i : j+1]
	k := strings.Index(s.src[j+1:], tag)
	if k < 0 {
		return s.n
	}
	return j + 1 + k + len(tag)
}

// prefixed handles :name and &name. '::' is a cast and '&&' an operator;
// both are copied through.
func (s *parseState) prefixed(c byte) error {
	next := s.peek(1)
	switch {
	case next == c:
		s.copyTo(s.i + 2)
		return nil
	case next == '#' || next == '@':
		return s.errorf(s.i, "illegal character after '"+string(c)+"'")
	case !args.IsIdentStart(next):
		s.lit.WriteByte(c)
		s.i++
		return nil
	}

	start := s.i
	j := s.i + 1
	for j < s.n && args.IsIdentPart(s.src[j]) {
		if s.src[j] == ']' && !strings.Contains(s.src[start:j], "[") {
			break
		}
		j++
	}
	// a trailing '.' belongs to the surrounding text
	for j > start+1 && s.src[j-1] == '.' {
		j--
	}
	p, err := args.ParsePath(s.src[start+1 : j])
	if err != nil {
		return s.errorf(start, err.Error())
	}
	s.emit(Segment{Kind: SegmentNamed, Text: s.src[start:j], Path: p})
	s.i = j
	return nil
}

// braceEnd returns the index of the '}' closing the block opened at s.i.
func (s *parseState) braceEnd() (int, error) {
	depth := 0
	j := s.i + 1
	for j < s.n {
		switch c := s.src[j]; c {
		case '\'', '"', '`':
			j = s.quotedEnd(j, c)
			continue
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return j, nil
			}
		}
		j++
	}
	return 0, s.errorf(s.i, "unterminated '"+s.src[s.i:s.i+2]+"' block")
}

func (s *parseState) brace(kind SegmentKind) error {
	start := s.i
	end, err := s.braceEnd()
	if err != nil {
		return err
	}
	inner := s.src[start+2 : end]
	text := s.src[start : end+1]
	innerBase := start + 2

	var seg Segment
	switch kind {
	case SegmentInject:
		p, err := args.ParsePath(stripPrefix(inner))
		if err != nil {
			return s.errorf(start, err.Error())
		}
		seg = Segment{Kind: SegmentInject, Text: text, Path: p}
	case SegmentNamed:
		p, opts, err := parseParamExpr(inner)
		if err != nil {
			return s.errorf(start, err.Error())
		}
		seg = Segment{Kind: SegmentNamed, Text: text, Path: p, Options: opts}
	case SegmentRule:
		seg, err = s.rule(text, inner, innerBase)
		if err != nil {
			return err
		}
	}
	s.emit(seg)
	s.i = end + 1
	return nil
}

func (s *parseState) rule(text, inner string, innerBase int) (Segment, error) {
	parts := splitArgs(inner, -1)
	name := strings.ToLower(strings.TrimSpace(parts[0].text))
	if name == "" {
		return Segment{}, s.errorf(innerBase-2, "missing rule name")
	}
	r, ok := s.rules.Get(name)
	if !ok {
		return Segment{}, s.errorf(innerBase-2, "unknown rule "+name)
	}

	lead := r.Leading()
	rest := parts[1:]
	if len(rest) < lead {
		return Segment{}, s.errorf(innerBase-2, "rule "+name+" needs more arguments")
	}
	leading := make([]string, lead)
	for i := 0; i < lead; i++ {
		leading[i] = strings.TrimSpace(rest[i].text)
	}

	var body *Template
	var bodyText string
	if len(rest) > lead {
		from := rest[lead].offset
		bodyText = inner[from:]
		var err error
		body, err = parseAt(s.root, bodyText, s.base+innerBase+from, s.rules)
		if err != nil {
			return Segment{}, err
		}
	}

	if v, ok := r.(Validator); ok {
		if err := v.Validate(leading, bodyText); err != nil {
			return Segment{}, s.errorf(innerBase-2, err.Error())
		}
	}
	return Segment{Kind: SegmentRule, Text: text, Rule: name, Leading: leading, Body: body}, nil
}

type argPart struct {
	text   string
	offset int
}

// splitArgs splits on top-level commas. Commas inside quotes, parentheses or
// braces do not split. A limit >= 0 caps the number of parts.
func splitArgs(s string, limit int) []argPart {
	var parts []argPart
	depth := 0
	start := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case '{', '(':
			depth++
		case '}', ')':
			depth--
		case ',':
			if depth == 0 && (limit < 0 || len(parts) < limit-1) {
				parts = append(parts, argPart{text: s[start:i], offset: start})
				start = i + 1
			}
		}
	}
	return append(parts, argPart{text: s[start:], offset: start})
}

func stripPrefix(expr string) string {
	expr = strings.TrimSpace(expr)
	if strings.HasPrefix(expr, ":") || strings.HasPrefix(expr, "&") {
		return expr[1:]
	}
	return expr
}

// parseParamExpr parses "path, sqlType=X, handler=Y, mode=in". The
// jdbcType and typeHandler spellings are accepted too.
func parseParamExpr(expr string) (args.Path, ParamOptions, error) {
	var opts ParamOptions
	parts := splitArgs(expr, -1)
	p, err := args.ParsePath(stripPrefix(parts[0].text))
	if err != nil {
		return args.Path{}, opts, err
	}
	for _, part := range parts[1:] {
		key, value, ok := strings.Cut(part.text, "=")
		if !ok {
			return args.Path{}, opts, fmt.Errorf("option %q is not key=value", strings.TrimSpace(part.text))
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch strings.ToLower(key) {
		case "jdbctype", "sqltype":
			t, ok := types.ParseSQLType(value)
			if !ok {
				return args.Path{}, opts, fmt.Errorf("unknown sql type %q", value)
			}
			opts.SQLType = t
		case "typehandler", "handler":
			if value == "" {
				return args.Path{}, opts, errors.New("empty type handler")
			}
			opts.Handler = value
		case "mode":
			switch strings.ToLower(value) {
			case "in":
				opts.Mode = ModeIn
			case "out":
				opts.Mode = ModeOut
			case "inout":
				opts.Mode = ModeInOut
			default:
				return args.Path{}, opts, fmt.Errorf("unknown mode %q", value)
			}
		default:
			return args.Path{}, opts, fmt.Errorf("unknown option %q", key)
		}
	}
	return p, opts, nil
}
