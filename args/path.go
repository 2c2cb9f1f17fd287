package args

import (
	"fmt"
	"strconv"
	"strings"
)

// Step is one hop of a Path: either a field name or a numeric index.
type Step struct {
	Name  string
	Index int
	IsIdx bool
}

func (s Step) String() string {
	if s.IsIdx {
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	return s.Name
}

// Path is a parsed dotted/indexed expression such as user.address[0].city.
type Path struct {
	raw   string
	steps []Step
}

func (p Path) String() string { return p.raw }

// Steps returns the hops of the path.
func (p Path) Steps() []Step { return p.steps }

// Root returns the first field name of the path.
func (p Path) Root() string {
	if len(p.steps) == 0 {
		return ""
	}
	return p.steps[0].Name
}

// IsZero reports whether p was never parsed.
func (p Path) IsZero() bool { return len(p.steps) == 0 }

// ParsePath parses a dotted/indexed path. The first step must be a name.
func ParsePath(expr string) (Path, error) {
	raw := strings.TrimSpace(expr)
	if raw == "" {
		return Path{}, fmt.Errorf("empty path")
	}

	steps := make([]Step, 0, 4)
	i := 0
	expectName := true
	for i < len(raw) {
		c := raw[i]
		switch {
		case c == '.':
			if expectName {
				return Path{}, fmt.Errorf("unexpected '.' at %d in %q", i, raw)
			}
			expectName = true
			i++
		case c == '[':
			if len(steps) == 0 || expectName {
				return Path{}, fmt.Errorf("unexpected '[' at %d in %q", i, raw)
			}
			end := strings.IndexByte(raw[i:], ']')
			if end < 0 {
				return Path{}, fmt.Errorf("unterminated index in %q", raw)
			}
			n, err := strconv.Atoi(strings.TrimSpace(raw[i+1 : i+end]))
			if err != nil || n < 0 {
				return Path{}, fmt.Errorf("invalid index %q in %q", raw[i+1:i+end], raw)
			}
			steps = append(steps, Step{Index: n, IsIdx: true})
			i += end + 1
		case isIdentPart(c):
			if !expectName {
				return Path{}, fmt.Errorf("unexpected %q at %d in %q", c, i, raw)
			}
			start := i
			for i < len(raw) && isIdentPart(raw[i]) {
				i++
			}
			steps = append(steps, Step{Name: raw[start:i]})
			expectName = false
		default:
			return Path{}, fmt.Errorf("unexpected %q at %d in %q", c, i, raw)
		}
	}
	if expectName {
		return Path{}, fmt.Errorf("path %q ends with '.'", raw)
	}
	return Path{raw: raw, steps: steps}, nil
}

// MustParsePath is ParsePath for static paths; it panics on error.
func MustParsePath(expr string) Path {
	p, err := ParsePath(expr)
	if err != nil {
		panic(err)
	}
	return p
}

func isIdentPart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// IsIdentStart reports whether c may begin a parameter name.
func IsIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// IsIdentPart reports whether c may continue a parameter name or path.
func IsIdentPart(c byte) bool {
	return isIdentPart(c) || c == '.' || c == '[' || c == ']'
}
