package engine

import (
	"fmt"
	"sort"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/samber/lo"

	"github.com/chazu/geode/pkg/icosphere"
	"github.com/chazu/geode/pkg/scene"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites geode script syntax into something zygomys
// accepts:
//
//   - :keyword becomes the string "__kw_keyword", so keywords need no globals
//   - kebab-case identifiers become snake_case (vertex-count -> vertex_count)
//   - ; and ;; line comments become // comments
//
// String literals, both "..." and `...`, are copied untouched.
func preprocessSource(source string) string {
	p := &preprocessor{src: source}
	p.out.Grow(len(source) + len(source)/4)
	for p.pos < len(p.src) {
		switch c := p.src[p.pos]; {
		case c == '"':
			p.quoted('"', true)
		case c == '`':
			p.quoted('`', false)
		case c == ';':
			p.comment()
		case c == ':' && p.peek(1) == '=':
			p.copy(2)
		case c == ':' && isLetter(p.peek(1)):
			p.keyword()
		case c == '-' && p.pos > 0 && isIdentChar(p.src[p.pos-1]) && isLetter(p.peek(1)):
			p.out.WriteByte('_')
			p.pos++
		default:
			p.copy(1)
		}
	}
	return p.out.String()
}

type preprocessor struct {
	src string
	pos int
	out strings.Builder
}

// peek returns the byte n positions ahead, or 0 past the end.
func (p *preprocessor) peek(n int) byte {
	if p.pos+n < len(p.src) {
		return p.src[p.pos+n]
	}
	return 0
}

func (p *preprocessor) copy(n int) {
	end := min(p.pos+n, len(p.src))
	p.out.WriteString(p.src[p.pos:end])
	p.pos = end
}

// quoted copies a literal delimited by q, including both delimiters.
func (p *preprocessor) quoted(q byte, escapes bool) {
	p.copy(1)
	for p.pos < len(p.src) && p.src[p.pos] != q {
		if escapes && p.src[p.pos] == '\\' {
			p.copy(2)
			continue
		}
		p.copy(1)
	}
	p.copy(1)
}

func (p *preprocessor) comment() {
	p.out.WriteString("//")
	for p.pos < len(p.src) && p.src[p.pos] == ';' {
		p.pos++
	}
	end := strings.IndexByte(p.src[p.pos:], '\n')
	if end < 0 {
		end = len(p.src) - p.pos
	}
	p.copy(end)
}

func (p *preprocessor) keyword() {
	start := p.pos + 1
	end := start
	for end < len(p.src) && isKWChar(p.src[end]) {
		end++
	}
	p.out.WriteByte('"')
	p.out.WriteString(kwPrefix)
	p.out.WriteString(p.src[start:end])
	p.out.WriteByte('"')
	p.pos = end
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isKWChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_'
}

// ---------------------------------------------------------------------------
// Keyword arguments
// ---------------------------------------------------------------------------

// kwPrefix marks keyword strings produced by preprocessSource.
const kwPrefix = "__kw_"

// isKW reports whether s is a preprocessed keyword and returns its name.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs splits args into keyword and positional arguments. A trailing
// keyword with no value maps to SexpNull.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// only returns an error naming the first keyword not in allowed.
func (a kwArgs) only(allowed ...string) error {
	unknown := lo.Filter(lo.Keys(a.kw), func(name string, _ int) bool {
		return !lo.Contains(allowed, name)
	})
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("unknown keyword :%s", unknown[0])
}

// ---------------------------------------------------------------------------
// Value extraction
// ---------------------------------------------------------------------------

// toInt extracts an integer. Floats are rejected even when integral, since a
// resolution of 2.5 is a script bug.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toResolution extracts a non-negative integer resolution.
func toResolution(s zygo.Sexp) (int, error) {
	r, err := toInt(s)
	if err != nil {
		return 0, err
	}
	if r < 0 {
		return 0, fmt.Errorf("resolution is %d, must be non-negative", r)
	}
	return r, nil
}

// ---------------------------------------------------------------------------
// Script values
// ---------------------------------------------------------------------------

// sexpEntity is what (sphere ...) returns, so scripts can bind entities.
type sexpEntity struct {
	id   scene.EntityID
	name string
}

func (e *sexpEntity) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(entity %q)", e.name)
}
func (e *sexpEntity) Type() *zygo.RegisteredType { return nil }

// scriptState is the mutable state one evaluation's builtins share.
type scriptState struct {
	scene    *scene.Scene
	defaults scene.SphereMeshComponent
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the geode builtins into env. They write to st.
// Source must go through preprocessSource first so keywords are recognisable.
func registerBuiltins(env *zygo.Zlisp, st *scriptState) {

	// -----------------------------------------------------------------------
	// (sphere "planet" :resolution 6)
	// -----------------------------------------------------------------------
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("sphere requires exactly one name argument, got %d", len(pa.positional))
		}
		if err := pa.only("resolution"); err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: %w", err)
		}
		entityName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: name: %w", err)
		}
		if entityName == "" {
			return zygo.SexpNull, fmt.Errorf("sphere: name must not be empty")
		}

		mesh := st.defaults
		if v, ok := pa.kw["resolution"]; ok {
			r, err := toResolution(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sphere %q: resolution: %w", entityName, err)
			}
			mesh.Resolution = r
		}

		e := scene.NewEntity(entityName, mesh)
		if err := st.scene.Add(e); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpEntity{id: e.ID, name: e.Name}, nil
	})

	// -----------------------------------------------------------------------
	// (defaults :resolution 3)
	// -----------------------------------------------------------------------
	env.AddFunction("defaults", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) > 0 {
			return zygo.SexpNull, fmt.Errorf("defaults takes only keyword arguments")
		}
		if err := pa.only("resolution"); err != nil {
			return zygo.SexpNull, fmt.Errorf("defaults: %w", err)
		}
		if v, ok := pa.kw["resolution"]; ok {
			r, err := toResolution(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("defaults: resolution: %w", err)
			}
			st.defaults.Resolution = r
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (vertex-count 4), (triangle-count 4)
	// -----------------------------------------------------------------------
	counter := func(count func(int) int) func(*zygo.Zlisp, string, []zygo.Sexp) (zygo.Sexp, error) {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 1 {
				return zygo.SexpNull, fmt.Errorf("%s requires exactly one argument, got %d", name, len(args))
			}
			r, err := toResolution(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
			return &zygo.SexpInt{Val: int64(count(r))}, nil
		}
	}
	env.AddFunction("vertex_count", counter(icosphere.VertexCount))
	env.AddFunction("triangle_count", counter(icosphere.TriangleCount))
}
