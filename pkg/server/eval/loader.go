package eval

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Module file format accepted by the loader:
//
//	module Foo where
//	import Id
//	x : [16]
//	x = 0xf00d
//
// Only constant bindings live in module files; functions are builtins
// registered on the base environment. Blank lines and "//" comments are
// skipped. Anything else is a parse error.

var ErrParse = errors.New("eval: parse error in module source")

// LoadModule reads path and returns a fresh environment: a clone of base
// (the builtins) plus the file's constant bindings. A type signature
// `name : [w]` constrains the following binding's width.
func LoadModule(path string, base *Env) (*Env, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	env := base.Clone()
	declared := make(map[string]int)

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "" || strings.HasPrefix(line, "//"):
			continue

		case strings.HasPrefix(line, "module "):
			if !strings.HasSuffix(line, " where") {
				return nil, fmt.Errorf("%w: %s:%d: module header must end in 'where'", ErrParse, path, lineNo)
			}
			continue

		case strings.HasPrefix(line, "import "):
			// Imported modules resolve to qualified builtins already on
			// the base environment; nothing to do here.
			continue

		default:
			if err := parseDecl(env, declared, line); err != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return env, nil
}

func parseDecl(env *Env, declared map[string]int, line string) error {
	if name, rest, ok := splitDecl(line, ":"); ok {
		width, err := parseWidthType(rest)
		if err != nil {
			return err
		}
		declared[name] = width
		return nil
	}

	if name, rest, ok := splitDecl(line, "="); ok {
		src := rest
		if width, hasSig := declared[name]; hasSig {
			src = fmt.Sprintf("(%s) : [%d]", rest, width)
		}

		expr, err := Parse(src)
		if err != nil {
			return err
		}

		v, err := env.Eval(expr)
		if err != nil {
			return err
		}
		return env.Define(name, v)
	}

	return fmt.Errorf("%w: unrecognized declaration %q", ErrParse, line)
}

// splitDecl splits "name <sep> rest" where name is a plain identifier. An
// "=" split refuses lines whose separator is actually the ':' of a type
// signature and vice versa, by requiring the name to be separator-free.
func splitDecl(line, sep string) (name, rest string, ok bool) {
	idx := strings.Index(line, sep)
	if idx < 0 {
		return "", "", false
	}

	name = strings.TrimSpace(line[:idx])
	rest = strings.TrimSpace(line[idx+len(sep):])
	if name == "" || rest == "" || strings.ContainsAny(name, " \t:=") {
		return "", "", false
	}
	return name, rest, true
}

func parseWidthType(s string) (int, error) {
	inner, ok := strings.CutPrefix(s, "[")
	if !ok {
		return 0, fmt.Errorf("%w: unsupported type %q", ErrParse, s)
	}
	inner, ok = strings.CutSuffix(inner, "]")
	if !ok {
		return 0, fmt.Errorf("%w: unsupported type %q", ErrParse, s)
	}

	var width int
	if _, err := fmt.Sscanf(strings.TrimSpace(inner), "%d", &width); err != nil {
		return 0, fmt.Errorf("%w: bad width in type %q", ErrParse, s)
	}
	if width < 0 {
		return 0, fmt.Errorf("%w: negative width in type %q", ErrParse, s)
	}
	return width, nil
}
