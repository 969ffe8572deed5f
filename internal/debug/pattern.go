package debug

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

// Pattern is one entry of a debug pattern list.
//
//	Folder          enable the type named Folder
//	not Folder      disable it ("!Folder" is the same)
//	extends Region  enable Region and every type embedding it
//	*               enable everything
//
// Names match either the simple type name or the package-qualified one
// ("relay/internal/sink.Console"). '*' matches any run of characters.
type Pattern struct {
	Raw     string
	Negate  bool
	Extends bool
	re      *regexp.Regexp
}

// Patterns is an ordered pattern list. When several patterns match a type
// the last one decides.
type Patterns []Pattern

// ParsePatterns parses a comma separated pattern list. Empty entries are
// skipped.
func ParsePatterns(s string) (Patterns, error) {
	var out Patterns
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		p, err := parsePattern(field)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func parsePattern(raw string) (Pattern, error) {
	p := Pattern{Raw: raw}
	rest := raw
	for {
		switch {
		case strings.HasPrefix(rest, "!"):
			p.Negate = true
			rest = strings.TrimSpace(rest[1:])
			continue
		case strings.HasPrefix(rest, "not "):
			p.Negate = true
			rest = strings.TrimSpace(rest[len("not "):])
			continue
		case strings.HasPrefix(rest, "extends "):
			p.Extends = true
			rest = strings.TrimSpace(rest[len("extends "):])
			continue
		}
		break
	}
	if rest == "" {
		return Pattern{}, fmt.Errorf("debug pattern %q names no type", raw)
	}
	re, err := regexp.Compile(simplify(rest))
	if err != nil {
		return Pattern{}, fmt.Errorf("debug pattern %q: %w", raw, err)
	}
	p.re = re
	return p, nil
}

// simplify turns a '*' wildcard into an anchored regular expression.
func simplify(glob string) string {
	parts := strings.Split(glob, "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return "^" + strings.Join(parts, ".*") + "$"
}

func (p Pattern) matchesName(simple, qualified string) bool {
	return p.re.MatchString(simple) || (qualified != "" && p.re.MatchString(qualified))
}

func (p Pattern) String() string { return p.Raw }

// EnabledFor evaluates the list against t. Without a match the result is
// false.
func (ps Patterns) EnabledFor(t reflect.Type) bool {
	t = baseType(t)
	if t == nil {
		return false
	}
	var lineage []reflect.Type
	on := false
	for _, p := range ps {
		matched := p.matchesName(typeNames(t))
		if !matched && p.Extends {
			if lineage == nil {
				lineage = ancestors(t)
			}
			for _, a := range lineage {
				if p.matchesName(typeNames(a)) {
					matched = true
					break
				}
			}
		}
		if matched {
			on = !p.Negate
		}
	}
	return on
}

// EnabledForName evaluates the list against a type known only by name, so
// "extends" patterns match the type itself and nothing else.
func (ps Patterns) EnabledForName(simple, qualified string) bool {
	on := false
	for _, p := range ps {
		if p.matchesName(simple, qualified) {
			on = !p.Negate
		}
	}
	return on
}

func (ps Patterns) String() string {
	raw := make([]string, len(ps))
	for i, p := range ps {
		raw[i] = p.Raw
	}
	return strings.Join(raw, ",")
}

func baseType(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// typeNames returns the simple and qualified name of t. Unnamed types use
// their type literal for both.
func typeNames(t reflect.Type) (simple, qualified string) {
	if t.Name() == "" {
		s := t.String()
		return s, s
	}
	if t.PkgPath() == "" {
		return t.Name(), t.Name()
	}
	return t.Name(), t.PkgPath() + "." + t.Name()
}

// ancestors returns every type t embeds, directly or through other embedded
// structs, breadth first.
func ancestors(t reflect.Type) []reflect.Type {
	var out []reflect.Type
	seen := map[reflect.Type]bool{t: true}
	queue := []reflect.Type{t}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.Kind() != reflect.Struct {
			continue
		}
		for i := 0; i < cur.NumField(); i++ {
			f := cur.Field(i)
			if !f.Anonymous {
				continue
			}
			ft := baseType(f.Type)
			if seen[ft] {
				continue
			}
			seen[ft] = true
			out = append(out, ft)
			queue = append(queue, ft)
		}
	}
	return out
}
