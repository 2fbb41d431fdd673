package report

import (
	"fmt"
	"strings"

	apperrors "github.com/Dokarii/TercerMomento/internal/errors"
)

// Template is a parsed report template. Placeholders are written {name};
// {{ and }} stand for literal braces, so CSS blocks survive substitution.
type Template struct {
	segments []segment
	names    []string
}

type segment struct {
	text        string
	placeholder bool
}

// ParseTemplate splits src into literal text and placeholders. A brace that
// is neither doubled nor part of a {name} token is an error.
func ParseTemplate(src string) (*Template, error) {
	t := &Template{}
	seen := make(map[string]bool)

	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			t.segments = append(t.segments, segment{text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(src); i++ {
		switch c := src[i]; c {
		case '{':
			if i+1 < len(src) && src[i+1] == '{' {
				lit.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexAny(src[i+1:], "{}")
			if end < 0 || src[i+1+end] != '}' {
				return nil, malformed("unclosed '{'", src, i)
			}
			name := src[i+1 : i+1+end]
			if strings.TrimSpace(name) == "" {
				return nil, malformed("empty placeholder", src, i)
			}
			flush()
			t.segments = append(t.segments, segment{text: name, placeholder: true})
			if !seen[name] {
				seen[name] = true
				t.names = append(t.names, name)
			}
			i += end + 1
		case '}':
			if i+1 < len(src) && src[i+1] == '}' {
				lit.WriteByte('}')
				i++
				continue
			}
			return nil, malformed("single '}'", src, i)
		default:
			lit.WriteByte(c)
		}
	}
	flush()

	return t, nil
}

func malformed(reason, src string, offset int) error {
	line := 1 + strings.Count(src[:offset], "\n")
	return apperrors.NewTemplateError(fmt.Sprintf("malformed template: %s at line %d", reason, line), nil).
		WithContext("offset", offset)
}

// Placeholders returns the distinct placeholder names in order of first use.
func (t *Template) Placeholders() []string {
	return append([]string(nil), t.names...)
}

// Validate fails when any placeholder has no value, naming all of them.
func (t *Template) Validate(values map[string]string) error {
	var missing []string
	for _, name := range t.names {
		if _, ok := values[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return apperrors.NewTemplateError(
			fmt.Sprintf("unmapped placeholders: %s", strings.Join(missing, ", ")),
			apperrors.ErrUnmappedPlaceholder,
		).WithContext("placeholders", missing)
	}
	return nil
}

// Execute validates values and returns the template with every placeholder
// replaced verbatim.
func (t *Template) Execute(values map[string]string) (string, error) {
	if err := t.Validate(values); err != nil {
		return "", err
	}

	var b strings.Builder
	for _, s := range t.segments {
		if s.placeholder {
			b.WriteString(values[s.text])
			continue
		}
		b.WriteString(s.text)
	}
	return b.String(), nil
}
