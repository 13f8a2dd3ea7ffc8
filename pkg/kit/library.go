// Package kit collects reusable html/template tags.
//
// Three tag shapes are supported:
//
//   - single tags are functions returning markup: {{button "Save"}}
//   - compose tags wrap content: {{card_open}}...{{card_close}}; the close
//     function takes the same arguments as the open one
//   - direct tags contribute template source that is parsed together with the
//     page, so it can use actions and the page data: {{template "style" .}}
package kit

import (
	"errors"
	"fmt"
	"html/template"
	"reflect"
	"regexp"
	"strings"
)

// ErrInvalidTag is returned when a tag name or function has the wrong shape.
var ErrInvalidTag = errors.New("kit: invalid tag")

var (
	tagName    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	stringType = reflect.TypeFor[string]()
	htmlType   = reflect.TypeFor[template.HTML]()
)

// Library is a set of tags that can be installed into html/template.
type Library struct {
	tokens   Tokens
	funcs    template.FuncMap
	partials []partial
}

type partial struct {
	name   string
	source string
}

type Option func(*Library)

// WithTokens sets how class keys are rendered.
func WithTokens(t Tokens) Option {
	return func(l *Library) { l.tokens = t }
}

// NewLibrary returns a library that already provides the "key" function,
// mapping a class key to its rendered class name.
func NewLibrary(opts ...Option) *Library {
	l := &Library{funcs: template.FuncMap{}}
	for _, opt := range opts {
		opt(l)
	}
	l.funcs["key"] = func(k string) template.CSS { return template.CSS(l.tokens.Key(k)) }
	return l
}

func (l *Library) Tokens() Tokens { return l.tokens }

// SingleTag registers fn, a function returning a string of markup.
func (l *Library) SingleTag(name string, fn any) error {
	fv, err := l.check(name, fn, 1)
	if err != nil {
		return err
	}
	l.funcs[name] = asHTML(fv, 0).Interface()
	return nil
}

// ComposeTag registers fn, a function returning the opening and closing
// markup, as name_open and name_close.
func (l *Library) ComposeTag(name string, fn any) error {
	fv, err := l.check(name, fn, 2)
	if err != nil {
		return err
	}
	open, closing := name+"_open", name+"_close"
	for _, n := range []string{open, closing} {
		if _, dup := l.funcs[n]; dup {
			return fmt.Errorf("%w: %q already registered", ErrInvalidTag, n)
		}
	}
	l.funcs[open] = asHTML(fv, 0).Interface()
	l.funcs[closing] = asHTML(fv, 1).Interface()
	return nil
}

// DirectTag registers the template source returned by fn as a named
// template.
func (l *Library) DirectTag(name string, fn func() string) error {
	if fn == nil {
		return fmt.Errorf("%w: %q has no function", ErrInvalidTag, name)
	}
	if !tagName.MatchString(name) {
		return fmt.Errorf("%w: bad name %q", ErrInvalidTag, name)
	}
	for _, p := range l.partials {
		if p.name == name {
			return fmt.Errorf("%w: %q already registered", ErrInvalidTag, name)
		}
	}
	l.partials = append(l.partials, partial{name: name, source: fn()})
	return nil
}

// FuncMap returns a copy of the registered functions.
func (l *Library) FuncMap() template.FuncMap {
	out := make(template.FuncMap, len(l.funcs))
	for k, v := range l.funcs {
		out[k] = v
	}
	return out
}

// Partials returns the direct tags as {{define}} blocks.
func (l *Library) Partials() string {
	var b strings.Builder
	for _, p := range l.partials {
		b.WriteString(`{{define "`)
		b.WriteString(p.name)
		b.WriteString(`"}}`)
		b.WriteString(p.source)
		b.WriteString(`{{end}}`)
	}
	return b.String()
}

// Parse parses src as a template that can use every tag of the library.
func (l *Library) Parse(name, src string) (*template.Template, error) {
	return template.New(name).Funcs(l.funcs).Parse(l.Partials() + src)
}

func (l *Library) check(name string, fn any, outs int) (reflect.Value, error) {
	if !tagName.MatchString(name) {
		return reflect.Value{}, fmt.Errorf("%w: bad name %q", ErrInvalidTag, name)
	}
	if _, dup := l.funcs[name]; dup {
		return reflect.Value{}, fmt.Errorf("%w: %q already registered", ErrInvalidTag, name)
	}
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func || fv.IsNil() {
		return reflect.Value{}, fmt.Errorf("%w: %q is not a function", ErrInvalidTag, name)
	}
	ft := fv.Type()
	if ft.NumOut() != outs {
		return reflect.Value{}, fmt.Errorf("%w: %q must return %d strings", ErrInvalidTag, name, outs)
	}
	for i := 0; i < outs; i++ {
		if ft.Out(i) != stringType {
			return reflect.Value{}, fmt.Errorf("%w: %q must return %d strings", ErrInvalidTag, name, outs)
		}
	}
	return fv, nil
}

// asHTML wraps fv into a function with the same parameters returning its
// out-th result as template.HTML.
func asHTML(fv reflect.Value, out int) reflect.Value {
	ft := fv.Type()
	in := make([]reflect.Type, ft.NumIn())
	for i := range in {
		in[i] = ft.In(i)
	}
	wrapped := reflect.FuncOf(in, []reflect.Type{htmlType}, ft.IsVariadic())
	return reflect.MakeFunc(wrapped, func(args []reflect.Value) []reflect.Value {
		var res []reflect.Value
		if ft.IsVariadic() {
			res = fv.CallSlice(args)
		} else {
			res = fv.Call(args)
		}
		return []reflect.Value{reflect.ValueOf(template.HTML(res[out].String()))}
	})
}
