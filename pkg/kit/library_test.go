package kit_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neom/pkg/kit"
)

func render(t *testing.T, lib *kit.Library, src string, data any) string {
	t.Helper()
	tpl, err := lib.Parse("page", src)
	require.NoError(t, err)
	var b strings.Builder
	require.NoError(t, tpl.Execute(&b, data))
	return b.String()
}

func TestSingleTag(t *testing.T) {
	lib := kit.NewLibrary()
	require.NoError(t, lib.SingleTag("dummy", func(foo string, rest ...string) string {
		bar := "bar"
		if len(rest) > 0 {
			bar = rest[0]
		}
		return foo + "-" + bar
	}))

	assert.Equal(t, "foo-baroof-baz", render(t, lib, `{{dummy "foo"}}{{dummy "oof" "baz"}}`, nil))
}

func TestComposeTag(t *testing.T) {
	lib := kit.NewLibrary()
	require.NoError(t, lib.ComposeTag("foo", func(caption string) (string, string) {
		return "<foo caption='" + caption + "'><sub-foo>", "</sub-foo></foo>"
	}))
	require.NoError(t, lib.SingleTag("bar", func(v int) string {
		return "<bar>" + string(rune('0'+v)) + "</bar>"
	}))

	got := render(t, lib, `{{foo_open "dummy"}}{{bar 1}}{{bar 2}}{{foo_close "dummy"}}`, nil)
	assert.Equal(t, "<foo caption='dummy'><sub-foo><bar>1</bar><bar>2</bar></sub-foo></foo>", got)
}

func TestDirectTag(t *testing.T) {
	lib := kit.NewLibrary()
	require.NoError(t, lib.DirectTag("dummy", func() string { return "{{ .foo }}" }))

	assert.Equal(t, "dummy", render(t, lib, `{{template "dummy" .}}`, map[string]string{"foo": "dummy"}))
	assert.Equal(t, `{{define "dummy"}}{{ .foo }}{{end}}`, lib.Partials())
}

func TestInvalidTags(t *testing.T) {
	lib := kit.NewLibrary()
	require.NoError(t, lib.SingleTag("taken", func() string { return "" }))

	cases := []struct {
		name string
		err  error
	}{
		{"bad name", lib.SingleTag("has-dash", func() string { return "" })},
		{"duplicate", lib.SingleTag("taken", func() string { return "" })},
		{"builtin key", lib.SingleTag("key", func() string { return "" })},
		{"not a function", lib.SingleTag("x", "markup")},
		{"wrong result", lib.SingleTag("y", func() int { return 1 })},
		{"compose needs two results", lib.ComposeTag("z", func() string { return "" })},
		{"compose collides", lib.ComposeTag("taken", func() (string, string) { return "", "" })},
		{"direct nil", lib.DirectTag("d", nil)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.err, kit.ErrInvalidTag)
		})
	}
}

func TestTokens(t *testing.T) {
	t.Run("plain keys pass through", func(t *testing.T) {
		tokens := kit.Tokens{}
		assert.Equal(t, "mdc-button", tokens.Key("mdc-button"))
		assert.Equal(t, "mdc-button mdc-button--raised", tokens.Classes("mdc-button", "mdc-button--raised"))
		assert.Equal(t, "mdc-card mdc-card--outlined", tokens.Classes("mdc-card mdc-card--outlined", " mdc-card"))
	})

	t.Run("minified keys are short and stable", func(t *testing.T) {
		tokens := kit.Tokens{Minify: true}
		a := tokens.Key("mdc-button")
		assert.Equal(t, a, tokens.Key("mdc-button"))
		assert.NotEqual(t, a, tokens.Key("mdc-card"))
		assert.True(t, strings.HasPrefix(a, "k"))
		assert.LessOrEqual(t, len(a), 9)
	})

	t.Run("key function in templates", func(t *testing.T) {
		lib := kit.NewLibrary(kit.WithTokens(kit.Tokens{Minify: true}))
		got := render(t, lib, `<style>.{{key "mdc-card--outlined"}}{color:red}</style>`, nil)
		assert.Equal(t, "<style>."+lib.Tokens().Key("mdc-card--outlined")+"{color:red}</style>", got)
	})
}
