package kit

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	nstrings "neom/pkg/platform/strings"
)

// Tokens maps CSS class keys to the class names written into markup. With
// Minify unset keys are used verbatim.
type Tokens struct {
	Minify bool
}

// Key returns the class name for key. Minified names are stable across
// processes: "k" followed by a base36 digest of the key.
func (t Tokens) Key(key string) string {
	if !t.Minify {
		return key
	}
	return "k" + strconv.FormatUint(xxhash.Sum64String(key)&(1<<40-1), 36)
}

// Classes returns the space separated class names for keys. Keys may hold
// several whitespace separated classes; repeats are dropped.
func (t Tokens) Classes(keys ...string) string {
	keys = nstrings.UniqueFields(keys...)
	for i, k := range keys {
		keys[i] = t.Key(k)
	}
	return strings.Join(keys, " ")
}
