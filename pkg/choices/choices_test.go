package choices_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"neom/pkg/choices"
)

type status int

const (
	active status = iota + 1
	blocked
)

func (s status) String() string {
	switch s {
	case active:
		return "ACTIVE"
	case blocked:
		return "BLOCKED"
	}
	return "UNKNOWN"
}

type level int

func TestOf(t *testing.T) {
	t.Run("stringer labels in declaration order", func(t *testing.T) {
		set := choices.Of("Status", active, blocked)
		assert.Equal(t, "StatusChoices", set.Name)
		assert.Equal(t, []choices.Choice{{Value: 1, Label: "ACTIVE"}, {Value: 2, Label: "BLOCKED"}}, set.Pairs())
		assert.Equal(t, 2, set.Len())
	})

	t.Run("labels fall back to the number", func(t *testing.T) {
		set := choices.Of[level]("Level", 10, 20)
		got, ok := set.Label(20)
		assert.True(t, ok)
		assert.Equal(t, "20", got)
	})

	t.Run("lookup", func(t *testing.T) {
		set := choices.Of("Status", active, blocked)
		assert.True(t, set.Contains(1))
		assert.False(t, set.Contains(3))
		_, ok := set.Label(3)
		assert.False(t, ok)
	})

	t.Run("pairs are a copy", func(t *testing.T) {
		set := choices.Of("Status", active)
		pairs := set.Pairs()
		pairs[0].Label = "changed"
		got, _ := set.Label(1)
		assert.Equal(t, "ACTIVE", got)
	})
}
