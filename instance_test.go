package argconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstanceAccessors(t *testing.T) {
	outer, inner := newOuterSchema()
	s := NewSchema("S").
		Field("outer", Record(outer), DefaultRecord()).
		Field("spare", Optional(Record(inner)), Default(nil)).
		Field("on", Bool, Default(true)).
		Field("n", Int, Default(4))

	inst, err := s.New(nil)
	require.NoError(t, err)
	assert.Same(t, s, inst.Schema())

	t.Run("Get", func(t *testing.T) {
		v, ok := inst.Get("outer.inner.x")
		require.True(t, ok)
		assert.Equal(t, 1, v)

		_, ok = inst.Get("outer.missing")
		assert.False(t, ok)

		_, ok = inst.Get("n.deeper")
		assert.False(t, ok)

		_, ok = inst.Get("spare.x")
		assert.False(t, ok)
	})

	t.Run("Typed", func(t *testing.T) {
		y, err := inst.String("outer.inner.y")
		require.NoError(t, err)
		assert.Equal(t, "a", y)

		n, err := inst.Int("n")
		require.NoError(t, err)
		assert.Equal(t, 4, n)

		widened, err := inst.Float64("n")
		require.NoError(t, err)
		assert.Equal(t, 4.0, widened)

		on, err := inst.Bool("on")
		require.NoError(t, err)
		assert.True(t, on)

		_, err = inst.Int("outer.inner.y")
		assert.ErrorContains(t, err, "holds string, not int")

		_, err = inst.String("nope")
		assert.ErrorContains(t, err, "field not found: nope")
	})

	t.Run("Record", func(t *testing.T) {
		nested, err := inst.Record("outer.inner")
		require.NoError(t, err)
		require.NotNil(t, nested)
		assert.Same(t, inner, nested.Schema())

		spare, err := inst.Record("spare")
		require.NoError(t, err)
		assert.Nil(t, spare)

		_, err = inst.Record("n")
		assert.Error(t, err)
	})

	t.Run("Map", func(t *testing.T) {
		assert.Equal(t, map[string]any{
			"outer": map[string]any{
				"inner": map[string]any{"x": 1, "y": "a"},
				"z":     0.5,
			},
			"spare": nil,
			"on":    true,
			"n":     4,
		}, inst.Map())
	})

	t.Run("ScanIntoMap", func(t *testing.T) {
		var out map[string]any
		require.NoError(t, inst.Scan(&out))
		assert.Equal(t, 4, out["n"])

		assert.Error(t, inst.Scan(out))
	})
}
