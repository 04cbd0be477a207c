package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndProps(t *testing.T) {
	el := New("Badge", map[string]any{"label": "New"})
	assert.Equal(t, "Badge", el.Type)

	v, ok := el.Prop("label")
	require.True(t, ok)
	assert.Equal(t, "New", v)

	_, ok = el.Prop("missing")
	assert.False(t, ok)

	el.SetProp("tone", "info")
	v, ok = el.Prop("tone")
	require.True(t, ok)
	assert.Equal(t, "info", v)
}

func TestNewNilProps(t *testing.T) {
	el := New("Spacer", nil)
	require.Nil(t, el.Props)
	el.SetProp("size", 8)
	assert.Equal(t, 8, el.Props["size"])
}

func TestChildren(t *testing.T) {
	leaf := New("Text", map[string]any{"value": "hi"})
	root := New("Stack", nil, leaf, "divider")

	require.True(t, root.HasChildren())
	require.Len(t, root.Children, 2)
	assert.Same(t, leaf, root.Children[0])
	assert.Equal(t, "divider", root.Children[1])

	assert.False(t, leaf.HasChildren())
}

func TestClone(t *testing.T) {
	orig := New("Card", map[string]any{"variant": "plain"}, New("Text", nil))
	cp := orig.Clone()

	cp.SetProp("variant", "outlined")
	cp.Children = append(cp.Children, "extra")

	assert.Equal(t, "plain", orig.Props["variant"])
	assert.Len(t, orig.Children, 1)
	assert.Equal(t, "outlined", cp.Props["variant"])
}
