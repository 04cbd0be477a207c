package transformer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/sdui-garden-go/internal/sdui/compressor"
	"github.com/lk2023060901/sdui-garden-go/internal/sdui/node"
	"github.com/lk2023060901/sdui-garden-go/internal/sdui/registry"
	"github.com/lk2023060901/sdui-garden-go/pkg/util/merr"
)

func newTestRegistry(t *testing.T) *registry.Registry {
	reg := registry.New()
	require.NoError(t, reg.Register(registry.Descriptor{
		Tag:      "HeroBanner",
		Version:  "2.1.0",
		Strategy: registry.StrategyView,
		Fields:   []string{"title", "imageUrl"},
	}))
	require.NoError(t, reg.Register(registry.Descriptor{
		Tag:      "Card",
		Version:  "1.4.0",
		Strategy: registry.StrategyContainer,
		Fields:   []string{"variant"},
	}))
	require.NoError(t, reg.Register(registry.Descriptor{
		Tag:          "Markdown",
		Version:      "1.0.0",
		Strategy:     registry.StrategyContentProp,
		ContentField: "content",
	}))
	require.NoError(t, reg.Register(registry.Descriptor{
		Tag:      "Button",
		Version:  "1.0.0",
		Strategy: registry.StrategyView,
		Fields:   []string{"label"},
	}))
	return reg
}

func newTestTransformer(t *testing.T) *Transformer {
	tr, err := New(Options{Registry: newTestRegistry(t)})
	require.NoError(t, err)
	return tr
}

func TestNewRequiresRegistry(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, merr.ErrParameterMissing)
}

func TestPrimitiveRoundTrip(t *testing.T) {
	tr := newTestTransformer(t)

	cases := []struct {
		in   any
		want any
	}{
		{nil, nil},
		{true, true},
		{false, false},
		{"直播间", "直播间"},
		{int(42), int64(42)},
		{int64(-7), int64(-7)},
		{float64(3.5), float64(3.5)},
	}
	for _, c := range cases {
		text, err := tr.Serialize(c.in)
		require.NoError(t, err)
		got, err := tr.Deserialize(text)
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}
}

func TestIntegralFloatDecodesAsInteger(t *testing.T) {
	tr := newTestTransformer(t)

	got, err := tr.Deserialize("12")
	require.NoError(t, err)
	assert.Equal(t, int64(12), got)

	got, err = tr.Deserialize("12.25")
	require.NoError(t, err)
	assert.Equal(t, 12.25, got)
}

func TestHeterogeneousArrayRoundTrip(t *testing.T) {
	tr := newTestTransformer(t)

	in := []any{"a", int64(1), true, nil, []any{int64(2)}}
	text, err := tr.Serialize(in)
	require.NoError(t, err)

	got, err := tr.Deserialize(text)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestViewNodeExactWireText(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(registry.Descriptor{
		Tag:      "Badge",
		Version:  "1.0.0",
		Strategy: registry.StrategyView,
		Fields:   []string{"label", "tone"},
	}))
	tr, err := New(Options{Registry: reg})
	require.NoError(t, err)

	text, err := tr.Serialize(node.New("Badge", map[string]any{"label": "New", "tone": "info"}))
	require.NoError(t, err)
	assert.Equal(t, `{"tagName":"Badge","version":"1.0.0","data":{"label":"New","tone":"info"}}`, text)
}

func TestMixedArrayWithComponent(t *testing.T) {
	tr := newTestTransformer(t)

	text := `["text",42,null,{"tagName":"Button","version":"1.0.0","data":{"label":"Go"}}]`
	got, err := tr.Deserialize(text)
	require.NoError(t, err)

	arr, ok := got.([]any)
	require.True(t, ok)
	require.Len(t, arr, 4)
	assert.Equal(t, "text", arr[0])
	assert.Equal(t, int64(42), arr[1])
	assert.Nil(t, arr[2])
	btn := arr[3].(*node.Element)
	assert.Equal(t, "Button", btn.Type)
	assert.Equal(t, "Go", btn.Props["label"])
}

func TestViewNodeRoundTrip(t *testing.T) {
	tr := newTestTransformer(t)

	banner := node.New("HeroBanner", map[string]any{
		"title":    "双十一大促",
		"imageUrl": "https://cdn.example.com/hero.png",
		"internal": "not captured",
	})
	text, err := tr.Serialize(banner)
	require.NoError(t, err)
	assert.Contains(t, text, `"tagName":"HeroBanner"`)
	assert.Contains(t, text, `"version":"2.1.0"`)
	assert.NotContains(t, text, "not captured")

	got, err := tr.Deserialize(text)
	require.NoError(t, err)
	el, ok := got.(*node.Element)
	require.True(t, ok)
	assert.Equal(t, "HeroBanner", el.Type)
	assert.Equal(t, "双十一大促", el.Props["title"])
	assert.False(t, el.HasChildren())
}

func TestViewStrategyDropsChildren(t *testing.T) {
	tr := newTestTransformer(t)

	banner := node.New("HeroBanner", map[string]any{"title": "t"},
		node.New("Button", map[string]any{"label": "go"}))
	text, err := tr.Serialize(banner)
	require.NoError(t, err)
	assert.NotContains(t, text, "children")
	assert.NotContains(t, text, "Button")
}

func TestContainerSingleChildInlined(t *testing.T) {
	tr := newTestTransformer(t)

	card := node.New("Card", map[string]any{"variant": "outlined"},
		node.New("Button", map[string]any{"label": "buy"}))
	text, err := tr.Serialize(card)
	require.NoError(t, err)
	assert.Contains(t, text, `"children":{`)

	got, err := tr.Deserialize(text)
	require.NoError(t, err)
	el := got.(*node.Element)
	require.Len(t, el.Children, 1)
	child := el.Children[0].(*node.Element)
	assert.Equal(t, "Button", child.Type)
	assert.Equal(t, "buy", child.Props["label"])
}

func TestContainerMultipleChildrenKeepOrder(t *testing.T) {
	tr := newTestTransformer(t)

	card := node.New("Card", map[string]any{"variant": "plain"},
		node.New("Button", map[string]any{"label": "first"}),
		"separator",
		node.New("Button", map[string]any{"label": "second"}))
	text, err := tr.Serialize(card)
	require.NoError(t, err)
	assert.Contains(t, text, `"children":[`)

	got, err := tr.Deserialize(text)
	require.NoError(t, err)
	el := got.(*node.Element)
	require.Len(t, el.Children, 3)
	assert.Equal(t, "first", el.Children[0].(*node.Element).Props["label"])
	assert.Equal(t, "separator", el.Children[1])
	assert.Equal(t, "second", el.Children[2].(*node.Element).Props["label"])
}

func TestContentPropExcludesChildren(t *testing.T) {
	tr := newTestTransformer(t)

	md := node.New("Markdown", map[string]any{
		"content": "# Hello",
		"theme":   "dark",
	}, node.New("Button", map[string]any{"label": "discarded"}))
	text, err := tr.Serialize(md)
	require.NoError(t, err)
	assert.Contains(t, text, `"content":"# Hello"`)
	assert.NotContains(t, text, "children")
	assert.NotContains(t, text, "theme")

	got, err := tr.Deserialize(text)
	require.NoError(t, err)
	el := got.(*node.Element)
	assert.Equal(t, "Markdown", el.Type)
	assert.Equal(t, "# Hello", el.Props["content"])
	assert.False(t, el.HasChildren())
}

func TestUnknownNodeFallbackRoundTrip(t *testing.T) {
	tr := newTestTransformer(t)

	exotic := node.New("ExperimentalChart", map[string]any{
		"series": []any{int64(1), int64(2), int64(3)},
	})
	text, err := tr.Serialize(exotic)
	require.NoError(t, err)
	assert.Contains(t, text, `"tagName":"__react_node__"`)
	assert.Contains(t, text, `"elementType":"ExperimentalChart"`)

	got, err := tr.Deserialize(text)
	require.NoError(t, err)
	el := got.(*node.Element)
	assert.Equal(t, "ExperimentalChart", el.Type)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, el.Props["series"])
}

func TestRegisteredNodeInsideFallbackPropsKeepsEnvelope(t *testing.T) {
	tr := newTestTransformer(t)

	// 未注册节点的属性里嵌着已注册的 Button：
	// 快照必须保留 Button 的组件封套与字段过滤，而不是再降级一层。
	exotic := node.New("ExperimentalChart", map[string]any{
		"action": node.New("Button", map[string]any{
			"label":  "go",
			"secret": "internal",
		}),
	})
	text, err := tr.Serialize(exotic)
	require.NoError(t, err)
	assert.Contains(t, text, `"tagName":"Button"`)
	assert.NotContains(t, text, `"elementType":"Button"`)
	assert.NotContains(t, text, "secret")

	got, err := tr.Deserialize(text)
	require.NoError(t, err)
	el := got.(*node.Element)
	assert.Equal(t, "ExperimentalChart", el.Type)
	btn, ok := el.Props["action"].(*node.Element)
	require.True(t, ok)
	assert.Equal(t, "Button", btn.Type)
	assert.Equal(t, "go", btn.Props["label"])
	_, hasSecret := btn.Prop("secret")
	assert.False(t, hasSecret)
}

func TestUnknownTagEnvelopeDecodesToPlaceholder(t *testing.T) {
	tr := newTestTransformer(t)

	got, err := tr.Deserialize(`{"tagName":"LegacyCard","version":"0.9.0","data":{"title":"old"}}`)
	require.NoError(t, err)
	el := got.(*node.Element)
	assert.Equal(t, "LegacyCard", el.Type)
	assert.Equal(t, "old", el.Props["title"])
}

func TestUnknownNodeInsideContainerSurvives(t *testing.T) {
	tr := newTestTransformer(t)

	card := node.New("Card", nil,
		node.New("Button", map[string]any{"label": "known"}),
		node.New("Widget", map[string]any{"mode": "beta"}))
	text, err := tr.Serialize(card)
	require.NoError(t, err)

	got, err := tr.Deserialize(text)
	require.NoError(t, err)
	el := got.(*node.Element)
	require.Len(t, el.Children, 2)
	assert.Equal(t, "Widget", el.Children[1].(*node.Element).Type)
	assert.Equal(t, "beta", el.Children[1].(*node.Element).Props["mode"])
}

func TestRegisteredTagMissingDataFails(t *testing.T) {
	tr := newTestTransformer(t)

	_, err := tr.Deserialize(`{"tagName":"Button","version":"1.0.0"}`)
	require.Error(t, err)
	assert.ErrorIs(t, err, merr.ErrComponentDataMissing)
	assert.Contains(t, err.Error(), "Button")

	// data 为非对象时同样报缺失。
	_, err = tr.Deserialize(`{"tagName":"Button","version":"1.0.0","data":[1]}`)
	require.Error(t, err)
	assert.ErrorIs(t, err, merr.ErrComponentDataMissing)
}

func TestMalformedChildFailsWholeDocument(t *testing.T) {
	tr := newTestTransformer(t)

	text := `{"tagName":"Card","version":"1.4.0","data":{"children":[{"tagName":"Button","version":"1.0.0"}]}}`
	_, err := tr.Deserialize(text)
	require.Error(t, err)
	assert.ErrorIs(t, err, merr.ErrComponentDataMissing)
}

func TestInvalidTextFails(t *testing.T) {
	tr := newTestTransformer(t)

	for _, text := range []string{"", "   ", "not valid {", "{not json", `{"a":`} {
		_, err := tr.Deserialize(text)
		require.Error(t, err, "input %q", text)
		assert.ErrorIs(t, err, merr.ErrDocumentInvalidFormat)
	}
}

func TestTagAliasAccepted(t *testing.T) {
	tr := newTestTransformer(t)

	got, err := tr.Deserialize(`{"tag":"Button","version":"1.0.0","data":{"label":"ok"}}`)
	require.NoError(t, err)
	el := got.(*node.Element)
	assert.Equal(t, "Button", el.Type)
	assert.Equal(t, "ok", el.Props["label"])
}

func TestDepthLimit(t *testing.T) {
	tr, err := New(Options{Registry: newTestRegistry(t), MaxDepth: 4})
	require.NoError(t, err)

	deep := any("leaf")
	for i := 0; i < 10; i++ {
		deep = []any{deep}
	}
	_, err = tr.Serialize(deep)
	require.Error(t, err)
	assert.ErrorIs(t, err, merr.ErrDocumentTooDeep)

	_, err = tr.Deserialize(`[[[[[["x"]]]]]]`)
	require.Error(t, err)
	assert.ErrorIs(t, err, merr.ErrDocumentTooDeep)
}

func TestFallbackSnapshotTruncation(t *testing.T) {
	tr, err := New(Options{
		Registry:          newTestRegistry(t),
		MaxFallbackDepth:  2,
		MaxFallbackFields: 2,
	})
	require.NoError(t, err)

	huge := node.New("Mystery", map[string]any{
		"a": "1", "b": "2", "c": "3", "d": "4",
	})
	text, serr := tr.Serialize(huge)
	require.NoError(t, serr)

	got, derr := tr.Deserialize(text)
	require.NoError(t, derr)
	el := got.(*node.Element)
	assert.Equal(t, "Mystery", el.Type)
	assert.LessOrEqual(t, len(el.Props), 2)
}

func TestDeserializeReader(t *testing.T) {
	tr := newTestTransformer(t)

	got, err := tr.DeserializeReader(strings.NewReader(`{"tagName":"Button","version":"1.0.0","data":{"label":"go"}}`))
	require.NoError(t, err)
	assert.Equal(t, "Button", got.(*node.Element).Type)

	_, err = tr.DeserializeReader(strings.NewReader("{broken"))
	require.Error(t, err)
	assert.ErrorIs(t, err, merr.ErrDocumentInvalidFormat)
}

func TestCompressedRoundTrip(t *testing.T) {
	comp, err := compressor.NewZstdCompressor()
	require.NoError(t, err)
	defer comp.Close()

	tr, err := New(Options{Registry: newTestRegistry(t), Compressor: comp})
	require.NoError(t, err)

	card := node.New("Card", map[string]any{"variant": "outlined"},
		node.New("Markdown", map[string]any{"content": strings.Repeat("lorem ", 64)}))
	packet, err := tr.SerializeCompressed(card)
	require.NoError(t, err)

	got, err := tr.DeserializeCompressed(packet)
	require.NoError(t, err)
	el := got.(*node.Element)
	assert.Equal(t, "Card", el.Type)
	require.Len(t, el.Children, 1)
	assert.Equal(t, "Markdown", el.Children[0].(*node.Element).Type)
}

func TestOpaqueValuePassThrough(t *testing.T) {
	tr := newTestTransformer(t)

	type hint struct {
		Align string `json:"align"`
		Span  int    `json:"span"`
	}
	text, err := tr.Serialize(hint{Align: "center", Span: 2})
	require.NoError(t, err)

	got, err := tr.Deserialize(text)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"align": "center", "span": int64(2)}, got)
}
