package bulk

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/sdui-garden-go/internal/sdui/node"
	"github.com/lk2023060901/sdui-garden-go/internal/sdui/registry"
	"github.com/lk2023060901/sdui-garden-go/internal/sdui/transformer"
	"github.com/lk2023060901/sdui-garden-go/pkg/util/merr"
)

func newTestRunner(t *testing.T) *Runner {
	reg := registry.New()
	require.NoError(t, reg.Register(registry.Descriptor{
		Tag:          "Text",
		Version:      "1.0.0",
		Strategy:     registry.StrategyContentProp,
		ContentField: "value",
	}))
	tr, err := transformer.New(transformer.Options{Registry: reg})
	require.NoError(t, err)

	r, err := NewRunner(tr, 4)
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r
}

func TestNewRunnerRequiresTransformer(t *testing.T) {
	_, err := NewRunner(nil, 4)
	require.Error(t, err)
	assert.ErrorIs(t, err, merr.ErrParameterMissing)
}

func TestEncodeDecodeAllKeepsOrder(t *testing.T) {
	r := newTestRunner(t)

	values := make([]any, 64)
	for i := range values {
		values[i] = node.New("Text", map[string]any{"value": fmt.Sprintf("doc-%d", i)})
	}

	texts, err := r.EncodeAll(values)
	require.NoError(t, err)
	require.Len(t, texts, len(values))

	decoded, err := r.DecodeAll(texts)
	require.NoError(t, err)
	require.Len(t, decoded, len(values))

	for i, v := range decoded {
		el, ok := v.(*node.Element)
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("doc-%d", i), el.Props["value"])
	}
}

func TestDecodeAllFailsWholeBatch(t *testing.T) {
	r := newTestRunner(t)

	texts := []string{`"ok"`, "{broken", `"also ok"`}
	out, err := r.DecodeAll(texts)
	require.Error(t, err)
	assert.ErrorIs(t, err, merr.ErrDocumentInvalidFormat)
	assert.Nil(t, out)
}

func TestEncodeAllEmptyInput(t *testing.T) {
	r := newTestRunner(t)

	texts, err := r.EncodeAll(nil)
	require.NoError(t, err)
	assert.Empty(t, texts)
}
