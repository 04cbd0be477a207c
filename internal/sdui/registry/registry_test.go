package registry

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/sdui-garden-go/internal/sdui/node"
	"github.com/lk2023060901/sdui-garden-go/internal/sdui/wire"
	"github.com/lk2023060901/sdui-garden-go/pkg/util/merr"
)

type RegistrySuite struct {
	suite.Suite

	reg *Registry
}

func (s *RegistrySuite) SetupTest() {
	s.reg = New()
}

func (s *RegistrySuite) TestRegisterAndLookup() {
	s.NoError(s.reg.Register(Descriptor{
		Tag:      "Badge",
		Version:  "1.0.0",
		Strategy: StrategyView,
		Fields:   []string{"label", "tone"},
	}))

	entry, ok := s.reg.Lookup("Badge")
	s.True(ok)
	s.Equal("Badge", entry.Descriptor.Tag)
	s.Equal("1.0.0", entry.Descriptor.Version)
	s.NotNil(entry.Codec)

	_, ok = s.reg.Lookup("Unknown")
	s.False(ok)
}

func (s *RegistrySuite) TestRegisterValidations() {
	err := s.reg.Register(Descriptor{Tag: "", Version: "1.0.0", Strategy: StrategyView})
	s.ErrorIs(err, merr.ErrRegistration)

	err = s.reg.Register(Descriptor{Tag: "X", Version: "1.0.0", Strategy: Strategy(99)})
	s.ErrorIs(err, merr.ErrStrategyInvalid)

	err = s.reg.Register(Descriptor{Tag: "Text", Version: "1.0.0", Strategy: StrategyContentProp})
	s.ErrorIs(err, merr.ErrContentFieldMissing)

	s.Zero(s.reg.Len())
}

func (s *RegistrySuite) TestNonSemverVersionTolerated() {
	// 版本号校验只是建议性的，不合规时告警放行。
	s.NoError(s.reg.Register(Descriptor{
		Tag:      "Legacy",
		Version:  "v1-beta",
		Strategy: StrategyView,
	}))
	entry, ok := s.reg.Lookup("Legacy")
	s.True(ok)
	s.Equal("v1-beta", entry.Descriptor.Version)
}

func (s *RegistrySuite) TestOverwriteLastWins() {
	s.NoError(s.reg.Register(Descriptor{Tag: "Banner", Version: "1.0.0", Strategy: StrategyView}))
	s.NoError(s.reg.Register(Descriptor{Tag: "Banner", Version: "2.0.0", Strategy: StrategyContainer}))

	entry, ok := s.reg.Lookup("Banner")
	s.True(ok)
	s.Equal("2.0.0", entry.Descriptor.Version)
	s.Equal(StrategyContainer, entry.Descriptor.Strategy)

	// 覆盖后仍只有一条记录。
	s.Equal([]string{"Banner"}, s.reg.List())
}

func (s *RegistrySuite) TestListSorted() {
	for _, tag := range []string{"Zeta", "Alpha", "Mid"} {
		s.NoError(s.reg.Register(Descriptor{Tag: tag, Version: "1.0.0", Strategy: StrategyView}))
	}
	s.Equal([]string{"Alpha", "Mid", "Zeta"}, s.reg.List())
	s.Equal(3, s.reg.Len())
}

func (s *RegistrySuite) TestClear() {
	s.NoError(s.reg.Register(Descriptor{Tag: "Badge", Version: "1.0.0", Strategy: StrategyView}))
	s.reg.Clear()
	s.Zero(s.reg.Len())
	_, ok := s.reg.Lookup("Badge")
	s.False(ok)
}

func (s *RegistrySuite) TestCustomFactory() {
	s.NoError(s.reg.Register(Descriptor{
		Tag:      "Avatar",
		Version:  "1.0.0",
		Strategy: StrategyView,
		New: func(props map[string]any, children []any) *node.Element {
			el := node.New("Avatar", props, children...)
			el.SetProp("resolved", true)
			return el
		},
	}))

	entry, _ := s.reg.Lookup("Avatar")
	el, err := entry.Codec.Decode(&wire.Component{
		TagName: "Avatar",
		Version: "1.0.0",
		Data:    map[string]wire.Value{"size": wire.Int(48)},
	}, literalDecoder{})
	s.NoError(err)
	s.Equal("Avatar", el.Type)
	s.Equal(true, el.Props["resolved"])
	s.Equal(int64(48), el.Props["size"])
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

// literalDecoder 只还原测试里用到的标量形状。
type literalDecoder struct{}

func (literalDecoder) DecodeValue(v wire.Value) (any, error) {
	switch v.Kind() {
	case wire.KindNull:
		return nil, nil
	case wire.KindBool:
		return v.Bool(), nil
	case wire.KindString:
		return v.Str(), nil
	case wire.KindNumber:
		i, err := v.Number().Int64()
		return i, err
	default:
		return nil, nil
	}
}
