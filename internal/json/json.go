package json

import (
	"encoding/json"
	"io"

	"github.com/bytedance/sonic"
	jsoniter "github.com/json-iterator/go"
)

// 本包是项目内部统一的 JSON 门面：
//   - Marshal/Unmarshal 基于 bytedance/sonic 的标准兼容配置（含 map 键排序），
//     保证序列化结果与 encoding/json 一致且可复现；
//   - 流式 Encoder/Decoder 基于 json-iterator，行为与标准库兼容。
//
// 业务代码一律引用本包，不直接依赖具体 JSON 实现。
var (
	config = sonic.ConfigStd

	Marshal       = config.Marshal
	Unmarshal     = config.Unmarshal
	MarshalIndent = config.MarshalIndent
	Valid         = config.Valid
)

var stream = jsoniter.ConfigCompatibleWithStandardLibrary

// RawMessage 与 encoding/json.RawMessage 等价，用于延迟解析。
type RawMessage = json.RawMessage

// Number 与 encoding/json.Number 等价，用于无损地承载数字字面量。
type Number = json.Number

// Delim 与 encoding/json.Delim 等价。
type Delim = json.Delim

// NewDecoder 创建一个流式 Decoder。
func NewDecoder(r io.Reader) *jsoniter.Decoder {
	return stream.NewDecoder(r)
}

// NewEncoder 创建一个流式 Encoder。
func NewEncoder(w io.Writer) *jsoniter.Encoder {
	return stream.NewEncoder(w)
}
