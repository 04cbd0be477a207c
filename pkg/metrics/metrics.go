// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// zeusNamespace 是当前项目所有 Prometheus 指标使用的命名空间。
	zeusNamespace = "zeus"

	codecSubsystem    = "codec"
	registrySubsystem = "registry"

	// 以下为当前使用的通用标签名。
	statusLabelName = "status"
	tagLabelName    = "tag"

	StatusOK   = "ok"
	StatusFail = "fail"
)

var (
	// documentSizeBuckets 为文档字节数的桶划分，单位为字节。
	documentSizeBuckets = []float64{256, 1024, 4096, 16384, 65536, 262144, 1048576, 4194304, 16777216}

	SerializeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: zeusNamespace,
			Subsystem: codecSubsystem,
			Name:      "serialize_total",
			Help:      "serialize 调用次数，按结果状态区分",
		}, []string{statusLabelName})

	DeserializeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: zeusNamespace,
			Subsystem: codecSubsystem,
			Name:      "deserialize_total",
			Help:      "deserialize 调用次数，按结果状态区分",
		}, []string{statusLabelName})

	FallbackEncodeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: zeusNamespace,
			Subsystem: codecSubsystem,
			Name:      "fallback_encode_total",
			Help:      "未注册节点类型走 fallback 编码的次数，按 tag 区分",
		}, []string{tagLabelName})

	FallbackDecodeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: zeusNamespace,
			Subsystem: codecSubsystem,
			Name:      "fallback_decode_total",
			Help:      "未注册节点类型走 fallback 解码的次数，按 tag 区分",
		}, []string{tagLabelName})

	FallbackTruncations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: zeusNamespace,
			Subsystem: codecSubsystem,
			Name:      "fallback_truncations",
			Help:      "fallback 快照因超出深度或大小上限而被截断的次数",
		})

	DocumentBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: zeusNamespace,
			Subsystem: codecSubsystem,
			Name:      "document_bytes",
			Help:      "serialize 产出文档的字节数分布",
			Buckets:   documentSizeBuckets,
		})

	RegisteredDescriptors = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: zeusNamespace,
			Subsystem: registrySubsystem,
			Name:      "descriptors",
			Help:      "当前注册表中可解析的 Descriptor 数量",
		})

	DescriptorOverwrites = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: zeusNamespace,
			Subsystem: registrySubsystem,
			Name:      "descriptor_overwrites",
			Help:      "同一 tag 被重复注册并覆盖的次数",
		})

	metricRegisterer prometheus.Registerer
)

// GetRegisterer 返回全局 Prometheus Registerer。
// 如果尚未通过 Register 显式设置，则返回 prometheus.DefaultRegisterer。
func GetRegisterer() prometheus.Registerer {
	if metricRegisterer == nil {
		return prometheus.DefaultRegisterer
	}
	return metricRegisterer
}

// Register 注册当前定义的所有指标。
// 通常应在 init 函数中调用。
func Register(r prometheus.Registerer) {
	r.MustRegister(SerializeTotal)
	r.MustRegister(DeserializeTotal)
	r.MustRegister(FallbackEncodeTotal)
	r.MustRegister(FallbackDecodeTotal)
	r.MustRegister(FallbackTruncations)
	r.MustRegister(DocumentBytes)
	r.MustRegister(RegisteredDescriptors)
	r.MustRegister(DescriptorOverwrites)
	metricRegisterer = r
}
