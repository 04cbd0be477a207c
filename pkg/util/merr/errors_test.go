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

package merr

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"
)

type ErrSuite struct {
	suite.Suite
}

func (s *ErrSuite) TestCode() {
	err := WrapErrComponentDataMissing("Button")
	errors.Wrap(err, "failed to decode document")
	s.ErrorIs(err, ErrComponentDataMissing)
	s.Equal(Code(ErrComponentDataMissing), Code(err))
	s.Equal(TimeoutCode, Code(context.DeadlineExceeded))
	s.Equal(CanceledCode, Code(context.Canceled))
	s.Equal(errUnexpected.errCode, Code(errUnexpected))

	sameCodeErr := newZeusError("new error", ErrComponentDataMissing.errCode, false)
	s.True(sameCodeErr.Is(ErrComponentDataMissing))
}

func (s *ErrSuite) TestWrap() {
	// Document codec 相关错误。
	s.ErrorIs(WrapErrDocumentInvalidFormat(errors.New("unexpected end of input")), ErrDocumentInvalidFormat)
	s.ErrorIs(WrapErrDocumentInvalidFormat(nil, "empty document"), ErrDocumentInvalidFormat)
	s.ErrorIs(WrapErrComponentDataMissing("Button", "decode"), ErrComponentDataMissing)
	s.ErrorIs(WrapErrDocumentTooDeep(512), ErrDocumentTooDeep)
	s.ErrorIs(WrapErrValueNotEncodable("chan int", nil), ErrValueNotEncodable)

	// Registry 相关错误。
	s.ErrorIs(WrapErrRegistration("tag must not be empty"), ErrRegistration)
	s.ErrorIs(WrapErrDescriptorNotFound("Badge"), ErrDescriptorNotFound)
	s.ErrorIs(WrapErrStrategyInvalid(42), ErrStrategyInvalid)
	s.ErrorIs(WrapErrContentFieldMissing("RichText"), ErrContentFieldMissing)

	// Compression 相关错误。
	s.ErrorIs(WrapErrCompressionFailed(errors.New("mock zstd err")), ErrCompressionFailed)
	s.ErrorIs(WrapErrDecompressionFailed(errors.New("mock zstd err")), ErrDecompressionFailed)
	s.NoError(WrapErrCompressionFailed(nil))

	// Parameter 相关错误。
	s.ErrorIs(WrapErrParameterInvalid(8, 1, "failed to create"), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterInvalidMsg("invalid limit %d", -1), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterMissing("content_field"), ErrParameterMissing)
}

func (s *ErrSuite) TestErrorNamesTag() {
	err := WrapErrComponentDataMissing("HeroBanner")
	s.Contains(err.Error(), "HeroBanner")
}

func (s *ErrSuite) TestCombine() {
	var (
		errFirst  = errors.New("first")
		errSecond = errors.New("second")
		errThird  = errors.New("third")
	)

	err := Combine(errFirst, errSecond)
	s.True(errors.Is(err, errFirst))
	s.True(errors.Is(err, errSecond))
	s.False(errors.Is(err, errThird))

	s.Equal("first: second", err.Error())
}

func (s *ErrSuite) TestCombineWithNil() {
	err := errors.New("non-nil")

	err = Combine(nil, err)
	s.NotNil(err)

	err = Combine(err, nil)
	s.NotNil(err)
}

func (s *ErrSuite) TestCombineOnlyNil() {
	err := Combine(nil, nil)
	s.Nil(err)
}

func (s *ErrSuite) TestCombineCode() {
	err := Combine(WrapErrCompressionFailed(errors.New("mock")), WrapErrDescriptorNotFound("Badge"))
	s.Equal(Code(ErrDescriptorNotFound), Code(err))
}

func (s *ErrSuite) TestIsRetryable() {
	s.False(IsRetryableErr(ErrDocumentInvalidFormat))
	s.False(IsRetryableErr(errors.New("mock err")))
}

func (s *ErrSuite) TestErrorType() {
	err := WrapErrAsInputError(ErrDocumentInvalidFormat)
	s.Equal(InputError, GetErrorType(err))
	s.Equal("input_error", GetErrorType(err).String())
	s.Equal(SystemError, GetErrorType(errors.New("mock err")))
}

func TestErrors(t *testing.T) {
	suite.Run(t, new(ErrSuite))
}
