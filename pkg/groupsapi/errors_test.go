// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package groupsapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelope_SuccessShape(t *testing.T) {
	type payload struct {
		Robux Funds `json:"robux"`
	}
	value, err := decodeEnvelope[payload]([]byte(`{"robux": 500}`))
	require.NoError(t, err)
	assert.Equal(t, Funds(500), value.Robux)
}

func TestDecodeEnvelope_ErrorShape(t *testing.T) {
	type payload struct {
		Robux Funds `json:"robux"`
	}
	_, err := decodeEnvelope[payload]([]byte(`{"errors":[{"code":1,"message":"x"}]}`))
	require.Error(t, err)

	apiErr, ok := AsApiError(err)
	require.True(t, ok)
	assert.Equal(t, int8(1), apiErr.Code)
	assert.Equal(t, "x", apiErr.Message)

	rendered := apiErr.Error()
	assert.Contains(t, rendered, "1")
	assert.Contains(t, rendered, "x")
}

func TestDecodeEnvelope_UserFacingMessageWins(t *testing.T) {
	type payload struct{}
	_, err := decodeEnvelope[payload]([]byte(`{"errors":[{"code":2,"message":"internal","userFacingMessage":"nice message"}]}`))
	require.Error(t, err)
	apiErr, ok := AsApiError(err)
	require.True(t, ok)
	assert.Equal(t, "internal", apiErr.Message)
	assert.Contains(t, apiErr.Error(), "nice message")
}

func TestIsRateLimitedAndCaptcha(t *testing.T) {
	rateLimited := &ApiError{Code: 1, Message: RateLimitedMessage}
	captcha := &ApiError{Code: 2, Message: CaptchaMessage}
	other := &ApiError{Code: 3, Message: "something else"}

	assert.True(t, IsRateLimited(rateLimited))
	assert.False(t, IsRateLimited(captcha))
	assert.True(t, IsCaptcha(captcha))
	assert.False(t, IsCaptcha(other))
}

func TestNewGroupId_Bounds(t *testing.T) {
	_, err := NewGroupId(0)
	assert.Error(t, err)

	_, err = NewGroupId(-1)
	assert.Error(t, err)

	id, err := NewGroupId(42)
	require.NoError(t, err)
	assert.Equal(t, GroupId(42), id)
}
