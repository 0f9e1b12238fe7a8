// SPDX-License-Identifier: MIT

package wizard

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() FriendCallRequest {
	return FriendCallRequest{
		CallerName:   "Alex",
		FriendName:   "Sam",
		PhoneNumber:  "5551234567",
		Introduction: "We met at university and lost touch.",
		LastMemory:   "That road trip to the coast in 2019.",
	}
}

func TestValidateAcceptsValidRequest(t *testing.T) {
	req := validRequest()
	res := req.Validate()
	require.True(t, res.Valid(), "unexpected errors: %s", res.Error())
	// The phone number is normalized in place.
	assert.Equal(t, "+15551234567", req.PhoneNumber)
}

func TestValidateBoundaryLengths(t *testing.T) {
	req := validRequest()
	req.CallerName = strings.Repeat("a", MinCallerNameLen)
	req.FriendName = strings.Repeat("b", MaxFriendNameLen)
	req.Introduction = strings.Repeat("c", MaxIntroductionLen)
	req.LastMemory = strings.Repeat("d", MaxLastMemoryLen)

	res := req.Validate()
	assert.True(t, res.Valid(), "boundary lengths must be accepted: %s", res.Error())
}

func TestValidateRejectsOverLength(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*FriendCallRequest)
		field  string
	}{
		{"caller name too short", func(r *FriendCallRequest) { r.CallerName = "a" }, "userName"},
		{"caller name too long", func(r *FriendCallRequest) { r.CallerName = strings.Repeat("a", MaxCallerNameLen+1) }, "userName"},
		{"friend name too long", func(r *FriendCallRequest) { r.FriendName = strings.Repeat("b", MaxFriendNameLen+1) }, "friendName"},
		{"introduction too long", func(r *FriendCallRequest) { r.Introduction = strings.Repeat("c", MaxIntroductionLen+1) }, "introduction"},
		{"last memory too long", func(r *FriendCallRequest) { r.LastMemory = strings.Repeat("d", MaxLastMemoryLen+1) }, "lastMemory"},
		{"bad phone", func(r *FriendCallRequest) { r.PhoneNumber = "abc" }, "phone"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(&req)
			res := req.Validate()
			require.False(t, res.Valid())
			require.Len(t, res.Errors, 1)
			assert.Equal(t, tc.field, res.Errors[0].Field)
		})
	}
}

func TestValidateRejectsEmptyFields(t *testing.T) {
	fields := []struct {
		name   string
		mutate func(*FriendCallRequest)
		field  string
	}{
		{"caller name", func(r *FriendCallRequest) { r.CallerName = "" }, "userName"},
		{"friend name", func(r *FriendCallRequest) { r.FriendName = "  " }, "friendName"},
		{"introduction", func(r *FriendCallRequest) { r.Introduction = "" }, "introduction"},
		{"last memory", func(r *FriendCallRequest) { r.LastMemory = "" }, "lastMemory"},
		{"phone", func(r *FriendCallRequest) { r.PhoneNumber = "" }, "phone"},
	}
	for _, tc := range fields {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(&req)
			res := req.Validate()
			require.False(t, res.Valid())
			assert.Equal(t, tc.field, res.Errors[0].Field)
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	req := FriendCallRequest{}
	res := req.Validate()
	require.False(t, res.Valid())
	assert.Len(t, res.Errors, 5)
	assert.Contains(t, res.Error(), "phone")
}
