package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"STUDENT", RoleStudent, true},
		{" student ", RoleStudent, true},
		{"Admin", RoleAdmin, true},
		{"", "", false},
		{"   ", "", false},
		{"INSTRUCTOR", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseRole(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRequestStatus(t *testing.T) {
	st, ok := ParseRequestStatus(" closed")
	assert.True(t, ok)
	assert.Equal(t, RequestStatusClosed, st)

	st, ok = ParseRequestStatus("in_progress")
	assert.True(t, ok)
	assert.Equal(t, RequestStatusInProgress, st)

	_, ok = ParseRequestStatus("DONE")
	assert.False(t, ok)
}

func TestRequestHasAttachment(t *testing.T) {
	r := &Request{}
	assert.False(t, r.HasAttachment())

	empty := ""
	r.AttachmentPath = &empty
	assert.False(t, r.HasAttachment())

	path := "requests/1/a.pdf"
	r.AttachmentPath = &path
	assert.True(t, r.HasAttachment())
}
