package changestream

import (
	"errors"
	"net"
	"testing"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

type fakeNetError struct{ error }

func (fakeNetError) Timeout() bool   { return true }
func (fakeNetError) Temporary() bool { return true }

var _ net.Error = fakeNetError{}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		maxWireVersion int
		want           bool
	}{
		{"nil error", nil, 9, false},
		{"missing resume token", ErrMissingResumeToken, 9, false},
		{"decode error", &DecodeError{Err: errors.New("bad bson")}, 9, false},
		{"cursor closed", &ErrCursorClosed{Op: "Next"}, 9, false},
		{"network error", fakeNetError{errors.New("connection reset")}, 9, true},
		{
			"command error with resumable code",
			mongo.CommandError{Code: 43, Name: "CursorNotFound"},
			9,
			true,
		},
		{
			"command error with unrecognized code, no label",
			mongo.CommandError{Code: 123456, Name: "Unrecognized"},
			9,
			false,
		},
		{
			"command error carries resumable label at sufficient wire version",
			mongo.CommandError{Code: 123456, Labels: []string{"ResumableChangeStreamError"}},
			9,
			true,
		},
		{
			"resumable label ignored below minimum wire version",
			mongo.CommandError{Code: 123456, Labels: []string{"ResumableChangeStreamError"}},
			8,
			false,
		},
		{
			"unrelated error type",
			errors.New("boom"),
			9,
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsRetryable(tt.err, tt.maxWireVersion)
			if got != tt.want {
				t.Errorf("IsRetryable(%v, %d) = %v, want %v", tt.err, tt.maxWireVersion, got, tt.want)
			}
		})
	}
}
