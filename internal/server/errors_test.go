package server

import (
	"errors"
	"fmt"
	"testing"

	"github.com/example/profinder/internal/service"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{service.ErrInvalidAmount, 400},
		{service.ErrInvalidMode, 400},
		{service.ErrReasonTooShort, 400},
		{service.ErrInsufficientBalance, 402},
		{service.ErrAccountNotApproved, 403},
		{service.ErrNotOwner, 403},
		{service.ErrAccountNotFound, 404},
		{service.ErrRequestNotFound, 404},
		{service.ErrRefundNotFound, 404},
		{service.ErrAlreadyUnlocked, 409},
		{service.ErrSlotsFull, 409},
		{service.ErrExclusivityConflict, 409},
		{service.ErrAlreadyRequested, 409},
		{service.ErrAlreadyResolved, 409},
		{service.ErrAllocationNotActive, 409},
		{service.ErrUsernameTaken, 409},
		{service.ErrRetryable, 503},
		{errors.New("boom"), 500},
	}
	for _, c := range cases {
		if got := httpStatus(c.err); got != c.want {
			t.Errorf("httpStatus(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestHTTPStatusWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("unlock: %w", service.ErrInsufficientBalance)
	if got := httpStatus(wrapped); got != 402 {
		t.Errorf("wrapped insufficient balance = %d, want 402", got)
	}
}
