package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"already exists", ErrAlreadyExists},
		{"not found", ErrNotFound},
		{"invalid credentials", ErrInvalidCredentials},
		{"invalid argument", ErrInvalidArgument},
		{"conflict", ErrConflict},
		{"illegal transition", ErrIllegalTransition},
		{"slots unavailable", ErrSlotsUnavailable},
		{"duplicate application", ErrDuplicateApplication},
		{"payment required", ErrPaymentRequired},
		{"payment not required", ErrPaymentNotRequired},
		{"already paid", ErrAlreadyPaid},
		{"invalid signature", ErrInvalidSignature},
		{"provider unavailable", ErrProviderUnavailable},
		{"unauthorized", ErrUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !stdErrors.Is(tc.err, tc.err) {
				t.Fatalf("expected error to match itself: %v", tc.err)
			}
			wrapped := fmt.Errorf("context: %w", tc.err)
			if !stdErrors.Is(wrapped, tc.err) {
				t.Fatalf("expected wrapped error to match sentinel: %v", tc.err)
			}
		})
	}
}
