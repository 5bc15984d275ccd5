package services

import (
	"testing"
)

func TestManualAmountsDTOAcceptsTypedZero(t *testing.T) {
	svc := NewInstallmentService(nil)

	// A typed zero must pass boundary validation so the session can handle
	// it (redistribution, floor-at-1, save-time mismatch reporting).
	dto := ManualAmountsDTO{Touches: []ManualTouch{{Number: 3, Amount: 0}}}
	if err := svc.validator.Struct(dto); err != nil {
		t.Errorf("typed zero rejected at the boundary: %v", err)
	}

	bad := ManualAmountsDTO{Touches: []ManualTouch{{Number: 0, Amount: 10}}}
	if err := svc.validator.Struct(bad); err == nil {
		t.Error("missing installment number should fail validation")
	}

	empty := ManualAmountsDTO{}
	if err := svc.validator.Struct(empty); err == nil {
		t.Error("empty touch list should fail validation")
	}
}
