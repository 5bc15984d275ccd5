package services

import (
	"errors"
	"testing"

	"github.com/SaeedKolahi/language-learners-manager/models"
)

func makeUnpaid(amounts ...int64) []models.Installment {
	installments := make([]models.Installment, len(amounts))
	for i, amount := range amounts {
		installments[i] = models.Installment{
			ID:                uint(100 + i),
			InstallmentNumber: i + 1,
			Amount:            amount,
			Status:            models.InstallmentStatusPending,
		}
	}
	return installments
}

func amountByNumber(t *testing.T, s *OverrideSession, number int) int64 {
	t.Helper()
	for _, row := range s.Amounts() {
		if row.Number == number {
			return row.Amount
		}
	}
	t.Fatalf("installment %d not in session", number)
	return 0
}

func TestOverrideSessionRedistributesUntouched(t *testing.T) {
	// 500,000 total, 200,000 paid, three unpaid cells of 100,000. Typing
	// 150,000 into #1 leaves 150,000 for the two untouched cells.
	session := NewOverrideSession(500_000, 200_000, makeUnpaid(100_000, 100_000, 100_000))

	if err := session.Touch(1, 150_000); err != nil {
		t.Fatal(err)
	}

	if got := amountByNumber(t, session, 1); got != 150_000 {
		t.Errorf("touched #1 amount %d, want 150000", got)
	}
	if got := amountByNumber(t, session, 2); got != 75_000 {
		t.Errorf("#2 amount %d, want 75000", got)
	}
	if got := amountByNumber(t, session, 3); got != 75_000 {
		t.Errorf("#3 amount %d, want 75000", got)
	}

	if err := session.Validate(); err != nil {
		t.Errorf("session should be saveable: %v", err)
	}
}

func TestOverrideSessionRemainderGoesToLowestNumbers(t *testing.T) {
	// 91 to spread over three untouched cells: 30 each plus one extra unit
	// on the lowest number.
	session := NewOverrideSession(101, 0, makeUnpaid(25, 25, 25, 26))

	if err := session.Touch(4, 10); err != nil {
		t.Fatal(err)
	}

	if got := amountByNumber(t, session, 1); got != 31 {
		t.Errorf("#1 amount %d, want 31", got)
	}
	if got := amountByNumber(t, session, 2); got != 30 {
		t.Errorf("#2 amount %d, want 30", got)
	}
	if got := amountByNumber(t, session, 3); got != 30 {
		t.Errorf("#3 amount %d, want 30", got)
	}
	if err := session.Validate(); err != nil {
		t.Errorf("session should be saveable: %v", err)
	}
}

func TestOverrideSessionOverflowState(t *testing.T) {
	session := NewOverrideSession(500_000, 200_000, makeUnpaid(100_000, 100_000, 100_000))

	if err := session.Touch(1, 400_000); err != nil {
		t.Fatal(err)
	}

	if !session.Overflow() {
		t.Fatal("session should be in overflow state")
	}
	// Untouched cells keep their last values; nothing goes to zero or below.
	if got := amountByNumber(t, session, 2); got != 100_000 {
		t.Errorf("#2 amount %d, want untouched 100000", got)
	}
	if got := amountByNumber(t, session, 3); got != 100_000 {
		t.Errorf("#3 amount %d, want untouched 100000", got)
	}

	err := session.Validate()
	if !errors.Is(err, ErrAmountMismatch) {
		t.Fatalf("got %v, want ErrAmountMismatch", err)
	}
}

func TestOverrideSessionRecoversFromOverflow(t *testing.T) {
	session := NewOverrideSession(500_000, 200_000, makeUnpaid(100_000, 100_000, 100_000))

	if err := session.Touch(1, 400_000); err != nil {
		t.Fatal(err)
	}
	if !session.Overflow() {
		t.Fatal("expected overflow after the oversized entry")
	}

	if err := session.Touch(1, 100_000); err != nil {
		t.Fatal(err)
	}
	if session.Overflow() {
		t.Error("overflow should clear after the entry is corrected")
	}
	if err := session.Validate(); err != nil {
		t.Errorf("corrected session should be saveable: %v", err)
	}
}

func TestOverrideSessionAllTouchedAbsorbsIntoLast(t *testing.T) {
	session := NewOverrideSession(300, 0, makeUnpaid(100, 100, 100))

	for _, touch := range []struct {
		number int
		amount int64
	}{{1, 100}, {2, 100}, {3, 50}} {
		if err := session.Touch(touch.number, touch.amount); err != nil {
			t.Fatal(err)
		}
	}

	// All cells touched: the 50 left over lands on the last-touched cell.
	if got := amountByNumber(t, session, 3); got != 100 {
		t.Errorf("#3 amount %d, want 100", got)
	}
	if err := session.Validate(); err != nil {
		t.Errorf("session should be saveable: %v", err)
	}
}

func TestOverrideSessionAllTouchedFloorsAtOne(t *testing.T) {
	// The other touched cells consume the whole target, so the last-touched
	// cell would land at zero; it is floored at 1 and the save then reports
	// the mismatch.
	session := NewOverrideSession(300, 0, makeUnpaid(100, 100, 100))

	for _, touch := range []struct {
		number int
		amount int64
	}{{1, 150}, {2, 150}, {3, 0}} {
		if err := session.Touch(touch.number, touch.amount); err != nil {
			t.Fatal(err)
		}
	}

	if got := amountByNumber(t, session, 3); got != 1 {
		t.Errorf("#3 amount %d, want floor of 1", got)
	}
	if err := session.Validate(); !errors.Is(err, ErrAmountMismatch) {
		t.Errorf("got %v, want ErrAmountMismatch", err)
	}
}

func TestOverrideSessionRejectsUnknownNumber(t *testing.T) {
	session := NewOverrideSession(300, 0, makeUnpaid(100, 100, 100))

	if err := session.Touch(7, 50); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("got %v, want ErrInvalidInput", err)
	}
}

func TestOverrideSessionExcludesPaidInstallments(t *testing.T) {
	installments := makeUnpaid(100, 100, 100)
	installments[0].Status = models.InstallmentStatusPaid

	session := NewOverrideSession(500, 100, installments)

	if len(session.Amounts()) != 2 {
		t.Fatalf("writable set has %d cells, want 2", len(session.Amounts()))
	}
	if err := session.Touch(1, 50); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("paid installment must not be editable, got %v", err)
	}
}

func TestOverrideSessionValidateNamesMismatch(t *testing.T) {
	// An untouched session whose cells never added up is reported with both
	// the actual and the expected sum.
	session := NewOverrideSession(400, 0, makeUnpaid(100, 100, 100))

	err := session.Validate()
	if !errors.Is(err, ErrAmountMismatch) {
		t.Fatalf("got %v, want ErrAmountMismatch", err)
	}
	want := "amounts add up to 300, expected 400"
	if got := err.Error(); got != "amount mismatch: "+want {
		t.Errorf("error %q, want it to name the mismatch %q", got, want)
	}
}
