package services

import (
	"sort"

	"github.com/SaeedKolahi/language-learners-manager/models"
)

// OverrideSession is the in-memory state of one manual-amount edit session
// over a learner's unpaid installments. The operator types explicit amounts
// into some cells ("touched"); every edit redistributes the remaining
// target over the untouched cells so the grand total keeps matching the
// learner's recorded total. Sessions are created per edit and passed
// explicitly; there is no ambient selection state.
type OverrideSession struct {
	totalAmount int64
	paidSum     int64
	entries     []overrideEntry
	touched     map[int]bool
	lastTouched int
	overflow    bool
}

type overrideEntry struct {
	id     uint
	number int
	amount int64
}

// OverrideAmount is one resulting unpaid amount of a session.
type OverrideAmount struct {
	ID     uint
	Number int
	Amount int64
}

// NewOverrideSession starts a session over the learner's unpaid
// installments. totalAmount is the learner's recorded total, paidSum the
// sum of already-paid amounts; paid installments are never part of the
// writable set.
func NewOverrideSession(totalAmount, paidSum int64, unpaid []models.Installment) *OverrideSession {
	s := &OverrideSession{
		totalAmount: totalAmount,
		paidSum:     paidSum,
		touched:     make(map[int]bool),
	}
	for _, inst := range unpaid {
		if inst.IsPaid() {
			continue
		}
		s.entries = append(s.entries, overrideEntry{id: inst.ID, number: inst.InstallmentNumber, amount: inst.Amount})
	}
	sort.Slice(s.entries, func(i, j int) bool { return s.entries[i].number < s.entries[j].number })
	return s
}

// Touch records an operator-typed amount for the given installment number
// and redistributes the untouched cells.
func (s *OverrideSession) Touch(number int, amount int64) error {
	idx := s.indexOf(number)
	if idx < 0 {
		return invalidInput("installment %d is not editable in this session", number)
	}

	s.entries[idx].amount = amount
	s.touched[number] = true
	s.lastTouched = number
	s.redistribute()
	return nil
}

func (s *OverrideSession) indexOf(number int) int {
	for i, e := range s.entries {
		if e.number == number {
			return i
		}
	}
	return -1
}

// redistribute recomputes the untouched cells from the remaining target.
// When the manual entries alone already exceed the collectable balance the
// session enters an error state and leaves every cell as typed.
func (s *OverrideSession) redistribute() {
	var manualSum int64
	var untouched []int
	for i, e := range s.entries {
		if s.touched[e.number] {
			manualSum += e.amount
		} else {
			untouched = append(untouched, i)
		}
	}

	remainingTarget := s.totalAmount - s.paidSum - manualSum
	if remainingTarget < 0 {
		s.overflow = true
		return
	}
	s.overflow = false

	if len(untouched) == 0 {
		// Every cell is touched: absorb the difference into the last-touched
		// one so the grand total still matches, never below 1.
		idx := s.indexOf(s.lastTouched)
		if idx >= 0 {
			s.entries[idx].amount += remainingTarget
			if s.entries[idx].amount < 1 {
				s.entries[idx].amount = 1
			}
		}
		return
	}

	per := remainingTarget / int64(len(untouched))
	remainder := remainingTarget - per*int64(len(untouched))
	for _, i := range untouched {
		s.entries[i].amount = per
		if remainder > 0 {
			s.entries[i].amount++
			remainder--
		}
	}
}

// Overflow reports whether the manual entries exceed the collectable
// balance. While true, untouched cells hold their last values and the
// session cannot be saved.
func (s *OverrideSession) Overflow() bool {
	return s.overflow
}

// Amounts returns the current unpaid amounts by ascending installment
// number.
func (s *OverrideSession) Amounts() []OverrideAmount {
	out := make([]OverrideAmount, len(s.entries))
	for i, e := range s.entries {
		out[i] = OverrideAmount{ID: e.id, Number: e.number, Amount: e.amount}
	}
	return out
}

// Validate checks the session is saveable: no overflow, every unpaid
// amount positive, and paid sum plus unpaid sum exactly equal to the
// recorded total. The mismatch, when present, is named in the error.
func (s *OverrideSession) Validate() error {
	if s.overflow {
		return amountMismatch("manual amounts exceed the collectable balance by %d", s.paidSum+s.manualSum()-s.totalAmount)
	}
	var sum int64
	for _, e := range s.entries {
		if e.amount <= 0 {
			return amountMismatch("installment %d has a non-positive amount", e.number)
		}
		sum += e.amount
	}
	if sum+s.paidSum != s.totalAmount {
		return amountMismatch("amounts add up to %d, expected %d", sum+s.paidSum, s.totalAmount)
	}
	return nil
}

func (s *OverrideSession) manualSum() int64 {
	var sum int64
	for _, e := range s.entries {
		if s.touched[e.number] {
			sum += e.amount
		}
	}
	return sum
}
