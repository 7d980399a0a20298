package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	CategoryAccount      AccountKind = "category"
	PaymentMethodAccount AccountKind = "payment_method"
)

const (
	KindFundAddition EventKind = "fund_addition"
	KindExpenditure  EventKind = "expenditure"
)

// PlaceholderCategory is assigned to imported expenditures until the user
// moves them to a real category.
const PlaceholderCategory = "uncategorized"

// MaxNoteLength is the longest description, in characters, an event may carry.
const MaxNoteLength = 200

type (
	AccountKind string

	EventKind string

	Date struct {
		time.Time
	}

	// Account is a spending category or a payment method. OpeningBalance holds
	// funds already allocated before the earliest event considered.
	Account struct {
		ID             string
		Kind           AccountKind
		Label          string
		OpeningBalance Money
	}

	// Event is one of Expenditure or FundAddition. The set is closed: the
	// unexported method keeps other packages from adding variants.
	Event interface {
		When() time.Time
		Kind() EventKind
		Value() Money
		BelongsTo(a Account) bool
		isEvent()
	}

	// Expenditure is an outflow. AccountID is the spending category.
	Expenditure struct {
		ID            string
		AccountID     string
		PaymentMethod string
		Timestamp     time.Time
		Amount        Money
		Note          string
	}

	// FundAddition is an inflow (deposit, allocation, payment) into an account.
	FundAddition struct {
		ID        string
		AccountID string
		Timestamp time.Time
		Amount    Money
		Note      string
	}

	// LedgerRow is one line of a computed ledger.
	LedgerRow struct {
		Timestamp      time.Time
		Kind           EventKind
		Amount         Money
		Note           string
		PaymentMethod  string
		RunningSpent   Money
		RunningBalance Money
		RunningFunded  Money
	}
)

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyAccount     = errors.New("empty account id")
	ErrEmptyMethod      = errors.New("empty payment method")
	ErrInvalidKind      = errors.New("invalid account kind")
	ErrZeroTimestamp    = errors.New("timestamp cannot be zero")
	ErrNegativeOpening  = errors.New("opening balance cannot be negative")
	ErrAccountNotFound  = errors.New("account not found")
	ErrOverflow         = errors.New("amount out of range")
	ErrNoteTooLong      = fmt.Errorf("description too long (max %d characters)", MaxNoteLength)
)

func (Expenditure) isEvent()  {}
func (FundAddition) isEvent() {}

func (e Expenditure) When() time.Time  { return e.Timestamp }
func (e Expenditure) Kind() EventKind  { return KindExpenditure }
func (e Expenditure) Value() Money     { return e.Amount }
func (f FundAddition) When() time.Time { return f.Timestamp }
func (f FundAddition) Kind() EventKind { return KindFundAddition }
func (f FundAddition) Value() Money    { return f.Amount }

// BelongsTo reports whether the expenditure is drawn against a. Category
// accounts match on AccountID, payment-method accounts on PaymentMethod.
func (e Expenditure) BelongsTo(a Account) bool {
	switch a.Kind {
	case PaymentMethodAccount:
		return e.PaymentMethod == a.ID
	default:
		return e.AccountID == a.ID
	}
}

func (f FundAddition) BelongsTo(a Account) bool {
	return f.AccountID == a.ID
}

func (e Expenditure) Validate() error {
	if e.Timestamp.IsZero() {
		return ErrZeroTimestamp
	}
	if strings.TrimSpace(e.AccountID) == "" {
		return ErrEmptyAccount
	}
	if strings.TrimSpace(e.PaymentMethod) == "" {
		return ErrEmptyMethod
	}
	if strings.TrimSpace(e.Note) == "" {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(e.Note) > MaxNoteLength {
		return ErrNoteTooLong
	}
	return e.Amount.Validate()
}

func (f FundAddition) Validate() error {
	if f.Timestamp.IsZero() {
		return ErrZeroTimestamp
	}
	if strings.TrimSpace(f.AccountID) == "" {
		return ErrEmptyAccount
	}
	if utf8.RuneCountInString(f.Note) > MaxNoteLength {
		return ErrNoteTooLong
	}
	return f.Amount.Validate()
}

func (k AccountKind) IsValid() bool {
	switch k {
	case CategoryAccount, PaymentMethodAccount:
		return true
	default:
		return false
	}
}

// ParseAccountKind accepts "category", "payment_method" and the short forms
// "cat" and "method".
func ParseAccountKind(s string) (AccountKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "category", "cat":
		return CategoryAccount, nil
	case "payment_method", "payment-method", "method":
		return PaymentMethodAccount, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return ErrEmptyAccount
	}
	if !a.Kind.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, a.Kind)
	}
	if a.OpeningBalance.IsNegative() {
		return ErrNegativeOpening
	}
	return nil
}

// DisplayName returns the label, or the id when no label is set.
func (a Account) DisplayName() string {
	if strings.TrimSpace(a.Label) != "" {
		return a.Label
	}
	return a.ID
}

// Validate rejects zero and negative amounts.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ISO returns the date as YYYY-MM-DD.
func (d Date) ISO() string {
	return d.Format("2006-01-02")
}
