package core

import (
	"regexp"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
	Weekly  Frequency = "weekly"
	Daily   Frequency = "daily"
)

const (
	maxDescriptionLen  = 200
	maxCategoryNameLen = 50
)

type (
	// TransactionType classifies both categories and transactions.
	TransactionType string

	// Frequency is descriptive recurrence metadata. Nothing expands it into
	// future transactions.
	Frequency string

	Category struct {
		ID        int64           `json:"id"`
		Name      string          `json:"name"`
		Type      TransactionType `json:"type"`
		Icon      Icon            `json:"icon"`
		Color     string          `json:"color"`
		IsCustom  bool            `json:"is_custom"`
		CreatedAt time.Time       `json:"created_at"`
	}

	Transaction struct {
		ID                 int64           `json:"id"`
		Type               TransactionType `json:"type"`
		Amount             Money           `json:"amount"`
		CategoryID         int64           `json:"category_id"`
		Date               Date            `json:"date"`
		Description        string          `json:"description,omitempty"`
		IsRecurring        bool            `json:"is_recurring"`
		RecurringFrequency Frequency       `json:"recurring_frequency,omitempty"`
		RecurringEndDate   Date            `json:"recurring_end_date"`
		CreatedAt          time.Time       `json:"created_at"`
	}

	// TransactionWithCategory is a transaction joined with its category.
	// Category is nil when the join found nothing.
	TransactionWithCategory struct {
		Transaction
		Category *Category `json:"category"`
	}

	Budget struct {
		ID          int64     `json:"id"`
		CategoryID  int64     `json:"category_id"`
		LimitAmount Money     `json:"limit_amount"`
		Month       Date      `json:"month"`
		CreatedAt   time.Time `json:"created_at"`
		UpdatedAt   time.Time `json:"updated_at"`
	}

	// TransactionPatch carries a partial update. Nil fields are left alone.
	TransactionPatch struct {
		Type               *TransactionType `json:"type,omitempty"`
		Amount             *Money           `json:"amount,omitempty"`
		CategoryID         *int64           `json:"category_id,omitempty"`
		Date               *Date            `json:"date,omitempty"`
		Description        *string          `json:"description,omitempty"`
		IsRecurring        *bool            `json:"is_recurring,omitempty"`
		RecurringFrequency *Frequency       `json:"recurring_frequency,omitempty"`
		RecurringEndDate   *Date            `json:"recurring_end_date,omitempty"`
	}
)

var (
	ErrInvalidAmount    = &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	ErrInvalidLimit     = &ValidationError{Field: "limit_amount", Reason: "must be greater than zero"}
	ErrInvalidType      = &ValidationError{Field: "type", Reason: "must be income or expense"}
	ErrEmptyName        = &ValidationError{Field: "name", Reason: "cannot be empty"}
	ErrMissingCategory  = &ValidationError{Field: "category_id", Reason: "is required"}
	ErrInvalidFrequency = &ValidationError{Field: "recurring_frequency", Reason: "must be daily, weekly, monthly or yearly"}
	ErrCategoryInUse    = &ValidationError{Field: "category_id", Reason: "category is referenced by transactions"}
	ErrDuplicateName    = &ValidationError{Field: "name", Reason: "category name already exists"}
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	default:
		return false
	}
}

// ParseTransactionType normalises case and whitespace.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrInvalidType
	}
	return t, nil
}

func (c Category) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > maxCategoryNameLen {
		return NewValidationError("name", "too long (max 50 characters)")
	}
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	if c.Color != "" && !colorPattern.MatchString(c.Color) {
		return NewValidationError("color", "must be #RRGGBB")
	}
	return nil
}

// DisplayColor returns the category color or the fallback.
func (c Category) DisplayColor() string {
	if c.Color == "" {
		return FallbackColor
	}
	return c.Color
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.CategoryID <= 0 {
		return ErrMissingCategory
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(t.Description) > maxDescriptionLen {
		return NewValidationError("description", "too long (max 200 characters)")
	}

	if !t.IsRecurring {
		if t.RecurringFrequency != "" || !t.RecurringEndDate.IsEmpty() {
			return NewValidationError("is_recurring", "recurrence fields require is_recurring")
		}
		return nil
	}
	if !t.RecurringFrequency.Valid() {
		return ErrInvalidFrequency
	}
	if !t.RecurringEndDate.IsEmpty() && t.RecurringEndDate.Before(t.Date) {
		return NewValidationError("recurring_end_date", "must not be before date")
	}
	return nil
}

// Apply returns t with the patch fields applied. Turning recurrence off
// clears the recurrence fields.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.IsRecurring != nil {
		t.IsRecurring = *p.IsRecurring
	}
	if p.RecurringFrequency != nil {
		t.RecurringFrequency = *p.RecurringFrequency
	}
	if p.RecurringEndDate != nil {
		t.RecurringEndDate = *p.RecurringEndDate
	}
	if !t.IsRecurring {
		t.RecurringFrequency = ""
		t.RecurringEndDate = Date{}
	}
	return t
}

// IsEmpty reports whether the patch changes nothing.
func (p TransactionPatch) IsEmpty() bool {
	return p.Type == nil && p.Amount == nil && p.CategoryID == nil && p.Date == nil &&
		p.Description == nil && p.IsRecurring == nil && p.RecurringFrequency == nil &&
		p.RecurringEndDate == nil
}

func (b Budget) Validate() error {
	if b.CategoryID <= 0 {
		return ErrMissingCategory
	}
	if b.LimitAmount.Cents <= 0 || b.LimitAmount.Cents > MaxCents {
		return ErrInvalidLimit
	}
	if !b.Month.IsMonthStart() {
		return NewValidationError("month", "must be the first day of a month")
	}
	return nil
}
