package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseMonth(t *testing.T) {
	d, err := ParseMonth("2024-06")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", d.String())

	d, err = ParseMonth("2024-06-17")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", d.String())

	_, err = ParseMonth("June")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDateJSON(t *testing.T) {
	var payload struct {
		Date Date `json:"date"`
		End  Date `json:"end"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2024-02-29","end":null}`), &payload))
	assert.Equal(t, NewDate(2024, 2, 29), payload.Date)
	assert.True(t, payload.End.IsEmpty())

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-02-29","end":null}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"date":"29/02/2024"}`), &payload))
}

func validTransaction() Transaction {
	return Transaction{
		Type:       Expense,
		Amount:     Money{Cents: 1250},
		CategoryID: 1,
		Date:       NewDate(2024, 6, 12),
	}
}

func TestTransactionValidate(t *testing.T) {
	require.NoError(t, validTransaction().Validate())

	recurring := validTransaction()
	recurring.IsRecurring = true
	recurring.RecurringFrequency = Monthly
	recurring.RecurringEndDate = NewDate(2024, 12, 31)
	require.NoError(t, recurring.Validate())

	cases := map[string]func(*Transaction){
		"zero amount":          func(tx *Transaction) { tx.Amount = Money{} },
		"negative amount":      func(tx *Transaction) { tx.Amount = Money{Cents: -5} },
		"bad type":             func(tx *Transaction) { tx.Type = "transfer" },
		"no category":          func(tx *Transaction) { tx.CategoryID = 0 },
		"zero date":            func(tx *Transaction) { tx.Date = Date{} },
		"long description":     func(tx *Transaction) { tx.Description = strings.Repeat("x", 201) },
		"frequency not recur":  func(tx *Transaction) { tx.RecurringFrequency = Weekly },
		"recur w/o frequency":  func(tx *Transaction) { tx.IsRecurring = true },
		"unknown frequency":    func(tx *Transaction) { tx.IsRecurring = true; tx.RecurringFrequency = "hourly" },
		"end before start":     func(tx *Transaction) { tx.IsRecurring = true; tx.RecurringFrequency = Daily; tx.RecurringEndDate = NewDate(2024, 6, 1) },
		"end not recurring":    func(tx *Transaction) { tx.RecurringEndDate = NewDate(2024, 7, 1) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			tx := validTransaction()
			mutate(&tx)
			err := tx.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation), "got %v", err)
		})
	}
}

func TestTransactionPatchApply(t *testing.T) {
	base := validTransaction()
	base.IsRecurring = true
	base.RecurringFrequency = Weekly

	amount := Money{Cents: 999}
	desc := "  groceries "
	got := TransactionPatch{Amount: &amount, Description: &desc}.Apply(base)
	assert.Equal(t, int64(999), got.Amount.Cents)
	assert.Equal(t, "groceries", got.Description)
	assert.Equal(t, Weekly, got.RecurringFrequency)
	assert.Equal(t, int64(1250), base.Amount.Cents, "input is not modified")

	off := false
	got = TransactionPatch{IsRecurring: &off}.Apply(base)
	assert.False(t, got.IsRecurring)
	assert.Empty(t, got.RecurringFrequency)
	require.NoError(t, got.Validate())

	assert.True(t, TransactionPatch{}.IsEmpty())
	assert.False(t, TransactionPatch{Amount: &amount}.IsEmpty())
}

func TestCategoryValidate(t *testing.T) {
	require.NoError(t, Category{Name: "Food", Type: Expense, Color: "#FF0000"}.Validate())
	require.NoError(t, Category{Name: "Salary", Type: Income}.Validate())

	assert.ErrorIs(t, Category{Name: "  ", Type: Expense}.Validate(), ErrValidation)
	assert.ErrorIs(t, Category{Name: "Food", Type: "other"}.Validate(), ErrValidation)
	assert.ErrorIs(t, Category{Name: "Food", Type: Expense, Color: "red"}.Validate(), ErrValidation)
	assert.ErrorIs(t, Category{Name: strings.Repeat("a", 51), Type: Expense}.Validate(), ErrValidation)
}

func TestBudgetValidate(t *testing.T) {
	good := Budget{CategoryID: 3, LimitAmount: Money{Cents: 10000}, Month: NewDate(2024, 6, 1)}
	require.NoError(t, good.Validate())

	bad := good
	bad.LimitAmount = Money{}
	assert.Equal(t, ErrInvalidLimit, bad.Validate())

	bad = good
	bad.Month = NewDate(2024, 6, 2)
	assert.ErrorIs(t, bad.Validate(), ErrValidation)
}

func TestParseTransactionType(t *testing.T) {
	tt, err := ParseTransactionType(" Income ")
	require.NoError(t, err)
	assert.Equal(t, Income, tt)

	_, err = ParseTransactionType("refund")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestResolveIcon(t *testing.T) {
	assert.Equal(t, IconFood, ResolveIcon("utensils"))
	assert.Equal(t, IconFood, ResolveIcon("Food"))
	assert.Equal(t, IconFallback, ResolveIcon("rocket"))
	assert.Equal(t, IconFallback, ResolveIcon(""))

	assert.True(t, IconGifts.Known())
	assert.False(t, Icon("food").Known())
	assert.Equal(t, IconFallback, Icon("nope").OrFallback())
}

func TestErrorKinds(t *testing.T) {
	nf := NewNotFoundError("category", 7)
	assert.ErrorIs(t, nf, ErrNotFound)
	assert.Equal(t, "category 7 not found", nf.Error())

	cause := errors.New("disk full")
	se := NewStoreError("insert transaction", cause)
	assert.ErrorIs(t, se, ErrStore)
	assert.ErrorIs(t, se, cause)

	assert.Same(t, nf, NewStoreError("get category", nf))
	assert.Nil(t, NewStoreError("noop", nil))
}
