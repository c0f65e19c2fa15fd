// Package memory is a mutex-guarded in-process record store.
package memory

import (
	"bufio"
	"context"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

var _ store.RecordStore = (*Store)(nil)

type Store struct {
	mu           sync.Mutex
	now          func() time.Time
	categories   map[int64]core.Category
	transactions map[int64]core.Transaction
	budgets      map[int64]core.Budget
	nextCat      int64
	nextTx       int64
	nextBudget   int64
}

// New returns a store seeded with cats. Entries without a valid name or type
// and duplicate names are skipped.
func New(cats []core.Category) *Store {
	s := &Store{
		now:          time.Now,
		categories:   make(map[int64]core.Category),
		transactions: make(map[int64]core.Transaction),
		budgets:      make(map[int64]core.Budget),
	}
	for _, c := range cats {
		c.Name = strings.TrimSpace(c.Name)
		if c.Validate() != nil || s.nameTaken(c.Name) {
			continue
		}
		s.nextCat++
		c.ID = s.nextCat
		c.Icon = c.Icon.OrFallback()
		c.CreatedAt = s.now().UTC()
		s.categories[c.ID] = c
	}
	return s
}

// NewDefault returns a store seeded with the built-in categories.
func NewDefault() *Store {
	return New(core.DefaultCategories())
}

// NewFromFile seeds categories from a file of "name|type|icon|color" lines.
// Blank lines and # comments are ignored. A missing or empty file falls back
// to the built-in categories.
func NewFromFile(path string) *Store {
	cats := readCategories(path)
	if len(cats) == 0 {
		return NewDefault()
	}
	return New(cats)
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) GetCategory(_ context.Context, id int64) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return core.Category{}, core.NewNotFoundError("category", id)
	}
	return c, nil
}

func (s *Store) InsertCategory(_ context.Context, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nameTaken(c.Name) {
		return core.Category{}, core.ErrDuplicateName
	}
	s.nextCat++
	c.ID = s.nextCat
	c.CreatedAt = s.now().UTC()
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return core.NewNotFoundError("category", id)
	}
	for _, tx := range s.transactions {
		if tx.CategoryID == id {
			return core.ErrCategoryInUse
		}
	}
	for bid, b := range s.budgets {
		if b.CategoryID == id {
			delete(s.budgets, bid)
		}
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) ListTransactions(_ context.Context, period *core.Period) ([]core.TransactionWithCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.TransactionWithCategory, 0, len(s.transactions))
	for _, tx := range s.transactions {
		if period != nil && !period.Contains(tx.Date) {
			continue
		}
		out = append(out, s.join(tx))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, id int64) (core.TransactionWithCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[id]
	if !ok {
		return core.TransactionWithCategory{}, core.NewNotFoundError("transaction", id)
	}
	return s.join(tx), nil
}

func (s *Store) InsertTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.Description = strings.TrimSpace(tx.Description)
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[tx.CategoryID]; !ok {
		return core.Transaction{}, core.NewNotFoundError("category", tx.CategoryID)
	}
	s.nextTx++
	tx.ID = s.nextTx
	tx.CreatedAt = s.now().UTC()
	s.transactions[tx.ID] = tx
	return tx, nil
}

func (s *Store) UpdateTransaction(_ context.Context, id int64, patch core.TransactionPatch) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.transactions[id]
	if !ok {
		return core.Transaction{}, core.NewNotFoundError("transaction", id)
	}
	next := patch.Apply(cur)
	if err := next.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if _, ok := s.categories[next.CategoryID]; !ok {
		return core.Transaction{}, core.NewNotFoundError("category", next.CategoryID)
	}
	s.transactions[id] = next
	return next, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[id]; !ok {
		return core.NewNotFoundError("transaction", id)
	}
	delete(s.transactions, id)
	return nil
}

func (s *Store) ListBudgetsForMonth(_ context.Context, month core.Date) ([]core.Budget, error) {
	month = month.MonthStart()
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Budget, 0)
	for _, b := range s.budgets {
		if b.Month.Equal(month) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetBudget(_ context.Context, id int64) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok {
		return core.Budget{}, core.NewNotFoundError("budget", id)
	}
	return b, nil
}

func (s *Store) UpsertBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[b.CategoryID]; !ok {
		return core.Budget{}, core.NewNotFoundError("category", b.CategoryID)
	}
	now := s.now().UTC()
	for id, existing := range s.budgets {
		if existing.CategoryID == b.CategoryID && existing.Month.Equal(b.Month) {
			existing.LimitAmount = b.LimitAmount
			existing.UpdatedAt = now
			s.budgets[id] = existing
			return existing, nil
		}
	}
	s.nextBudget++
	b.ID = s.nextBudget
	b.CreatedAt = now
	b.UpdatedAt = now
	s.budgets[b.ID] = b
	return b, nil
}

func (s *Store) DeleteBudget(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[id]; !ok {
		return core.NewNotFoundError("budget", id)
	}
	delete(s.budgets, id)
	return nil
}

func (s *Store) SumExpenseAmount(_ context.Context, categoryID int64, month core.Date) (core.Money, error) {
	start := month.MonthStart()
	end := start.NextMonthStart()
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum core.Money
	for _, tx := range s.transactions {
		if tx.Type != core.Expense || tx.CategoryID != categoryID {
			continue
		}
		if !tx.Date.Before(start) && tx.Date.Before(end) {
			sum = sum.Add(tx.Amount)
		}
	}
	return sum, nil
}

// join must be called with mu held.
func (s *Store) join(tx core.Transaction) core.TransactionWithCategory {
	out := core.TransactionWithCategory{Transaction: tx}
	if c, ok := s.categories[tx.CategoryID]; ok {
		out.Category = &c
	}
	return out
}

func (s *Store) nameTaken(name string) bool {
	for _, c := range s.categories {
		if strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

func readCategories(path string) []core.Category {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []core.Category
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, "|")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		c := core.Category{Name: parts[0], Type: core.Expense, Icon: core.IconFallback}
		if len(parts) > 1 && parts[1] != "" {
			c.Type = core.TransactionType(strings.ToLower(parts[1]))
		}
		if len(parts) > 2 {
			c.Icon = core.ResolveIcon(parts[2])
		}
		if len(parts) > 3 {
			c.Color = parts[3]
		}
		out = append(out, c)
	}
	return out
}
