package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

// NewCategory is the input for a user-defined category.
type NewCategory struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

type CategoryService struct {
	store store.CategoryStore
}

func NewCategoryService(st store.CategoryStore) *CategoryService {
	return &CategoryService{store: st}
}

func (s *CategoryService) List(ctx context.Context) ([]core.Category, error) {
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// ListByType keeps the categories of one transaction type.
func (s *CategoryService) ListByType(ctx context.Context, t core.TransactionType) ([]core.Category, error) {
	cats, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.Category, 0, len(cats))
	for _, c := range cats {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out, nil
}

// Create adds a custom category. Unknown icon names fall back to the default
// icon rather than failing.
func (s *CategoryService) Create(ctx context.Context, in NewCategory) (core.Category, error) {
	typ, err := core.ParseTransactionType(in.Type)
	if err != nil {
		return core.Category{}, err
	}
	c := core.Category{
		Name:     strings.TrimSpace(in.Name),
		Type:     typ,
		Icon:     core.ResolveIcon(in.Icon),
		Color:    strings.ToUpper(strings.TrimSpace(in.Color)),
		IsCustom: true,
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	saved, err := s.store.InsertCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("save category: %w", err)
	}
	slog.InfoContext(ctx, "Category created", "id", saved.ID, "name", saved.Name, "type", saved.Type)
	return saved, nil
}

func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	slog.InfoContext(ctx, "Category deleted", "id", id)
	return nil
}
