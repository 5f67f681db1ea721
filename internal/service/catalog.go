package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"shi-bot/internal/model"
	"shi-bot/internal/repository"
)

// ErrInvalidItem is returned when a new item has a blank name or a negative price.
var ErrInvalidItem = errors.New("item needs a name and a non-negative price")

// SampleItem is a starter catalog entry.
type SampleItem struct {
	Name  string
	Power int
	Price decimal.Decimal
}

// SampleItems are inserted into an empty catalog on first run.
var SampleItems = []SampleItem{
	{Name: "Wooden Sword", Power: 2, Price: decimal.RequireFromString("0.5")},
	{Name: "Steel Sword", Power: 5, Price: decimal.RequireFromString("1.2")},
	{Name: "Leather Shield", Power: 3, Price: decimal.RequireFromString("0.9")},
}

// CatalogService manages shop items and inventories.
type CatalogService struct {
	repo *repository.CatalogRepository
}

// NewCatalogService creates a new CatalogService instance.
func NewCatalogService(repo *repository.CatalogRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

// ListItems returns the catalog in ascending id order.
func (s *CatalogService) ListItems(ctx context.Context) ([]*model.Item, error) {
	return s.repo.ListItems(ctx)
}

// GetItem returns an item, or nil when it does not exist.
func (s *CatalogService) GetItem(ctx context.Context, id int64) (*model.Item, error) {
	item, err := s.repo.GetItem(ctx, id)
	if errors.Is(err, repository.ErrItemNotFound) {
		return nil, nil
	}
	return item, err
}

// AddItem adds a new item to the catalog.
func (s *CatalogService) AddItem(ctx context.Context, name string, power int, price decimal.Decimal) (*model.Item, error) {
	if name == "" || price.IsNegative() {
		return nil, ErrInvalidItem
	}
	item, err := s.repo.AddItem(ctx, name, power, price)
	if err != nil {
		return nil, err
	}
	log.Info().Int64("item_id", item.ID).Str("name", name).Str("price", price.String()).Msg("Item added")
	return item, nil
}

// Inventory returns a user's items with their names and power.
func (s *CatalogService) Inventory(ctx context.Context, userID int64) ([]*model.InventoryEntry, error) {
	return s.repo.Inventory(ctx, userID)
}

// Quantity returns how many units of an item the user owns.
func (s *CatalogService) Quantity(ctx context.Context, userID, itemID int64) (int, error) {
	return s.repo.Quantity(ctx, userID, itemID)
}

// SeedSampleItems fills an empty catalog with the starter items.
// It returns the number of items inserted.
func (s *CatalogService) SeedSampleItems(ctx context.Context) (int, error) {
	n, err := s.repo.CountItems(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	for _, it := range SampleItems {
		if _, err := s.repo.AddItem(ctx, it.Name, it.Power, it.Price); err != nil {
			return 0, fmt.Errorf("failed to seed sample items: %w", err)
		}
	}
	log.Info().Int("count", len(SampleItems)).Msg("Seeded sample items")
	return len(SampleItems), nil
}
