package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"shi-bot/internal/model"
)

// CatalogRepository handles shop items and user inventories.
type CatalogRepository struct {
	db DBTX
}

// NewCatalogRepository creates a new CatalogRepository instance.
func NewCatalogRepository(db DBTX) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListItems returns every catalog item in ascending id order.
func (r *CatalogRepository) ListItems(ctx context.Context) ([]*model.Item, error) {
	const query = `SELECT id, name, power, price_shi FROM items ORDER BY id ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []*model.Item
	for rows.Next() {
		var item model.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Power, &item.PriceShi); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

// GetItem retrieves an item by id.
// Returns ErrItemNotFound if the item does not exist.
func (r *CatalogRepository) GetItem(ctx context.Context, id int64) (*model.Item, error) {
	const query = `SELECT id, name, power, price_shi FROM items WHERE id = $1`

	var item model.Item
	err := r.db.QueryRow(ctx, query, id).Scan(&item.ID, &item.Name, &item.Power, &item.PriceShi)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &item, nil
}

// AddItem inserts a new catalog item and returns it with its assigned id.
func (r *CatalogRepository) AddItem(ctx context.Context, name string, power int, price decimal.Decimal) (*model.Item, error) {
	const query = `
		INSERT INTO items (name, power, price_shi)
		VALUES ($1, $2, $3)
		RETURNING id, name, power, price_shi
	`

	var item model.Item
	err := r.db.QueryRow(ctx, query, name, power, price).Scan(&item.ID, &item.Name, &item.Power, &item.PriceShi)
	if err != nil {
		return nil, fmt.Errorf("failed to add item: %w", err)
	}
	return &item, nil
}

// CountItems returns the number of catalog items.
func (r *CatalogRepository) CountItems(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return n, nil
}

// AddToInventory adds one unit of an item to a user's inventory.
func (r *CatalogRepository) AddToInventory(ctx context.Context, userID, itemID int64) error {
	const query = `
		INSERT INTO inventory (user_id, item_id, qty)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id, item_id)
		DO UPDATE SET qty = inventory.qty + 1
	`

	if _, err := r.db.Exec(ctx, query, userID, itemID); err != nil {
		return fmt.Errorf("failed to add item to inventory: %w", err)
	}
	return nil
}

// Quantity returns how many units of an item a user holds.
func (r *CatalogRepository) Quantity(ctx context.Context, userID, itemID int64) (int, error) {
	const query = `SELECT COALESCE((SELECT qty FROM inventory WHERE user_id = $1 AND item_id = $2), 0)`

	var qty int
	if err := r.db.QueryRow(ctx, query, userID, itemID).Scan(&qty); err != nil {
		return 0, fmt.Errorf("failed to get inventory quantity: %w", err)
	}
	return qty, nil
}

// Inventory returns a user's items joined with their catalog details.
func (r *CatalogRepository) Inventory(ctx context.Context, userID int64) ([]*model.InventoryEntry, error) {
	const query = `
		SELECT inv.user_id, inv.item_id, inv.qty, i.name, i.power
		FROM inventory inv
		JOIN items i ON i.id = inv.item_id
		WHERE inv.user_id = $1
		ORDER BY inv.item_id ASC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory: %w", err)
	}
	defer rows.Close()

	var entries []*model.InventoryEntry
	for rows.Next() {
		var e model.InventoryEntry
		if err := rows.Scan(&e.UserID, &e.ItemID, &e.Quantity, &e.Name, &e.Power); err != nil {
			return nil, fmt.Errorf("failed to scan inventory entry: %w", err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inventory: %w", err)
	}

	return entries, nil
}
