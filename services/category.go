package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Anmolmahajn/money-tracker-backend/models"
	"github.com/Anmolmahajn/money-tracker-backend/utils"
)

// Categories created implicitly during ingestion carry a fixed color and a
// description naming their origin, so they stand out from user-created ones.
const (
	autoCreateColor       = "#667eea"
	autoCreateDescription = "Auto-created from transaction import"
)

type CategoryService struct {
	db *sql.DB
}

func NewCategoryService(db *sql.DB) *CategoryService {
	return &CategoryService{db: db}
}

func (s *CategoryService) ListByUser(ctx context.Context, userID string) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, description, icon_name, color_code, created_at, updated_at
		FROM categories WHERE user_id = $1 ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Description,
			&c.IconName, &c.ColorCode, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *CategoryService) GetByID(ctx context.Context, userID, categoryID string) (*models.Category, error) {
	var c models.Category
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, description, icon_name, color_code, created_at, updated_at
		FROM categories WHERE id = $1 AND user_id = $2`, categoryID, userID).
		Scan(&c.ID, &c.UserID, &c.Name, &c.Description, &c.IconName, &c.ColorCode, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &c, nil
}

func (s *CategoryService) FindByOwnerAndName(ctx context.Context, userID, name string) (*models.Category, error) {
	var c models.Category
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, description, icon_name, color_code, created_at, updated_at
		FROM categories WHERE user_id = $1 AND LOWER(name) = LOWER($2)`, userID, name).
		Scan(&c.ID, &c.UserID, &c.Name, &c.Description, &c.IconName, &c.ColorCode, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	return &c, nil
}

func (s *CategoryService) Insert(ctx context.Context, userID string, req *models.CategoryRequest) (*models.Category, error) {
	c := models.Category{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		IconName:    req.IconName,
		ColorCode:   req.ColorCode,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, user_id, name, description, icon_name, color_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.UserID, c.Name, c.Description, c.IconName, c.ColorCode, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrCategoryExists
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return &c, nil
}

func (s *CategoryService) Update(ctx context.Context, userID, categoryID string, req *models.CategoryRequest) (*models.Category, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE categories SET name = $1, description = $2, icon_name = $3, color_code = $4, updated_at = $5
		WHERE id = $6 AND user_id = $7`,
		req.Name, req.Description, req.IconName, req.ColorCode, time.Now(), categoryID, userID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrCategoryExists
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrCategoryNotFound
	}
	return s.GetByID(ctx, userID, categoryID)
}

func (s *CategoryService) Delete(ctx context.Context, userID, categoryID string) error {
	var inUse int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE category_id = $1 AND user_id = $2`,
		categoryID, userID).Scan(&inUse)
	if err != nil {
		return fmt.Errorf("failed to check category usage: %w", err)
	}
	if inUse > 0 {
		return fmt.Errorf("category has %d transactions and cannot be deleted", inUse)
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = $1 AND user_id = $2`, categoryID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// defaultCategories are seeded for every new account.
var defaultCategories = []models.CategoryRequest{
	{Name: "Food & Dining", IconName: "restaurant", ColorCode: "#FF6B6B"},
	{Name: "Groceries", IconName: "shopping_cart", ColorCode: "#4ECDC4"},
	{Name: "Shopping", IconName: "shopping_bag", ColorCode: "#45B7D1"},
	{Name: "Entertainment", IconName: "movie", ColorCode: "#96CEB4"},
	{Name: "Transportation", IconName: "directions_car", ColorCode: "#FFEAA7"},
	{Name: "Bills & Utilities", IconName: "receipt", ColorCode: "#DDA0DD"},
	{Name: "Healthcare", IconName: "local_hospital", ColorCode: "#FF7675"},
	{Name: "Education", IconName: "school", ColorCode: "#74B9FF"},
	{Name: "Travel", IconName: "flight", ColorCode: "#A29BFE"},
	{Name: "Rent", IconName: "home", ColorCode: "#FD79A8"},
	{Name: "Subscription", IconName: "subscriptions", ColorCode: "#E17055"},
	{Name: "Banking", IconName: "account_balance", ColorCode: "#00B894"},
	{Name: "Other", IconName: "category", ColorCode: "#B2BEC3"},
}

// CreateDefaults seeds the starter categories for a new user in one
// transaction, so a half-seeded account can never exist.
func (s *CategoryService) CreateDefaults(ctx context.Context, userID string) error {
	err := utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		now := time.Now()
		for _, req := range defaultCategories {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO categories (id, user_id, name, description, icon_name, color_code, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				ON CONFLICT (user_id, name) DO NOTHING`,
				uuid.New().String(), userID, req.Name, req.Description, req.IconName, req.ColorCode, now, now)
			if err != nil {
				return fmt.Errorf("failed to seed category %s: %w", req.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("✅ Seeded %d default categories for user %s", len(defaultCategories), userID)
	return nil
}

// categoryStore is the slice of CategoryService the resolver needs.
type categoryStore interface {
	FindByOwnerAndName(ctx context.Context, userID, name string) (*models.Category, error)
	Insert(ctx context.Context, userID string, req *models.CategoryRequest) (*models.Category, error)
}

// CategoryResolver returns the user's category with a given name, creating
// it on first use. Concurrent creates race on the unique index; the loser
// re-fetches the winner's row.
type CategoryResolver struct {
	store categoryStore
}

func NewCategoryResolver(store categoryStore) *CategoryResolver {
	return &CategoryResolver{store: store}
}

func (r *CategoryResolver) Resolve(ctx context.Context, userID, name string) (*models.Category, error) {
	category, err := r.store.FindByOwnerAndName(ctx, userID, name)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, ErrCategoryNotFound) {
		return nil, err
	}

	created, err := r.store.Insert(ctx, userID, &models.CategoryRequest{
		Name:        name,
		Description: autoCreateDescription,
		IconName:    "category",
		ColorCode:   autoCreateColor,
	})
	if err == nil {
		return created, nil
	}
	if errors.Is(err, ErrCategoryExists) {
		return r.store.FindByOwnerAndName(ctx, userID, name)
	}
	return nil, err
}
