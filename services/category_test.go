package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/Anmolmahajn/money-tracker-backend/models"
)

// memoryCategoryStore mimics the unique (user, name) index in memory.
type memoryCategoryStore struct {
	mu         sync.Mutex
	categories map[string]*models.Category // key: userID + "/" + lower(name)
	inserts    int
}

func newMemoryCategoryStore() *memoryCategoryStore {
	return &memoryCategoryStore{categories: make(map[string]*models.Category)}
}

func (s *memoryCategoryStore) key(userID, name string) string {
	return userID + "/" + name
}

func (s *memoryCategoryStore) FindByOwnerAndName(ctx context.Context, userID, name string) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.categories[s.key(userID, name)]; ok {
		return c, nil
	}
	return nil, ErrCategoryNotFound
}

func (s *memoryCategoryStore) Insert(ctx context.Context, userID string, req *models.CategoryRequest) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts++
	k := s.key(userID, req.Name)
	if _, ok := s.categories[k]; ok {
		return nil, ErrCategoryExists
	}
	c := &models.Category{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		IconName:    req.IconName,
		ColorCode:   req.ColorCode,
	}
	s.categories[k] = c
	return c, nil
}

func TestResolveReturnsExistingCategory(t *testing.T) {
	store := newMemoryCategoryStore()
	existing, _ := store.Insert(context.Background(), "user-1", &models.CategoryRequest{Name: "Entertainment"})

	resolver := NewCategoryResolver(store)
	got, err := resolver.Resolve(context.Background(), "user-1", "Entertainment")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != existing.ID {
		t.Errorf("resolved %s, want existing %s", got.ID, existing.ID)
	}
}

func TestResolveCreatesMissingCategory(t *testing.T) {
	store := newMemoryCategoryStore()
	resolver := NewCategoryResolver(store)

	got, err := resolver.Resolve(context.Background(), "user-1", "Transportation")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Transportation" {
		t.Errorf("name = %q", got.Name)
	}
	if got.ColorCode != autoCreateColor {
		t.Errorf("auto-created color = %q, want %q", got.ColorCode, autoCreateColor)
	}
	if got.Description == "" {
		t.Error("auto-created category must carry a description naming its origin")
	}
	if got.Description != autoCreateDescription {
		t.Errorf("auto-created description = %q, want %q", got.Description, autoCreateDescription)
	}
}

func TestResolveScopedPerUser(t *testing.T) {
	store := newMemoryCategoryStore()
	resolver := NewCategoryResolver(store)

	a, _ := resolver.Resolve(context.Background(), "user-a", "Shopping")
	b, _ := resolver.Resolve(context.Background(), "user-b", "Shopping")
	if a.ID == b.ID {
		t.Error("same-named categories of different users must be distinct")
	}
}

func TestResolveConcurrentCreatesExactlyOne(t *testing.T) {
	store := newMemoryCategoryStore()
	resolver := NewCategoryResolver(store)

	const n = 16
	results := make([]*models.Category, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := resolver.Resolve(context.Background(), "user-1", "Groceries")
			if err != nil {
				t.Errorf("resolve %d: %v", i, err)
				return
			}
			results[i] = c
		}(i)
	}
	wg.Wait()

	if len(store.categories) != 1 {
		t.Fatalf("store holds %d categories, want 1", len(store.categories))
	}
	for i, c := range results {
		if c == nil || c.ID != results[0].ID {
			t.Fatalf("resolve %d returned a different category", i)
		}
	}
}
