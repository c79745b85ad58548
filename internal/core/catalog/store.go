package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"fusion-recipes/internal/core/recipe"
	"fusion-recipes/internal/infrastructure/database"

	"gorm.io/gorm"
)

// 排序方式
const (
	SortNewest = "newest"
	SortQuick  = "quick"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// ErrNotFound 食譜不存在或不屬於該使用者
var ErrNotFound = errors.New("recipe not found")

// PersistKind 寫入錯誤種類
type PersistKind string

// StoreRejected 資料庫拒絕寫入
const StoreRejected PersistKind = "storeRejected"

// PersistError 單筆食譜寫入失敗，不影響同批其他食譜
type PersistError struct {
	Kind     PersistKind
	RecipeID string
	Err      error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("failed to persist recipe %s: %s: %v", e.RecipeID, e.Kind, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Filter 列表查詢條件
type Filter struct {
	CreatorID     string
	FavoritesOnly bool
	DishType      string
	DietaryTags   []string
	Query         string
	SortBy        string
	Limit         int
	Offset        int
}

// Store 食譜目錄
type Store struct {
	db *gorm.DB
}

// NewStore 創建食譜目錄
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Persist 寫入一筆食譜
func (s *Store) Persist(ctx context.Context, r recipe.Recipe, creatorID string) error {
	row := RowFromRecipe(r, creatorID)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return &PersistError{Kind: StoreRejected, RecipeID: r.ID, Err: err}
	}
	return nil
}

// Get 讀取單筆食譜
func (s *Store) Get(ctx context.Context, id string) (*recipe.Recipe, error) {
	var row RecipeRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}
	r := RowToRecipe(row)
	return &r, nil
}

// List 依條件列出食譜並回傳總數
func (s *Store) List(ctx context.Context, f Filter) ([]recipe.Recipe, int64, error) {
	scope, err := s.filterScope(f)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&RecipeRow{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}

	query := s.db.WithContext(ctx).Model(&RecipeRow{}).Scopes(scope)
	switch f.SortBy {
	case SortQuick:
		query = query.Order("prep_time_min ASC").Order("created_at DESC")
	default:
		query = query.Order("created_at DESC")
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var rows []RecipeRow
	if err := query.Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch recipes: %w", err)
	}

	recipes := make([]recipe.Recipe, 0, len(rows))
	for _, row := range rows {
		recipes = append(recipes, RowToRecipe(row))
	}
	return recipes, total, nil
}

// filterScope 將查詢條件轉為 gorm scope
func (s *Store) filterScope(f Filter) (func(*gorm.DB) *gorm.DB, error) {
	tagPatterns := make([]string, 0, len(f.DietaryTags))
	for _, tag := range f.DietaryTags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		encoded, err := json.Marshal(tag)
		if err != nil {
			return nil, err
		}
		tagPatterns = append(tagPatterns, string(encoded))
	}
	postgres := s.db.Dialector.Name() == database.DriverPostgres

	return func(query *gorm.DB) *gorm.DB {
		if f.CreatorID != "" {
			query = query.Where("creator_id = ?", f.CreatorID)
		}
		if f.FavoritesOnly {
			query = query.Where("is_favorite = ?", true)
		}
		if dish := strings.TrimSpace(f.DishType); dish != "" {
			query = query.Where("LOWER(dish_type) = ?", strings.ToLower(dish))
		}
		for _, encoded := range tagPatterns {
			if postgres {
				query = query.Where("dietary_tags @> ?::jsonb", "["+encoded+"]")
			} else {
				query = query.Where("dietary_tags LIKE ?", "%"+encoded+"%")
			}
		}
		if q := strings.TrimSpace(f.Query); q != "" {
			like := "%" + strings.ToLower(q) + "%"
			query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
		}
		return query
	}, nil
}

// ToggleFavorite 切換收藏狀態，只有建立者可以操作
func (s *Store) ToggleFavorite(ctx context.Context, id, creatorID string) (bool, error) {
	var favorite bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row RecipeRow
		if err := tx.Where("id = ? AND creator_id = ?", id, creatorID).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		favorite = !row.IsFavorite
		return tx.Model(&RecipeRow{}).
			Where("id = ?", id).
			Update("is_favorite", favorite).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("failed to toggle favorite: %w", err)
	}
	return favorite, nil
}
