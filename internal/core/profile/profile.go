package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fusion-recipes/internal/core/recipe"
	"fusion-recipes/internal/infrastructure/database"

	"gorm.io/gorm"
)

// ErrNotFound 使用者沒有個人檔案
var ErrNotFound = errors.New("profile not found")

// Profile profiles 資料表，只讀取管線需要的偏好欄位
type Profile struct {
	ID                          string              `gorm:"primaryKey;size:64"`
	MedicalHealthPreferences    database.StringList `gorm:"column:medical_health_preferences"`
	LifestyleDietaryPreferences database.StringList `gorm:"column:lifestyle_dietary_preferences"`
	ReligiousPreferences        database.StringList `gorm:"column:religious_preferences"`
	PantryItems                 database.StringList `gorm:"column:pantry_items"`
	UpdatedAt                   time.Time
}

// TableName 資料表名稱
func (Profile) TableName() string { return "profiles" }

// Preferences 轉換為生成用的偏好
func (p Profile) Preferences() *recipe.ProfilePreferences {
	return &recipe.ProfilePreferences{
		Medical:     []string(p.MedicalHealthPreferences),
		Lifestyle:   []string(p.LifestyleDietaryPreferences),
		Religious:   []string(p.ReligiousPreferences),
		PantryItems: []string(p.PantryItems),
	}
}

// Store 個人檔案讀取
type Store struct {
	db *gorm.DB
}

// NewStore 創建個人檔案讀取
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Get 讀取使用者偏好
func (s *Store) Get(ctx context.Context, userID string) (*recipe.ProfilePreferences, error) {
	var p Profile
	err := s.db.WithContext(ctx).First(&p, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return p.Preferences(), nil
}
