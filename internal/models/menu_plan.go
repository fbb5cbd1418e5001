package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MenuPlan представляет сохраненное меню: именованная и датированная выборка
// рецептов, масштабируемая на Pax порций. Меню хранит только id рецептов
// (слабые ссылки): удаленный рецепт отфильтровывается при загрузке меню
type MenuPlan struct {
	ID           string         `json:"id" gorm:"type:uuid;primaryKey"`
	Title        string         `json:"title" gorm:"type:varchar(255);not null"`
	Date         string         `json:"date" gorm:"type:varchar(30)"` // Дата меню как введена, например "2026-09-15"
	Pax          int            `json:"pax" gorm:"not null;default:1"`
	RecipeIDs    string         `json:"recipe_ids" gorm:"type:text;default:'[]'"` // JSON массив id рецептов
	LastModified time.Time      `json:"last_modified" gorm:"autoUpdateTime"`
	CreatedAt    time.Time      `json:"created_at" gorm:"autoCreateTime"`
	DeletedAt    gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName указывает имя таблицы в БД
func (MenuPlan) TableName() string {
	return "menu_plans"
}

// BeforeCreate hook для генерации UUID если не указан
func (m *MenuPlan) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.RecipeIDs == "" {
		m.RecipeIDs = "[]"
	}
	if m.Pax <= 0 {
		m.Pax = 1
	}
	return nil
}

// RecipeIDList возвращает id рецептов меню как список
func (m *MenuPlan) RecipeIDList() []string {
	return UnmarshalStringList(m.RecipeIDs)
}

// SetRecipeIDs сохраняет список id рецептов в JSON-колонку
func (m *MenuPlan) SetRecipeIDs(list []string) {
	m.RecipeIDs = MarshalStringList(list)
}
