package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product представляет товар в базе продуктов (прайс-лист)
// Цена указывается за одну единицу Unit; пересчет в единицу рецепта
// выполняет движок синхронизации, сам товар никогда не пересчитывается
type Product struct {
	ID           string         `json:"id" gorm:"type:uuid;primaryKey"`
	Name         string         `json:"name" gorm:"type:varchar(255);not null;index"`
	Unit         string         `json:"unit" gorm:"type:varchar(20);not null;default:'kg'"` // kg, g, l, ml...
	PricePerUnit float64        `json:"price_per_unit" gorm:"type:decimal(10,4);not null;default:0"`
	Category     string         `json:"category" gorm:"type:varchar(100);default:'OTROS'"` // Семейство (VERDURAS, CARNES...)
	Allergens    string         `json:"allergens" gorm:"type:text;default:'[]'"`           // JSON массив аллергенов
	CreatedAt    time.Time      `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt    time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName указывает имя таблицы в БД
func (Product) TableName() string {
	return "products"
}

// BeforeCreate hook для генерации UUID если не указан
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Allergens == "" {
		p.Allergens = "[]"
	}
	if p.Category == "" {
		p.Category = UnmatchedFamily
	}
	return nil
}

// AllergenNames возвращает аллергены товара как список
func (p *Product) AllergenNames() []string {
	return UnmarshalStringList(p.Allergens)
}

// SetAllergens сохраняет список аллергенов в JSON-колонку
func (p *Product) SetAllergens(list []string) {
	p.Allergens = MarshalStringList(list)
}
