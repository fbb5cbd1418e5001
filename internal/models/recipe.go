package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Recipe представляет фишу técnica (эскандальо): рецепт с разбивкой на
// подготовки, посчитанный на базовый выход YieldQuantity порций
type Recipe struct {
	ID                  string         `json:"id" gorm:"type:uuid;primaryKey"`
	Name                string         `json:"name" gorm:"type:varchar(255);not null;index"`
	Categories          string         `json:"categories" gorm:"type:text;default:'[]'"` // JSON массив тегов категорий
	Creator             string         `json:"creator" gorm:"type:varchar(255)"`
	YieldQuantity       float64        `json:"yield_quantity" gorm:"type:decimal(10,2);default:1"` // Базовое количество порций (pax)
	YieldUnit           string         `json:"yield_unit" gorm:"type:varchar(50);default:'pax'"`
	TotalCost           float64        `json:"total_cost" gorm:"type:decimal(12,4);default:0"` // Кэш: сумма Cost всех ингредиентов
	Photo               string         `json:"photo" gorm:"type:text"`
	PlatingInstructions string         `json:"plating_instructions" gorm:"type:text"`

	// Детали сервиса (блок подачи на печатной фише)
	Presentation      string `json:"presentation" gorm:"type:text"`
	ServingTemp       string `json:"serving_temp" gorm:"type:varchar(100)"`
	Cutlery           string `json:"cutlery" gorm:"type:varchar(255)"`
	PassTime          string `json:"pass_time" gorm:"type:varchar(100)"`
	ServiceType       string `json:"service_type" gorm:"type:varchar(100);default:'Servicio a la Americana'"`
	ClientDescription string `json:"client_description" gorm:"type:text"`

	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	// Relations
	SubRecipes []SubRecipe `json:"sub_recipes" gorm:"foreignKey:RecipeID"`
}

// TableName указывает имя таблицы в БД
func (Recipe) TableName() string {
	return "recipes"
}

// BeforeCreate hook для генерации UUID если не указан
func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Categories == "" {
		r.Categories = "[]"
	}
	return nil
}

// CategoryNames возвращает теги категорий рецепта как список
func (r *Recipe) CategoryNames() []string {
	return UnmarshalStringList(r.Categories)
}

// SetCategories сохраняет теги категорий в JSON-колонку
func (r *Recipe) SetCategories(list []string) {
	r.Categories = MarshalStringList(list)
}

// SubRecipe представляет этап приготовления (elaboración) со своим
// списком ингредиентов, инструкциями и фотографиями шагов
type SubRecipe struct {
	ID           string `json:"id" gorm:"type:uuid;primaryKey"`
	RecipeID     string `json:"recipe_id" gorm:"type:uuid;not null;index"`
	Name         string `json:"name" gorm:"type:varchar(255);not null"`
	Position     int    `json:"position" gorm:"not null;default:0"` // Порядок этапа внутри рецепта
	Instructions string `json:"instructions" gorm:"type:text"`
	Photos       string `json:"photos" gorm:"type:text;default:'[]'"` // JSON массив ссылок на фото

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Relations
	Ingredients []Ingredient `json:"ingredients" gorm:"foreignKey:SubRecipeID"`
}

// TableName указывает имя таблицы в БД
func (SubRecipe) TableName() string {
	return "sub_recipes"
}

// BeforeCreate hook для генерации UUID если не указан
func (sr *SubRecipe) BeforeCreate(tx *gorm.DB) error {
	if sr.ID == "" {
		sr.ID = uuid.New().String()
	}
	if sr.Photos == "" {
		sr.Photos = "[]"
	}
	return nil
}

// PhotoURLs возвращает фотографии этапа как список
func (sr *SubRecipe) PhotoURLs() []string {
	return UnmarshalStringList(sr.Photos)
}

// SetPhotos сохраняет список фотографий в JSON-колонку
func (sr *SubRecipe) SetPhotos(list []string) {
	sr.Photos = MarshalStringList(list)
}

// Ingredient представляет строку ингредиента внутри этапа приготовления.
// Quantity хранится строкой как введено (запятая или точка как разделитель).
// PricePerUnit, Cost, Allergens и Category — производные кэши, которые
// владеет движок синхронизации; при отсутствии товара в базе продуктов
// они сохраняют последние известные значения
type Ingredient struct {
	ID           string  `json:"id" gorm:"type:uuid;primaryKey"`
	SubRecipeID  string  `json:"sub_recipe_id" gorm:"type:uuid;not null;index"`
	Position     int     `json:"position" gorm:"not null;default:0"`
	Name         string  `json:"name" gorm:"type:varchar(255);not null"`
	Quantity     string  `json:"quantity" gorm:"type:varchar(50)"` // Десятичная строка, "1,5" или "1.5"
	Unit         string  `json:"unit" gorm:"type:varchar(20)"`     // Единица рецепта, может отличаться от единицы товара
	PricePerUnit float64 `json:"price_per_unit" gorm:"type:decimal(12,6);default:0"`
	Cost         float64 `json:"cost" gorm:"type:decimal(12,4);default:0"`
	Allergens    string  `json:"allergens" gorm:"type:text;default:'[]'"`
	Category     string  `json:"category" gorm:"type:varchar(100)"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName указывает имя таблицы в БД
func (Ingredient) TableName() string {
	return "ingredients"
}

// BeforeCreate hook для генерации UUID если не указан
func (i *Ingredient) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	if i.Allergens == "" {
		i.Allergens = "[]"
	}
	return nil
}

// AllergenNames возвращает кэшированные аллергены ингредиента как список
func (i *Ingredient) AllergenNames() []string {
	return UnmarshalStringList(i.Allergens)
}

// SetAllergens сохраняет список аллергенов в JSON-колонку
func (i *Ingredient) SetAllergens(list []string) {
	i.Allergens = MarshalStringList(list)
}

// AutoMigrate выполняет миграции всех таблиц сервера
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Product{},
		&Recipe{},
		&SubRecipe{},
		&Ingredient{},
		&MenuPlan{},
	)
}
