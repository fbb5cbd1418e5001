package services

import (
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"

	"escandallo/server/internal/models"
	"escandallo/server/internal/utils"
)

// SyncService синхронизирует кэшированные цены, стоимости и аллергены
// ингредиентов рецептов с базой продуктов. База продуктов — единственный
// источник истины; рецепты хранят только снимки
type SyncService struct {
	db        *gorm.DB
	redisUtil *utils.RedisClient
}

// NewSyncService создает новый сервис синхронизации
func NewSyncService(db *gorm.DB, redisUtil *utils.RedisClient) *SyncService {
	return &SyncService{
		db:        db,
		redisUtil: redisUtil,
	}
}

// SyncResult содержит итог прогона синхронизации
type SyncResult struct {
	Recipes        []models.Recipe `json:"recipes"`
	ChangedRecipes []string        `json:"changed_recipes"` // id рецептов с изменениями
}

// SyncRecipesWithProducts выполняет чистую синхронизацию рецептов с базой
// продуктов: сопоставляет ингредиенты по имени без учета регистра, пересчитывает
// цену за единицу рецепта и стоимость, копирует аллергены и семейство товара.
// Функция не трогает вход: изменившиеся рецепты возвращаются копиями,
// нетронутые — теми же значениями. Идемпотентна: повторный прогон по
// неизменной базе продуктов ничего не меняет.
//
// Правила:
//   - ингредиент без совпадения в базе продуктов сохраняет последние
//     известные кэшированные значения;
//   - при дубликатах имен товаров выигрывает первый в переданном списке;
//   - нечитаемое количество не дает записать стоимость по сломанному вводу;
//   - расхождение только в семействе изменением не считается;
//   - TotalCost пересчитывается только у изменившихся рецептов.
func SyncRecipesWithProducts(recipes []models.Recipe, products []models.Product) SyncResult {
	// Индекс товаров по имени в верхнем регистре, первый выигрывает
	productIndex := make(map[string]*models.Product, len(products))
	for i := range products {
		key := strings.ToUpper(strings.TrimSpace(products[i].Name))
		if _, exists := productIndex[key]; !exists {
			productIndex[key] = &products[i]
		}
	}

	result := SyncResult{
		Recipes:        make([]models.Recipe, len(recipes)),
		ChangedRecipes: []string{},
	}

	for ri, recipe := range recipes {
		recipeChanged := false
		updated := recipe
		updated.SubRecipes = make([]models.SubRecipe, len(recipe.SubRecipes))

		for si, subRecipe := range recipe.SubRecipes {
			updatedSub := subRecipe
			updatedSub.Ingredients = make([]models.Ingredient, len(subRecipe.Ingredients))

			for ii, ingredient := range subRecipe.Ingredients {
				updatedSub.Ingredients[ii] = ingredient

				product, found := productIndex[strings.ToUpper(strings.TrimSpace(ingredient.Name))]
				if !found {
					continue
				}

				// Цена товара пересчитывается в единицу рецепта через
				// коэффициент конверсии единичного количества
				factor := ConvertUnit(1, ingredient.Unit, product.Unit)
				newPrice := product.PricePerUnit * factor

				qty, ok := ParseQuantityStrict(ingredient.Quantity)
				if !ok {
					continue
				}
				newCost := qty * newPrice

				// Семейство не участвует в сравнении: оно копируется
				// попутно, когда меняются цена, стоимость или аллергены
				if ingredient.PricePerUnit != newPrice ||
					ingredient.Cost != newCost ||
					ingredient.Allergens != product.Allergens {
					updatedSub.Ingredients[ii].PricePerUnit = newPrice
					updatedSub.Ingredients[ii].Cost = newCost
					updatedSub.Ingredients[ii].Allergens = product.Allergens
					updatedSub.Ingredients[ii].Category = product.Category
					recipeChanged = true
				}
			}

			updated.SubRecipes[si] = updatedSub
		}

		if recipeChanged {
			updated.TotalCost = RecipeTotalCost(&updated)
			result.Recipes[ri] = updated
			result.ChangedRecipes = append(result.ChangedRecipes, recipe.ID)
		} else {
			result.Recipes[ri] = recipe
		}
	}

	return result
}

// RecipeTotalCost суммирует стоимости всех ингредиентов рецепта
func RecipeTotalCost(recipe *models.Recipe) float64 {
	total := 0.0
	for _, subRecipe := range recipe.SubRecipes {
		for _, ingredient := range subRecipe.Ingredients {
			total += ingredient.Cost
		}
	}
	return total
}

// SyncAll загружает все рецепты и товары, прогоняет синхронизацию и
// сохраняет изменившиеся кэши в одной транзакции. Возвращает id
// изменившихся рецептов
func (s *SyncService) SyncAll() ([]string, error) {
	var products []models.Product
	// Новейший товар выигрывает при дубликатах имен
	if err := s.db.Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("ошибка загрузки товаров: %w", err)
	}

	var recipes []models.Recipe
	if err := s.db.
		Preload("SubRecipes", func(db *gorm.DB) *gorm.DB {
			return db.Order("sub_recipes.position ASC")
		}).
		Preload("SubRecipes.Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("ingredients.position ASC")
		}).
		Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("ошибка загрузки рецептов: %w", err)
	}

	result := SyncRecipesWithProducts(recipes, products)
	if len(result.ChangedRecipes) == 0 {
		log.Printf("✅ Синхронизация: изменений нет (%d рецептов, %d товаров)", len(recipes), len(products))
		return result.ChangedRecipes, nil
	}

	changedSet := make(map[string]bool, len(result.ChangedRecipes))
	for _, id := range result.ChangedRecipes {
		changedSet[id] = true
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, recipe := range result.Recipes {
			if !changedSet[recipe.ID] {
				continue
			}
			if err := tx.Model(&models.Recipe{}).
				Where("id = ?", recipe.ID).
				Update("total_cost", recipe.TotalCost).Error; err != nil {
				return fmt.Errorf("ошибка обновления стоимости рецепта %s: %w", recipe.ID, err)
			}
			for _, subRecipe := range recipe.SubRecipes {
				for _, ingredient := range subRecipe.Ingredients {
					if err := tx.Model(&models.Ingredient{}).
						Where("id = ?", ingredient.ID).
						Updates(map[string]interface{}{
							"price_per_unit": ingredient.PricePerUnit,
							"cost":           ingredient.Cost,
							"allergens":      ingredient.Allergens,
							"category":       ingredient.Category,
						}).Error; err != nil {
						return fmt.Errorf("ошибка обновления ингредиента %s: %w", ingredient.ID, err)
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Синхронизация: обновлено %d рецептов", len(result.ChangedRecipes))
	s.notifyRecipesChanged(result.ChangedRecipes)

	return result.ChangedRecipes, nil
}

// notifyRecipesChanged публикует событие об изменении рецептов для
// открытых вкладок редактора и инвалидации кэшей планировщика
func (s *SyncService) notifyRecipesChanged(changedIDs []string) {
	if s.redisUtil == nil {
		return
	}
	if err := s.redisUtil.PublishJSON("recipes:update", map[string]interface{}{
		"changed_recipes": changedIDs,
	}); err != nil {
		log.Printf("⚠️ Не удалось опубликовать recipes:update: %v", err)
	}
}
