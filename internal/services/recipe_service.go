package services

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"escandallo/server/internal/models"
	"escandallo/server/internal/utils"
)

// RecipeService управляет фишами técnicas: рецептами с этапами
// приготовления и ингредиентами
type RecipeService struct {
	db        *gorm.DB
	redisUtil *utils.RedisClient
}

// NewRecipeService создает новый сервис рецептов
func NewRecipeService(db *gorm.DB, redisUtil *utils.RedisClient) *RecipeService {
	return &RecipeService{
		db:        db,
		redisUtil: redisUtil,
	}
}

// GetRecipes возвращает все рецепты с этапами и ингредиентами
func (s *RecipeService) GetRecipes() ([]models.Recipe, error) {
	var recipes []models.Recipe
	if err := s.db.
		Preload("SubRecipes", func(db *gorm.DB) *gorm.DB {
			return db.Order("sub_recipes.position ASC")
		}).
		Preload("SubRecipes.Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("ingredients.position ASC")
		}).
		Order("created_at DESC").
		Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("ошибка получения рецептов: %w", err)
	}
	return recipes, nil
}

// GetRecipe возвращает рецепт по id с этапами и ингредиентами
func (s *RecipeService) GetRecipe(recipeID string) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.
		Preload("SubRecipes", func(db *gorm.DB) *gorm.DB {
			return db.Order("sub_recipes.position ASC")
		}).
		Preload("SubRecipes.Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("ingredients.position ASC")
		}).
		First(&recipe, "id = ?", recipeID).Error; err != nil {
		return nil, fmt.Errorf("рецепт не найден: %w", err)
	}
	return &recipe, nil
}

// CreateRecipe создает рецепт вместе с этапами и ингредиентами.
// Использует Omit чтобы предотвратить двойное сохранение ассоциаций:
// этапы и ингредиенты создаются вручную с позициями
func (s *RecipeService) CreateRecipe(recipe *models.Recipe) error {
	if recipe.Name == "" {
		return fmt.Errorf("название рецепта обязательно")
	}
	recomputeRecipeCosts(recipe)

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Omit("SubRecipes").Create(recipe).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("ошибка создания рецепта: %w", err)
	}

	if err := createSubRecipes(tx, recipe.ID, recipe.SubRecipes); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	log.Printf("✅ Создан рецепт: %s (ID: %s)", recipe.Name, recipe.ID)
	s.notifyRecipesChanged(recipe.ID)
	return nil
}

// UpdateRecipe обновляет рецепт целиком: скалярные поля обновляются,
// этапы и ингредиенты удаляются и создаются заново
func (s *RecipeService) UpdateRecipe(recipeID string, recipe *models.Recipe) error {
	recomputeRecipeCosts(recipe)

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// Проверяем существование рецепта
	var existingRecipe models.Recipe
	if err := tx.First(&existingRecipe, "id = ?", recipeID).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("рецепт не найден: %w", err)
	}

	recipe.ID = recipeID
	updates := map[string]interface{}{
		"name":                 recipe.Name,
		"categories":           recipe.Categories,
		"creator":              recipe.Creator,
		"yield_quantity":       recipe.YieldQuantity,
		"yield_unit":           recipe.YieldUnit,
		"total_cost":           recipe.TotalCost,
		"photo":                recipe.Photo,
		"plating_instructions": recipe.PlatingInstructions,
		"presentation":         recipe.Presentation,
		"serving_temp":         recipe.ServingTemp,
		"cutlery":              recipe.Cutlery,
		"pass_time":            recipe.PassTime,
		"service_type":         recipe.ServiceType,
		"client_description":   recipe.ClientDescription,
	}
	if err := tx.Model(&existingRecipe).Updates(updates).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("ошибка обновления рецепта: %w", err)
	}

	// Удаляем старые ингредиенты и этапы
	if err := tx.Where("sub_recipe_id IN (?)",
		tx.Model(&models.SubRecipe{}).Select("id").Where("recipe_id = ?", recipeID),
	).Delete(&models.Ingredient{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("ошибка удаления старых ингредиентов: %w", err)
	}
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.SubRecipe{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("ошибка удаления старых этапов: %w", err)
	}

	// Создаем новые этапы с ингредиентами
	if err := createSubRecipes(tx, recipeID, recipe.SubRecipes); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	log.Printf("✅ Обновлен рецепт: %s (ID: %s)", recipe.Name, recipeID)
	s.notifyRecipesChanged(recipeID)
	return nil
}

// DeleteRecipe удаляет рецепт (soft delete)
func (s *RecipeService) DeleteRecipe(recipeID string) error {
	result := s.db.Delete(&models.Recipe{}, "id = ?", recipeID)
	if result.Error != nil {
		return fmt.Errorf("ошибка удаления рецепта: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("рецепт не найден")
	}

	log.Printf("✅ Удален рецепт (ID: %s)", recipeID)
	s.notifyRecipesChanged(recipeID)
	return nil
}

// createSubRecipes создает этапы и их ингредиенты с последовательными позициями
func createSubRecipes(tx *gorm.DB, recipeID string, subRecipes []models.SubRecipe) error {
	for si := range subRecipes {
		subRecipe := &subRecipes[si]
		subRecipe.ID = "" // Сбрасываем ID для создания нового
		subRecipe.RecipeID = recipeID
		subRecipe.Position = si

		ingredients := subRecipe.Ingredients
		if err := tx.Omit("Ingredients").Create(subRecipe).Error; err != nil {
			return fmt.Errorf("ошибка создания этапа #%d: %w", si+1, err)
		}

		for ii := range ingredients {
			ingredient := &ingredients[ii]
			ingredient.ID = ""
			ingredient.SubRecipeID = subRecipe.ID
			ingredient.Position = ii
			if err := tx.Create(ingredient).Error; err != nil {
				return fmt.Errorf("ошибка создания ингредиента #%d этапа #%d: %w", ii+1, si+1, err)
			}
		}
		subRecipe.Ingredients = ingredients
	}
	return nil
}

// recomputeRecipeCosts пересчитывает стоимости ингредиентов и рецепта из
// кэшированных цен. Нечитаемое количество оставляет стоимость как есть
func recomputeRecipeCosts(recipe *models.Recipe) {
	for si := range recipe.SubRecipes {
		for ii := range recipe.SubRecipes[si].Ingredients {
			ingredient := &recipe.SubRecipes[si].Ingredients[ii]
			if qty, ok := ParseQuantityStrict(ingredient.Quantity); ok {
				ingredient.Cost = qty * ingredient.PricePerUnit
			}
		}
	}
	recipe.TotalCost = RecipeTotalCost(recipe)
}

// notifyRecipesChanged публикует событие изменения рецепта
func (s *RecipeService) notifyRecipesChanged(recipeID string) {
	if s.redisUtil == nil {
		return
	}
	if err := s.redisUtil.PublishJSON("recipes:update", map[string]interface{}{
		"changed_recipes": []string{recipeID},
	}); err != nil {
		log.Printf("⚠️ Не удалось опубликовать recipes:update: %v", err)
	}
}
