package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"escandallo/server/internal/config"
	"escandallo/server/internal/models"
	"escandallo/server/internal/services"
)

// RecipeController управляет API endpoints для рецептов
type RecipeController struct {
	recipeService *services.RecipeService
	syncService   *services.SyncService
	cfg           *config.Config
}

// NewRecipeController создает новый контроллер рецептов
func NewRecipeController(recipeService *services.RecipeService, syncService *services.SyncService, cfg *config.Config) *RecipeController {
	return &RecipeController{
		recipeService: recipeService,
		syncService:   syncService,
		cfg:           cfg,
	}
}

// GetRecipes возвращает список всех рецептов
// GET /api/v1/recipes
func (rc *RecipeController) GetRecipes(c *gin.Context) {
	recipes, err := rc.recipeService.GetRecipes()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ошибка получения рецептов",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recipes": recipes,
		"count":   len(recipes),
	})
}

// GetRecipe возвращает рецепт по ID
// GET /api/v1/recipes/:id
func (rc *RecipeController) GetRecipe(c *gin.Context) {
	recipeID := c.Param("id")
	if recipeID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "ID рецепта не указан",
		})
		return
	}

	recipe, err := rc.recipeService.GetRecipe(recipeID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Рецепт не найден",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, recipe)
}

// CreateRecipe создает новый рецепт
// POST /api/v1/recipes
func (rc *RecipeController) CreateRecipe(c *gin.Context) {
	var recipe models.Recipe
	if err := c.ShouldBindJSON(&recipe); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Неверные параметры запроса",
			"details": err.Error(),
		})
		return
	}

	if err := rc.recipeService.CreateRecipe(&recipe); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ошибка создания рецепта",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, recipe)
}

// UpdateRecipe обновляет существующий рецепт
// PUT /api/v1/recipes/:id
func (rc *RecipeController) UpdateRecipe(c *gin.Context) {
	recipeID := c.Param("id")
	if recipeID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "ID рецепта не указан",
		})
		return
	}

	var recipe models.Recipe
	if err := c.ShouldBindJSON(&recipe); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Неверные параметры запроса",
			"details": err.Error(),
		})
		return
	}

	if err := rc.recipeService.UpdateRecipe(recipeID, &recipe); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ошибка обновления рецепта",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, recipe)
}

// DeleteRecipe удаляет рецепт
// DELETE /api/v1/recipes/:id
func (rc *RecipeController) DeleteRecipe(c *gin.Context) {
	recipeID := c.Param("id")
	if recipeID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "ID рецепта не указан",
		})
		return
	}

	if err := rc.recipeService.DeleteRecipe(recipeID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Ошибка удаления рецепта",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Рецепт удален"})
}

// ImportRecipes импортирует браузерный экспорт рецептов (любой исторической
// версии формата)
// POST /api/v1/recipes/import
func (rc *RecipeController) ImportRecipes(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Не удалось прочитать тело запроса",
		})
		return
	}

	recipes, migrationErrs := services.MigrateRecipePayloads(data, rc.cfg.TeacherName)
	if len(recipes) == 0 {
		details := make([]string, 0, len(migrationErrs))
		for _, e := range migrationErrs {
			details = append(details, e.Error())
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Экспорт не содержит валидных рецептов",
			"details": details,
		})
		return
	}

	imported := 0
	importErrs := make([]string, 0)
	for _, e := range migrationErrs {
		importErrs = append(importErrs, e.Error())
	}
	for _, recipe := range recipes {
		if err := rc.recipeService.CreateRecipe(recipe); err != nil {
			importErrs = append(importErrs, err.Error())
			continue
		}
		imported++
	}

	c.JSON(http.StatusOK, gin.H{
		"imported": imported,
		"errors":   importErrs,
	})
}

// SyncRecipes вручную запускает синхронизацию рецептов с базой продуктов
// POST /api/v1/recipes/sync
func (rc *RecipeController) SyncRecipes(c *gin.Context) {
	changed, err := rc.syncService.SyncAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ошибка синхронизации",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"changed_recipes": changed,
		"changed_count":   len(changed),
	})
}
