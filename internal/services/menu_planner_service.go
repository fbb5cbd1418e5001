package services

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"escandallo/server/internal/models"
	"escandallo/server/internal/utils"
)

// RecipeEconomics — вклад одного рецепта в экономику меню
type RecipeEconomics struct {
	RecipeID      string  `json:"recipe_id"`
	Name          string  `json:"name"`
	TotalCost     float64 `json:"total_cost"`     // Стоимость на базовый выход
	YieldQuantity float64 `json:"yield_quantity"` // Базовый выход (pax)
	CostPerPax    float64 `json:"cost_per_pax"`   // Стоимость одной порции
	Contribution  float64 `json:"contribution"`   // CostPerPax * pax меню
}

// MenuEconomics — экономика меню, масштабированная на число едоков
type MenuEconomics struct {
	Pax        int               `json:"pax"`
	TotalCost  float64           `json:"total_cost"`   // Сумма вкладов рецептов
	CostPerPax float64           `json:"cost_per_pax"` // Стоимость одного куверта
	Recipes    []RecipeEconomics `json:"recipes"`
}

// PurchaseOrderLine — агрегированная строка заказа на закупку
type PurchaseOrderLine struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"` // Единица первого вхождения, без гармонизации
	Cost     float64 `json:"cost"` // Сумма масштабированных вкладов вхождений
}

// PurchaseOrderFamily — семейство продуктов со строками заказа
type PurchaseOrderFamily struct {
	Family string              `json:"family"`
	Lines  []PurchaseOrderLine `json:"lines"`
}

// PurchaseOrder — заказ на закупку по всему меню
type PurchaseOrder struct {
	Pax      int                   `json:"pax"`
	Families []PurchaseOrderFamily `json:"families"`
}

// AllergenMatrixRow — строка матрицы аллергенов для одного рецепта.
// Flags выровнены по порядку Allergens матрицы
type AllergenMatrixRow struct {
	RecipeID   string `json:"recipe_id"`
	RecipeName string `json:"recipe_name"`
	Flags      []bool `json:"flags"`
}

// AllergenMatrix — матрица аллергенов меню: рецепты по строкам,
// 14 аллергенов ЕС по колонкам
type AllergenMatrix struct {
	Allergens []string            `json:"allergens"`
	Rows      []AllergenMatrixRow `json:"rows"`
}

// ComputeMenuEconomics считает экономику меню: стоимость порции каждого
// рецепта на его базовый выход и вклад рецепта при масштабировании на pax.
// Нулевой или отрицательный базовый выход трактуется как 1 — рецепт без
// выхода считается посчитанным на одну порцию
func ComputeMenuEconomics(recipes []models.Recipe, pax int) MenuEconomics {
	if pax <= 0 {
		pax = 1
	}

	economics := MenuEconomics{
		Pax:     pax,
		Recipes: make([]RecipeEconomics, 0, len(recipes)),
	}

	for _, recipe := range recipes {
		yield := recipe.YieldQuantity
		if yield <= 0 {
			yield = 1
		}
		costPerPax := recipe.TotalCost / yield
		contribution := costPerPax * float64(pax)

		economics.Recipes = append(economics.Recipes, RecipeEconomics{
			RecipeID:      recipe.ID,
			Name:          recipe.Name,
			TotalCost:     recipe.TotalCost,
			YieldQuantity: recipe.YieldQuantity,
			CostPerPax:    costPerPax,
			Contribution:  contribution,
		})

		economics.TotalCost += contribution
		economics.CostPerPax += costPerPax
	}

	return economics
}

// BuildPurchaseOrder агрегирует ингредиенты меню в заказ на закупку.
// Количества и стоимости масштабируются на pax/выход рецепта и суммируются
// по имени ингредиента без учета регистра. Единицы не гармонизируются:
// выигрывает единица первого вхождения, количества складываются как числа.
// Семейство берется из базы продуктов по точному совпадению имени,
// строка без совпадения попадает в "OTROS". Семейства выводятся
// в алфавитном порядке
func BuildPurchaseOrder(recipes []models.Recipe, products []models.Product, pax int) PurchaseOrder {
	if pax <= 0 {
		pax = 1
	}

	// Индекс товаров по имени в верхнем регистре, первый выигрывает
	productIndex := make(map[string]*models.Product, len(products))
	for i := range products {
		key := strings.ToUpper(strings.TrimSpace(products[i].Name))
		if _, exists := productIndex[key]; !exists {
			productIndex[key] = &products[i]
		}
	}

	index := make(map[string]*PurchaseOrderLine)
	// Порядок первого вхождения внутри семейства
	byFamily := make(map[string][]*PurchaseOrderLine)

	for _, recipe := range recipes {
		yield := recipe.YieldQuantity
		if yield <= 0 {
			yield = 1
		}
		ratio := float64(pax) / yield

		for _, subRecipe := range recipe.SubRecipes {
			for _, ingredient := range subRecipe.Ingredients {
				key := strings.ToUpper(strings.TrimSpace(ingredient.Name))
				if key == "" {
					continue
				}
				scaledQty := ParseQuantity(ingredient.Quantity) * ratio
				scaledCost := ingredient.PricePerUnit * scaledQty

				if existing, found := index[key]; found {
					existing.Quantity += scaledQty
					existing.Cost += scaledCost
					continue
				}

				family := models.UnmatchedFamily
				if product, matched := productIndex[key]; matched && strings.TrimSpace(product.Category) != "" {
					family = product.Category
				}
				line := &PurchaseOrderLine{
					Name:     ingredient.Name,
					Quantity: scaledQty,
					Unit:     ingredient.Unit,
					Cost:     scaledCost,
				}
				index[key] = line
				byFamily[family] = append(byFamily[family], line)
			}
		}
	}

	order := PurchaseOrder{Pax: pax, Families: []PurchaseOrderFamily{}}

	families := make([]string, 0, len(byFamily))
	for family := range byFamily {
		families = append(families, family)
	}
	sort.Strings(families)

	for _, family := range families {
		lines := byFamily[family]
		familyLines := make([]PurchaseOrderLine, len(lines))
		for i, line := range lines {
			familyLines[i] = *line
		}
		order.Families = append(order.Families, PurchaseOrderFamily{
			Family: family,
			Lines:  familyLines,
		})
	}

	return order
}

// BuildAllergenMatrix строит матрицу аллергенов меню. Рецепт помечается
// аллергеном, если его содержит хотя бы один ингредиент любого этапа
func BuildAllergenMatrix(recipes []models.Recipe) AllergenMatrix {
	matrix := AllergenMatrix{
		Allergens: models.AllergenList,
		Rows:      make([]AllergenMatrixRow, 0, len(recipes)),
	}

	for _, recipe := range recipes {
		present := make(map[string]bool)
		for _, subRecipe := range recipe.SubRecipes {
			for _, ingredient := range subRecipe.Ingredients {
				for _, allergen := range ingredient.AllergenNames() {
					present[allergen] = true
				}
			}
		}

		flags := make([]bool, len(models.AllergenList))
		for i, allergen := range models.AllergenList {
			flags[i] = present[allergen]
		}

		matrix.Rows = append(matrix.Rows, AllergenMatrixRow{
			RecipeID:   recipe.ID,
			RecipeName: recipe.Name,
			Flags:      flags,
		})
	}

	return matrix
}

// MenuPlannerService считает агрегаты по сохраненным меню с memoization
// в Redis. Кэш инвалидируется по событиям recipes:update и products:update
type MenuPlannerService struct {
	db        *gorm.DB
	redisUtil *utils.RedisClient
	cacheTTL  time.Duration
}

// NewMenuPlannerService создает новый сервис планировщика меню
func NewMenuPlannerService(db *gorm.DB, redisUtil *utils.RedisClient, cacheTTL time.Duration) *MenuPlannerService {
	return &MenuPlannerService{
		db:        db,
		redisUtil: redisUtil,
		cacheTTL:  cacheTTL,
	}
}

// ResolveRecipes загружает рецепты меню в порядке списка id.
// Висячие ссылки (удаленные рецепты) молча отфильтровываются
func (s *MenuPlannerService) ResolveRecipes(recipeIDs []string) ([]models.Recipe, error) {
	if len(recipeIDs) == 0 {
		return []models.Recipe{}, nil
	}

	var recipes []models.Recipe
	if err := s.db.
		Preload("SubRecipes", func(db *gorm.DB) *gorm.DB {
			return db.Order("sub_recipes.position ASC")
		}).
		Preload("SubRecipes.Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("ingredients.position ASC")
		}).
		Where("id IN ?", recipeIDs).
		Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("ошибка загрузки рецептов меню: %w", err)
	}

	byID := make(map[string]models.Recipe, len(recipes))
	for _, recipe := range recipes {
		byID[recipe.ID] = recipe
	}

	ordered := make([]models.Recipe, 0, len(recipeIDs))
	for _, id := range recipeIDs {
		if recipe, found := byID[id]; found {
			ordered = append(ordered, recipe)
		}
	}
	return ordered, nil
}

func (s *MenuPlannerService) loadMenu(menuID string) (*models.MenuPlan, []models.Recipe, error) {
	var menu models.MenuPlan
	if err := s.db.First(&menu, "id = ?", menuID).Error; err != nil {
		return nil, nil, fmt.Errorf("меню не найдено: %w", err)
	}
	recipes, err := s.ResolveRecipes(menu.RecipeIDList())
	if err != nil {
		return nil, nil, err
	}
	return &menu, recipes, nil
}

// effectivePax: явный override выигрывает у сохраненного в меню значения
func effectivePax(menu *models.MenuPlan, paxOverride int) int {
	if paxOverride > 0 {
		return paxOverride
	}
	if menu.Pax > 0 {
		return menu.Pax
	}
	return 1
}

// EconomicsForMenu считает экономику сохраненного меню
func (s *MenuPlannerService) EconomicsForMenu(menuID string, paxOverride int) (*MenuEconomics, error) {
	menu, recipes, err := s.loadMenu(menuID)
	if err != nil {
		return nil, err
	}
	pax := effectivePax(menu, paxOverride)

	cacheKey := fmt.Sprintf("planner:economics:%s:%d", menuID, pax)
	var cached MenuEconomics
	if s.cacheGet(cacheKey, &cached) {
		return &cached, nil
	}

	economics := ComputeMenuEconomics(recipes, pax)
	s.cacheSet(cacheKey, economics)
	return &economics, nil
}

// PurchaseOrderForMenu строит заказ на закупку по сохраненному меню
func (s *MenuPlannerService) PurchaseOrderForMenu(menuID string, paxOverride int) (*PurchaseOrder, error) {
	menu, recipes, err := s.loadMenu(menuID)
	if err != nil {
		return nil, err
	}
	pax := effectivePax(menu, paxOverride)

	cacheKey := fmt.Sprintf("planner:order:%s:%d", menuID, pax)
	var cached PurchaseOrder
	if s.cacheGet(cacheKey, &cached) {
		return &cached, nil
	}

	// Новейший товар выигрывает при дубликатах имен, как в синхронизации
	var products []models.Product
	if err := s.db.Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("ошибка загрузки товаров: %w", err)
	}

	order := BuildPurchaseOrder(recipes, products, pax)
	s.cacheSet(cacheKey, order)
	return &order, nil
}

// AllergenMatrixForMenu строит матрицу аллергенов сохраненного меню
func (s *MenuPlannerService) AllergenMatrixForMenu(menuID string) (*AllergenMatrix, error) {
	_, recipes, err := s.loadMenu(menuID)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("planner:allergens:%s", menuID)
	var cached AllergenMatrix
	if s.cacheGet(cacheKey, &cached) {
		return &cached, nil
	}

	matrix := BuildAllergenMatrix(recipes)
	s.cacheSet(cacheKey, matrix)
	return &matrix, nil
}

// InvalidateCache сбрасывает все memoized агрегаты планировщика
func (s *MenuPlannerService) InvalidateCache() {
	if s.redisUtil == nil {
		return
	}
	if err := s.redisUtil.DeleteByPattern("planner:*"); err != nil {
		log.Printf("⚠️ Не удалось сбросить кэш планировщика: %v", err)
	}
}

// StartInvalidationListener слушает recipes:update и products:update и
// сбрасывает кэш при каждом изменении. Запускается в отдельных горутинах
func (s *MenuPlannerService) StartInvalidationListener() {
	if s.redisUtil == nil {
		return
	}
	for _, channel := range []string{"recipes:update", "products:update"} {
		messages, closeFn := s.redisUtil.Subscribe(channel)
		go func() {
			defer closeFn()
			for range messages {
				s.InvalidateCache()
			}
		}()
	}
	log.Println("📡 Планировщик подписан на recipes:update и products:update")
}

func (s *MenuPlannerService) cacheGet(key string, dest interface{}) bool {
	if s.redisUtil == nil {
		return false
	}
	if err := s.redisUtil.GetJSON(key, dest); err != nil {
		return false
	}
	return true
}

func (s *MenuPlannerService) cacheSet(key string, value interface{}) {
	if s.redisUtil == nil {
		return
	}
	if err := s.redisUtil.Set(key, value, s.cacheTTL); err != nil {
		log.Printf("⚠️ Не удалось записать кэш %s: %v", key, err)
	}
}
