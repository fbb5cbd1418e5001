package services

import (
	"math"
	"reflect"
	"testing"

	"escandallo/server/internal/models"
)

func testRecipe(name string, ingredients ...models.Ingredient) models.Recipe {
	return models.Recipe{
		ID:   "recipe-" + name,
		Name: name,
		SubRecipes: []models.SubRecipe{
			{
				ID:          "sub-" + name,
				Name:        "Elaboración Principal",
				Ingredients: ingredients,
			},
		},
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSyncRecipesWithProducts(t *testing.T) {
	product := models.Product{
		ID:           "p1",
		Name:         "HARINA",
		Unit:         "kg",
		PricePerUnit: 1.2,
		Category:     "PANADERÍA",
	}
	product.SetAllergens([]string{"Gluten"})

	recipe := testRecipe("Masa",
		models.Ingredient{
			ID:       "i1",
			Name:     "Harina",
			Quantity: "500",
			Unit:     "g",
		},
	)

	result := SyncRecipesWithProducts([]models.Recipe{recipe}, []models.Product{product})

	if len(result.ChangedRecipes) != 1 || result.ChangedRecipes[0] != recipe.ID {
		t.Fatalf("ожидалось одно изменение %s, получили %v", recipe.ID, result.ChangedRecipes)
	}

	ing := result.Recipes[0].SubRecipes[0].Ingredients[0]
	// Цена пересчитана в единицу рецепта: 1.2 €/kg -> 0.0012 €/g
	if !almostEqual(ing.PricePerUnit, 0.0012) {
		t.Errorf("PricePerUnit = %v, ожидалось 0.0012", ing.PricePerUnit)
	}
	if !almostEqual(ing.Cost, 0.6) {
		t.Errorf("Cost = %v, ожидалось 0.6", ing.Cost)
	}
	if !reflect.DeepEqual(ing.AllergenNames(), []string{"Gluten"}) {
		t.Errorf("Allergens = %v, ожидалось [Gluten]", ing.AllergenNames())
	}
	if ing.Category != "PANADERÍA" {
		t.Errorf("Category = %q, ожидалось PANADERÍA", ing.Category)
	}
	if !almostEqual(result.Recipes[0].TotalCost, 0.6) {
		t.Errorf("TotalCost = %v, ожидалось 0.6", result.Recipes[0].TotalCost)
	}
}

func TestSyncIdempotent(t *testing.T) {
	product := models.Product{ID: "p1", Name: "Tomate", Unit: "kg", PricePerUnit: 2.5, Category: "VERDURAS", Allergens: "[]"}
	recipe := testRecipe("Salsa",
		models.Ingredient{ID: "i1", Name: "TOMATE", Quantity: "1,5", Unit: "kg"},
	)

	first := SyncRecipesWithProducts([]models.Recipe{recipe}, []models.Product{product})
	if len(first.ChangedRecipes) != 1 {
		t.Fatalf("первый прогон должен изменить рецепт, получили %v", first.ChangedRecipes)
	}

	second := SyncRecipesWithProducts(first.Recipes, []models.Product{product})
	if len(second.ChangedRecipes) != 0 {
		t.Errorf("повторный прогон не должен давать изменений, получили %v", second.ChangedRecipes)
	}
	if !reflect.DeepEqual(first.Recipes, second.Recipes) {
		t.Errorf("повторный прогон изменил рецепты")
	}
}

func TestSyncSkipsUnmatchedIngredient(t *testing.T) {
	recipe := testRecipe("Sopa",
		models.Ingredient{
			ID:           "i1",
			Name:         "Azafrán",
			Quantity:     "1",
			Unit:         "g",
			PricePerUnit: 4.5,
			Cost:         4.5,
			Allergens:    "[]",
			Category:     "ESPECIAS",
		},
	)

	result := SyncRecipesWithProducts([]models.Recipe{recipe}, nil)
	if len(result.ChangedRecipes) != 0 {
		t.Fatalf("без совпадений изменений быть не должно, получили %v", result.ChangedRecipes)
	}

	// Последние известные кэшированные значения сохраняются
	ing := result.Recipes[0].SubRecipes[0].Ingredients[0]
	if ing.PricePerUnit != 4.5 || ing.Cost != 4.5 {
		t.Errorf("кэш ингредиента затронут: price=%v cost=%v", ing.PricePerUnit, ing.Cost)
	}
}

func TestSyncSkipsMalformedQuantity(t *testing.T) {
	product := models.Product{ID: "p1", Name: "Leche", Unit: "l", PricePerUnit: 0.9, Allergens: `["Lácteos"]`}
	recipe := testRecipe("Bechamel",
		models.Ingredient{ID: "i1", Name: "Leche", Quantity: "un chorrito", Unit: "ml", Cost: 1.0},
	)

	result := SyncRecipesWithProducts([]models.Recipe{recipe}, []models.Product{product})
	if len(result.ChangedRecipes) != 0 {
		t.Fatalf("нечитаемое количество не должно давать запись, получили %v", result.ChangedRecipes)
	}
	if result.Recipes[0].SubRecipes[0].Ingredients[0].Cost != 1.0 {
		t.Errorf("стоимость записана по сломанному вводу")
	}
}

func TestSyncDuplicateProductFirstWins(t *testing.T) {
	first := models.Product{ID: "p1", Name: "Huevos", Unit: "kg", PricePerUnit: 3.0, Allergens: `["Huevos"]`}
	second := models.Product{ID: "p2", Name: "HUEVOS", Unit: "kg", PricePerUnit: 99.0, Allergens: `["Huevos"]`}

	recipe := testRecipe("Tortilla",
		models.Ingredient{ID: "i1", Name: "huevos", Quantity: "0,2", Unit: "kg"},
	)

	result := SyncRecipesWithProducts([]models.Recipe{recipe}, []models.Product{first, second})
	ing := result.Recipes[0].SubRecipes[0].Ingredients[0]
	if !almostEqual(ing.PricePerUnit, 3.0) {
		t.Errorf("при дубликатах должен выигрывать первый товар: price=%v", ing.PricePerUnit)
	}
}

func TestSyncIgnoresCategoryOnlyDrift(t *testing.T) {
	product := models.Product{ID: "p1", Name: "Tomate", Unit: "kg", PricePerUnit: 2.5, Category: "VERDURAS", Allergens: "[]"}
	recipe := testRecipe("Salsa",
		models.Ingredient{
			ID:           "i1",
			Name:         "Tomate",
			Quantity:     "2",
			Unit:         "kg",
			PricePerUnit: 2.5,
			Cost:         5.0,
			Allergens:    "[]",
			Category:     "HORTALIZAS", // Устаревшее семейство при совпадающих цене и аллергенах
		},
	)

	result := SyncRecipesWithProducts([]models.Recipe{recipe}, []models.Product{product})
	if len(result.ChangedRecipes) != 0 {
		t.Fatalf("расхождение только в семействе не считается изменением, получили %v", result.ChangedRecipes)
	}
	if result.Recipes[0].SubRecipes[0].Ingredients[0].Category != "HORTALIZAS" {
		t.Errorf("семейство перезаписано без изменения цены или аллергенов")
	}
}

func TestSyncRecomputesTotalCostOnlyForChanged(t *testing.T) {
	product := models.Product{ID: "p1", Name: "Arroz", Unit: "kg", PricePerUnit: 1.1, Allergens: "[]"}

	changed := testRecipe("Paella",
		models.Ingredient{ID: "i1", Name: "Arroz", Quantity: "1", Unit: "kg"},
	)
	untouched := testRecipe("Gazpacho",
		models.Ingredient{ID: "i2", Name: "Pepino", Quantity: "1", Unit: "kg", Cost: 0.8},
	)
	untouched.TotalCost = 123 // Неверный кэш не трогается без изменений

	result := SyncRecipesWithProducts([]models.Recipe{changed, untouched}, []models.Product{product})

	if len(result.ChangedRecipes) != 1 || result.ChangedRecipes[0] != changed.ID {
		t.Fatalf("ожидалось изменение только %s, получили %v", changed.ID, result.ChangedRecipes)
	}
	if !almostEqual(result.Recipes[0].TotalCost, 1.1) {
		t.Errorf("TotalCost изменившегося рецепта = %v, ожидалось 1.1", result.Recipes[0].TotalCost)
	}
	if result.Recipes[1].TotalCost != 123 {
		t.Errorf("TotalCost нетронутого рецепта пересчитан: %v", result.Recipes[1].TotalCost)
	}
}

func TestRecipeTotalCost(t *testing.T) {
	recipe := models.Recipe{
		SubRecipes: []models.SubRecipe{
			{Ingredients: []models.Ingredient{{Cost: 1.5}, {Cost: 0.25}}},
			{Ingredients: []models.Ingredient{{Cost: 3}}},
		},
	}
	if got := RecipeTotalCost(&recipe); !almostEqual(got, 4.75) {
		t.Errorf("RecipeTotalCost = %v, ожидалось 4.75", got)
	}
}
