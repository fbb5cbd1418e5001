package services

import (
	"testing"

	"escandallo/server/internal/models"
)

func TestComputeMenuEconomics(t *testing.T) {
	recipes := []models.Recipe{
		{ID: "r1", Name: "Crema", TotalCost: 25, YieldQuantity: 2},
		{ID: "r2", Name: "Asado", TotalCost: 40, YieldQuantity: 4},
	}

	economics := ComputeMenuEconomics(recipes, 10)

	if economics.Pax != 10 {
		t.Fatalf("Pax = %d, ожидалось 10", economics.Pax)
	}
	// Crema: 25/2 = 12.5 за порцию, вклад 125
	if !almostEqual(economics.Recipes[0].CostPerPax, 12.5) {
		t.Errorf("CostPerPax Crema = %v, ожидалось 12.5", economics.Recipes[0].CostPerPax)
	}
	if !almostEqual(economics.Recipes[0].Contribution, 125) {
		t.Errorf("Contribution Crema = %v, ожидалось 125", economics.Recipes[0].Contribution)
	}
	// Asado: 40/4 = 10 за порцию, вклад 100
	if !almostEqual(economics.TotalCost, 225) {
		t.Errorf("TotalCost = %v, ожидалось 225", economics.TotalCost)
	}
	if !almostEqual(economics.CostPerPax, 22.5) {
		t.Errorf("CostPerPax = %v, ожидалось 22.5", economics.CostPerPax)
	}
}

func TestComputeMenuEconomicsZeroYield(t *testing.T) {
	// Нулевой выход трактуется как 1, деления на ноль нет
	recipes := []models.Recipe{
		{ID: "r1", Name: "Pan", TotalCost: 3, YieldQuantity: 0},
	}
	economics := ComputeMenuEconomics(recipes, 5)
	if !almostEqual(economics.Recipes[0].CostPerPax, 3) {
		t.Errorf("CostPerPax = %v, ожидалось 3", economics.Recipes[0].CostPerPax)
	}
	if !almostEqual(economics.TotalCost, 15) {
		t.Errorf("TotalCost = %v, ожидалось 15", economics.TotalCost)
	}
}

func TestComputeMenuEconomicsEmpty(t *testing.T) {
	economics := ComputeMenuEconomics(nil, 10)
	if economics.TotalCost != 0 || economics.CostPerPax != 0 {
		t.Errorf("пустое меню должно давать нули: total=%v perPax=%v", economics.TotalCost, economics.CostPerPax)
	}
	if len(economics.Recipes) != 0 {
		t.Errorf("пустое меню не должно содержать рецептов")
	}
}

func ingredientWith(name, qty, unit string, pricePerUnit float64) models.Ingredient {
	return models.Ingredient{Name: name, Quantity: qty, Unit: unit, PricePerUnit: pricePerUnit, Allergens: "[]"}
}

func productWith(name, family string) models.Product {
	return models.Product{Name: name, Unit: "kg", Category: family, Allergens: "[]"}
}

func TestBuildPurchaseOrderAggregation(t *testing.T) {
	salsa := models.Recipe{
		ID: "r1", Name: "Salsa", YieldQuantity: 10,
		SubRecipes: []models.SubRecipe{{
			Ingredients: []models.Ingredient{
				ingredientWith("Tomate", "2", "kg", 1.5),
			},
		}},
	}
	ensalada := models.Recipe{
		ID: "r2", Name: "Ensalada", YieldQuantity: 10,
		SubRecipes: []models.SubRecipe{{
			Ingredients: []models.Ingredient{
				ingredientWith("TOMATE", "3", "kg", 1.5),
			},
		}},
	}
	products := []models.Product{productWith("Tomate", "VERDURAS")}

	order := BuildPurchaseOrder([]models.Recipe{salsa, ensalada}, products, 20)

	if len(order.Families) != 1 || order.Families[0].Family != "VERDURAS" {
		t.Fatalf("ожидалось одно семейство VERDURAS, получили %+v", order.Families)
	}
	lines := order.Families[0].Lines
	if len(lines) != 1 {
		t.Fatalf("томаты должны агрегироваться в одну строку, получили %d", len(lines))
	}
	// (2 + 3) * 20/10 = 10
	if !almostEqual(lines[0].Quantity, 10) {
		t.Errorf("Quantity = %v, ожидалось 10", lines[0].Quantity)
	}
	// Стоимость — сумма масштабированных вкладов: 1.5*4 + 1.5*6 = 15
	if !almostEqual(lines[0].Cost, 15) {
		t.Errorf("Cost = %v, ожидалось 15", lines[0].Cost)
	}
	if lines[0].Name != "Tomate" {
		t.Errorf("имя строки берется из первого вхождения, получили %q", lines[0].Name)
	}
}

func TestBuildPurchaseOrderUnmatchedFamily(t *testing.T) {
	recipe := models.Recipe{
		ID: "r1", YieldQuantity: 1,
		SubRecipes: []models.SubRecipe{{
			Ingredients: []models.Ingredient{
				ingredientWith("Flor de sal", "10", "g", 0),
			},
		}},
	}

	order := BuildPurchaseOrder([]models.Recipe{recipe}, nil, 1)
	if len(order.Families) != 1 || order.Families[0].Family != models.UnmatchedFamily {
		t.Fatalf("ингредиент без товара должен попасть в OTROS, получили %+v", order.Families)
	}
}

func TestBuildPurchaseOrderStaleCachedCategory(t *testing.T) {
	// Товар удален из базы: кэшированное семейство ингредиента игнорируется
	ingredient := ingredientWith("Lechuga", "1", "kg", 0.7)
	ingredient.Category = "VERDURAS"
	recipe := models.Recipe{
		ID: "r1", YieldQuantity: 1,
		SubRecipes: []models.SubRecipe{{
			Ingredients: []models.Ingredient{ingredient},
		}},
	}

	order := BuildPurchaseOrder([]models.Recipe{recipe}, nil, 1)
	if len(order.Families) != 1 || order.Families[0].Family != models.UnmatchedFamily {
		t.Fatalf("семейство решается по базе продуктов, не по кэшу: %+v", order.Families)
	}
}

func TestBuildPurchaseOrderNoUnitHarmonization(t *testing.T) {
	recipe := models.Recipe{
		ID: "r1", YieldQuantity: 1,
		SubRecipes: []models.SubRecipe{{
			Ingredients: []models.Ingredient{
				ingredientWith("Leche", "1", "l", 0),
				ingredientWith("Leche", "500", "ml", 0),
			},
		}},
	}
	products := []models.Product{productWith("Leche", "LÁCTEOS")}

	order := BuildPurchaseOrder([]models.Recipe{recipe}, products, 1)
	lines := order.Families[0].Lines
	if len(lines) != 1 {
		t.Fatalf("строки должны агрегироваться по имени, получили %d", len(lines))
	}
	// Единицы не гармонизируются: 1 + 500 = 501, единица первого вхождения
	if !almostEqual(lines[0].Quantity, 501) {
		t.Errorf("Quantity = %v, ожидалось 501", lines[0].Quantity)
	}
	if lines[0].Unit != "l" {
		t.Errorf("Unit = %q, ожидалась единица первого вхождения l", lines[0].Unit)
	}
}

func TestBuildPurchaseOrderFamilyOrder(t *testing.T) {
	recipe := models.Recipe{
		ID: "r1", YieldQuantity: 1,
		SubRecipes: []models.SubRecipe{{
			Ingredients: []models.Ingredient{
				ingredientWith("Chuleta", "1", "kg", 0),
				ingredientWith("Lechuga", "1", "kg", 0),
				ingredientWith("Hielo seco", "1", "kg", 0),
			},
		}},
	}
	products := []models.Product{
		productWith("Chuleta", "CARNES"),
		productWith("Lechuga", "VERDURAS"),
	}

	order := BuildPurchaseOrder([]models.Recipe{recipe}, products, 1)
	want := []string{"CARNES", "OTROS", "VERDURAS"}
	if len(order.Families) != len(want) {
		t.Fatalf("ожидалось %d семейств, получили %d", len(want), len(order.Families))
	}
	for i, family := range want {
		if order.Families[i].Family != family {
			t.Errorf("семейство #%d = %q, ожидалось %q (алфавитный порядок)", i, order.Families[i].Family, family)
		}
	}
}

func TestBuildAllergenMatrix(t *testing.T) {
	withGluten := models.Ingredient{Name: "Harina", Allergens: `["Gluten"]`}
	withMilk := models.Ingredient{Name: "Leche", Allergens: `["Lácteos"]`}
	clean := models.Ingredient{Name: "Tomate", Allergens: "[]"}

	recipe := models.Recipe{
		ID: "r1", Name: "Bechamel",
		SubRecipes: []models.SubRecipe{
			{Ingredients: []models.Ingredient{withGluten, clean}},
			{Ingredients: []models.Ingredient{withMilk}},
		},
	}

	matrix := BuildAllergenMatrix([]models.Recipe{recipe})

	if len(matrix.Allergens) != 14 {
		t.Fatalf("матрица должна содержать 14 аллергенов, получили %d", len(matrix.Allergens))
	}
	if len(matrix.Rows) != 1 {
		t.Fatalf("ожидалась одна строка, получили %d", len(matrix.Rows))
	}

	flags := matrix.Rows[0].Flags
	trueCount := 0
	for i, allergen := range matrix.Allergens {
		if flags[i] {
			trueCount++
			if allergen != "Gluten" && allergen != "Lácteos" {
				t.Errorf("лишний аллерген %q помечен", allergen)
			}
		}
	}
	if trueCount != 2 {
		t.Errorf("помечено %d аллергенов, ожидалось 2", trueCount)
	}
}

func TestBuildAllergenMatrixColumnOrder(t *testing.T) {
	matrix := BuildAllergenMatrix(nil)
	for i, allergen := range models.AllergenList {
		if matrix.Allergens[i] != allergen {
			t.Fatalf("порядок колонок должен совпадать со словарем аллергенов")
		}
	}
}
