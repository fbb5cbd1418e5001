package services

import (
	"reflect"
	"testing"
)

func TestMigrateRecipePayloadCurrentFormat(t *testing.T) {
	data := []byte(`{
		"id": "abc",
		"name": "Crema de calabaza",
		"category": ["Cremas"],
		"creator": "Juan Codina Barranco",
		"yieldQuantity": 4,
		"yieldUnit": "pax",
		"totalCost": 3.2,
		"subRecipes": [{
			"name": "Base",
			"instructions": "Pochar y triturar",
			"photos": ["foto1.jpg"],
			"ingredients": [{
				"name": "Calabaza",
				"quantity": "1,5",
				"unit": "kg",
				"pricePerUnit": 0.9,
				"cost": 1.35,
				"allergens": [],
				"category": "VERDURAS"
			}]
		}],
		"serviceDetails": {
			"presentation": "Bol caliente",
			"serviceType": "Servicio a la Inglesa"
		}
	}`)

	recipe, err := MigrateRecipePayload(data, "fallback")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if recipe.Name != "Crema de calabaza" || recipe.Creator != "Juan Codina Barranco" {
		t.Errorf("шапка рецепта разобрана неверно: %+v", recipe)
	}
	if recipe.ServiceType != "Servicio a la Inglesa" {
		t.Errorf("ServiceType = %q, ожидался явный из экспорта", recipe.ServiceType)
	}
	if len(recipe.SubRecipes) != 1 || recipe.SubRecipes[0].Name != "Base" {
		t.Fatalf("этапы разобраны неверно: %+v", recipe.SubRecipes)
	}
	ing := recipe.SubRecipes[0].Ingredients[0]
	if ing.Quantity != "1,5" || ing.Unit != "kg" {
		t.Errorf("ингредиент разобран неверно: %+v", ing)
	}
}

func TestMigrateRecipePayloadFlatIngredients(t *testing.T) {
	// Совсем старый формат: плоские ингредиенты без этапов
	data := []byte(`{
		"name": "Tortilla",
		"category": "Huevos",
		"yieldQuantity": 2,
		"photo": "tortilla.jpg",
		"instructions": "Batir y cuajar",
		"ingredients": [
			{"name": "Huevos", "quantity": 4, "unit": "ud"},
			{"name": "Patata", "quantity": "0,5", "unit": "kg"}
		]
	}`)

	recipe, err := MigrateRecipePayload(data, "Profesora")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if len(recipe.SubRecipes) != 1 {
		t.Fatalf("плоские ингредиенты должны завернуться в один этап, получили %d", len(recipe.SubRecipes))
	}
	sub := recipe.SubRecipes[0]
	if sub.Name != LegacyMainSubRecipeName {
		t.Errorf("имя этапа = %q, ожидалось %q", sub.Name, LegacyMainSubRecipeName)
	}
	if sub.Instructions != "Batir y cuajar" {
		t.Errorf("инструкции не перенесены: %q", sub.Instructions)
	}
	if !reflect.DeepEqual(sub.PhotoURLs(), []string{"tortilla.jpg"}) {
		t.Errorf("фото рецепта должно стать фото этапа: %v", sub.PhotoURLs())
	}
	if len(sub.Ingredients) != 2 {
		t.Fatalf("ожидалось 2 ингредиента, получили %d", len(sub.Ingredients))
	}
	// Числовое количество старого формата становится строкой
	if sub.Ingredients[0].Quantity != "4" {
		t.Errorf("Quantity = %q, ожидалось 4", sub.Ingredients[0].Quantity)
	}

	// Скалярная категория становится списком
	if !reflect.DeepEqual(recipe.CategoryNames(), []string{"Huevos"}) {
		t.Errorf("категории = %v, ожидалось [Huevos]", recipe.CategoryNames())
	}
	// Пустой creator заполняется из настроек
	if recipe.Creator != "Profesora" {
		t.Errorf("Creator = %q, ожидалось имя преподавателя", recipe.Creator)
	}
	// Отсутствующий блок подачи получает тип по умолчанию
	if recipe.ServiceType != DefaultServiceType {
		t.Errorf("ServiceType = %q, ожидался %q", recipe.ServiceType, DefaultServiceType)
	}
}

func TestMigrateRecipePayloadLegacyPhoto(t *testing.T) {
	data := []byte(`{
		"name": "Bizcocho",
		"subRecipes": [{
			"name": "Masa",
			"photo": "masa.jpg",
			"ingredients": []
		}]
	}`)

	recipe, err := MigrateRecipePayload(data, "x")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if !reflect.DeepEqual(recipe.SubRecipes[0].PhotoURLs(), []string{"masa.jpg"}) {
		t.Errorf("одиночное photo должно стать списком: %v", recipe.SubRecipes[0].PhotoURLs())
	}
}

func TestMigrateRecipePayloadRejectsNameless(t *testing.T) {
	if _, err := MigrateRecipePayload([]byte(`{"yieldQuantity": 2}`), "x"); err == nil {
		t.Errorf("экспорт без названия должен отклоняться")
	}
}

func TestMigrateRecipePayloads(t *testing.T) {
	data := []byte(`[
		{"name": "Uno", "subRecipes": []},
		{"yieldQuantity": 1},
		{"name": "Dos", "subRecipes": []}
	]`)

	recipes, errs := MigrateRecipePayloads(data, "x")
	if len(recipes) != 2 {
		t.Errorf("ожидалось 2 валидных рецепта, получили %d", len(recipes))
	}
	if len(errs) != 1 {
		t.Errorf("ожидалась 1 ошибка, получили %d", len(errs))
	}
}

func TestMigrateRecipePayloadDefaults(t *testing.T) {
	recipe, err := MigrateRecipePayload([]byte(`{"name": "Simple"}`), "x")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if recipe.YieldQuantity != 1 || recipe.YieldUnit != "pax" {
		t.Errorf("выход по умолчанию = %v %q, ожидалось 1 pax", recipe.YieldQuantity, recipe.YieldUnit)
	}
}
