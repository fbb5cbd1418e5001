package services

import (
	"encoding/json"
	"fmt"

	"escandallo/server/internal/models"
)

// Имя этапа, в который заворачиваются плоские ингредиенты старых экспортов
const LegacyMainSubRecipeName = "Elaboración Principal"

// Тип сервиса по умолчанию для рецептов без блока подачи
const DefaultServiceType = "Servicio a la Americana"

// flexibleString принимает и строку, и число: старые экспорты хранили
// количество числом, новые — строкой с запятой
type flexibleString string

func (fs *flexibleString) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*fs = flexibleString(asString)
		return nil
	}
	var asNumber json.Number
	if err := json.Unmarshal(data, &asNumber); err == nil {
		*fs = flexibleString(asNumber.String())
		return nil
	}
	return fmt.Errorf("нечитаемое значение количества: %s", string(data))
}

// stringOrList принимает и скаляр, и список: category старых рецептов
// была одной строкой
type stringOrList []string

func (sl *stringOrList) UnmarshalJSON(data []byte) error {
	var asList []string
	if err := json.Unmarshal(data, &asList); err == nil {
		*sl = asList
		return nil
	}
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		if asString == "" {
			*sl = []string{}
		} else {
			*sl = []string{asString}
		}
		return nil
	}
	return fmt.Errorf("нечитаемый список категорий: %s", string(data))
}

// Payload-структуры повторяют camelCase формат браузерных экспортов
type ingredientPayload struct {
	Name         string         `json:"name"`
	Quantity     flexibleString `json:"quantity"`
	Unit         string         `json:"unit"`
	PricePerUnit float64        `json:"pricePerUnit"`
	Cost         float64        `json:"cost"`
	Allergens    []string       `json:"allergens"`
	Category     string         `json:"category"`
}

type subRecipePayload struct {
	Name         string              `json:"name"`
	Ingredients  []ingredientPayload `json:"ingredients"`
	Instructions string              `json:"instructions"`
	Photos       []string            `json:"photos"`
	Photo        *string             `json:"photo"` // Старый формат: одно фото вместо списка
}

type serviceDetailsPayload struct {
	Presentation      string `json:"presentation"`
	ServingTemp       string `json:"servingTemp"`
	Cutlery           string `json:"cutlery"`
	PassTime          string `json:"passTime"`
	ServiceType       string `json:"serviceType"`
	ClientDescription string `json:"clientDescription"`
}

type recipePayload struct {
	ID                  string                 `json:"id"`
	Name                string                 `json:"name"`
	Category            stringOrList           `json:"category"`
	Creator             string                 `json:"creator"`
	YieldQuantity       float64                `json:"yieldQuantity"`
	YieldUnit           string                 `json:"yieldUnit"`
	TotalCost           float64                `json:"totalCost"`
	Photo               string                 `json:"photo"`
	PlatingInstructions string                 `json:"platingInstructions"`
	SubRecipes          []subRecipePayload     `json:"subRecipes"`
	ServiceDetails      *serviceDetailsPayload `json:"serviceDetails"`

	// Поля совсем старых версий: плоские ингредиенты без этапов
	Ingredients  []ingredientPayload `json:"ingredients"`
	Instructions string              `json:"instructions"`
}

// MigrateRecipePayload разбирает браузерный экспорт рецепта любой исторической
// версии и приводит его к текущей модели:
//   - плоские ингредиенты заворачиваются в этап "Elaboración Principal";
//   - одиночное photo этапа становится списком photos;
//   - скалярная category становится списком;
//   - отсутствующий блок подачи получает тип "Servicio a la Americana";
//   - пустой creator заполняется именем преподавателя из настроек
func MigrateRecipePayload(data []byte, defaultCreator string) (*models.Recipe, error) {
	var payload recipePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("нечитаемый экспорт рецепта: %w", err)
	}
	if payload.Name == "" {
		return nil, fmt.Errorf("экспорт рецепта без названия")
	}

	recipe := &models.Recipe{
		Name:                payload.Name,
		Creator:             payload.Creator,
		YieldQuantity:       payload.YieldQuantity,
		YieldUnit:           payload.YieldUnit,
		TotalCost:           payload.TotalCost,
		Photo:               payload.Photo,
		PlatingInstructions: payload.PlatingInstructions,
	}
	recipe.SetCategories(payload.Category)

	if recipe.Creator == "" {
		recipe.Creator = defaultCreator
	}
	if recipe.YieldQuantity <= 0 {
		recipe.YieldQuantity = 1
	}
	if recipe.YieldUnit == "" {
		recipe.YieldUnit = "pax"
	}

	if payload.ServiceDetails != nil {
		recipe.Presentation = payload.ServiceDetails.Presentation
		recipe.ServingTemp = payload.ServiceDetails.ServingTemp
		recipe.Cutlery = payload.ServiceDetails.Cutlery
		recipe.PassTime = payload.ServiceDetails.PassTime
		recipe.ServiceType = payload.ServiceDetails.ServiceType
		recipe.ClientDescription = payload.ServiceDetails.ClientDescription
	}
	if recipe.ServiceType == "" {
		recipe.ServiceType = DefaultServiceType
	}

	subRecipes := payload.SubRecipes
	if len(subRecipes) == 0 {
		// Совсем старый формат: один неявный этап
		legacyPhotos := []string{}
		if payload.Photo != "" {
			legacyPhotos = append(legacyPhotos, payload.Photo)
		}
		subRecipes = []subRecipePayload{{
			Name:         LegacyMainSubRecipeName,
			Ingredients:  payload.Ingredients,
			Instructions: payload.Instructions,
			Photos:       legacyPhotos,
		}}
	}

	for si, sub := range subRecipes {
		photos := sub.Photos
		if photos == nil {
			photos = []string{}
			if sub.Photo != nil && *sub.Photo != "" {
				photos = append(photos, *sub.Photo)
			}
		}

		subRecipe := models.SubRecipe{
			Name:         sub.Name,
			Position:     si,
			Instructions: sub.Instructions,
		}
		subRecipe.SetPhotos(photos)

		for ii, ing := range sub.Ingredients {
			ingredient := models.Ingredient{
				Position:     ii,
				Name:         ing.Name,
				Quantity:     string(ing.Quantity),
				Unit:         ing.Unit,
				PricePerUnit: ing.PricePerUnit,
				Cost:         ing.Cost,
				Category:     ing.Category,
			}
			ingredient.SetAllergens(ing.Allergens)
			subRecipe.Ingredients = append(subRecipe.Ingredients, ingredient)
		}

		recipe.SubRecipes = append(recipe.SubRecipes, subRecipe)
	}

	return recipe, nil
}

// MigrateRecipePayloads разбирает массив экспортированных рецептов.
// Ошибки отдельных рецептов собираются, валидные рецепты импортируются
func MigrateRecipePayloads(data []byte, defaultCreator string) ([]*models.Recipe, []error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, []error{fmt.Errorf("нечитаемый экспорт: ожидался массив рецептов: %w", err)}
	}

	var recipes []*models.Recipe
	var errs []error
	for i, item := range raw {
		recipe, err := MigrateRecipePayload(item, defaultCreator)
		if err != nil {
			errs = append(errs, fmt.Errorf("рецепт #%d: %w", i+1, err))
			continue
		}
		recipes = append(recipes, recipe)
	}
	return recipes, errs
}
