package models

import "encoding/json"

// Allergen — один из 14 аллергенов, декларируемых по регламенту ЕС 1169/2011.
// Названия хранятся на испанском, как в карточках и печатных фишах.
type Allergen = string

// AllergenList — фиксированный словарь аллергенов. Порядок определяет порядок
// колонок в матрице аллергенов и в Excel-выгрузке; не изменять.
var AllergenList = []Allergen{
	"Gluten",
	"Crustáceos",
	"Huevos",
	"Pescado",
	"Cacahuetes",
	"Soja",
	"Lácteos",
	"Frutos de cáscara",
	"Apio",
	"Mostaza",
	"Sésamo",
	"Sulfitos",
	"Altramuces",
	"Moluscos",
}

// DefaultProductFamilies — словарь семейств продуктов для валидации импорта
// прайс-листа. Неизвестное семейство попадает в "OTROS".
var DefaultProductFamilies = []string{
	"VERDURAS",
	"FRUTAS",
	"CARNES",
	"AVES",
	"PESCADOS",
	"MARISCOS",
	"LÁCTEOS",
	"PANADERÍA",
	"ESPECIAS",
	"CONSERVAS",
	"BEBIDAS",
	"CONGELADOS",
	"OTROS",
}

// UnmatchedFamily — семейство для ингредиентов без товара в базе продуктов
const UnmatchedFamily = "OTROS"

// MarshalStringList сериализует список строк в JSON-текст для хранения
// в текстовой колонке (nil и пустой список дают канонический "[]")
func MarshalStringList(list []string) string {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// UnmarshalStringList разбирает JSON-текст колонки в список строк.
// Пустая или невалидная колонка дает пустой список, не ошибку.
func UnmarshalStringList(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return []string{}
	}
	return list
}
