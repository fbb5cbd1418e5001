package services

import "strings"

// Множители перевода объемных единиц в миллилитры.
// Неизвестная объемная единица считается миллилитрами (множитель 1).
var volumeToMl = map[string]float64{
	"l": 1000, "litro": 1000, "litros": 1000,
	"dl": 100, "decilitro": 100,
	"cl": 10, "centilitro": 10,
	"ml": 1, "mililitro": 1,
}

// ConvertUnit конвертирует количество между единицами измерения одного класса
// (масса или объем). Функция тотальна: совпадающие, пустые, неизвестные или
// несовместимые единицы дают исходное количество без ошибки — несводимая пара
// молча возвращает правдоподобное, но неконвертированное число. Это осознанное
// упрощение, не менять без новых требований.
func ConvertUnit(qty float64, fromUnit, toUnit string) float64 {
	f := strings.ToLower(strings.TrimSpace(fromUnit))
	t := strings.ToLower(strings.TrimSpace(toUnit))
	if f == t || f == "" || t == "" {
		return qty
	}

	// Масса: g/gramos <-> kg/kilogramos
	if isGramUnit(f) && isKiloUnit(t) {
		return qty / 1000
	}
	if isKiloUnit(f) && isGramUnit(t) {
		return qty * 1000
	}

	// Объем: через миллилитры как опорную единицу
	fMl, fromIsVolume := volumeToMl[f]
	tMl, toIsVolume := volumeToMl[t]
	if fromIsVolume && toIsVolume {
		return qty * fMl / tMl
	}

	// Разные классы или неизвестные единицы — возвращаем как есть
	return qty
}

func isGramUnit(u string) bool {
	return u == "g" || u == "gramos"
}

func isKiloUnit(u string) bool {
	return u == "kg" || u == "kilogramos"
}
