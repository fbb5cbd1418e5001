package services

import (
	"math"
	"strconv"
	"strings"
)

// ParseQuantity разбирает количество из строки с запятой или точкой в роли
// десятичного разделителя. Пустая или нечитаемая строка дает 0 — это
// определенный fallback, не ошибка.
func ParseQuantity(value string) float64 {
	qty, ok := ParseQuantityStrict(value)
	if !ok {
		return 0
	}
	return qty
}

// ParseQuantityStrict разбирает количество и сообщает, удалось ли это.
// Движок синхронизации по ok=false оставляет ингредиент нетронутым,
// не записывая стоимость по сломанному вводу.
func ParseQuantityStrict(value string) (float64, bool) {
	normalized := strings.TrimSpace(strings.Replace(value, ",", ".", 1))
	if normalized == "" {
		return 0, false
	}
	qty, err := strconv.ParseFloat(normalized, 64)
	if err != nil || math.IsNaN(qty) {
		return 0, false
	}
	return qty, true
}

// FormatQuantity форматирует количество для отображения и печатных фиш:
// целые значения без дробной части, |v| < 1 с тремя знаками, иначе с двумя;
// десятичный разделитель — запятая. NaN и бесконечности дают пустую строку.
// Round-trip через ParseQuantity не обязан быть точным: это намеренное
// display-округление.
func FormatQuantity(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return ""
	}
	var str string
	if value == math.Trunc(value) {
		str = strconv.FormatFloat(value, 'f', -1, 64)
	} else if math.Abs(value) < 1 {
		str = strconv.FormatFloat(value, 'f', 3, 64)
	} else {
		str = strconv.FormatFloat(value, 'f', 2, 64)
	}
	return strings.Replace(str, ".", ",", 1)
}

// ScaleQuantity масштабирует отображаемое количество на коэффициент
// pax/базовый выход. Нечитаемая строка возвращается как есть — фиша
// печатается с исходным текстом вместо пустой ячейки.
func ScaleQuantity(value string, ratio float64) string {
	qty, ok := ParseQuantityStrict(value)
	if !ok {
		return value
	}
	return FormatQuantity(qty * ratio)
}
