package services

import (
	"math"
	"testing"
)

func TestConvertUnitMass(t *testing.T) {
	tests := []struct {
		name string
		qty  float64
		from string
		to   string
		want float64
	}{
		{"граммы в килограммы", 500, "g", "kg", 0.5},
		{"килограммы в граммы", 1.5, "kg", "g", 1500},
		{"полные названия", 250, "gramos", "kilogramos", 0.25},
		{"регистр не важен", 500, "G", "KG", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConvertUnit(tt.qty, tt.from, tt.to)
			if got != tt.want {
				t.Errorf("ConvertUnit(%v, %q, %q) = %v, ожидалось %v", tt.qty, tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestConvertUnitVolume(t *testing.T) {
	tests := []struct {
		name string
		qty  float64
		from string
		to   string
		want float64
	}{
		{"литры в миллилитры", 2, "l", "ml", 2000},
		{"миллилитры в литры", 500, "ml", "l", 0.5},
		{"децилитры в сантилитры", 3, "dl", "cl", 30},
		{"сантилитры в миллилитры", 5, "cl", "ml", 50},
		{"полные названия", 1, "litro", "mililitro", 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConvertUnit(tt.qty, tt.from, tt.to)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ConvertUnit(%v, %q, %q) = %v, ожидалось %v", tt.qty, tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestConvertUnitFallback(t *testing.T) {
	tests := []struct {
		name string
		qty  float64
		from string
		to   string
	}{
		{"одинаковые единицы", 7, "kg", "kg"},
		{"пустая исходная", 7, "", "kg"},
		{"пустая целевая", 7, "kg", ""},
		{"несовместимые классы", 7, "kg", "l"},
		{"неизвестная единица", 7, "kg", "huevos"},
		{"обе неизвестные", 7, "manojo", "pieza"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Несводимая пара возвращает количество как есть
			got := ConvertUnit(tt.qty, tt.from, tt.to)
			if got != tt.qty {
				t.Errorf("ConvertUnit(%v, %q, %q) = %v, ожидалось исходное %v", tt.qty, tt.from, tt.to, got, tt.qty)
			}
		})
	}
}

func TestConvertUnitRoundTrip(t *testing.T) {
	pairs := [][2]string{
		{"g", "kg"},
		{"ml", "l"},
		{"cl", "dl"},
	}
	for _, pair := range pairs {
		qty := 123.456
		back := ConvertUnit(ConvertUnit(qty, pair[0], pair[1]), pair[1], pair[0])
		if math.Abs(back-qty) > 1e-9 {
			t.Errorf("round-trip %s<->%s: получили %v, ожидалось %v", pair[0], pair[1], back, qty)
		}
	}
}
