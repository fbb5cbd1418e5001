package services

import (
	"math"
	"testing"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"0,500", 0.5},
		{"1.25", 1.25},
		{"2", 2},
		{" 3,5 ", 3.5},
		{"", 0},
		{"abc", 0},
		{"1,2,3", 0}, // Заменяется только первая запятая, "1.2,3" нечитаемо
	}

	for _, tt := range tests {
		if got := ParseQuantity(tt.input); got != tt.want {
			t.Errorf("ParseQuantity(%q) = %v, ожидалось %v", tt.input, got, tt.want)
		}
	}
}

func TestParseQuantityStrict(t *testing.T) {
	tests := []struct {
		input  string
		want   float64
		wantOK bool
	}{
		{"0,500", 0.5, true},
		{"1.25", 1.25, true},
		{"0", 0, true},
		{"", 0, false},
		{"   ", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseQuantityStrict(tt.input)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseQuantityStrict(%q) = (%v, %v), ожидалось (%v, %v)", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestFormatQuantity(t *testing.T) {
	tests := []struct {
		input float64
		want  string
	}{
		{2, "2"},
		{0.5, "0,500"},
		{1.25, "1,25"},
		{1.256, "1,26"},
		{0.1234, "0,123"},
		{100, "100"},
		{math.NaN(), ""},
		{math.Inf(1), ""},
	}

	for _, tt := range tests {
		if got := FormatQuantity(tt.input); got != tt.want {
			t.Errorf("FormatQuantity(%v) = %q, ожидалось %q", tt.input, got, tt.want)
		}
	}
}

func TestScaleQuantity(t *testing.T) {
	tests := []struct {
		input string
		ratio float64
		want  string
	}{
		{"1", 2.5, "2,50"},
		{"0,5", 2, "1"},
		{"2", 10, "20"},
		{"basura", 3, "basura"}, // Нечитаемое количество возвращается как есть
		{"", 3, ""},
	}

	for _, tt := range tests {
		if got := ScaleQuantity(tt.input, tt.ratio); got != tt.want {
			t.Errorf("ScaleQuantity(%q, %v) = %q, ожидалось %q", tt.input, tt.ratio, got, tt.want)
		}
	}
}
