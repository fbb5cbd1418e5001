package services

import (
	"reflect"
	"testing"
)

func TestValidateImport(t *testing.T) {
	ps := &ProductService{}

	rows := []map[string]string{
		{"name": "Harina", "unit": "KG", "price": "1,20", "category": "panadería", "allergens": "gluten"},
		{"name": "Tomate", "price": "0.85", "category": "VERDURAS"},
		{"name": "", "price": "1"},
		{"name": "Aceite", "price": "mucho"},
		{"name": "Sal", "price": "-1"},
		{"name": "Queso", "price": "7.5", "category": "INVENTADA", "allergens": "Lácteos, kriptonita"},
	}

	products, errors := ps.ValidateImport(rows)

	if len(products) != 3 {
		t.Fatalf("ожидалось 3 валидных товара, получили %d", len(products))
	}
	if len(errors) != 3 {
		t.Fatalf("ожидалось 3 ошибки, получили %d: %+v", len(errors), errors)
	}

	harina := products[0]
	if harina.Unit != "kg" {
		t.Errorf("единица должна нормализоваться в нижний регистр: %q", harina.Unit)
	}
	if harina.PricePerUnit != 1.2 {
		t.Errorf("цена с запятой разобрана неверно: %v", harina.PricePerUnit)
	}
	if harina.Category != "PANADERÍA" {
		t.Errorf("семейство должно нормализоваться в верхний регистр: %q", harina.Category)
	}
	if !reflect.DeepEqual(harina.AllergenNames(), []string{"Gluten"}) {
		t.Errorf("аллерген должен каноникализоваться: %v", harina.AllergenNames())
	}

	tomate := products[1]
	if tomate.Unit != "kg" {
		t.Errorf("пустая единица должна давать kg: %q", tomate.Unit)
	}

	queso := products[2]
	if queso.Category != "OTROS" {
		t.Errorf("неизвестное семейство должно давать OTROS: %q", queso.Category)
	}
	// Неизвестные аллергены отбрасываются, известные остаются
	if !reflect.DeepEqual(queso.AllergenNames(), []string{"Lácteos"}) {
		t.Errorf("аллергены Queso = %v, ожидалось [Lácteos]", queso.AllergenNames())
	}

	for _, e := range errors {
		if e.Field != "name" && e.Field != "price" {
			t.Errorf("неожиданное поле ошибки: %+v", e)
		}
	}
}

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name string
		data string
		want rune
	}{
		{"точка с запятой", "Producto;Precio;Unidad\nHarina;1,20;kg\n", ';'},
		{"запятая", "Producto,Precio,Unidad\nHarina,1.20,kg\n", ','},
		{"табуляция", "Producto\tPrecio\tUnidad\nHarina\t1.20\tkg\n", '\t'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectDelimiter([]byte(tt.data)); got != tt.want {
				t.Errorf("detectDelimiter = %q, ожидалось %q", got, tt.want)
			}
		})
	}
}

func TestFindHeaderRow(t *testing.T) {
	rows := [][]string{
		{"Prais-list proveedor 2026", ""},
		{"", ""},
		{"Producto", "Unidad", "Precio", "Familia"},
		{"Harina", "kg", "1,20", "PANADERÍA"},
	}
	if got := findHeaderRow(rows); got != 2 {
		t.Errorf("findHeaderRow = %d, ожидалось 2", got)
	}
}
