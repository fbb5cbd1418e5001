package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"escandallo/server/internal/models"
)

// ExportService собирает печатные документы: заказ на закупку, матрицу
// аллергенов и производственные фиши. Шапка документов подписывается
// именем преподавателя и учебного заведения из настроек
type ExportService struct {
	teacherName   string
	instituteName string
}

// NewExportService создает новый сервис экспорта
func NewExportService(teacherName, instituteName string) *ExportService {
	return &ExportService{
		teacherName:   teacherName,
		instituteName: instituteName,
	}
}

func (es *ExportService) writeHeader(f *excelize.File, sheet, title, subtitle string) {
	f.SetCellValue(sheet, "A1", es.instituteName)
	f.SetCellValue(sheet, "A2", es.teacherName)
	f.SetCellValue(sheet, "A3", title)
	if subtitle != "" {
		f.SetCellValue(sheet, "A4", subtitle)
	}
}

// PurchaseOrderWorkbook строит XLSX с заказом на закупку: строки
// сгруппированы по семействам продуктов
func (es *ExportService) PurchaseOrderWorkbook(menu *models.MenuPlan, order *PurchaseOrder) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Orden de compra"
	f.SetSheetName(f.GetSheetName(0), sheet)

	es.writeHeader(f, sheet, fmt.Sprintf("Orden de compra: %s", menu.Title),
		fmt.Sprintf("%s · %d pax", menu.Date, order.Pax))

	row := 6
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Familia")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", row), "Producto")
	f.SetCellValue(sheet, fmt.Sprintf("C%d", row), "Cantidad")
	f.SetCellValue(sheet, fmt.Sprintf("D%d", row), "Unidad")
	f.SetCellValue(sheet, fmt.Sprintf("E%d", row), "Coste")
	row++

	for _, family := range order.Families {
		for _, line := range family.Lines {
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), family.Family)
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), line.Name)
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), FormatQuantity(line.Quantity))
			f.SetCellValue(sheet, fmt.Sprintf("D%d", row), line.Unit)
			f.SetCellValue(sheet, fmt.Sprintf("E%d", row), fmt.Sprintf("%.2f €", line.Cost))
			row++
		}
	}

	f.SetColWidth(sheet, "A", "B", 28)
	f.SetColWidth(sheet, "C", "E", 12)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("ошибка записи XLSX заказа: %w", err)
	}
	return buf, nil
}

// AllergenMatrixWorkbook строит XLSX с матрицей аллергенов меню:
// рецепты по строкам, 14 аллергенов ЕС по колонкам, отметка "X"
func (es *ExportService) AllergenMatrixWorkbook(menu *models.MenuPlan, matrix *AllergenMatrix) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Alérgenos"
	f.SetSheetName(f.GetSheetName(0), sheet)

	es.writeHeader(f, sheet, fmt.Sprintf("Matriz de alérgenos: %s", menu.Title), menu.Date)

	headerRow := 6
	f.SetCellValue(sheet, fmt.Sprintf("A%d", headerRow), "Plato")
	for i, allergen := range matrix.Allergens {
		cell, err := excelize.CoordinatesToCellName(i+2, headerRow)
		if err != nil {
			return nil, fmt.Errorf("ошибка адресации ячейки: %w", err)
		}
		f.SetCellValue(sheet, cell, allergen)
	}

	for ri, matrixRow := range matrix.Rows {
		rowNum := headerRow + 1 + ri
		f.SetCellValue(sheet, fmt.Sprintf("A%d", rowNum), matrixRow.RecipeName)
		for ci, flag := range matrixRow.Flags {
			if !flag {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(ci+2, rowNum)
			if err != nil {
				return nil, fmt.Errorf("ошибка адресации ячейки: %w", err)
			}
			f.SetCellValue(sheet, cell, "X")
		}
	}

	f.SetColWidth(sheet, "A", "A", 32)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("ошибка записи XLSX матрицы: %w", err)
	}
	return buf, nil
}

// ProductionSheetWorkbook строит XLSX производственной фиши рецепта,
// масштабированной на pax порций
func (es *ExportService) ProductionSheetWorkbook(recipe *models.Recipe, pax int) (*bytes.Buffer, error) {
	if pax <= 0 {
		pax = 1
	}
	yield := recipe.YieldQuantity
	if yield <= 0 {
		yield = 1
	}
	ratio := float64(pax) / yield

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Ficha"
	f.SetSheetName(f.GetSheetName(0), sheet)

	es.writeHeader(f, sheet, fmt.Sprintf("Ficha técnica: %s", recipe.Name),
		fmt.Sprintf("Escandallo base: %s pax · Producción: %d pax", FormatQuantity(recipe.YieldQuantity), pax))

	row := 6
	for _, subRecipe := range recipe.SubRecipes {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), subRecipe.Name)
		row++
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Ingrediente")
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), "Cantidad")
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), "Unidad")
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), "Coste")
		row++

		for _, ingredient := range subRecipe.Ingredients {
			scaledCost := ingredient.Cost * ratio
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), ingredient.Name)
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), ScaleQuantity(ingredient.Quantity, ratio))
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), ingredient.Unit)
			f.SetCellValue(sheet, fmt.Sprintf("D%d", row), fmt.Sprintf("%.2f €", scaledCost))
			row++
		}

		if subRecipe.Instructions != "" {
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), subRecipe.Instructions)
			row++
		}
		row++
	}

	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Coste total")
	f.SetCellValue(sheet, fmt.Sprintf("D%d", row), fmt.Sprintf("%.2f €", recipe.TotalCost*ratio))

	f.SetColWidth(sheet, "A", "A", 36)
	f.SetColWidth(sheet, "B", "D", 14)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("ошибка записи XLSX фиши: %w", err)
	}
	return buf, nil
}

// ProductsCSV выгружает базу продуктов в CSV с точкой с запятой
// как разделителем (формат, который понимает испанский Excel)
func (es *ExportService) ProductsCSV(products []models.Product) (*bytes.Buffer, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	writer.Comma = ';'

	if err := writer.Write([]string{"Producto", "Unidad", "Precio", "Familia", "Alérgenos"}); err != nil {
		return nil, fmt.Errorf("ошибка записи CSV: %w", err)
	}
	for _, product := range products {
		record := []string{
			product.Name,
			product.Unit,
			FormatQuantity(product.PricePerUnit),
			product.Category,
			strings.Join(product.AllergenNames(), ", "),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("ошибка записи CSV: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("ошибка записи CSV: %w", err)
	}
	return buf, nil
}
