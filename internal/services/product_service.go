package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
	"gorm.io/gorm"

	"escandallo/server/internal/models"
	"escandallo/server/internal/utils"
)

// ProductService управляет базой продуктов (прайс-листом).
// Любое изменение базы продуктов запускает синхронизацию рецептов:
// рецепты хранят только снимки цен и аллергенов
type ProductService struct {
	db          *gorm.DB
	redisUtil   *utils.RedisClient
	syncService *SyncService
}

// NewProductService создает новый сервис продуктов
func NewProductService(db *gorm.DB, redisUtil *utils.RedisClient, syncService *SyncService) *ProductService {
	return &ProductService{
		db:          db,
		redisUtil:   redisUtil,
		syncService: syncService,
	}
}

// GetProducts возвращает все товары базы продуктов
func (ps *ProductService) GetProducts() ([]models.Product, error) {
	var products []models.Product
	if err := ps.db.Order("name ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("ошибка получения товаров: %w", err)
	}
	return products, nil
}

// GetProductByID возвращает товар по id
func (ps *ProductService) GetProductByID(id string) (*models.Product, error) {
	var product models.Product
	if err := ps.db.First(&product, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("товар не найден: %w", err)
	}
	return &product, nil
}

// CreateProduct создает товар и синхронизирует рецепты
func (ps *ProductService) CreateProduct(product *models.Product) error {
	if strings.TrimSpace(product.Name) == "" {
		return fmt.Errorf("название товара обязательно")
	}
	if err := ps.db.Create(product).Error; err != nil {
		return fmt.Errorf("ошибка создания товара: %w", err)
	}
	ps.afterChange()
	return nil
}

// UpdateProduct обновляет товар и синхронизирует рецепты
func (ps *ProductService) UpdateProduct(product *models.Product) error {
	if product.ID == "" {
		return fmt.Errorf("id товара обязателен")
	}
	if err := ps.db.Save(product).Error; err != nil {
		return fmt.Errorf("ошибка обновления товара: %w", err)
	}
	ps.afterChange()
	return nil
}

// DeleteProduct удаляет товар (soft delete). Рецепты сохраняют последние
// известные кэшированные цены и аллергены
func (ps *ProductService) DeleteProduct(id string) error {
	result := ps.db.Delete(&models.Product{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("ошибка удаления товара: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("товар не найден")
	}
	ps.afterChange()
	return nil
}

// afterChange запускает синхронизацию рецептов и уведомляет клиентов
func (ps *ProductService) afterChange() {
	if ps.syncService != nil {
		if _, err := ps.syncService.SyncAll(); err != nil {
			log.Printf("⚠️ Синхронизация после изменения базы продуктов: %v", err)
		}
	}
	if ps.redisUtil != nil {
		if err := ps.redisUtil.Publish("products:update", "changed"); err != nil {
			log.Printf("⚠️ Не удалось опубликовать products:update: %v", err)
		}
	}
}

// --- Импорт прайс-листа (CSV / XLSX) ---

// ImportRowError — ошибка валидации строки импорта
type ImportRowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// DetectFileHeaders определяет заголовки файла и возвращает информацию о структуре
// Возвращает: headerRowIndex, columnNames, sampleRows
func (ps *ProductService) DetectFileHeaders(file multipart.File, filename string) (int, []string, [][]string, error) {
	if strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return ps.detectCSVHeaders(file)
	} else if strings.HasSuffix(strings.ToLower(filename), ".xlsx") || strings.HasSuffix(strings.ToLower(filename), ".xls") {
		return ps.detectXLSXHeaders(file)
	}
	return 0, nil, nil, fmt.Errorf("неподдерживаемый формат файла: %s. Используйте .csv или .xlsx", filename)
}

// ParseFileWithMapping парсит файл используя маппинг колонок
// columnMapping: map[systemField]fileColumnName (например: {"name": "Producto", "price": "Precio"})
func (ps *ProductService) ParseFileWithMapping(file multipart.File, filename string, columnMapping map[string]string, headerRowIndex int) ([]map[string]string, error) {
	if strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return ps.parseCSVWithMapping(file, columnMapping)
	} else if strings.HasSuffix(strings.ToLower(filename), ".xlsx") || strings.HasSuffix(strings.ToLower(filename), ".xls") {
		return ps.parseXLSXWithMapping(file, columnMapping, headerRowIndex)
	}
	return nil, fmt.Errorf("неподдерживаемый формат файла: %s", filename)
}

// ValidateImport проверяет распарсенные строки и превращает их в товары.
// Цена валидируется через decimal: не ломаемся на float-артефактах прайсов.
// Неизвестное семейство попадает в "OTROS", неизвестные аллергены отбрасываются
func (ps *ProductService) ValidateImport(rows []map[string]string) ([]models.Product, []ImportRowError) {
	knownFamilies := make(map[string]bool, len(models.DefaultProductFamilies))
	for _, family := range models.DefaultProductFamilies {
		knownFamilies[family] = true
	}
	knownAllergens := make(map[string]string, len(models.AllergenList))
	for _, allergen := range models.AllergenList {
		knownAllergens[strings.ToLower(allergen)] = allergen
	}

	var products []models.Product
	var errors []ImportRowError

	for i, row := range rows {
		rowNum := i + 1

		name := strings.TrimSpace(row["name"])
		if name == "" {
			errors = append(errors, ImportRowError{Row: rowNum, Field: "name", Message: "название товара пустое"})
			continue
		}

		priceStr := strings.Replace(strings.TrimSpace(row["price"]), ",", ".", 1)
		price, err := decimal.NewFromString(priceStr)
		if err != nil {
			errors = append(errors, ImportRowError{Row: rowNum, Field: "price", Message: fmt.Sprintf("нечитаемая цена: %q", row["price"])})
			continue
		}
		if price.IsNegative() {
			errors = append(errors, ImportRowError{Row: rowNum, Field: "price", Message: "цена не может быть отрицательной"})
			continue
		}

		unit := strings.ToLower(strings.TrimSpace(row["unit"]))
		if unit == "" {
			unit = "kg"
		}

		family := strings.ToUpper(strings.TrimSpace(row["category"]))
		if !knownFamilies[family] {
			family = models.UnmatchedFamily
		}

		// Аллергены в прайсе перечисляются через запятую
		var allergens []string
		for _, raw := range strings.Split(row["allergens"], ",") {
			if canonical, known := knownAllergens[strings.ToLower(strings.TrimSpace(raw))]; known {
				allergens = append(allergens, canonical)
			}
		}

		priceFloat, _ := price.Float64()
		product := models.Product{
			Name:         name,
			Unit:         unit,
			PricePerUnit: priceFloat,
			Category:     family,
		}
		product.SetAllergens(allergens)
		products = append(products, product)
	}

	return products, errors
}

// ImportProducts заменяет базу продуктов целиком содержимым импорта
// и запускает синхронизацию рецептов. Возвращает число загруженных товаров
func (ps *ProductService) ImportProducts(products []models.Product) (int, error) {
	if len(products) == 0 {
		return 0, fmt.Errorf("импорт пуст: нет валидных строк")
	}

	err := ps.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Product{}).Error; err != nil {
			return fmt.Errorf("ошибка очистки базы продуктов: %w", err)
		}
		if err := tx.Create(&products).Error; err != nil {
			return fmt.Errorf("ошибка записи товаров: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Printf("✅ Импорт прайс-листа: загружено %d товаров", len(products))
	ps.afterChange()
	return len(products), nil
}

// decodeToUTF8 конвертирует данные в UTF-8. Испанские прайсы из Excel
// часто приходят в Windows-1252
func decodeToUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}
	decoder := charmap.Windows1252.NewDecoder()
	utf8Data, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return data
	}
	return utf8Data
}

// detectDelimiter определяет разделитель CSV файла
func detectDelimiter(data []byte) rune {
	// Берем первые 1000 байт для анализа
	sample := string(data)
	if len(sample) > 1000 {
		sample = sample[:1000]
	}

	commaCount := strings.Count(sample, ",")
	semicolonCount := strings.Count(sample, ";")
	tabCount := strings.Count(sample, "\t")

	// Выбираем наиболее частый разделитель
	maxCount := commaCount
	delimiter := ','

	if semicolonCount > maxCount {
		maxCount = semicolonCount
		delimiter = ';'
	}
	if tabCount > maxCount {
		delimiter = '\t'
	}

	return delimiter
}

// Ключевые слова для поиска строки заголовков в прайс-листах
var headerKeywords = []string{
	"producto", "nombre", "género", "genero", "name",
	"unidad", "unit", "precio", "price",
	"familia", "categoría", "categoria", "category",
	"alérgenos", "alergenos", "allergens",
}

func findHeaderRow(rows [][]string) int {
	headerRowIndex := 0
	maxMatches := 0
	for i, row := range rows {
		matches := 0
		for _, cell := range row {
			cellLower := strings.ToLower(strings.TrimSpace(cell))
			for _, keyword := range headerKeywords {
				if strings.Contains(cellLower, keyword) {
					matches++
					break
				}
			}
		}
		if matches > maxMatches {
			maxMatches = matches
			headerRowIndex = i
		}
	}
	return headerRowIndex
}

func cleanHeader(h string) string {
	return strings.TrimSpace(strings.Trim(h, "\"'\t"))
}

// detectCSVHeaders определяет заголовки CSV файла
func (ps *ProductService) detectCSVHeaders(file multipart.File) (int, []string, [][]string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("ошибка чтения файла: %w", err)
	}
	utf8Data := decodeToUTF8(data)

	delimiter := detectDelimiter(utf8Data)
	reader := csv.NewReader(bytes.NewReader(utf8Data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	// Читаем первые 10 строк
	var allRows [][]string
	for i := 0; i < 10; i++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		allRows = append(allRows, row)
	}

	if len(allRows) == 0 {
		return 0, nil, nil, fmt.Errorf("файл пуст")
	}

	headerRowIndex := findHeaderRow(allRows)
	headers := allRows[headerRowIndex]
	columnNames := make([]string, len(headers))
	for i, h := range headers {
		columnNames[i] = cleanHeader(h)
	}

	// Возвращаем несколько примеров строк для предпросмотра
	sampleRows := allRows[headerRowIndex+1:]
	if len(sampleRows) > 5 {
		sampleRows = sampleRows[:5]
	}

	return headerRowIndex, columnNames, sampleRows, nil
}

// detectXLSXHeaders определяет заголовки XLSX файла
func (ps *ProductService) detectXLSXHeaders(file multipart.File) (int, []string, [][]string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("ошибка чтения файла: %w", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return 0, nil, nil, fmt.Errorf("ошибка открытия XLSX файла: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return 0, nil, nil, fmt.Errorf("файл не содержит листов")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("ошибка чтения листа: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil, nil, fmt.Errorf("файл пуст")
	}

	// Ограничиваем до 10 строк для поиска заголовков
	maxRows := 10
	if len(rows) < maxRows {
		maxRows = len(rows)
	}

	headerRowIndex := findHeaderRow(rows[:maxRows])
	headers := rows[headerRowIndex]
	columnNames := make([]string, 0, len(headers))
	for _, h := range headers {
		columnNames = append(columnNames, cleanHeader(h))
	}

	// Примеры строк
	sampleRows := make([][]string, 0)
	for i := headerRowIndex + 1; i < len(rows) && i < headerRowIndex+6; i++ {
		sampleRows = append(sampleRows, rows[i])
	}

	return headerRowIndex, columnNames, sampleRows, nil
}

// parseCSVWithMapping парсит CSV с использованием маппинга колонок
func (ps *ProductService) parseCSVWithMapping(file multipart.File, columnMapping map[string]string) ([]map[string]string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла: %w", err)
	}
	utf8Data := decodeToUTF8(data)

	delimiter := detectDelimiter(utf8Data)
	reader := csv.NewReader(bytes.NewReader(utf8Data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения заголовков: %w", err)
	}

	columnIndex := make(map[string]int)
	for i, h := range headers {
		if cleaned := cleanHeader(h); cleaned != "" {
			columnIndex[cleaned] = i
		}
	}

	fieldToIndex, err := buildFieldIndex(columnMapping, columnIndex)
	if err != nil {
		return nil, err
	}

	var rows []map[string]string
	rowNum := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("⚠️ Ошибка чтения строки %d: %v, пропускаем", rowNum, err)
			rowNum++
			continue
		}

		row := make(map[string]string)
		hasData := false
		for field, idx := range fieldToIndex {
			if idx < len(record) {
				value := cleanHeader(record[idx])
				row[field] = value
				if value != "" {
					hasData = true
				}
			}
		}
		if hasData {
			rows = append(rows, row)
		}
		rowNum++
	}

	return rows, nil
}

// parseXLSXWithMapping парсит XLSX с использованием маппинга колонок
func (ps *ProductService) parseXLSXWithMapping(file multipart.File, columnMapping map[string]string, headerRowIndex int) ([]map[string]string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла: %w", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия XLSX файла: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("файл не содержит листов")
	}
	allRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения листа: %w", err)
	}
	if headerRowIndex >= len(allRows) {
		return nil, fmt.Errorf("строка заголовков %d вне диапазона", headerRowIndex)
	}

	columnIndex := make(map[string]int)
	for i, h := range allRows[headerRowIndex] {
		if cleaned := cleanHeader(h); cleaned != "" {
			columnIndex[cleaned] = i
		}
	}

	fieldToIndex, err := buildFieldIndex(columnMapping, columnIndex)
	if err != nil {
		return nil, err
	}

	var rows []map[string]string
	for _, record := range allRows[headerRowIndex+1:] {
		row := make(map[string]string)
		hasData := false
		for field, idx := range fieldToIndex {
			if idx < len(record) {
				value := cleanHeader(record[idx])
				row[field] = value
				if value != "" {
					hasData = true
				}
			}
		}
		if hasData {
			rows = append(rows, row)
		}
	}

	return rows, nil
}

// buildFieldIndex превращает маппинг поле->колонка в маппинг поле->индекс
func buildFieldIndex(columnMapping map[string]string, columnIndex map[string]int) (map[string]int, error) {
	fieldToIndex := make(map[string]int)
	for field, columnName := range columnMapping {
		if columnName == "" {
			continue
		}
		if idx, ok := columnIndex[columnName]; ok {
			fieldToIndex[field] = idx
		} else {
			log.Printf("⚠️ Колонка '%s' не найдена. Доступные колонки: %v", columnName, columnIndex)
		}
	}
	if len(fieldToIndex) == 0 {
		return nil, fmt.Errorf("не удалось создать маппинг: ни одна колонка не найдена")
	}
	return fieldToIndex, nil
}
