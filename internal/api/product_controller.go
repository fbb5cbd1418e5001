package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"escandallo/server/internal/models"
	"escandallo/server/internal/services"
)

// ProductController управляет API endpoints базы продуктов
type ProductController struct {
	productService *services.ProductService
}

// NewProductController создает новый контроллер продуктов
func NewProductController(productService *services.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

// GetProducts возвращает все товары
// GET /api/v1/products
func (pc *ProductController) GetProducts(c *gin.Context) {
	products, err := pc.productService.GetProducts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ошибка получения товаров",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// GetProduct возвращает товар по ID
// GET /api/v1/products/:id
func (pc *ProductController) GetProduct(c *gin.Context) {
	productID := c.Param("id")
	if productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "ID товара не указан",
		})
		return
	}

	product, err := pc.productService.GetProductByID(productID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Товар не найден",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, product)
}

// CreateProduct создает новый товар
// POST /api/v1/products
func (pc *ProductController) CreateProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Неверные параметры запроса",
			"details": err.Error(),
		})
		return
	}

	if err := pc.productService.CreateProduct(&product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ошибка создания товара",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, product)
}

// UpdateProduct обновляет существующий товар
// PUT /api/v1/products/:id
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	productID := c.Param("id")
	if productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "ID товара не указан",
		})
		return
	}

	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Неверные параметры запроса",
			"details": err.Error(),
		})
		return
	}
	product.ID = productID

	if err := pc.productService.UpdateProduct(&product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ошибка обновления товара",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, product)
}

// DeleteProduct удаляет товар
// DELETE /api/v1/products/:id
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	productID := c.Param("id")
	if productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "ID товара не указан",
		})
		return
	}

	if err := pc.productService.DeleteProduct(productID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Ошибка удаления товара",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Товар удален"})
}

// DetectImportHeaders определяет структуру загруженного прайс-листа
// POST /api/v1/products/import/detect (multipart: file)
func (pc *ProductController) DetectImportHeaders(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Файл не загружен",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ошибка открытия файла",
			"details": err.Error(),
		})
		return
	}
	defer file.Close()

	headerRowIndex, columns, sampleRows, err := pc.productService.DetectFileHeaders(file, fileHeader.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Не удалось разобрать файл",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"header_row_index": headerRowIndex,
		"columns":          columns,
		"sample_rows":      sampleRows,
	})
}

// ImportProducts импортирует прайс-лист, заменяя базу продуктов целиком
// POST /api/v1/products/import (multipart: file, mapping, header_row, dry_run)
func (pc *ProductController) ImportProducts(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Файл не загружен",
		})
		return
	}

	var columnMapping map[string]string
	if err := json.Unmarshal([]byte(c.PostForm("mapping")), &columnMapping); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Неверный маппинг колонок",
			"details": err.Error(),
		})
		return
	}
	headerRow, _ := strconv.Atoi(c.DefaultPostForm("header_row", "0"))
	dryRun := c.DefaultPostForm("dry_run", "false") == "true"

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ошибка открытия файла",
			"details": err.Error(),
		})
		return
	}
	defer file.Close()

	rows, err := pc.productService.ParseFileWithMapping(file, fileHeader.Filename, columnMapping, headerRow)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Не удалось разобрать файл",
			"details": err.Error(),
		})
		return
	}

	products, rowErrors := pc.productService.ValidateImport(rows)
	if dryRun {
		c.JSON(http.StatusOK, gin.H{
			"valid_count": len(products),
			"errors":      rowErrors,
			"products":    products,
		})
		return
	}

	count, err := pc.productService.ImportProducts(products)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ошибка импорта",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"imported": count,
		"errors":   rowErrors,
	})
}
