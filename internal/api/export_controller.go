package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"escandallo/server/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportController отдает печатные документы: XLSX и CSV выгрузки
type ExportController struct {
	exportService   *services.ExportService
	menuPlanService *services.MenuPlanService
	plannerService  *services.MenuPlannerService
	recipeService   *services.RecipeService
	productService  *services.ProductService
}

// NewExportController создает новый контроллер экспорта
func NewExportController(
	exportService *services.ExportService,
	menuPlanService *services.MenuPlanService,
	plannerService *services.MenuPlannerService,
	recipeService *services.RecipeService,
	productService *services.ProductService,
) *ExportController {
	return &ExportController{
		exportService:   exportService,
		menuPlanService: menuPlanService,
		plannerService:  plannerService,
		recipeService:   recipeService,
		productService:  productService,
	}
}

// ExportPurchaseOrder выгружает заказ на закупку в XLSX
// GET /api/v1/export/menus/:id/purchase-order?pax=25
func (ec *ExportController) ExportPurchaseOrder(c *gin.Context) {
	menuID := c.Param("id")
	menu, err := ec.menuPlanService.GetMenuPlan(menuID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Меню не найдено",
			"details": err.Error(),
		})
		return
	}

	order, err := ec.plannerService.PurchaseOrderForMenu(menuID, paxOverride(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ошибка построения заказа на закупку",
			"details": err.Error(),
		})
		return
	}

	buf, err := ec.exportService.PurchaseOrderWorkbook(menu, order)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ошибка сборки XLSX",
			"details": err.Error(),
		})
		return
	}

	filename := fmt.Sprintf("orden_compra_%s.xlsx", menuID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ExportAllergenMatrix выгружает матрицу аллергенов в XLSX
// GET /api/v1/export/menus/:id/allergens
func (ec *ExportController) ExportAllergenMatrix(c *gin.Context) {
	menuID := c.Param("id")
	menu, err := ec.menuPlanService.GetMenuPlan(menuID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Меню не найдено",
			"details": err.Error(),
		})
		return
	}

	matrix, err := ec.plannerService.AllergenMatrixForMenu(menuID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ошибка построения матрицы аллергенов",
			"details": err.Error(),
		})
		return
	}

	buf, err := ec.exportService.AllergenMatrixWorkbook(menu, matrix)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ошибка сборки XLSX",
			"details": err.Error(),
		})
		return
	}

	filename := fmt.Sprintf("alergenos_%s.xlsx", menuID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ExportProductionSheet выгружает производственную фишу рецепта в XLSX
// GET /api/v1/export/recipes/:id/production-sheet?pax=25
func (ec *ExportController) ExportProductionSheet(c *gin.Context) {
	recipe, err := ec.recipeService.GetRecipe(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Рецепт не найден",
			"details": err.Error(),
		})
		return
	}

	pax, _ := strconv.Atoi(c.DefaultQuery("pax", "0"))
	buf, err := ec.exportService.ProductionSheetWorkbook(recipe, pax)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ошибка сборки XLSX",
			"details": err.Error(),
		})
		return
	}

	filename := fmt.Sprintf("ficha_%s.xlsx", recipe.ID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ExportProductsCSV выгружает базу продуктов в CSV
// GET /api/v1/export/products
func (ec *ExportController) ExportProductsCSV(c *gin.Context) {
	products, err := ec.productService.GetProducts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ошибка получения товаров",
			"details": err.Error(),
		})
		return
	}

	buf, err := ec.exportService.ProductsCSV(products)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ошибка сборки CSV",
			"details": err.Error(),
		})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="productos.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
