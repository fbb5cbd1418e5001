package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"escandallo/server/internal/models"
	"escandallo/server/internal/services"
)

// MenuController управляет API endpoints сохраненных меню и агрегатов
// планировщика
type MenuController struct {
	menuPlanService *services.MenuPlanService
	plannerService  *services.MenuPlannerService
}

// NewMenuController создает новый контроллер меню
func NewMenuController(menuPlanService *services.MenuPlanService, plannerService *services.MenuPlannerService) *MenuController {
	return &MenuController{
		menuPlanService: menuPlanService,
		plannerService:  plannerService,
	}
}

// GetMenus возвращает все сохраненные меню
// GET /api/v1/menus
func (mc *MenuController) GetMenus(c *gin.Context) {
	menus, err := mc.menuPlanService.GetMenuPlans()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ошибка получения меню",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"menus": menus,
		"count": len(menus),
	})
}

// GetMenu возвращает меню по ID вместе с развернутыми рецептами
// GET /api/v1/menus/:id
func (mc *MenuController) GetMenu(c *gin.Context) {
	menuID := c.Param("id")
	menu, err := mc.menuPlanService.GetMenuPlan(menuID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Меню не найдено",
			"details": err.Error(),
		})
		return
	}

	recipes, err := mc.plannerService.ResolveRecipes(menu.RecipeIDList())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ошибка загрузки рецептов меню",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"menu":    menu,
		"recipes": recipes,
	})
}

// SaveMenu создает меню или перезаписывает существующее
// POST /api/v1/menus
func (mc *MenuController) SaveMenu(c *gin.Context) {
	var menu models.MenuPlan
	if err := c.ShouldBindJSON(&menu); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Неверные параметры запроса",
			"details": err.Error(),
		})
		return
	}

	if err := mc.menuPlanService.SaveMenuPlan(&menu); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ошибка сохранения меню",
			"details": err.Error(),
		})
		return
	}

	mc.plannerService.InvalidateCache()
	c.JSON(http.StatusOK, menu)
}

// DeleteMenu удаляет меню
// DELETE /api/v1/menus/:id
func (mc *MenuController) DeleteMenu(c *gin.Context) {
	menuID := c.Param("id")
	if err := mc.menuPlanService.DeleteMenuPlan(menuID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Ошибка удаления меню",
			"details": err.Error(),
		})
		return
	}

	mc.plannerService.InvalidateCache()
	c.JSON(http.StatusOK, gin.H{"message": "Меню удалено"})
}

// paxOverride читает необязательный query-параметр pax
func paxOverride(c *gin.Context) int {
	pax, err := strconv.Atoi(c.DefaultQuery("pax", "0"))
	if err != nil || pax < 0 {
		return 0
	}
	return pax
}

// GetMenuEconomics возвращает экономику меню
// GET /api/v1/menus/:id/economics?pax=25
func (mc *MenuController) GetMenuEconomics(c *gin.Context) {
	economics, err := mc.plannerService.EconomicsForMenu(c.Param("id"), paxOverride(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Ошибка расчета экономики меню",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, economics)
}

// GetMenuPurchaseOrder возвращает заказ на закупку по меню
// GET /api/v1/menus/:id/purchase-order?pax=25
func (mc *MenuController) GetMenuPurchaseOrder(c *gin.Context) {
	order, err := mc.plannerService.PurchaseOrderForMenu(c.Param("id"), paxOverride(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Ошибка построения заказа на закупку",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, order)
}

// GetMenuAllergenMatrix возвращает матрицу аллергенов меню
// GET /api/v1/menus/:id/allergens
func (mc *MenuController) GetMenuAllergenMatrix(c *gin.Context) {
	matrix, err := mc.plannerService.AllergenMatrixForMenu(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Ошибка построения матрицы аллергенов",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, matrix)
}
