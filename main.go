package main

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"escandallo/server/internal/api"
	"escandallo/server/internal/config"
	"escandallo/server/internal/database"
	"escandallo/server/internal/models"
	"escandallo/server/internal/services"
	"escandallo/server/internal/utils"
)

func main() {
	// Загружаем переменные окружения из .env файла (если существует)
	// Игнорируем ошибку, если файл не найден (для production окружений)
	if err := godotenv.Load(); err != nil {
		log.Printf("ℹ️ .env файл не найден, используем переменные окружения системы")
	} else {
		log.Printf("✅ Переменные окружения загружены из .env файла")
	}

	cfg := config.Load()

	// Логируем наличие DATABASE_URL (без пароля)
	if cfg.DatabaseURL != "" {
		safeURL := cfg.DatabaseURL
		if idx := strings.Index(safeURL, "@"); idx > 0 {
			if schemeIdx := strings.Index(safeURL, "://"); schemeIdx > 0 {
				safeURL = safeURL[:schemeIdx+3] + "***@" + safeURL[idx+1:]
			}
		}
		log.Printf("📋 DATABASE_URL установлен: %s", safeURL)
	}

	// Подключение к PostgreSQL
	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ PostgreSQL connection failed: %v", err)
	}
	defer database.ClosePostgres(db)

	// Выполняем миграции
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	log.Println("✅ Database migrations completed")

	// Подключение к Redis (с поддержкой Sentinel)
	redisClient, err := database.ConnectRedis(
		cfg.RedisURL,
		cfg.RedisSentinelAddrs,
		cfg.RedisMasterName,
	)
	var redisUtil *utils.RedisClient
	if err != nil {
		log.Printf("⚠️ Redis connection failed: %v (continuing without Redis)", err)
		redisClient = nil
	} else {
		redisUtil = utils.NewRedisClient(redisClient)
	}
	defer database.CloseRedis(redisClient)

	// Инициализация сервисов
	syncService := services.NewSyncService(db, redisUtil)
	productService := services.NewProductService(db, redisUtil, syncService)
	recipeService := services.NewRecipeService(db, redisUtil)
	menuPlanService := services.NewMenuPlanService(db)
	plannerService := services.NewMenuPlannerService(db, redisUtil,
		time.Duration(cfg.PlannerCacheTTL)*time.Second)
	exportService := services.NewExportService(cfg.TeacherName, cfg.InstituteName)

	// Стартовая синхронизация: догоняем рецепты до текущей базы продуктов
	if _, err := syncService.SyncAll(); err != nil {
		log.Printf("⚠️ Стартовая синхронизация не удалась: %v", err)
	}

	// Кэш планировщика инвалидируется по событиям изменения рецептов
	plannerService.StartInvalidationListener()

	// WebSocket хаб для вкладок редактора + мост из Redis Pub/Sub
	go api.EditorHub.Run()
	api.StartEditorBridge(redisUtil)

	// Фид цен поставщиков из Kafka (опционально)
	if cfg.KafkaBrokers != "" {
		priceFeed := api.NewPriceFeedConsumer(
			cfg.KafkaBrokers,
			cfg.KafkaPriceTopic,
			db,
			syncService,
			cfg.KafkaUsername,
			cfg.KafkaPassword,
			cfg.KafkaCACert,
		)
		priceFeed.Start()
		defer priceFeed.Stop()
	} else {
		log.Println("ℹ️ KAFKA_BROKERS не установлен, фид цен отключен")
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Health check endpoint (должен быть до CORS для Railway)
	r.GET("/api/v1/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "Escandallo Server",
			"version": "1.0.0",
		})
	})

	// Логирование всех запросов
	r.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		log.Printf("🌐 %s %s - Status: %d - Latency: %v", method, path, status, latency)
	})

	// CORS для фронтенда
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	apiGroup := r.Group("/api/v1")

	// База продуктов
	productController := api.NewProductController(productService)
	productGroup := apiGroup.Group("/products")
	{
		productGroup.GET("", productController.GetProducts)          // Список товаров
		productGroup.GET("/:id", productController.GetProduct)       // Получить товар
		productGroup.POST("", productController.CreateProduct)       // Создать товар
		productGroup.PUT("/:id", productController.UpdateProduct)    // Обновить товар
		productGroup.DELETE("/:id", productController.DeleteProduct) // Удалить товар

		// Импорт прайс-листа
		productGroup.POST("/import/detect", productController.DetectImportHeaders) // Определение заголовков файла
		productGroup.POST("/import", productController.ImportProducts)             // Импорт с маппингом колонок
	}
	log.Println("📦 Product endpoints enabled: /api/v1/products")

	// Рецепты
	recipeController := api.NewRecipeController(recipeService, syncService, cfg)
	recipeGroup := apiGroup.Group("/recipes")
	{
		recipeGroup.GET("", recipeController.GetRecipes)          // Список рецептов
		recipeGroup.GET("/:id", recipeController.GetRecipe)       // Получить рецепт
		recipeGroup.POST("", recipeController.CreateRecipe)       // Создать рецепт
		recipeGroup.PUT("/:id", recipeController.UpdateRecipe)    // Обновить рецепт
		recipeGroup.DELETE("/:id", recipeController.DeleteRecipe) // Удалить рецепт
		recipeGroup.POST("/import", recipeController.ImportRecipes) // Импорт браузерного экспорта
		recipeGroup.POST("/sync", recipeController.SyncRecipes)     // Ручная синхронизация
	}
	log.Println("📋 Recipe endpoints enabled: /api/v1/recipes")

	// Меню и планировщик
	menuController := api.NewMenuController(menuPlanService, plannerService)
	menuGroup := apiGroup.Group("/menus")
	{
		menuGroup.GET("", menuController.GetMenus)          // Список меню
		menuGroup.GET("/:id", menuController.GetMenu)       // Получить меню с рецептами
		menuGroup.POST("", menuController.SaveMenu)         // Создать или перезаписать меню
		menuGroup.DELETE("/:id", menuController.DeleteMenu) // Удалить меню

		menuGroup.GET("/:id/economics", menuController.GetMenuEconomics)           // Экономика меню
		menuGroup.GET("/:id/purchase-order", menuController.GetMenuPurchaseOrder)  // Заказ на закупку
		menuGroup.GET("/:id/allergens", menuController.GetMenuAllergenMatrix)      // Матрица аллергенов
	}
	log.Println("🗓️ Menu endpoints enabled: /api/v1/menus")

	// Экспорт печатных документов
	exportController := api.NewExportController(exportService, menuPlanService, plannerService, recipeService, productService)
	exportGroup := apiGroup.Group("/export")
	{
		exportGroup.GET("/menus/:id/purchase-order", exportController.ExportPurchaseOrder)        // XLSX заказ на закупку
		exportGroup.GET("/menus/:id/allergens", exportController.ExportAllergenMatrix)            // XLSX матрица аллергенов
		exportGroup.GET("/recipes/:id/production-sheet", exportController.ExportProductionSheet)  // XLSX производственная фиша
		exportGroup.GET("/products", exportController.ExportProductsCSV)                          // CSV база продуктов
	}
	log.Println("📄 Export endpoints enabled: /api/v1/export")

	// WebSocket для вкладок редактора
	r.GET("/ws", api.ServeWS)

	log.Printf("🚀 Server starting on port %s", cfg.ServerPort)
	log.Printf("📡 API доступен на http://0.0.0.0:%s/api/v1", cfg.ServerPort)
	if err := r.Run("0.0.0.0:" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
