package services

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"escandallo/server/internal/models"
)

// MenuPlanService управляет сохраненными меню
type MenuPlanService struct {
	db *gorm.DB
}

// NewMenuPlanService создает новый сервис меню
func NewMenuPlanService(db *gorm.DB) *MenuPlanService {
	return &MenuPlanService{db: db}
}

// GetMenuPlans возвращает все сохраненные меню, новые первыми
func (s *MenuPlanService) GetMenuPlans() ([]models.MenuPlan, error) {
	var menus []models.MenuPlan
	if err := s.db.Order("last_modified DESC").Find(&menus).Error; err != nil {
		return nil, fmt.Errorf("ошибка получения меню: %w", err)
	}
	return menus, nil
}

// GetMenuPlan возвращает меню по id
func (s *MenuPlanService) GetMenuPlan(id string) (*models.MenuPlan, error) {
	var menu models.MenuPlan
	if err := s.db.First(&menu, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("меню не найдено: %w", err)
	}
	return &menu, nil
}

// SaveMenuPlan создает меню или перезаписывает существующее с тем же id
func (s *MenuPlanService) SaveMenuPlan(menu *models.MenuPlan) error {
	if menu.Title == "" {
		return fmt.Errorf("название меню обязательно")
	}
	if menu.Pax <= 0 {
		menu.Pax = 1
	}

	if menu.ID != "" {
		var existing models.MenuPlan
		err := s.db.First(&existing, "id = ?", menu.ID).Error
		if err == nil {
			if err := s.db.Model(&existing).Updates(map[string]interface{}{
				"title":      menu.Title,
				"date":       menu.Date,
				"pax":        menu.Pax,
				"recipe_ids": menu.RecipeIDs,
			}).Error; err != nil {
				return fmt.Errorf("ошибка обновления меню: %w", err)
			}
			log.Printf("✅ Обновлено меню: %s (ID: %s)", menu.Title, menu.ID)
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("ошибка поиска меню: %w", err)
		}
	}

	if err := s.db.Create(menu).Error; err != nil {
		return fmt.Errorf("ошибка создания меню: %w", err)
	}
	log.Printf("✅ Создано меню: %s (ID: %s)", menu.Title, menu.ID)
	return nil
}

// DeleteMenuPlan удаляет меню (soft delete)
func (s *MenuPlanService) DeleteMenuPlan(id string) error {
	result := s.db.Delete(&models.MenuPlan{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("ошибка удаления меню: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("меню не найдено")
	}
	log.Printf("✅ Удалено меню (ID: %s)", id)
	return nil
}
