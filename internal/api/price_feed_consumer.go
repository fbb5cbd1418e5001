package api

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"

	"escandallo/server/internal/models"
	"escandallo/server/internal/services"
)

// priceUpdate — сообщение фида цен поставщика
type priceUpdate struct {
	Name         string   `json:"name"`
	Unit         string   `json:"unit"`
	PricePerUnit float64  `json:"price_per_unit"`
	Category     string   `json:"category"`
	Allergens    []string `json:"allergens"`
}

// PriceFeedConsumer читает обновления прайс-листа поставщиков из Kafka,
// обновляет базу продуктов и запускает синхронизацию рецептов
type PriceFeedConsumer struct {
	topic       string
	groupID     string
	reader      *kafka.Reader
	ctx         context.Context
	cancel      context.CancelFunc
	db          *gorm.DB
	syncService *services.SyncService
	processed   int64 // Счетчик обработанных обновлений
	lastLog     int64 // Время последнего лога
}

// NewPriceFeedConsumer создает новый Kafka Consumer фида цен
func NewPriceFeedConsumer(brokers, topic string, db *gorm.DB, syncService *services.SyncService, username, password, caCert string) *PriceFeedConsumer {
	brokerList := ParseKafkaBrokers(brokers)
	ctx, cancel := context.WithCancel(context.Background())

	// Создаем dialer с SASL/PLAIN и TLS если нужно
	dialer := CreateKafkaDialer(username, password, caCert)

	groupID := "escandallo-price-feed"
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokerList,
		Topic:       topic,
		GroupID:     groupID,
		StartOffset: kafka.LastOffset, // Старые цены неинтересны, читаем только новые
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     1 * time.Second,
		Dialer:      dialer,
	})

	return &PriceFeedConsumer{
		topic:       topic,
		groupID:     groupID,
		reader:      reader,
		ctx:         ctx,
		cancel:      cancel,
		db:          db,
		syncService: syncService,
		lastLog:     time.Now().Unix(),
	}
}

// Start запускает чтение фида цен
func (pc *PriceFeedConsumer) Start() {
	log.Printf("📡 Price Feed Consumer запущен: topic=%s, groupID=%s", pc.topic, pc.groupID)

	go func() {
		for {
			select {
			case <-pc.ctx.Done():
				return
			default:
				msg, err := pc.reader.ReadMessage(pc.ctx)
				if err != nil {
					if err == context.Canceled {
						return
					}
					log.Printf("⚠️ Price Feed Consumer ошибка чтения: %v", err)
					time.Sleep(1 * time.Second)
					continue
				}

				var update priceUpdate
				if err := json.Unmarshal(msg.Value, &update); err != nil {
					// Не логируем каждую ошибку парсинга, чтобы не спамить
					continue
				}
				if strings.TrimSpace(update.Name) == "" {
					continue
				}

				if err := pc.applyUpdate(update); err != nil {
					log.Printf("⚠️ Ошибка применения цены для %q: %v", update.Name, err)
					continue
				}

				if _, err := pc.syncService.SyncAll(); err != nil {
					log.Printf("⚠️ Синхронизация после фида цен: %v", err)
				}

				// Логируем только раз в 5 секунд для прогресса
				processed := atomic.AddInt64(&pc.processed, 1)
				now := time.Now().Unix()
				if now-atomic.LoadInt64(&pc.lastLog) >= 5 {
					atomic.StoreInt64(&pc.lastLog, now)
					log.Printf("📊 Price Feed Consumer: обработано %d обновлений", processed)
				}
			}
		}
	}()
}

// applyUpdate обновляет товар по имени без учета регистра или создает новый
func (pc *PriceFeedConsumer) applyUpdate(update priceUpdate) error {
	var product models.Product
	err := pc.db.Where("UPPER(name) = ?", strings.ToUpper(strings.TrimSpace(update.Name))).
		First(&product).Error

	if err == gorm.ErrRecordNotFound {
		product = models.Product{
			Name:         strings.TrimSpace(update.Name),
			Unit:         update.Unit,
			PricePerUnit: update.PricePerUnit,
			Category:     update.Category,
		}
		product.SetAllergens(update.Allergens)
		return pc.db.Create(&product).Error
	}
	if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"price_per_unit": update.PricePerUnit,
	}
	if update.Unit != "" {
		updates["unit"] = update.Unit
	}
	if update.Category != "" {
		updates["category"] = update.Category
	}
	if update.Allergens != nil {
		updates["allergens"] = models.MarshalStringList(update.Allergens)
	}
	return pc.db.Model(&product).Updates(updates).Error
}

// Stop останавливает Kafka Consumer
func (pc *PriceFeedConsumer) Stop() {
	pc.cancel()
	if pc.reader != nil {
		pc.reader.Close()
	}
	log.Println("🛑 Price Feed Consumer остановлен")
}
