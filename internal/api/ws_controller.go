package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"escandallo/server/internal/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Разрешаем подключения с любого origin (для разработки)
		// В продакшене лучше проверять конкретные домены
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// ServeWS обрабатывает WebSocket подключения от вкладок редактора
func ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("⚠️ Ошибка обновления WebSocket соединения: %v", err)
		return
	}

	EditorHub.AddClient(conn)
	log.Printf("🖥️ Вкладка редактора подключена. Всего подключений: %d", EditorHub.GetClientsCount())

	defer func() {
		EditorHub.RemoveClient(conn)
		log.Printf("🖥️ Вкладка редактора отключена. Осталось подключений: %d", EditorHub.GetClientsCount())
	}()

	// Читаем сообщения от клиента (ping/pong для поддержания соединения)
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("⚠️ WebSocket ошибка: %v", err)
			}
			break
		}
	}
}

// StartEditorBridge подписывается на события изменения рецептов и базы
// продуктов в Redis и пересылает их во все открытые вкладки редактора
func StartEditorBridge(redisUtil *utils.RedisClient) {
	if redisUtil == nil {
		return
	}

	forward := func(channel string) {
		messages, closeFn := redisUtil.Subscribe(channel)
		go func() {
			defer closeFn()
			for msg := range messages {
				event, err := json.Marshal(map[string]interface{}{
					"event":   channel,
					"payload": json.RawMessage(ensureJSON(msg.Payload)),
				})
				if err != nil {
					continue
				}
				EditorHub.BroadcastMessage(event)
			}
		}()
	}

	forward("recipes:update")
	forward("products:update")
	log.Println("📡 Мост Redis -> WebSocket запущен (recipes:update, products:update)")
}

// ensureJSON заворачивает не-JSON payload в JSON строку
func ensureJSON(payload string) string {
	if json.Valid([]byte(payload)) {
		return payload
	}
	quoted, _ := json.Marshal(payload)
	return string(quoted)
}
