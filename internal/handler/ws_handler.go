package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/yourusername/sof-stats/internal/websocket"
)

// WSHandler подключает клиентов к живой ленте новых эпизодов
type WSHandler struct {
	wsHub     *websocket.Hub
	wsManager *websocket.Manager
	upgrader  gorillaws.Upgrader
}

// NewWSHandler создает обработчик WebSocket. allowedOrigins синхронизирован с настройками CORS.
func NewWSHandler(wsHub *websocket.Hub, wsManager *websocket.Manager, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		wsHub:     wsHub,
		wsManager: wsManager,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:    1024,
			WriteBufferSize:   4096,
			CheckOrigin:       originChecker(allowedOrigins),
			EnableCompression: true,
		},
	}
}

// originChecker разрешает запросы без Origin (не браузерные клиенты) и из списка
func originChecker(allowedOrigins []string) func(r *http.Request) bool {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := allowed[origin]; ok {
			return true
		}
		log.Printf("WebSocket: rejected unauthorized origin: %s", origin)
		return false
	}
}

// HandleConnection обрабатывает входящее WebSocket соединение.
// Лента публичная, аутентификация не требуется.
// GET /ws
func (h *WSHandler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже записал ответ с ошибкой
		log.Printf("[WSHandler] Error upgrading connection: %v", err)
		return
	}

	client := websocket.NewClient(h.wsHub, conn)
	log.Printf("[WSHandler] Клиент %s подключен к ленте", client.ID)
	client.StartPumps(h.wsManager.HandleMessage)
}

// GetMetrics возвращает метрики хаба
// GET /api/admin/ws/metrics
func (h *WSHandler) GetMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.wsHub.GetMetrics())
}
