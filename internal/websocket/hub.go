package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

type directMessage struct {
	client  *Client
	message []byte
}

// Hub держит подключения живой ленты этого экземпляра. Рассылка идет всем клиентам;
// при заданном PubSubProvider события других экземпляров тоже доставляются локально.
type Hub struct {
	instanceID string
	clients    map[*Client]struct{}
	mu         sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	direct     chan directMessage
	done       chan struct{}

	pubsub  PubSubProvider
	metrics *HubMetrics
}

// NewHub создает хаб. pubsub может быть nil: тогда события не выходят за пределы экземпляра.
func NewHub(pubsub PubSubProvider) *Hub {
	return &Hub{
		instanceID: uuid.NewString(),
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		broadcast:  make(chan []byte, 64),
		direct:     make(chan directMessage, 64),
		done:       make(chan struct{}),
		pubsub:     pubsub,
		metrics:    NewHubMetrics(),
	}
}

// Run обслуживает хаб до отмены ctx, после чего отключает всех клиентов
func (h *Hub) Run(ctx context.Context) {
	var cluster <-chan []byte
	if h.pubsub != nil {
		ch, err := h.pubsub.Subscribe(ctx, clusterChannel)
		if err != nil {
			log.Printf("[Hub] Не удалось подписаться на %s, работаем без кластера: %v", clusterChannel, err)
		} else {
			cluster = ch
		}
	}

	log.Printf("[Hub] Запущен, instance=%s", h.instanceID)
	for {
		select {
		case client := <-h.register:
			h.handleRegister(client)
		case client := <-h.unregister:
			h.handleUnregister(client)
		case message := <-h.broadcast:
			h.handleBroadcast(message)
		case dm := <-h.direct:
			h.deliver(dm.client, dm.message)
		case raw, ok := <-cluster:
			if !ok {
				cluster = nil
				continue
			}
			h.handleClusterMessage(raw)
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			log.Printf("[Hub] Остановлен")
			return
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	h.metrics.IncrementTotalConnections()

	select {
	case <-client.registered:
	default:
		close(client.registered)
	}
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()
	if !ok {
		return
	}
	client.closeQueue()
	h.metrics.DecrementActiveConnections()
}

func (h *Hub) handleBroadcast(message []byte) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range clients {
		if h.deliver(c, message) {
			delivered++
		}
	}
	h.metrics.AddMessageSent(messageTypeFromBytes(message), int64(delivered))
}

// deliver кладет событие в очередь клиента. Клиента, пропустившего maxMissedEvents
// событий подряд, отключаем.
func (h *Hub) deliver(client *Client, message []byte) bool {
	if client.enqueue(message) {
		return true
	}
	if client.lagging() {
		log.Printf("[Hub] Клиент %s не читает ленту, отключаем", client.ID)
		h.metrics.AddSlowClientKicked()
		h.handleUnregister(client)
	}
	return false
}

func (h *Hub) handleClusterMessage(raw []byte) {
	var msg ClusterMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Printf("[Hub] Некорректное сообщение кластера: %v", err)
		return
	}
	if msg.InstanceID == h.instanceID {
		return
	}
	h.metrics.AddClusterMessage()
	h.handleBroadcast(msg.Payload)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*Client]struct{})
	h.mu.Unlock()
	for c := range clients {
		c.closeQueue()
		h.metrics.DecrementActiveConnections()
	}
}

// BroadcastJSON отправляет событие клиентам этого экземпляра и публикует его для остальных
func (h *Hub) BroadcastJSON(v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal broadcast: %w", err)
	}

	if h.pubsub != nil {
		msg, err := json.Marshal(ClusterMessage{InstanceID: h.instanceID, Payload: payload, Timestamp: time.Now().UTC()})
		if err == nil {
			if err := h.pubsub.Publish(clusterChannel, msg); err != nil {
				log.Printf("[Hub] Не удалось опубликовать событие в кластер: %v", err)
			}
		}
	}

	select {
	case h.broadcast <- payload:
		return nil
	case <-h.done:
		return fmt.Errorf("hub is stopped")
	}
}

// SendJSON отправляет событие одному клиенту
func (h *Hub) SendJSON(client *Client, v interface{}) bool {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("[Hub] Ошибка сериализации сообщения для %s: %v", client.ID, err)
		return false
	}
	select {
	case h.direct <- directMessage{client: client, message: payload}:
		return true
	case <-h.done:
		return false
	}
}

// ClientCount возвращает количество подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetMetrics возвращает метрики хаба
func (h *Hub) GetMetrics() map[string]interface{} {
	metrics := h.metrics.Snapshot()
	metrics["instance_id"] = h.instanceID
	metrics["clients"] = h.ClientCount()
	metrics["clustered"] = h.pubsub != nil
	return metrics
}

// messageTypeFromBytes пытается извлечь тип сообщения из JSON байтов
func messageTypeFromBytes(message []byte) string {
	var event struct {
		Type string `json:"type"`
	}
	if json.Unmarshal(message, &event) == nil && event.Type != "" {
		return event.Type
	}
	return "unknown"
}
