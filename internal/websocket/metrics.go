package websocket

import (
	"sync"
	"sync/atomic"
	"time"
)

// HubMetrics счетчики живой ленты одного экземпляра
type HubMetrics struct {
	startTime time.Time

	connections       atomic.Int64
	active            atomic.Int64
	sent              atomic.Int64
	received          atomic.Int64
	clusterMessages   atomic.Int64
	slowClientsKicked atomic.Int64

	mu     sync.Mutex
	byType map[string]int64
}

// NewHubMetrics создает метрики с отсчетом аптайма от текущего момента
func NewHubMetrics() *HubMetrics {
	return &HubMetrics{startTime: time.Now(), byType: make(map[string]int64)}
}

// IncrementTotalConnections учитывает новое подключение
func (m *HubMetrics) IncrementTotalConnections() {
	m.connections.Add(1)
	m.active.Add(1)
}

// DecrementActiveConnections учитывает отключение
func (m *HubMetrics) DecrementActiveConnections() {
	for {
		current := m.active.Load()
		if current <= 0 || m.active.CompareAndSwap(current, current-1) {
			return
		}
	}
}

// AddMessageSent учитывает рассылку одного события count клиентам
func (m *HubMetrics) AddMessageSent(messageType string, count int64) {
	m.sent.Add(count)
	if messageType == "" {
		return
	}
	m.mu.Lock()
	m.byType[messageType]++
	m.mu.Unlock()
}

func (m *HubMetrics) AddMessageReceived() { m.received.Add(1) }

func (m *HubMetrics) AddClusterMessage() { m.clusterMessages.Add(1) }

func (m *HubMetrics) AddSlowClientKicked() { m.slowClientsKicked.Add(1) }

// Snapshot возвращает метрики для JSON-ответа
func (m *HubMetrics) Snapshot() map[string]interface{} {
	m.mu.Lock()
	byType := make(map[string]int64, len(m.byType))
	for messageType, count := range m.byType {
		byType[messageType] = count
	}
	m.mu.Unlock()

	return map[string]interface{}{
		"total_connections":   m.connections.Load(),
		"active_connections":  m.active.Load(),
		"messages_sent":       m.sent.Load(),
		"messages_received":   m.received.Load(),
		"cluster_messages":    m.clusterMessages.Load(),
		"slow_clients_kicked": m.slowClientsKicked.Load(),
		"uptime_seconds":      time.Since(m.startTime).Seconds(),
		"start_time":          m.startTime.Format(time.RFC3339),
		"message_type_stats":  byType,
	}
}
