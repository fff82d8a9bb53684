package websocket

// Broadcaster рассылает события всем подключенным клиентам
type Broadcaster interface {
	// BroadcastJSON отправляет структуру JSON всем клиентам
	BroadcastJSON(v interface{}) error

	// SendJSON отправляет структуру JSON одному клиенту
	SendJSON(client *Client, v interface{}) bool

	// ClientCount возвращает количество подключенных клиентов
	ClientCount() int

	// GetMetrics возвращает метрики хаба
	GetMetrics() map[string]interface{}
}
