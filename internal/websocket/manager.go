package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/sof-stats/internal/domain/entity"
)

// Event представляет структуру WebSocket-сообщения
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// EpisodeAddedData содержимое события EPISODE_ADDED
type EpisodeAddedData struct {
	EpNum    int    `json:"ep_num"`
	Date     string `json:"date"`
	NumItems int    `json:"num_items"`
	Theme    string `json:"theme,omitempty"`
	Sweep    string `json:"sweep,omitempty"`
}

// Manager обрабатывает WebSocket сообщения и публикует события сервиса
type Manager struct {
	hub            Broadcaster
	messageHandler map[string]func(data json.RawMessage, client *Client) error
}

// NewManager создает новый менеджер WebSocket
func NewManager(hub Broadcaster) *Manager {
	m := &Manager{
		hub:            hub,
		messageHandler: make(map[string]func(data json.RawMessage, client *Client) error),
	}
	m.RegisterHandler(CLIENT_PING, func(_ json.RawMessage, client *Client) error {
		m.hub.SendJSON(client, Event{Type: SERVER_PONG, Data: map[string]int64{"ts": time.Now().Unix()}})
		return nil
	})
	return m
}

// RegisterHandler регистрирует обработчик для определенного типа сообщений
func (m *Manager) RegisterHandler(eventType string, handler func(data json.RawMessage, client *Client) error) {
	m.messageHandler[eventType] = handler
}

// HandleMessage обрабатывает входящее сообщение от клиента.
// Возвращает error, если соединение нужно закрыть.
func (m *Manager) HandleMessage(message []byte, client *Client) error {
	var event struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(message, &event); err != nil {
		m.SendErrorToClient(client, "invalid_message_format", "Invalid JSON format")
		return err
	}

	handler, ok := m.messageHandler[event.Type]
	if !ok {
		m.SendErrorToClient(client, "unknown_message_type", fmt.Sprintf("Unknown message type: %s", event.Type))
		return nil
	}
	return handler(event.Data, client)
}

// SendErrorToClient отправляет сообщение об ошибке клиенту, не закрывая соединение
func (m *Manager) SendErrorToClient(client *Client, code string, message string) {
	m.hub.SendJSON(client, Event{
		Type: SERVER_ERROR,
		Data: map[string]string{"code": code, "message": message},
	})
}

// BroadcastEvent отправляет событие всем клиентам
func (m *Manager) BroadcastEvent(eventType string, data interface{}) error {
	return m.hub.BroadcastJSON(Event{Type: eventType, Data: data})
}

// EpisodeAdded публикует новый эпизод в живую ленту
func (m *Manager) EpisodeAdded(ctx context.Context, episode *entity.Episode, sweep entity.SweepKind) {
	data := EpisodeAddedData{
		EpNum:    episode.EpNum,
		Date:     episode.Date.Format(entity.DateLayout),
		NumItems: episode.NumItems,
		Theme:    episode.ThemeName(),
		Sweep:    string(sweep),
	}
	if err := m.BroadcastEvent(EPISODE_ADDED, data); err != nil {
		log.Printf("[WebSocketManager] Не удалось разослать эпизод #%d: %v", episode.EpNum, err)
	}
}
