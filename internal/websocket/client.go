package websocket

import (
	"bytes"
	"fmt"
	"log"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Подписчик ленты присылает только ping, большие сообщения не нужны
	maxMessageSize = 512

	feedBufferSize = 64

	// Сколько событий подряд клиент может пропустить до отключения
	maxMissedEvents = 3

	registerTimeout = 5 * time.Second
)

// MessageHandler обрабатывает сообщение клиента; ошибка закрывает соединение
type MessageHandler func(message []byte, client *Client) error

// Client подписчик живой ленты: одно WebSocket соединение и его очередь событий
type Client struct {
	ID string

	hub  *Hub
	conn *websocket.Conn

	send   chan []byte
	closed atomic.Bool
	// missed число событий подряд, не поместившихся в буфер
	missed atomic.Int32

	registered chan struct{}
}

// NewClient создает подписчика ленты
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:         uuid.NewString(),
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, feedBufferSize),
		registered: make(chan struct{}),
	}
}

// StartPumps регистрирует клиента в хабе и запускает чтение и запись.
// Если хаб остановлен или не ответил вовремя, соединение закрывается.
func (c *Client) StartPumps(handle MessageHandler) {
	select {
	case c.hub.register <- c:
	case <-c.hub.done:
		c.conn.Close()
		return
	}

	select {
	case <-c.registered:
	case <-time.After(registerTimeout):
		log.Printf("[WS Client %s] Таймаут регистрации в хабе", c.ID)
		c.conn.Close()
		return
	}

	go c.writeLoop()
	go c.readLoop(handle)
}

// enqueue кладет событие в очередь без блокировки.
// Возвращает false, если очередь полна или уже закрыта.
func (c *Client) enqueue(message []byte) bool {
	if c.closed.Load() {
		return false
	}
	select {
	case c.send <- message:
		c.missed.Store(0)
		return true
	default:
		c.missed.Add(1)
		return false
	}
}

// lagging сообщает, что клиент пропустил слишком много событий подряд
func (c *Client) lagging() bool {
	return c.missed.Load() >= maxMissedEvents
}

// closeQueue закрывает очередь ровно один раз; writeLoop после этого шлет Close frame
func (c *Client) closeQueue() bool {
	if c.closed.CompareAndSwap(false, true) {
		close(c.send)
		return true
	}
	return false
}

func (c *Client) readLoop(handle MessageHandler) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("[WS Client %s] Ошибка чтения: %v", c.ID, err)
			}
			return
		}
		c.hub.metrics.AddMessageReceived()

		if err := c.dispatch(bytes.TrimSpace(message), handle); err != nil {
			log.Printf("[WS Client %s] Ошибка обработчика: %v. Закрываем соединение.", c.ID, err)
			return
		}
	}
}

// dispatch вызывает обработчик и превращает панику в ошибку
func (c *Client) dispatch(message []byte, handle MessageHandler) (err error) {
	if handle == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[WS Client %s] PANIC в обработчике: %v\n%s", c.ID, r, debug.Stack())
			err = fmt.Errorf("panic recovered: %v", r)
		}
	}()
	return handle(message, c)
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS Client %s] Ошибка записи: %v", c.ID, err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
