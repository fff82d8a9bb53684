package websocket

// Типы сообщений живой ленты
const (
	// EPISODE_ADDED сообщает о новом эпизоде и его классификации
	EPISODE_ADDED = "episode_added"

	// CLIENT_PING проверка соединения со стороны клиента
	CLIENT_PING = "ping"

	// SERVER_PONG ответ на CLIENT_PING
	SERVER_PONG = "pong"

	// SERVER_ERROR ошибка обработки сообщения клиента
	SERVER_ERROR = "server:error"
)

// clusterChannel канал Redis, через который экземпляры обмениваются событиями
const clusterChannel = "sof:live"
