package handlers

import (
	"log/slog"
	"net/http"

	"github.com/StephenCStudy/BX-clan-Backend/middleware"
	"github.com/StephenCStudy/BX-clan-Backend/realtime"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin проверяется CORS-слоем; ws-эндпоинт пускает всех.
		return true
	},
}

type WebSocketHandler struct {
	hub    *realtime.Hub
	logger *slog.Logger
}

func NewWebSocketHandler(hub *realtime.Hub, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, logger: logger}
}

var allowedTopics = map[string]bool{
	realtime.TopicCustoms:     true,
	realtime.TopicTournaments: true,
	realtime.TopicTeams:       true,
	realtime.TopicNews:        true,
}

// Subscribe подключает клиента к публичному топику: /ws/{topic}.
func (h *WebSocketHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	topic := chi.URLParam(r, "topic")
	if !allowedTopics[topic] {
		http.Error(w, "unknown topic", http.StatusBadRequest)
		return
	}
	h.serve(w, r, topic)
}

// SubscribePersonal подключает аутентифицированного клиента к его
// персональному топику уведомлений.
func (h *WebSocketHandler) SubscribePersonal(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	h.serve(w, r, realtime.UserTopic(userID))
}

func (h *WebSocketHandler) serve(w http.ResponseWriter, r *http.Request, topic string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам пишет HTTP-ошибку клиенту.
		h.logger.Error("failed to upgrade websocket connection", "topic", topic, "error", err)
		return
	}

	client := &realtime.Client{
		Hub:   h.hub,
		Conn:  conn,
		Send:  make(chan []byte, 256),
		Topic: topic,
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
