package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/olahol/melody"

	"github.com/Anmolmahajn/money-tracker-backend/middleware"
)

// WSHandler owns the realtime hub. Each connected session is tagged with
// its user ID so notifications can be routed per user.
type WSHandler struct {
	M *melody.Melody
}

func NewWSHandler() *WSHandler {
	m := melody.New()

	m.Config.MaxMessageSize = 1024 * 1024

	// CORS is enforced at the HTTP layer; the upgrade check would reject
	// cross-origin browsers twice otherwise.
	m.Upgrader = &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	// Keep-alive so cloud load balancers do not drop idle sockets.
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	m.HandleDisconnect(func(s *melody.Session) {
		userID, _ := s.Get("user_id")
		log.Printf("🔌 Client disconnected: %v", userID)
	})

	m.HandleError(func(s *melody.Session, err error) {
		log.Printf("❌ WebSocket error: %v", err)
	})

	return &WSHandler{M: m}
}

// HandleWS upgrades the request. AuthMiddleware has already validated the
// token (browsers pass it as a query parameter on upgrade requests).
func (h *WSHandler) HandleWS(c *gin.Context) {
	userID := middleware.GetUserID(c)

	err := h.M.HandleRequestWithKeys(c.Writer, c.Request, map[string]interface{}{
		"user_id": userID,
	})
	if err != nil {
		log.Printf("❌ Failed to upgrade websocket: %v", err)
		return
	}
	log.Printf("✅ Client connected: %s", userID)
}

// Push implements services.Pusher: deliver a payload to every session of
// one user.
func (h *WSHandler) Push(userID string, payload []byte) error {
	return h.M.BroadcastFilter(payload, func(s *melody.Session) bool {
		id, exists := s.Get("user_id")
		return exists && id == userID
	})
}
