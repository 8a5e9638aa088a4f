package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yourusername/ytdlp-api-go/internal/app"
)

const (
	statusPushInterval = time.Second
	wsWriteTimeout     = 10 * time.Second
	wsPingInterval     = 30 * time.Second
)

var statusUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StatusWebSocketHandler pushes job snapshots to connected clients so
// frontends don't have to poll GET /status.
type StatusWebSocketHandler struct {
	registry *app.JobRegistry
	logger   *zap.Logger
}

func NewStatusWebSocketHandler(registry *app.JobRegistry, logger *zap.Logger) *StatusWebSocketHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusWebSocketHandler{registry: registry, logger: logger}
}

// Stream handles GET /status/ws. One snapshot is pushed immediately on
// connect, then once per interval until the client goes away.
func (h *StatusWebSocketHandler) Stream(c *gin.Context) {
	conn, err := statusUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// The client never sends application data; the read loop only exists
	// to observe the close handshake.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	push := func() error {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return conn.WriteJSON(h.registry.SnapshotAll())
	}
	if err := push(); err != nil {
		return
	}

	pushTicker := time.NewTicker(statusPushInterval)
	defer pushTicker.Stop()
	pingTicker := time.NewTicker(wsPingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-done:
			return
		case <-pushTicker.C:
			if err := push(); err != nil {
				return
			}
		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
