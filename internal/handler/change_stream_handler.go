package handler

import (
	"strings"

	"prompt-manager-core/internal/pkg/logger"
	internalWS "prompt-manager-core/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// ChangeStreamHandler upgrades authenticated requests to a websocket that
// receives every committed store change.
type ChangeStreamHandler struct {
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewChangeStreamHandler(hub *internalWS.Hub, log logger.ILogger) *ChangeStreamHandler {
	return &ChangeStreamHandler{
		hub:    hub,
		logger: log,
	}
}

// ServeWs accepts an optional comma separated "entities" filter, e.g.
// ?entities=prompt,shared_creation.
func (h *ChangeStreamHandler) ServeWs(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	subject, _ := c.Locals("subject").(string)
	var entities []string
	if raw := c.Query("entities"); raw != "" {
		for _, e := range strings.Split(raw, ",") {
			if e = strings.TrimSpace(e); e != "" {
				entities = append(entities, e)
			}
		}
	}

	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("ChangeStreamHandler", "Starting change stream", map[string]interface{}{"subject": subject, "entities": entities})
		internalWS.ServeWs(h.hub, conn, subject, entities)
		h.logger.Info("ChangeStreamHandler", "Change stream ended", map[string]interface{}{"subject": subject})
	})(c)
}

func (h *ChangeStreamHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	router.Get("/ws/changes", auth, h.ServeWs)
}
