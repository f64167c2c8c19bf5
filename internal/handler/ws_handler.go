package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dyndash/combat-provider/internal/config"
	"github.com/dyndash/combat-provider/internal/domain"
	"github.com/dyndash/combat-provider/internal/hub"
	"github.com/dyndash/combat-provider/internal/service"
	"github.com/dyndash/combat-provider/pkg/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSHandler struct {
	hub     *hub.Hub
	service service.CombatService
	wsCfg   config.WebSocketConfig
}

func NewWSHandler(h *hub.Hub, svc service.CombatService, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:     h,
		service: svc,
		wsCfg:   wsCfg,
	}
}

func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l := log.Ctx(r.Context())
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	id := uuid.New().String()
	base := log.Ctx(r.Context())
	ctx := log.WithLogger(context.Background(), base.With().Str(log.FieldClientID, id).Logger())

	client := hub.NewClient(id, h.hub, conn, h.wsCfg)
	client.SetDisconnectHandler(func(c *hub.Client) {
		h.service.HandleDisconnect(ctx, c)
	})

	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(func(c *hub.Client, message []byte) {
		h.handleMessage(ctx, c, message)
	})
}

func (h *WSHandler) handleMessage(ctx context.Context, client *hub.Client, message []byte) {
	l := log.Ctx(ctx)

	var msg domain.SubscribeMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		l.Debug().Err(err).Msg("invalid message format")
		client.SendMessage(domain.NewErrorMessage(domain.MsgInvalidFormat))
		return
	}

	switch msg.Action {
	case domain.ActionUnsubscribe:
		if err := h.service.HandleUnsubscribe(ctx, client); err != nil {
			l.Warn().Err(err).Msg("unsubscribe failed")
		}

	case "", domain.ActionSubscribe:
		if msg.Source == nil {
			client.SendMessage(domain.NewErrorMessage(domain.MsgInvalidFormat))
			return
		}
		source := *msg.Source
		err := h.service.HandleSubscribe(ctx, client, source)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrSourceNotFound):
			client.SendMessage(domain.NewErrorMessage(domain.MsgSourceNotFound(source)))
		case errors.Is(err, domain.ErrNoData):
			client.SendMessage(domain.NewErrorMessage(domain.MsgNoData(source)))
		default:
			l.Error().Err(err).Str(log.FieldSource, source).Msg("subscribe failed")
			client.SendMessage(domain.NewErrorMessage(err.Error()))
		}

	default:
		client.SendMessage(domain.NewErrorMessage(domain.MsgInvalidFormat))
	}
}

// RegisterRoutes serves the subscription channel on /ws and on the root path.
func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", gin.WrapF(h.HandleWebSocket))
	r.GET("/", gin.WrapF(h.HandleWebSocket))
}
