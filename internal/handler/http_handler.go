package handler

import (
	"context"
	"errors"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/dyndash/combat-provider/internal/domain"
	"github.com/dyndash/combat-provider/internal/service"
	"github.com/dyndash/combat-provider/pkg/log"
	"github.com/dyndash/combat-provider/pkg/response"
	"github.com/dyndash/combat-provider/pkg/storage"
	"github.com/gin-gonic/gin"
)

// Dispatcher starts a background reload of one category.
type Dispatcher interface {
	Dispatch(ctx context.Context, category domain.Category)
}

// Handler handles HTTP requests for the combat provider.
type Handler struct {
	service service.CombatService
	loader  Dispatcher
	assets  storage.Storage
}

// NewHandler creates a new HTTP handler.
func NewHandler(svc service.CombatService, loader Dispatcher, assets storage.Storage) *Handler {
	return &Handler{
		service: svc,
		loader:  loader,
		assets:  assets,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/info", h.GetInfo)
	r.GET("/types", h.ListTypes)

	sources := r.Group("/sources")
	{
		sources.GET("", h.ListSources)
		sources.GET("/data", h.ListData)
		sources.GET("/data/*key", h.GetData)
	}

	dice := r.Group("/dice")
	{
		dice.POST("/cycle", h.CycleDie)
		dice.POST("/roll", h.RollDie)
		dice.POST("/undo", h.UndoDie)
	}

	party := r.Group("/party")
	{
		party.POST("/toggle", h.ToggleParty)
		party.POST("/load", h.loadCategory(domain.CategoryParty))
	}

	encounter := r.Group("/encounter")
	{
		encounter.POST("/toggle", h.ToggleEncounter)
		encounter.POST("/load", h.loadCategory(domain.CategoryEncounter))
	}

	r.GET("/assets/*key", h.GetAsset)
}

func (h *Handler) GetInfo(c *gin.Context) {
	response.JSON(c, h.service.Info())
}

func (h *Handler) ListTypes(c *gin.Context) {
	response.JSON(c, h.service.DataTypes())
}

func (h *Handler) ListSources(c *gin.Context) {
	response.JSON(c, h.service.Sources())
}

func (h *Handler) ListData(c *gin.Context) {
	response.JSON(c, h.service.AllData())
}

// GetData returns one document. Keys may contain slashes, e.g. party/heroes.
func (h *Handler) GetData(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	c.Set(log.FieldSource, key)

	doc, err := h.service.Data(key)
	if err != nil {
		h.fail(c, err, "failed to get data")
		return
	}
	response.JSON(c, doc)
}

func (h *Handler) CycleDie(c *gin.Context) {
	h.dieAction(c, h.service.CycleDie)
}

// RollDie replies once the roll has started; later phases are pushed to subscribers.
func (h *Handler) RollDie(c *gin.Context) {
	h.dieAction(c, h.service.RollDie)
}

func (h *Handler) UndoDie(c *gin.Context) {
	h.dieAction(c, h.service.UndoDie)
}

func (h *Handler) dieAction(c *gin.Context, action func(context.Context, domain.DieRequest) error) {
	ctx := c.Request.Context()

	var req domain.DieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("failed to bind die request")
		response.BadRequest(c, err.Error())
		return
	}
	if req.Source != "" {
		c.Set(log.FieldSource, req.Source)
	}

	if err := action(ctx, req); err != nil {
		h.fail(c, err, "failed to change die")
		return
	}
	response.OK(c)
}

func (h *Handler) ToggleParty(c *gin.Context) {
	ctx := c.Request.Context()

	var req domain.PartyToggle
	if err := c.ShouldBindJSON(&req); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("failed to bind party toggle request")
		response.BadRequest(c, err.Error())
		return
	}
	c.Set(log.FieldSource, req.Party)

	if err := h.service.UpdateParty(ctx, req); err != nil {
		h.fail(c, err, "failed to update party")
		return
	}
	response.OK(c)
}

func (h *Handler) ToggleEncounter(c *gin.Context) {
	ctx := c.Request.Context()

	var req domain.EncounterToggle
	if err := c.ShouldBindJSON(&req); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("failed to bind encounter toggle request")
		response.BadRequest(c, err.Error())
		return
	}
	c.Set(log.FieldSource, req.Encounter)

	if err := h.service.UpdateEncounter(ctx, req); err != nil {
		h.fail(c, err, "failed to update encounter")
		return
	}
	response.OK(c)
}

func (h *Handler) loadCategory(category domain.Category) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.loader.Dispatch(c.Request.Context(), category)
		response.Accepted(c, string(category))
	}
}

// GetAsset streams a stored image.
func (h *Handler) GetAsset(c *gin.Context) {
	ctx := c.Request.Context()
	key := strings.TrimPrefix(c.Param("key"), "/")

	rc, err := h.assets.Read(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.NotFound(c)
			return
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Str("key", key).Msg("failed to read asset")
		response.InternalError(c, "failed to read asset")
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Status(200)
	c.Header("Content-Type", contentType)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str("key", key).Msg("asset stream interrupted")
	}
}

// fail maps service errors onto responses: lookups that miss are 404 with
// no body, malformed requests are 400.
func (h *Handler) fail(c *gin.Context, err error, msg string) {
	switch {
	case domain.IsNotFound(err):
		response.NotFound(c)
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrBonusIndexOutOfRange):
		response.BadRequest(c, err.Error())
	default:
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Msg(msg)
		response.InternalError(c, msg)
	}
}
