package ws

import (
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"bigtwo/internal/app"
	"bigtwo/internal/domain"
	"bigtwo/internal/ports"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler owns the REST party lifecycle and the WebSocket entry point.
// Hubs are created lazily on the first connection to a party and share
// the store with the REST side; the hub's store poll picks up REST
// writes that happened behind its back.
type Handler struct {
	svc   *app.Service
	store ports.PartyStore
	log   *zap.Logger
	opts  HubOptions

	mu   sync.Mutex
	rng  *rand.Rand
	hubs map[string]*Hub
}

func NewHandler(svc *app.Service, store ports.PartyStore, log *zap.Logger, opts HubOptions) *Handler {
	return &Handler{
		svc:   svc,
		store: store,
		log:   log,
		opts:  opts,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		hubs:  make(map[string]*Hub),
	}
}

// Register mounts the routes.
func (h *Handler) Register(r *gin.Engine) {
	r.POST("/api/parties", h.createParty)
	r.POST("/api/parties/:partyId/join", h.joinParty)
	r.DELETE("/api/parties/:partyId", h.deleteParty)
	r.GET("/api/parties/:partyId", h.getParty)
	r.GET("/ws/:partyId", h.handleWS)
}

const partyCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ"

func partyCode(rng *rand.Rand) string {
	b := make([]byte, 4)
	for i := range b {
		b[i] = partyCodeAlphabet[rng.Intn(len(partyCodeAlphabet))]
	}
	return string(b)
}

func (h *Handler) createParty(c *gin.Context) {
	var body struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	ctx := c.Request.Context()
	var partyID string
	for attempt := 0; attempt < 5; attempt++ {
		h.mu.Lock()
		code := partyCode(h.rng)
		h.mu.Unlock()
		if _, err := h.store.Load(ctx, code); err == ports.ErrPartyNotFound {
			partyID = code
			break
		}
	}
	if partyID == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not allocate a party code"})
		return
	}

	table := h.svc.NewParty(partyID, body.Name)
	if err := h.store.Save(ctx, table); err != nil {
		h.log.Error("save new party", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create party"})
		return
	}

	h.log.Info("party created", zap.String("party", partyID), zap.String("host", body.Name))
	c.JSON(http.StatusCreated, gin.H{"partyId": partyID})
}

func (h *Handler) joinParty(c *gin.Context) {
	var body struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	ctx := c.Request.Context()
	partyID := c.Param("partyId")
	table, err := h.store.Load(ctx, partyID)
	if err == ports.ErrPartyNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "party not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load party"})
		return
	}

	if err := h.svc.AddPlayer(table, body.Name, false); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err := h.store.Save(ctx, table); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save party"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"partyId": partyID, "seat": table.SeatOf(body.Name)})
}

func (h *Handler) getParty(c *gin.Context) {
	table, err := h.store.Load(c.Request.Context(), c.Param("partyId"))
	if err == ports.ErrPartyNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "party not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load party"})
		return
	}
	c.JSON(http.StatusOK, StatePayload{You: -1, Table: table.Redacted(-1)})
}

func (h *Handler) deleteParty(c *gin.Context) {
	partyID := c.Param("partyId")
	if err := h.store.Delete(c.Request.Context(), partyID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete party"})
		return
	}

	h.mu.Lock()
	if hub, ok := h.hubs[partyID]; ok {
		delete(h.hubs, partyID)
		hub.Stop()
	}
	h.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"deleted": partyID})
}

func (h *Handler) handleWS(c *gin.Context) {
	partyID := c.Param("partyId")
	name := c.Query("name")

	table, err := h.store.Load(c.Request.Context(), partyID)
	if err == ports.ErrPartyNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "party not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load party"})
		return
	}

	hub := h.hubFor(partyID, table)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	id := uuid.NewString()
	h.log.Info("websocket connected",
		zap.String("party", partyID),
		zap.String("name", name),
		zap.String("conn", id),
	)

	client := newClient(hub, conn, id, name, h.log)
	hub.register <- client
	client.run()
}

func (h *Handler) hubFor(partyID string, table *domain.TableState) *Hub {
	h.mu.Lock()
	defer h.mu.Unlock()
	if hub, ok := h.hubs[partyID]; ok && !hub.stopped() {
		return hub
	}
	hub := NewHub(partyID, table, h.svc, h.store, h.log, h.opts)
	h.hubs[partyID] = hub
	go hub.Run()
	return hub
}
