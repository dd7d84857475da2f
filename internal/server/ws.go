package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"StreetEncounters/internal/authority"
	"StreetEncounters/internal/protocol"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const wsWriteTimeout = 10 * time.Second

// Hub tracks connected players and implements authority.Emitter: pushes to
// an identity go out over its live connection, or are dropped with a log
// line when the player is offline. Snapshot requests recover anything a
// player missed while away.
type Hub struct {
	log  zerolog.Logger
	cfg  Config
	auth *authority.Authority

	mu    sync.RWMutex
	conns map[string]*wsClient
}

type wsClient struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *wsClient) write(buf []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.ws.WriteMessage(websocket.TextMessage, buf)
}

// NewHub builds an empty hub; SetAuthority must run before serving.
func NewHub(cfg Config, log zerolog.Logger) *Hub {
	return &Hub{
		log:   log.With().Str("component", "hub").Logger(),
		cfg:   cfg,
		conns: make(map[string]*wsClient),
	}
}

// SetAuthority closes the hub/authority cycle: the authority emits through
// the hub, the hub dispatches into the authority.
func (h *Hub) SetAuthority(a *authority.Authority) { h.auth = a }

// Push implements authority.Emitter.
func (h *Hub) Push(identity, msgType string, payload any) {
	h.mu.RLock()
	c := h.conns[identity]
	h.mu.RUnlock()
	if c == nil {
		h.log.Debug().Str("identity", identity).Str("type", msgType).Msg("push dropped, offline")
		return
	}
	buf, err := protocol.Encode(msgType, payload)
	if err != nil {
		h.log.Error().Err(err).Str("type", msgType).Msg("encode push")
		return
	}
	if err := c.write(buf); err != nil {
		h.log.Warn().Err(err).Str("identity", identity).Str("type", msgType).Msg("push failed")
	}
}

func (h *Hub) register(identity string, c *wsClient) {
	h.mu.Lock()
	prev := h.conns[identity]
	h.conns[identity] = c
	h.mu.Unlock()
	if prev != nil {
		_ = prev.ws.Close()
	}
}

func (h *Hub) unregister(identity string, c *wsClient) {
	h.mu.Lock()
	if h.conns[identity] == c {
		delete(h.conns, identity)
	}
	h.mu.Unlock()
}

// ServeWS upgrades one player connection and pumps its messages into the
// authority until it drops.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	identity := r.URL.Query().Get("identity")
	if identity == "" {
		http.Error(w, "identity required", http.StatusBadRequest)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("upgrade failed")
		return
	}
	c := &wsClient{ws: ws}
	h.register(identity, c)
	h.log.Info().Str("identity", identity).Str("remote", r.RemoteAddr).Msg("player connected")

	defer func() {
		h.unregister(identity, c)
		_ = ws.Close()
		h.log.Info().Str("identity", identity).Msg("player disconnected")
	}()

	for {
		var env protocol.Envelope
		if err := ws.ReadJSON(&env); err != nil {
			return
		}
		h.dispatch(identity, env)
	}
}

// dispatch routes one inbound message. Lifecycle rejections already push
// their own signal to the player; here they only rate a debug line, so a
// stale or malformed client cannot wedge the loop.
func (h *Hub) dispatch(identity string, env protocol.Envelope) {
	logErr := func(err error) {
		if err != nil {
			h.log.Debug().Err(err).Str("identity", identity).Str("type", env.Type).Msg("request rejected")
		}
	}

	switch env.Type {
	case protocol.MsgAccept:
		var p protocol.AcceptPayload
		if h.decode(identity, env, &p) {
			logErr(h.auth.Accept(identity, p.NpcID, p.EncounterID))
		}
	case protocol.MsgComplete:
		var p protocol.CompletePayload
		if h.decode(identity, env, &p) {
			logErr(h.auth.Complete(identity, p.EncounterID))
		}
	case protocol.MsgClaim:
		var p protocol.ClaimPayload
		if h.decode(identity, env, &p) {
			logErr(h.auth.Claim(identity, p.NpcID, p.EncounterID))
		}
	case protocol.MsgCancel:
		var p protocol.CancelPayload
		if h.decode(identity, env, &p) {
			reason := p.Reason
			if reason == "" {
				reason = protocol.CancelReasonPlayer
			}
			logErr(h.auth.Cancel(identity, p.EncounterID, reason))
		}
	case protocol.MsgProgress:
		var p protocol.ProgressPayload
		if h.decode(identity, env, &p) {
			logErr(h.auth.ReportProgress(identity, p))
		}
	case protocol.MsgTrackerRequest:
		h.auth.PushSnapshot(identity)
	case protocol.MsgRestoreRequest:
		h.auth.Restore(identity)
	case protocol.MsgClearCooldowns:
		if !h.cfg.IsAdmin(identity) {
			h.log.Warn().Str("identity", identity).Msg("clear cooldowns refused")
			return
		}
		h.auth.ClearCooldowns(identity)
		h.auth.PushSnapshot(identity)
	default:
		h.log.Debug().Str("identity", identity).Str("type", env.Type).Msg("unknown message type")
	}
}

func (h *Hub) decode(identity string, env protocol.Envelope, out any) bool {
	if err := json.Unmarshal(env.Payload, out); err != nil {
		h.log.Warn().Err(err).Str("identity", identity).Str("type", env.Type).Msg("bad payload")
		return false
	}
	return true
}
