// Package client is the player-side encounter process: it keeps a
// connection to the session authority, drives the archetype runtimes in
// the world, and feeds the tracker panel. All mission decisions stay on
// the authority; this side only renders and reports.
package client

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"StreetEncounters/internal/catalog"
	"StreetEncounters/internal/protocol"
	"StreetEncounters/internal/runtime"
)

// Config wires a client together.
type Config struct {
	URL      string
	Identity string
	Log      zerolog.Logger
	Runtime  runtime.Options
}

// Client owns the authority connection and the local mission state.
type Client struct {
	cfg      Config
	log      zerolog.Logger
	world    runtime.World
	panel    PanelPort
	runtimes *runtime.Set
	tracker  *Tracker

	mu      sync.Mutex
	conn    sender
	active  map[string]*catalog.Definition
	visible bool
}

type sender interface {
	Send(msgType string, payload any) error
}

// New builds a client over a world surface and a panel port.
func New(cfg Config, world runtime.World, panel PanelPort) *Client {
	c := &Client{
		cfg:     cfg,
		log:     cfg.Log.With().Str("component", "client").Logger(),
		world:   world,
		panel:   panel,
		tracker: NewTracker(cfg.Runtime.Now),
		active:  make(map[string]*catalog.Definition),
	}
	c.runtimes = runtime.NewSet(world, (*reporter)(c), cfg.Runtime)
	return c
}

// reporter adapts the client's outbound sends to the runtime.Reporter
// surface without exporting those methods on Client itself.
type reporter Client

func (r *reporter) Progress(encounterID string, p protocol.Progress) {
	(*Client)(r).send(protocol.MsgProgress, protocol.ProgressPayload{EncounterID: encounterID, Progress: p})
}

func (r *reporter) Complete(encounterID string) {
	(*Client)(r).send(protocol.MsgComplete, protocol.CompletePayload{EncounterID: encounterID})
}

func (r *reporter) Cancel(encounterID, reason string) {
	(*Client)(r).send(protocol.MsgCancel, protocol.CancelPayload{EncounterID: encounterID, Reason: reason})
}

func (c *Client) send(msgType string, payload any) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		c.log.Warn().Str("type", msgType).Msg("dropped send, not connected")
		return
	}
	if err := conn.Send(msgType, payload); err != nil {
		c.log.Error().Err(err).Str("type", msgType).Msg("send failed")
	}
}

// handle dispatches one authority message.
func (c *Client) handle(env protocol.Envelope) {
	switch env.Type {
	case protocol.MsgStart:
		var p protocol.StartPayload
		if !c.decode(env, &p) {
			return
		}
		c.onStart(p)
	case protocol.MsgReturn:
		var p protocol.ReturnPayload
		if !c.decode(env, &p) {
			return
		}
		c.onReturn(p)
	case protocol.MsgClaimed:
		var p protocol.ClaimedPayload
		if !c.decode(env, &p) {
			return
		}
		c.onClaimed(p)
	case protocol.MsgCancelled:
		var p protocol.CancelledPayload
		if !c.decode(env, &p) {
			return
		}
		c.onCancelled(p)
	case protocol.MsgCooldown:
		var p protocol.CooldownPayload
		if !c.decode(env, &p) {
			return
		}
		c.world.Notify("Encounters", "Not yet. Come back later.", "error")
	case protocol.MsgBusy:
		var p protocol.BusyPayload
		if !c.decode(env, &p) {
			return
		}
		c.world.Notify("Encounters", "You are already on this job.", "error")
	case protocol.MsgTracker:
		var data protocol.TrackerData
		if !c.decode(env, &data) {
			return
		}
		c.onTracker(data)
	default:
		c.log.Debug().Str("type", env.Type).Msg("unhandled message")
	}
}

func (c *Client) decode(env protocol.Envelope, out any) bool {
	if err := json.Unmarshal(env.Payload, out); err != nil {
		c.log.Error().Err(err).Str("type", env.Type).Msg("bad payload")
		return false
	}
	return true
}

func (c *Client) onStart(p protocol.StartPayload) {
	def := p.Encounter
	c.mu.Lock()
	c.active[def.ID] = &def
	c.mu.Unlock()

	if err := c.runtimes.Start(&def, p.Progress); err != nil {
		// Leave the session record alone: a cancel here could burn the
		// cooldown over a streaming hiccup. Restore will retry next run.
		c.log.Error().Err(err).Str("encounter", def.ID).Msg("runtime start failed")
		c.world.Notify(def.Label, "Something went wrong setting up the job.", "error")
		return
	}
	if def.Description != "" && (p.Progress == nil || p.Progress.Completed == 0 && p.Progress.ElapsedSeconds == 0) {
		c.world.Notify(def.Label, def.Description, "info")
	}
}

func (c *Client) onReturn(p protocol.ReturnPayload) {
	c.mu.Lock()
	def := c.active[p.EncounterID]
	c.mu.Unlock()
	if def == nil {
		return
	}
	c.world.SetWaypoint(def.NPC.Coords.X, def.NPC.Coords.Y)
	c.world.Notify(def.Label, "Head back to collect your reward.", "success")
}

func (c *Client) onClaimed(p protocol.ClaimedPayload) {
	c.stopMission(p.EncounterID)
	if c.isVisible() {
		c.send(protocol.MsgTrackerRequest, nil)
	}
}

func (c *Client) onCancelled(p protocol.CancelledPayload) {
	c.stopMission(p.EncounterID)
	if p.AppliedCooldown {
		c.world.Notify("Encounters", "Job abandoned. It will be a while before you can retry.", "error")
	}
}

// stopMission stops only the runtime driving the cancelled encounter's
// archetype; missions of other archetypes keep running.
func (c *Client) stopMission(encounterID string) {
	c.mu.Lock()
	def := c.active[encounterID]
	delete(c.active, encounterID)
	c.mu.Unlock()
	if def != nil {
		c.runtimes.StopArchetype(def.Archetype)
	}
}

func (c *Client) onTracker(data protocol.TrackerData) {
	c.tracker.Apply(data)
	if c.isVisible() {
		c.panel.Send(protocol.PanelTrackerData, c.tracker.Snapshot())
	}
}

func (c *Client) isVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visible
}

// onConnected re-syncs after a fresh connection: the authority replays
// active missions, then a snapshot refreshes the tracker.
func (c *Client) onConnected(conn sender) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.send(protocol.MsgRestoreRequest, nil)
	c.send(protocol.MsgTrackerRequest, nil)
}

func (c *Client) onDisconnected() {
	c.mu.Lock()
	c.conn = nil
	c.mu.Unlock()
}

// Shutdown stops every running mission without cancelling it on the
// authority; the session records survive for the next run.
func (c *Client) Shutdown() {
	c.runtimes.StopAll()
}
