package client

import (
	"encoding/json"

	"StreetEncounters/internal/catalog"
	"StreetEncounters/internal/protocol"
)

// PanelPort pushes action-tagged messages into the presentation layer.
// Implementations wrap whatever UI channel the platform provides; tests
// record.
type PanelPort interface {
	Send(action string, data any)
}

// ToggleTracker flips tracker visibility and, when opening, paints the
// cached snapshot immediately before asking the authority for a fresh one.
func (c *Client) ToggleTracker() {
	c.mu.Lock()
	c.visible = !c.visible
	visible := c.visible
	c.mu.Unlock()

	c.panel.Send(protocol.PanelTrackerToggle, protocol.VisiblePayload{Visible: visible})
	if !visible {
		return
	}
	if !c.tracker.Empty() {
		c.panel.Send(protocol.PanelTrackerData, c.tracker.Snapshot())
	}
	c.send(protocol.MsgTrackerRequest, nil)
}

// ShowEncounter opens the offer panel for an NPC's encounter, annotated with
// the tracked status so the UI can render accept, claim or wait states. The
// platform layer calls this when the player interacts with a mission giver.
func (c *Client) ShowEncounter(def catalog.Definition, npcID string) {
	payload := protocol.EncounterShowPayload{
		Encounter: def,
		NpcID:     npcID,
		Status:    protocol.StatusAvailable,
	}
	if !c.tracker.Empty() {
		for _, row := range c.tracker.Snapshot().Statuses {
			if row.ID == def.ID {
				payload.Status = row.Status
				payload.CooldownRemaining = row.CooldownRemaining
				break
			}
		}
	}

	c.mu.Lock()
	c.visible = true
	c.mu.Unlock()
	c.panel.Send(protocol.PanelSetVisible, protocol.VisiblePayload{Visible: true})
	c.panel.Send(protocol.PanelEncounterShow, payload)
}

// HandleIntent processes one intent arriving from the presentation layer.
// Mission intents are forwarded to the authority verbatim; UI intents are
// resolved locally.
func (c *Client) HandleIntent(msg protocol.PanelMessage) {
	switch msg.Action {
	case protocol.MsgAccept:
		var p protocol.AcceptPayload
		if json.Unmarshal(msg.Data, &p) == nil {
			c.send(protocol.MsgAccept, p)
		}
	case protocol.MsgClaim:
		var p protocol.ClaimPayload
		if json.Unmarshal(msg.Data, &p) == nil {
			c.send(protocol.MsgClaim, p)
		}
	case protocol.MsgCancel:
		var p protocol.CancelPayload
		if json.Unmarshal(msg.Data, &p) == nil {
			p.Reason = protocol.CancelReasonPlayer
			c.send(protocol.MsgCancel, p)
		}
	case protocol.MsgTrackerRequest:
		if !c.tracker.Empty() {
			c.panel.Send(protocol.PanelTrackerData, c.tracker.Snapshot())
		}
		c.send(protocol.MsgTrackerRequest, nil)
	case protocol.IntentWaypoint:
		var p protocol.WaypointPayload
		if json.Unmarshal(msg.Data, &p) == nil {
			c.world.SetWaypoint(p.X, p.Y)
		}
	case protocol.IntentPanelGetVisible:
		c.panel.Send(protocol.PanelSetVisible, protocol.VisiblePayload{Visible: c.isVisible()})
	case protocol.IntentExit:
		c.mu.Lock()
		c.visible = false
		c.mu.Unlock()
		c.panel.Send(protocol.PanelSetVisible, protocol.VisiblePayload{Visible: false})
	case protocol.IntentFocusSet:
		// Focus and cursor are owned by the panel host; nothing to do here.
	default:
		c.log.Debug().Str("action", msg.Action).Msg("unhandled intent")
	}
}
