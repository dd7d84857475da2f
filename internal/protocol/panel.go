package protocol

import (
	"encoding/json"

	"StreetEncounters/internal/catalog"
)

// Panel actions pushed from the client process to the presentation layer.
const (
	PanelSetVisible    = "setVisible"
	PanelEncounterShow = "encounter:show"
	PanelTrackerToggle = "tracker:toggle"
	PanelTrackerData   = "tracker:data"
)

// UI-only intents arriving from the presentation layer; mission intents reuse
// the network message names (MsgAccept, MsgClaim, ...).
const (
	IntentFocusSet        = "focus:set"
	IntentPanelGetVisible = "panel:getVisible"
	IntentWaypoint        = "encounter:waypoint"
	IntentExit            = "exit"
)

// PanelMessage is the action-tagged record exchanged with the presentation
// layer.
type PanelMessage struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// EncounterShowPayload renders an NPC's encounter offer, annotated with the
// player's tracked status for it.
type EncounterShowPayload struct {
	Encounter         catalog.Definition `json:"encounter"`
	NpcID             string             `json:"npcId"`
	Status            string             `json:"status"`
	CooldownRemaining int                `json:"cooldownRemaining,omitempty"`
}

// VisiblePayload toggles panel visibility.
type VisiblePayload struct {
	Visible bool `json:"visible"`
}

// FocusPayload is the focus:set intent body.
type FocusPayload struct {
	HasFocus  bool `json:"hasFocus"`
	HasCursor bool `json:"hasCursor"`
}

// WaypointPayload asks the client to place a map waypoint.
type WaypointPayload struct {
	EncounterID string  `json:"encounterId,omitempty"`
	X           float64 `json:"x,omitempty"`
	Y           float64 `json:"y,omitempty"`
}
