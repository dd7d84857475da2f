// Package protocol defines the JSON wire protocol shared by the session
// authority and the encounter client. Messages travel inside an Envelope and
// are fire-and-forget: lost frames are recovered by full-state snapshot
// requests, never by retransmission.
package protocol

import (
	"encoding/json"
	"fmt"

	"StreetEncounters/internal/catalog"
)

// Prefix namespaces every message type so multiple resources can share one
// channel without colliding.
const Prefix = "encounters"

// Client-to-authority message types.
const (
	MsgAccept         = "encounter:accept"
	MsgComplete       = "encounter:complete"
	MsgClaim          = "encounter:claim"
	MsgCancel         = "encounter:cancel"
	MsgProgress       = "encounter:progress"
	MsgTrackerRequest = "tracker:request"
	MsgRestoreRequest = "restore:request"
	MsgClearCooldowns = "admin:clearcooldowns"
)

// Authority-to-client message types.
const (
	MsgStart     = "mission:start"
	MsgReturn    = "mission:return"
	MsgClaimed   = "mission:claimed"
	MsgCooldown  = "mission:cooldown"
	MsgBusy      = "mission:busy"
	MsgCancelled = "mission:cancelled"
	MsgTracker   = "tracker:data"
)

// Envelope frames every message on the wire.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Encode wraps a payload in an envelope and marshals it.
func Encode(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", msgType, err)
		}
		raw = buf
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}

// Qualified returns the prefixed form of a message type.
func Qualified(msgType string) string {
	return Prefix + ":" + msgType
}

// Progress is the archetype-defined progress payload carried by an active
// mission. Fields are monotonic: the authority only ever merges them upward.
type Progress struct {
	Type           string `json:"type"`
	Completed      int    `json:"completed,omitempty"`
	Total          int    `json:"total,omitempty"`
	ElapsedSeconds int    `json:"elapsedSeconds,omitempty"`
}

// AcceptPayload starts an encounter at an NPC.
type AcceptPayload struct {
	NpcID       string `json:"npcId"`
	EncounterID string `json:"encounterId"`
}

// CompletePayload marks an in-progress encounter as finished in the world.
type CompletePayload struct {
	EncounterID string `json:"encounterId"`
}

// ClaimPayload collects the reward for a completed encounter.
type ClaimPayload struct {
	NpcID       string `json:"npcId"`
	EncounterID string `json:"encounterId"`
}

// Cancel reasons.
const (
	CancelReasonPlayer  = "player"
	CancelReasonTimeout = "timeout"
)

// CancelPayload abandons an active encounter. EncounterID is mandatory; the
// authority refuses to guess which of several concurrent missions to drop.
type CancelPayload struct {
	EncounterID string `json:"encounterId"`
	Reason      string `json:"reason,omitempty"`
}

// ProgressPayload reports progress from a client runtime.
type ProgressPayload struct {
	EncounterID string `json:"encounterId"`
	Progress
}

// StartPayload instructs the client to (re)start a runtime. Progress is set
// when the authority is replaying state after a restart.
type StartPayload struct {
	Encounter catalog.Definition `json:"encounter"`
	NpcID     string             `json:"npcId"`
	Progress  *Progress          `json:"progress,omitempty"`
}

// ReturnPayload tells the client the encounter is ready to turn in.
type ReturnPayload struct {
	NpcID       string `json:"npcId"`
	EncounterID string `json:"encounterId"`
}

// ClaimedPayload acknowledges a successful claim.
type ClaimedPayload struct {
	EncounterID string `json:"encounterId"`
}

// CooldownPayload rejects an accept because the encounter is cooling down.
type CooldownPayload struct {
	Seconds     int    `json:"seconds"`
	EncounterID string `json:"encounterId"`
}

// BusyPayload rejects an accept because an instance is already active.
type BusyPayload struct {
	EncounterID string `json:"encounterId"`
	Status      string `json:"status"`
}

// CancelledPayload acknowledges a cancel.
type CancelledPayload struct {
	EncounterID     string `json:"encounterId"`
	AppliedCooldown bool   `json:"appliedCooldown"`
}

// Mission status values as rendered by the tracker.
const (
	StatusAvailable = "available"
	StatusActive    = "active"
	StatusTurnIn    = "turnin"
	StatusCooldown  = "cooldown"
)

// MissionStatus is one row of a tracker snapshot.
type MissionStatus struct {
	ID                string          `json:"id"`
	Label             string          `json:"label"`
	Type              string          `json:"type"`
	Status            string          `json:"status"`
	CooldownRemaining int             `json:"cooldownRemaining"`
	Reward            *catalog.Reward `json:"reward,omitempty"`
	Progress          *Progress       `json:"progress,omitempty"`
}

// TrackerData is a full authoritative snapshot for one player.
type TrackerData struct {
	Statuses   []MissionStatus `json:"statuses"`
	Discovered []string        `json:"discoveredMissions,omitempty"`
}
