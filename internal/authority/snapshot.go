package authority

import (
	"time"

	"StreetEncounters/internal/protocol"
)

func secondsDuration(s int) time.Duration {
	return time.Duration(s) * time.Second
}

// Snapshot resolves the per-definition status list for a player, hydrating
// any session records not yet cached this process run. It covers the case
// where the authority restarted and the player has not re-triggered any
// lifecycle operation.
func (a *Authority) Snapshot(identity string) protocol.TrackerData {
	s := a.session(identity)
	s.mu.Lock()
	defer s.mu.Unlock()
	return a.snapshotLocked(s, identity)
}

// PushSnapshot answers a tracker request with a full snapshot push.
func (a *Authority) PushSnapshot(identity string) {
	s := a.session(identity)
	s.mu.Lock()
	defer s.mu.Unlock()
	a.pushSnapshotLocked(s, identity)
}

func (a *Authority) pushSnapshotLocked(s *session, identity string) {
	a.emit.Push(identity, protocol.MsgTracker, a.snapshotLocked(s, identity))
}

func (a *Authority) snapshotLocked(s *session, identity string) protocol.TrackerData {
	a.hydrateAllLocked(s, identity)
	a.loadDiscoveredLocked(s, identity)

	now := a.now()
	statuses := make([]protocol.MissionStatus, 0, a.cat.Len())
	for _, def := range a.cat.All() {
		def := def
		row := protocol.MissionStatus{
			ID:     def.ID,
			Label:  def.Label,
			Type:   string(def.Archetype),
			Status: protocol.StatusAvailable,
			Reward: &def.Reward,
		}
		if m := s.actives[def.ID]; m != nil {
			if m.Status == StatusComplete {
				row.Status = protocol.StatusTurnIn
			} else {
				row.Status = protocol.StatusActive
			}
			if m.Progress != nil {
				row.Progress = &protocol.Progress{
					Type:           m.Progress.Type,
					Completed:      m.Progress.Completed,
					Total:          m.Progress.Total,
					ElapsedSeconds: m.Progress.ElapsedSeconds,
				}
			}
		} else if until := a.cooldownUntil(identity, &def); until.After(now) {
			row.Status = protocol.StatusCooldown
			row.CooldownRemaining = int(until.Sub(now).Seconds())
		}
		statuses = append(statuses, row)
	}

	discovered := make([]string, len(s.discovered))
	copy(discovered, s.discovered)
	return protocol.TrackerData{Statuses: statuses, Discovered: discovered}
}

// Restore re-emits the lifecycle signal for every persisted active mission,
// so a restarted client (or a client talking to a restarted authority) can
// rebuild spawned world state from authoritative truth.
func (a *Authority) Restore(identity string) {
	s := a.session(identity)
	s.mu.Lock()
	defer s.mu.Unlock()

	a.hydrateAllLocked(s, identity)
	for _, def := range a.cat.All() {
		m := s.actives[def.ID]
		if m == nil {
			continue
		}
		switch m.Status {
		case StatusInProgress:
			payload := protocol.StartPayload{Encounter: def, NpcID: m.NpcID}
			if m.Progress != nil {
				payload.Progress = &protocol.Progress{
					Type:           m.Progress.Type,
					Completed:      m.Progress.Completed,
					Total:          m.Progress.Total,
					ElapsedSeconds: m.Progress.ElapsedSeconds,
				}
			}
			a.emit.Push(identity, protocol.MsgStart, payload)
		case StatusComplete:
			a.emit.Push(identity, protocol.MsgReturn, protocol.ReturnPayload{NpcID: m.NpcID, EncounterID: m.EncounterID})
		}
	}
}

// ClearCooldowns drops every cooldown record for a player, current and
// legacy versions alike. Operator tooling only.
func (a *Authority) ClearCooldowns(identity string) {
	s := a.session(identity)
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, def := range a.cat.All() {
		def := def
		if err := a.kv.Delete(cooldownKey(identity, &def)); err != nil {
			a.log.Error().Err(err).Str("encounter", def.ID).Msg("clear cooldown")
		}
		_ = a.kv.Delete(legacyCooldownKey(identity, def.ID))
	}
	a.log.Info().Str("identity", identity).Msg("cooldowns cleared")
}
