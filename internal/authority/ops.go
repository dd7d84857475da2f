package authority

import (
	"StreetEncounters/internal/catalog"
	"StreetEncounters/internal/protocol"
)

// Accept starts an encounter for a player. It rejects a second instance of
// the same encounter (whatever its status) and any encounter still cooling
// down under the current config version. On success the active mission is
// created, persisted, added to the discovered set, and the start signal is
// pushed; deliveries receive their carry item before Accept returns.
func (a *Authority) Accept(identity, npcID, encounterID string) error {
	def, ok := a.cat.Get(encounterID)
	if !ok {
		a.log.Warn().Str("encounter", encounterID).Msg("accept for unknown encounter")
		return ErrNotFound
	}

	s := a.session(identity)
	s.mu.Lock()
	defer s.mu.Unlock()

	a.hydrateLocked(s, identity, encounterID)
	if existing := s.actives[encounterID]; existing != nil {
		a.emit.Push(identity, protocol.MsgBusy, protocol.BusyPayload{
			EncounterID: existing.EncounterID,
			Status:      string(existing.Status),
		})
		return ErrAlreadyActive
	}

	now := a.now()
	if until := a.cooldownUntil(identity, def); until.After(now) {
		a.emit.Push(identity, protocol.MsgCooldown, protocol.CooldownPayload{
			Seconds:     int(until.Sub(now).Seconds()),
			EncounterID: def.ID,
		})
		return ErrOnCooldown
	}

	m := &ActiveMission{EncounterID: def.ID, NpcID: npcID, Status: StatusInProgress}
	s.actives[def.ID] = m
	a.saveActive(identity, m)
	a.addDiscoveredLocked(s, identity, def.ID)

	if def.Archetype == catalog.ArchetypeDelivery {
		a.rewards.GrantItem(identity, def.Delivery.Item)
	}

	a.log.Info().Str("identity", identity).Str("encounter", def.ID).Msg("encounter accepted")
	a.emit.Push(identity, protocol.MsgStart, protocol.StartPayload{
		Encounter: *def,
		NpcID:     npcID,
	})
	return nil
}

// Complete transitions an active mission to the turn-in state. Deliveries
// surrender their carry item here. Unknown encounter ids no-op.
func (a *Authority) Complete(identity, encounterID string) error {
	s := a.session(identity)
	s.mu.Lock()
	defer s.mu.Unlock()

	a.hydrateLocked(s, identity, encounterID)
	m := s.actives[encounterID]
	if m == nil {
		return ErrNotFound
	}
	def, ok := a.cat.Get(m.EncounterID)
	if !ok {
		return ErrNotFound
	}

	if def.Archetype == catalog.ArchetypeDelivery {
		a.rewards.RevokeItem(identity, def.Delivery.Item)
	}

	m.Status = StatusComplete
	a.saveActive(identity, m)

	a.log.Info().Str("identity", identity).Str("encounter", def.ID).Msg("encounter complete, awaiting turn-in")
	a.emit.Push(identity, protocol.MsgReturn, protocol.ReturnPayload{NpcID: m.NpcID, EncounterID: m.EncounterID})
	a.pushSnapshotLocked(s, identity)
	return nil
}

// Claim grants the reward for a completed mission. It is only satisfiable
// when the mission is complete and the supplied NPC matches the one it was
// accepted at; anything else no-ops so a duplicate claim yields exactly one
// grant.
func (a *Authority) Claim(identity, npcID, encounterID string) error {
	s := a.session(identity)
	s.mu.Lock()
	defer s.mu.Unlock()

	a.hydrateLocked(s, identity, encounterID)
	m := s.actives[encounterID]
	if m == nil {
		return ErrNotFound
	}
	if m.NpcID != npcID || m.Status != StatusComplete {
		return ErrUnauthorized
	}
	def, ok := a.cat.Get(m.EncounterID)
	if !ok {
		return ErrNotFound
	}

	a.rewards.GrantReward(identity, def.Reward)
	delete(s.actives, def.ID)
	a.clearActive(identity, def.ID)
	if def.CooldownSeconds > 0 {
		a.setCooldown(identity, def, a.now().Add(secondsDuration(def.CooldownSeconds)))
	}

	a.log.Info().Str("identity", identity).Str("encounter", def.ID).Msg("reward claimed")
	a.emit.Push(identity, protocol.MsgClaimed, protocol.ClaimedPayload{EncounterID: def.ID})
	a.pushSnapshotLocked(s, identity)
	return nil
}

// Cancel abandons an active mission. The encounter id is mandatory: with
// several concurrent missions, guessing which one to drop from iteration
// order would be order-dependent. A cooldown is applied only when the
// definition opts in.
func (a *Authority) Cancel(identity, encounterID, reason string) error {
	if encounterID == "" {
		a.log.Warn().Str("identity", identity).Msg("cancel without encounter id refused")
		return ErrNotFound
	}

	s := a.session(identity)
	s.mu.Lock()
	defer s.mu.Unlock()

	a.hydrateLocked(s, identity, encounterID)
	m := s.actives[encounterID]
	if m == nil {
		return ErrNotFound
	}

	delete(s.actives, encounterID)
	a.clearActive(identity, encounterID)

	def, ok := a.cat.Get(encounterID)
	if !ok {
		return ErrNotFound
	}

	applied := def.CancelIncurCooldown && def.CooldownSeconds > 0
	if applied {
		a.setCooldown(identity, def, a.now().Add(secondsDuration(def.CooldownSeconds)))
	}

	a.log.Info().
		Str("identity", identity).
		Str("encounter", def.ID).
		Str("reason", reason).
		Bool("cooldown", applied).
		Msg("encounter cancelled")
	a.emit.Push(identity, protocol.MsgCancelled, protocol.CancelledPayload{EncounterID: def.ID, AppliedCooldown: applied})
	a.pushSnapshotLocked(s, identity)
	return nil
}

// ReportProgress merges a client progress report into the stored state.
// Counting objectives merge monotonically: the stored completed count is
// max(previous, reported), which defeats replay of stale or forged reports.
func (a *Authority) ReportProgress(identity string, report protocol.ProgressPayload) error {
	s := a.session(identity)
	s.mu.Lock()
	defer s.mu.Unlock()

	a.hydrateLocked(s, identity, report.EncounterID)
	m := s.actives[report.EncounterID]
	if m == nil {
		return ErrNotFound
	}

	m.Progress = mergeProgress(m.Progress, report.Progress)
	a.saveActive(identity, m)
	a.pushSnapshotLocked(s, identity)
	return nil
}

func mergeProgress(prev *progressState, report protocol.Progress) *progressState {
	if report.Type != string(catalog.ArchetypeCleanup) {
		return &progressState{
			Type:           report.Type,
			Completed:      report.Completed,
			Total:          report.Total,
			ElapsedSeconds: report.ElapsedSeconds,
		}
	}
	merged := &progressState{Type: report.Type}
	if prev != nil {
		merged.Completed = prev.Completed
		merged.Total = prev.Total
	}
	if report.Completed > merged.Completed {
		merged.Completed = report.Completed
	}
	if report.Total > 0 {
		merged.Total = report.Total
	}
	if merged.Total < merged.Completed {
		merged.Total = merged.Completed
	}
	return merged
}
