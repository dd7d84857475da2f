package authority

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"StreetEncounters/internal/catalog"
	"StreetEncounters/internal/protocol"
)

func activeKey(identity, encounterID string) string {
	return fmt.Sprintf("%s:active:%s:%s", protocol.Prefix, identity, encounterID)
}

func cooldownKey(identity string, def *catalog.Definition) string {
	return fmt.Sprintf("%s:cooldown:%s:%s:v%d", protocol.Prefix, identity, def.ID, catalog.CooldownVersion(def))
}

// legacyCooldownKey is the unversioned key written by earlier builds; records
// under it are deleted on sight to prevent stale lockouts.
func legacyCooldownKey(identity, encounterID string) string {
	return fmt.Sprintf("%s:cooldown:%s:%s", protocol.Prefix, identity, encounterID)
}

func discoveredKey(identity string) string {
	return fmt.Sprintf("%s:discovered:%s", protocol.Prefix, identity)
}

// saveActive persists a session record. Store failures are logged and
// swallowed: the in-memory cache stays authoritative for this process run.
func (a *Authority) saveActive(identity string, m *ActiveMission) {
	buf, err := json.Marshal(m)
	if err != nil {
		a.log.Error().Err(err).Str("encounter", m.EncounterID).Msg("encode active mission")
		return
	}
	if err := a.kv.Set(activeKey(identity, m.EncounterID), string(buf)); err != nil {
		a.log.Error().Err(err).Str("identity", identity).Str("encounter", m.EncounterID).Msg("persist active mission")
	}
}

func (a *Authority) clearActive(identity, encounterID string) {
	if err := a.kv.Delete(activeKey(identity, encounterID)); err != nil {
		a.log.Error().Err(err).Str("identity", identity).Str("encounter", encounterID).Msg("clear active mission")
	}
}

func (a *Authority) loadActive(identity, encounterID string) *ActiveMission {
	raw, ok, err := a.kv.Get(activeKey(identity, encounterID))
	if err != nil {
		a.log.Error().Err(err).Str("identity", identity).Str("encounter", encounterID).Msg("load active mission")
		return nil
	}
	if !ok {
		return nil
	}
	var m ActiveMission
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		a.log.Error().Err(err).Str("identity", identity).Str("encounter", encounterID).Msg("decode active mission")
		return nil
	}
	return &m
}

// cooldownUntil returns the expiry of the current-version cooldown record,
// zero time if none. A record under the legacy unversioned key is deleted.
func (a *Authority) cooldownUntil(identity string, def *catalog.Definition) time.Time {
	raw, ok, err := a.kv.Get(cooldownKey(identity, def))
	if err != nil {
		a.log.Error().Err(err).Str("identity", identity).Str("encounter", def.ID).Msg("load cooldown")
		return time.Time{}
	}
	if ok {
		secs, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return time.Time{}
		}
		return time.Unix(secs, 0)
	}
	if _, found, _ := a.kv.Get(legacyCooldownKey(identity, def.ID)); found {
		_ = a.kv.Delete(legacyCooldownKey(identity, def.ID))
	}
	return time.Time{}
}

func (a *Authority) setCooldown(identity string, def *catalog.Definition, until time.Time) {
	if err := a.kv.Set(cooldownKey(identity, def), strconv.FormatInt(until.Unix(), 10)); err != nil {
		a.log.Error().Err(err).Str("identity", identity).Str("encounter", def.ID).Msg("persist cooldown")
	}
}

// hydrateLocked loads one encounter's persisted session record into the
// cache, once per process run. Callers hold the session lock.
func (a *Authority) hydrateLocked(s *session, identity, encounterID string) {
	if s.hydrated[encounterID] {
		return
	}
	s.hydrated[encounterID] = true
	if _, cached := s.actives[encounterID]; cached {
		return
	}
	if m := a.loadActive(identity, encounterID); m != nil {
		s.actives[encounterID] = m
	}
}

func (a *Authority) hydrateAllLocked(s *session, identity string) {
	for _, def := range a.cat.All() {
		a.hydrateLocked(s, identity, def.ID)
	}
}

// loadDiscoveredLocked seeds the player's known-missions list from the store.
func (a *Authority) loadDiscoveredLocked(s *session, identity string) {
	if s.discoveredLoaded {
		return
	}
	s.discoveredLoaded = true
	raw, ok, err := a.kv.Get(discoveredKey(identity))
	if err != nil {
		a.log.Error().Err(err).Str("identity", identity).Msg("load discovered missions")
		return
	}
	if !ok {
		return
	}
	if err := json.Unmarshal([]byte(raw), &s.discovered); err != nil {
		a.log.Error().Err(err).Str("identity", identity).Msg("decode discovered missions")
	}
}

// addDiscoveredLocked appends an encounter to the player's append-only
// discovered set.
func (a *Authority) addDiscoveredLocked(s *session, identity, encounterID string) {
	a.loadDiscoveredLocked(s, identity)
	for _, id := range s.discovered {
		if id == encounterID {
			return
		}
	}
	s.discovered = append(s.discovered, encounterID)
	buf, err := json.Marshal(s.discovered)
	if err != nil {
		return
	}
	if err := a.kv.Set(discoveredKey(identity), string(buf)); err != nil {
		a.log.Error().Err(err).Str("identity", identity).Msg("persist discovered missions")
	}
}
