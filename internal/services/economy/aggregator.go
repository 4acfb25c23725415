package economy

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/mcoot/mpcoord/internal/dependencies/clock"
	"github.com/mcoot/mpcoord/internal/model"
)

// Aggregator merges per-player economy snapshots into one live view and
// holds the universe-wide shared state
type Aggregator struct {
	clock clock.Clock

	mu               sync.RWMutex
	stations         map[model.PlayerID]json.RawMessage
	prices           map[model.PlayerID]json.RawMessage
	supplyDemand     map[model.PlayerID]json.RawMessage
	factionRelations json.RawMessage
	globalEconomy    json.RawMessage
	universeTime     float64
	lastUpdate       time.Time
}

// New creates an empty Aggregator
func New(clk clock.Clock) *Aggregator {
	return &Aggregator{
		clock:        clk,
		stations:     make(map[model.PlayerID]json.RawMessage),
		prices:       make(map[model.PlayerID]json.RawMessage),
		supplyDemand: make(map[model.PlayerID]json.RawMessage),
	}
}

// Submit stores each section present in snap as the player's latest for
// that section. Other players' entries are never touched.
func (a *Aggregator) Submit(id model.PlayerID, snap model.EconomySnapshot) {
	now := a.clock.Now()

	a.mu.Lock()
	defer a.mu.Unlock()

	if snap.Stations != nil {
		a.stations[id] = clone(snap.Stations)
	}
	if snap.Prices != nil {
		a.prices[id] = clone(snap.Prices)
	}
	if snap.SupplyDemand != nil {
		a.supplyDemand[id] = clone(snap.SupplyDemand)
	}
	a.lastUpdate = now
}

// Read returns an independent copy of the merged view
func (a *Aggregator) Read() model.EconomyView {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return model.EconomyView{
		Stations:         cloneMap(a.stations),
		Prices:           cloneMap(a.prices),
		SupplyDemand:     cloneMap(a.supplyDemand),
		FactionRelations: clone(a.factionRelations),
		LastUpdate:       a.lastUpdate,
	}
}

// Forget drops every section submitted by the player
func (a *Aggregator) Forget(id model.PlayerID) {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.stations, id)
	delete(a.prices, id)
	delete(a.supplyDemand, id)
}

// UpdateShared applies the fields present in upd to the shared state
func (a *Aggregator) UpdateShared(upd model.SharedStateUpdate) {
	now := a.clock.Now()

	a.mu.Lock()
	defer a.mu.Unlock()

	if upd.UniverseTime != nil {
		a.universeTime = *upd.UniverseTime
	}
	if upd.GlobalEconomy != nil {
		a.globalEconomy = clone(upd.GlobalEconomy)
	}
	if upd.FactionRelations != nil {
		a.factionRelations = clone(upd.FactionRelations)
	}
	a.lastUpdate = now
}

// Shared returns a copy of the shared state. ActivePlayers is filled in by the caller.
func (a *Aggregator) Shared() model.SharedState {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return model.SharedState{
		UniverseTime:     a.universeTime,
		GlobalEconomy:    clone(a.globalEconomy),
		FactionRelations: clone(a.factionRelations),
		LastUpdate:       a.lastUpdate,
	}
}

// UniverseTime returns the last reported universe time
func (a *Aggregator) UniverseTime() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.universeTime
}

func clone(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}

func cloneMap(in map[model.PlayerID]json.RawMessage) map[model.PlayerID]json.RawMessage {
	out := make(map[model.PlayerID]json.RawMessage, len(in))
	for k, v := range in {
		out[k] = clone(v)
	}
	return out
}
