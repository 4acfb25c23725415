package model

import (
	"encoding/json"
	"time"
)

// Economy section names as submitted by players
const (
	SectionStations     = "stations"
	SectionPrices       = "prices"
	SectionSupplyDemand = "supply_demand"
)

// EconomySnapshot is one player's submission. Nil sections were not submitted.
type EconomySnapshot struct {
	Stations     json.RawMessage
	Prices       json.RawMessage
	SupplyDemand json.RawMessage
}

// Sections lists the names of the sections present in the snapshot
func (s EconomySnapshot) Sections() []string {
	var out []string
	if s.Stations != nil {
		out = append(out, SectionStations)
	}
	if s.Prices != nil {
		out = append(out, SectionPrices)
	}
	if s.SupplyDemand != nil {
		out = append(out, SectionSupplyDemand)
	}
	return out
}

// IsEmpty reports whether no section was submitted
func (s EconomySnapshot) IsEmpty() bool {
	return s.Stations == nil && s.Prices == nil && s.SupplyDemand == nil
}

// EconomyView is the merged live view across players
type EconomyView struct {
	Stations         map[PlayerID]json.RawMessage
	Prices           map[PlayerID]json.RawMessage
	SupplyDemand     map[PlayerID]json.RawMessage
	FactionRelations json.RawMessage
	LastUpdate       time.Time // zero until the first submission
}

// SharedState is the universe-wide state shared between players
type SharedState struct {
	UniverseTime     float64
	GlobalEconomy    json.RawMessage
	FactionRelations json.RawMessage
	ActivePlayers    int
	LastUpdate       time.Time
}

// SharedStateUpdate carries the optional fields of a shared state update
type SharedStateUpdate struct {
	UniverseTime     *float64
	GlobalEconomy    json.RawMessage
	FactionRelations json.RawMessage
}
