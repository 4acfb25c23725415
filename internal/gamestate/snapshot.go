package gamestate

import (
	"context"
	"log/slog"
	"strconv"
	"time"
)

// PlayerFacts is what the game could tell about the local player.
// Nil fields were unavailable.
type PlayerFacts struct {
	SectorID       *int64  `json:"sectorId,omitempty"`
	GameName       *string `json:"gameName,omitempty"`
	GamePlayerID   *int64  `json:"gamePlayerId,omitempty"`
	OccupiedShipID *int64  `json:"occupiedShipId,omitempty"`
	Money          *int64  `json:"money,omitempty"`
	LastUpdate     int64   `json:"lastUpdate"`
}

// Sector returns the sector identifier as reported to the coordinator, or "" when unknown
func (f PlayerFacts) Sector() string {
	if f.SectorID == nil {
		return ""
	}
	return strconv.FormatInt(*f.SectorID, 10)
}

// Name returns the in-game player name, or "" when unknown
func (f PlayerFacts) Name() string {
	if f.GameName == nil {
		return ""
	}
	return *f.GameName
}

// EconomyFacts is what the game could tell about the universe economy
type EconomyFacts struct {
	GameTime   *float64 `json:"gameTime,omitempty"`
	LastUpdate int64    `json:"lastUpdate"`
}

// Gatherer runs queries against a Provider and assembles snapshots
type Gatherer struct {
	provider Provider
	logger   *slog.Logger
	now      func() time.Time
}

// NewGatherer creates a Gatherer. now stamps each snapshot.
func NewGatherer(p Provider, now func() time.Time, logger *slog.Logger) *Gatherer {
	return &Gatherer{
		provider: p,
		now:      now,
		logger:   logger.With(slog.String("component", "gamestate")),
	}
}

// Player gathers the local player's facts one query at a time
func (g *Gatherer) Player(ctx context.Context) PlayerFacts {
	facts := PlayerFacts{LastUpdate: g.now().Unix()}
	facts.SectorID = queryInt(ctx, g, QueryPlayerZoneID)
	facts.GameName = queryString(ctx, g, QueryPlayerName)
	facts.GamePlayerID = queryInt(ctx, g, QueryPlayerID)
	facts.OccupiedShipID = queryInt(ctx, g, QueryPlayerOccupiedShipID)
	facts.Money = queryInt(ctx, g, QueryPlayerMoney)
	return facts
}

// Economy gathers universe economy facts
func (g *Gatherer) Economy(ctx context.Context) EconomyFacts {
	facts := EconomyFacts{LastUpdate: g.now().Unix()}
	if v, ok := g.invoke(ctx, QueryCurrentGameTime); ok {
		if f, ok := asFloat64(v); ok {
			facts.GameTime = &f
		}
	}
	return facts
}

func (g *Gatherer) invoke(ctx context.Context, name string) (any, bool) {
	v, err := g.provider.Invoke(ctx, name)
	if err != nil {
		g.logger.Debug("game state query failed", slog.String("query", name), slog.Any("error", err))
		return nil, false
	}
	return v, true
}

func queryInt(ctx context.Context, g *Gatherer, name string) *int64 {
	v, ok := g.invoke(ctx, name)
	if !ok {
		return nil
	}
	i, ok := asInt64(v)
	if !ok {
		g.logger.Debug("game state query returned unexpected type", slog.String("query", name))
		return nil
	}
	return &i
}

func queryString(ctx context.Context, g *Gatherer, name string) *string {
	v, ok := g.invoke(ctx, name)
	if !ok {
		return nil
	}
	s, ok := asString(v)
	if !ok {
		return nil
	}
	return &s
}
