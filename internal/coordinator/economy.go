package coordinator

import "github.com/mcoot/mpcoord/internal/model"

// Economy update kinds carried by economy_update events
const (
	UpdateTypeDetailed = "detailed_economy"
	UpdateTypeShared   = "shared_state"
)

// SubmitEconomy stores the player's latest economy sections and announces which changed
func (c *Coordinator) SubmitEconomy(id model.PlayerID, snap model.EconomySnapshot) error {
	if !c.cfg.Features.EconomySync {
		return model.ErrFeatureDisabled
	}
	if id == "" {
		return model.ErrInvalidPlayerID
	}
	if snap.IsEmpty() {
		return model.ErrEmptySnapshot
	}

	c.economy.Submit(id, snap)

	c.publishSystem(model.Event{
		Type:       model.EventEconomyUpdate,
		FromPlayer: string(id),
		Data: model.EconomyEventPayload{
			PlayerID:   id,
			UpdateType: UpdateTypeDetailed,
			Sections:   snap.Sections(),
			Timestamp:  c.clock.Now().Unix(),
		},
	})
	return nil
}

// Economy returns the merged economy view
func (c *Coordinator) Economy() (model.EconomyView, error) {
	if !c.cfg.Features.EconomySync {
		return model.EconomyView{}, model.ErrFeatureDisabled
	}
	return c.economy.Read(), nil
}

// UpdateSharedState applies a universe-wide update
func (c *Coordinator) UpdateSharedState(from model.PlayerID, upd model.SharedStateUpdate) (model.SharedState, error) {
	if !c.cfg.Features.EconomySync {
		return model.SharedState{}, model.ErrFeatureDisabled
	}

	c.economy.UpdateShared(upd)

	var sections []string
	if upd.GlobalEconomy != nil {
		sections = append(sections, "economyData")
	}
	if upd.FactionRelations != nil {
		sections = append(sections, "factionRelations")
	}
	if len(sections) > 0 {
		c.publishSystem(model.Event{
			Type:       model.EventEconomyUpdate,
			FromPlayer: string(from),
			Data: model.EconomyEventPayload{
				PlayerID:   from,
				UpdateType: UpdateTypeShared,
				Sections:   sections,
				Timestamp:  c.clock.Now().Unix(),
			},
		})
	}
	return c.SharedState(), nil
}

// SharedState returns the universe state with the current player count
func (c *Coordinator) SharedState() model.SharedState {
	state := c.economy.Shared()
	state.ActivePlayers = c.sessions.Count()
	return state
}

// UniverseTime returns the last reported universe time
func (c *Coordinator) UniverseTime() float64 {
	return c.economy.UniverseTime()
}
