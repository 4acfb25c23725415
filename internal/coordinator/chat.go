package coordinator

import "github.com/mcoot/mpcoord/internal/model"

// SendChat appends a message to the chat log and announces it
func (c *Coordinator) SendChat(id model.PlayerID, playerName, text string) (model.ChatMessage, error) {
	if !c.cfg.Features.Chat {
		return model.ChatMessage{}, model.ErrFeatureDisabled
	}

	msg := c.chat.Append(id, playerName, text)
	c.publishSystem(model.Event{
		Type:       model.EventChatMessage,
		FromPlayer: string(id),
		Data: model.ChatEventPayload{
			PlayerID:   msg.PlayerID,
			PlayerName: msg.PlayerName,
			Message:    msg.Message,
		},
		Timestamp: msg.Timestamp,
	})
	return msg, nil
}

// Chat returns up to limit of the most recent messages, oldest first.
// A non-positive limit uses the log's default.
func (c *Coordinator) Chat(limit int) ([]model.ChatMessage, error) {
	if !c.cfg.Features.Chat {
		return nil, model.ErrFeatureDisabled
	}
	return c.chat.Recent(limit), nil
}
