package publishers

import (
	"strings"
	"time"

	"github.com/samvad-hq/dbl-go/pkg/dbl"
)

// Event is the vote payload published downstream.
type Event struct {
	Bot        dbl.BotID       `json:"bot"`
	User       dbl.UserID      `json:"user"`
	Type       dbl.WebhookType `json:"type"`
	IsWeekend  bool            `json:"is_weekend"`
	Query      string          `json:"query,omitempty"`
	ReceivedAt time.Time       `json:"received_at"`
}

// NewEvent converts a received webhook into an Event.
func NewEvent(hook dbl.Webhook) Event {
	evt := Event{
		Bot:        hook.Bot,
		User:       hook.User,
		Type:       hook.Type,
		IsWeekend:  hook.IsWeekend,
		ReceivedAt: time.Now().UTC(),
	}
	if hook.Query != nil {
		evt.Query = strings.TrimSpace(*hook.Query)
	}
	return evt
}

// attributes are attached to queue messages so subscribers can filter
// without decoding the body.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"bot_id":    e.Bot.String(),
		"vote_type": string(e.Type),
	}
}
