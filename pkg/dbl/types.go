package dbl

import (
	"encoding/json"
	"fmt"
)

// User is the basic user information returned by [Client.Votes].
type User struct {
	ID            UserID  `json:"id"`
	Username      string  `json:"username"`
	Discriminator string  `json:"discriminator"`
	Avatar        *string `json:"avatar"`
}

// DetailedUser is returned by [Client.User].
type DetailedUser struct {
	ID            UserID  `json:"id"`
	Username      string  `json:"username"`
	Discriminator string  `json:"discriminator"`
	Avatar        *string `json:"avatar"`
	DefaultAvatar string  `json:"defAvatar"`
	Bio           *string `json:"bio"`
	Banner        *string `json:"banner"`
	Social        Social  `json:"social"`
	Color         *string `json:"color"`
	Supporter     bool    `json:"supporter"`
	CertifiedDev  bool    `json:"certifiedDev"`
	Mod           bool    `json:"mod"`
	WebMod        bool    `json:"webMod"`
	Admin         bool    `json:"admin"`
}

// Social holds the social media accounts linked to a user.
type Social struct {
	GitHub    string `json:"github"`
	Instagram string `json:"instagram"`
	Reddit    string `json:"reddit"`
	Twitter   string `json:"twitter"`
	YouTube   string `json:"youtube"`
}

// Bot is a listed bot.
type Bot struct {
	ID            BotID     `json:"id"`
	Username      string    `json:"username"`
	Discriminator string    `json:"discriminator"`
	Avatar        *string   `json:"avatar"`
	DefaultAvatar string    `json:"defAvatar"`
	ClientID      string    `json:"clientid"`
	Lib           string    `json:"lib"`
	Prefix        string    `json:"prefix"`
	ShortDesc     string    `json:"shortdesc"`
	LongDesc      *string   `json:"longdesc"`
	Tags          []string  `json:"tags"`
	Website       *string   `json:"website"`
	Support       *string   `json:"support"`
	GitHub        *string   `json:"github"`
	Owners        []UserID  `json:"owners"`
	Guilds        []GuildID `json:"guilds"`
	Invite        *string   `json:"invite"`
	Date          string    `json:"date"`
	CertifiedBot  bool      `json:"certifiedBot"`
	Vanity        *string   `json:"vanity"`
	Shards        []uint64  `json:"shards"`
	Points        uint64    `json:"points"`
	MonthlyPoints uint64    `json:"monthlyPoints"`
}

// Stats is a bot's sharding stats as reported by [Client.Stats].
type Stats struct {
	ServerCount *uint64  `json:"server_count"`
	Shards      []uint64 `json:"shards"`
	ShardCount  *uint64  `json:"shard_count"`
}

// ShardStats is the body of a stats update. It is one of
// [CumulativeStats], [ShardStat] or [ShardsStats].
type ShardStats interface {
	shardStats()
}

// CumulativeStats reports the total server count, optionally with a shard count.
type CumulativeStats struct {
	ServerCount uint64  `json:"server_count"`
	ShardCount  *uint64 `json:"shard_count"`
}

// ShardStat reports the server count of a single shard.
type ShardStat struct {
	ServerCount uint64 `json:"server_count"`
	ShardID     uint64 `json:"shard_id"`
	ShardCount  uint64 `json:"shard_count"`
}

// ShardsStats reports the server count of every shard, indexed by shard id.
type ShardsStats struct {
	Shards []uint64 `json:"shards"`
}

func (CumulativeStats) shardStats() {}
func (ShardStat) shardStats()       {}
func (ShardsStats) shardStats()     {}

// Listing is a page of search results returned by [Client.Search].
type Listing struct {
	Results []Bot  `json:"results"`
	Limit   uint64 `json:"limit"`
	Offset  uint64 `json:"offset"`
	Count   uint64 `json:"count"`
	Total   uint64 `json:"total"`
}

// Len returns the number of bots on this page.
func (l *Listing) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Results)
}

// At returns the i-th bot on the page. It panics when i is out of range.
func (l *Listing) At(i int) *Bot { return &l.Results[i] }

// WebhookType is the kind of vote delivered to a webhook.
type WebhookType string

const (
	WebhookUpvote WebhookType = "upvote"
	WebhookTest   WebhookType = "test"
)

// UnmarshalJSON rejects unknown vote types.
func (t *WebhookType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("webhook type: %w", err)
	}
	switch WebhookType(s) {
	case WebhookUpvote, WebhookTest:
		*t = WebhookType(s)
		return nil
	default:
		return fmt.Errorf("unknown webhook type %q", s)
	}
}

// Webhook is a vote received via webhook.
type Webhook struct {
	Bot       BotID       `json:"bot"`
	User      UserID      `json:"user"`
	Type      WebhookType `json:"type"`
	IsWeekend bool        `json:"isWeekend"`
	Query     *string     `json:"query"`
}

// IsTest reports whether the vote was sent from the "test webhook" button.
func (w Webhook) IsTest() bool { return w.Type == WebhookTest }

// Validate checks that the fields top.gg always sends are present.
func (w Webhook) Validate() error {
	switch {
	case w.Type == "":
		return fmt.Errorf("%w: missing type", ErrInvalidWebhook)
	case w.Bot == 0:
		return fmt.Errorf("%w: missing bot", ErrInvalidWebhook)
	case w.User == 0:
		return fmt.Errorf("%w: missing user", ErrInvalidWebhook)
	}
	return nil
}

type userVoted struct {
	Voted uint64 `json:"voted"`
}

type ratelimitBody struct {
	RetryAfter *float64 `json:"retry_after"`
}
