package dbl

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// DiscordEpoch is the first millisecond of 2015, the origin of Discord snowflakes.
const DiscordEpoch = 1420070400000

// ErrInvalidSnowflake is returned when an identifier is not a decimal uint64 string.
var ErrInvalidSnowflake = errors.New("invalid snowflake")

// BotID identifies a bot. It travels as a JSON string.
type BotID uint64

// UserID identifies a user. It travels as a JSON string.
type UserID uint64

// GuildID identifies a guild (server). It travels as a JSON string.
type GuildID uint64

// ParseBotID parses a decimal bot id.
func ParseBotID(s string) (BotID, error) {
	v, err := parseSnowflake(s)
	return BotID(v), err
}

// ParseUserID parses a decimal user id.
func ParseUserID(s string) (UserID, error) {
	v, err := parseSnowflake(s)
	return UserID(v), err
}

// ParseGuildID parses a decimal guild id.
func ParseGuildID(s string) (GuildID, error) {
	v, err := parseSnowflake(s)
	return GuildID(v), err
}

func (id BotID) String() string   { return strconv.FormatUint(uint64(id), 10) }
func (id UserID) String() string  { return strconv.FormatUint(uint64(id), 10) }
func (id GuildID) String() string { return strconv.FormatUint(uint64(id), 10) }

// CreatedAt reports when the bot account was created.
func (id BotID) CreatedAt() time.Time { return createdAt(uint64(id)) }

// CreatedAt reports when the user account was created.
func (id UserID) CreatedAt() time.Time { return createdAt(uint64(id)) }

// CreatedAt reports when the guild was created.
func (id GuildID) CreatedAt() time.Time { return createdAt(uint64(id)) }

func (id BotID) MarshalJSON() ([]byte, error)   { return marshalSnowflake(uint64(id)) }
func (id UserID) MarshalJSON() ([]byte, error)  { return marshalSnowflake(uint64(id)) }
func (id GuildID) MarshalJSON() ([]byte, error) { return marshalSnowflake(uint64(id)) }

func (id *BotID) UnmarshalJSON(data []byte) error {
	return unmarshalSnowflake(data, (*uint64)(id))
}

func (id *UserID) UnmarshalJSON(data []byte) error {
	return unmarshalSnowflake(data, (*uint64)(id))
}

func (id *GuildID) UnmarshalJSON(data []byte) error {
	return unmarshalSnowflake(data, (*uint64)(id))
}

func createdAt(v uint64) time.Time {
	ms := int64(v>>22) + DiscordEpoch
	return time.UnixMilli(ms).UTC()
}

func marshalSnowflake(v uint64) ([]byte, error) {
	return json.Marshal(strconv.FormatUint(v, 10))
}

func unmarshalSnowflake(data []byte, dst *uint64) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: invalid u64: value %s", ErrInvalidSnowflake, data)
	}
	v, err := parseSnowflake(s)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func parseSnowflake(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid u64: value %s", ErrInvalidSnowflake, s)
	}
	return v, nil
}
