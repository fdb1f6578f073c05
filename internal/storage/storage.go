// Package storage remembers delivered votes so that webhook redeliveries
// are not forwarded twice.
package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/dbl-go/pkg/dbl"
)

// Store tracks forwarded votes by key.
type Store interface {
	Close() error
	SeenVote(key string) (bool, error)
	MarkVote(key string) error
}

// Options controls retention for concrete store implementations.
type Options struct {
	VoteTTL         time.Duration
	CleanupInterval time.Duration
}

const (
	// DefaultVoteTTL matches the 12 hour window after which a user may vote again.
	DefaultVoteTTL         = 12 * time.Hour
	defaultCleanupInterval = time.Hour
)

// VoteKey identifies a vote as <bot>:<user>:<type>. Test votes get their own
// key so they never shadow real upvotes.
func VoteKey(hook dbl.Webhook) string {
	return hook.Bot.String() + ":" + hook.User.String() + ":" + string(hook.Type)
}

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		store, err := openBolt(path, opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.VoteTTL <= 0 {
		opts.VoteTTL = DefaultVoteTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                  { return nil }
func (noopStore) SeenVote(string) (bool, error) { return false, nil }
func (noopStore) MarkVote(string) error         { return nil }
