// Package stats supplies the server counts the poster reports to top.gg.
package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/samvad-hq/dbl-go/pkg/dbl"
)

// Source yields the stats to post on each tick.
type Source interface {
	Stats(ctx context.Context) (dbl.ShardStats, error)
}

// Static always reports the same cumulative count.
type Static struct {
	ServerCount uint64
	ShardCount  uint64 // 0 leaves shard_count unset
}

func (s Static) Stats(context.Context) (dbl.ShardStats, error) {
	out := dbl.CumulativeStats{ServerCount: s.ServerCount}
	if s.ShardCount > 0 {
		n := s.ShardCount
		out.ShardCount = &n
	}
	return out, nil
}

// File re-reads a YAML or JSON stats file on every call, so an external
// process can keep it current.
type File struct {
	Path string
}

// fileStats is the on-disk shape. Exactly one variant applies: shards, a
// single shard (shard_id + shard_count) or a cumulative server_count.
type fileStats struct {
	ServerCount *uint64  `json:"server_count" yaml:"server_count"`
	ShardCount  *uint64  `json:"shard_count" yaml:"shard_count"`
	ShardID     *uint64  `json:"shard_id" yaml:"shard_id"`
	Shards      []uint64 `json:"shards" yaml:"shards"`
}

func (f File) Stats(ctx context.Context) (dbl.ShardStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := strings.TrimSpace(f.Path)
	if path == "" {
		return nil, errors.New("stats file path is empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stats file: %w", err)
	}

	decode := yaml.Unmarshal
	if strings.EqualFold(filepath.Ext(path), ".json") {
		decode = json.Unmarshal
	}
	var fs fileStats
	if err := decode(raw, &fs); err != nil {
		return nil, fmt.Errorf("decode stats file %s: %w", filepath.Base(path), err)
	}
	return fs.toShardStats()
}

func (fs fileStats) toShardStats() (dbl.ShardStats, error) {
	switch {
	case len(fs.Shards) > 0:
		if fs.ServerCount != nil || fs.ShardID != nil {
			return nil, errors.New("stats file: shards cannot be combined with server_count or shard_id")
		}
		return dbl.ShardsStats{Shards: fs.Shards}, nil
	case fs.ServerCount == nil:
		return nil, errors.New("stats file: server_count or shards is required")
	case fs.ShardID != nil:
		if fs.ShardCount == nil {
			return nil, errors.New("stats file: shard_id requires shard_count")
		}
		if *fs.ShardID >= *fs.ShardCount {
			return nil, fmt.Errorf("stats file: shard_id %d out of range for %d shards", *fs.ShardID, *fs.ShardCount)
		}
		return dbl.ShardStat{ServerCount: *fs.ServerCount, ShardID: *fs.ShardID, ShardCount: *fs.ShardCount}, nil
	default:
		return dbl.CumulativeStats{ServerCount: *fs.ServerCount, ShardCount: fs.ShardCount}, nil
	}
}

// FromConfig picks a File source when path is set, else a Static one.
func FromConfig(path string, serverCount, shardCount uint64) Source {
	if strings.TrimSpace(path) != "" {
		return File{Path: path}
	}
	return Static{ServerCount: serverCount, ShardCount: shardCount}
}
