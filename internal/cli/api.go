package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/dbl-go/internal/render"
	"github.com/samvad-hq/dbl-go/pkg/dbl"
)

var renderJSON = render.JSON

func (c *CLI) botCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "bot <bot-id>",
		Short: "Show a bot's listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBot(args[0])
			if err != nil {
				return err
			}
			client, err := c.client()
			if err != nil {
				return err
			}
			bot, err := client.Bot(cmd.Context(), id)
			if err != nil {
				return err
			}
			return c.print(bot, func(w io.Writer) error { return render.Bot(w, bot) })
		},
	}
}

func (c *CLI) searchCommand() *cobra.Command {
	var (
		limit, offset int
		sort          string
		ascending     bool
		fields        []string
	)
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search listed bots, e.g. search 'lib:discordgo'",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := dbl.NewFilter()
			if len(args) == 1 {
				filter = filter.Search(args[0])
			}
			if cmd.Flags().Changed("limit") {
				filter = filter.Limit(limit)
			}
			if offset > 0 {
				filter = filter.Offset(offset)
			}
			if sort != "" {
				filter = filter.Sort(sort, ascending)
			}
			filter = filter.Fields(fields...)

			client, err := c.client()
			if err != nil {
				return err
			}
			listing, err := client.Search(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return c.print(listing, func(w io.Writer) error { return render.Listing(w, listing) })
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, fmt.Sprintf("results per page (max %d)", dbl.MaxSearchLimit))
	cmd.Flags().IntVar(&offset, "offset", 0, "results to skip")
	cmd.Flags().StringVar(&sort, "sort", "", "field to sort by, e.g. points")
	cmd.Flags().BoolVar(&ascending, "asc", false, "sort ascending instead of descending")
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "restrict returned fields")
	return cmd
}

func (c *CLI) statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <bot-id>",
		Short: "Show a bot's server and shard counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBot(args[0])
			if err != nil {
				return err
			}
			client, err := c.client()
			if err != nil {
				return err
			}
			st, err := client.Stats(cmd.Context(), id)
			if err != nil {
				return err
			}
			return c.print(st, func(w io.Writer) error { return render.Stats(w, st) })
		},
	}
}

func (c *CLI) postStatsCommand() *cobra.Command {
	var (
		servers, shardCount, shardID uint64
		shards                       []uint
	)
	cmd := &cobra.Command{
		Use:   "post-stats <bot-id>",
		Short: "Update a bot's server count",
		Long: `Update a bot's server count.

  post-stats <id> --servers 1200                         total count
  post-stats <id> --servers 1200 --shard-count 4         total count with shard count
  post-stats <id> --servers 300 --shard-id 1 --shard-count 4   one shard
  post-stats <id> --shards 300,310,290,300               every shard`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBot(args[0])
			if err != nil {
				return err
			}
			f := cmd.Flags()
			st, err := shardStatsFromFlags(servers, shardCount, shardID, shards,
				f.Changed("servers"), f.Changed("shard-count"), f.Changed("shard-id"))
			if err != nil {
				return err
			}
			client, err := c.client()
			if err != nil {
				return err
			}
			if err := client.UpdateStats(cmd.Context(), id, st); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "stats updated for %s\n", id)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&servers, "servers", 0, "server count (total, or of one shard with --shard-id)")
	cmd.Flags().Uint64Var(&shardCount, "shard-count", 0, "total number of shards")
	cmd.Flags().Uint64Var(&shardID, "shard-id", 0, "zero-based id of the shard being reported")
	cmd.Flags().UintSliceVar(&shards, "shards", nil, "server count of every shard, in shard order")
	return cmd
}

func shardStatsFromFlags(servers, shardCount, shardID uint64, shards []uint, hasServers, hasCount, hasID bool) (dbl.ShardStats, error) {
	switch {
	case len(shards) > 0:
		if hasServers || hasID {
			return nil, fmt.Errorf("--shards cannot be combined with --servers or --shard-id")
		}
		out := make([]uint64, len(shards))
		for i, n := range shards {
			out[i] = uint64(n)
		}
		return dbl.ShardsStats{Shards: out}, nil
	case !hasServers:
		return nil, fmt.Errorf("--servers or --shards is required")
	case hasID:
		if !hasCount {
			return nil, fmt.Errorf("--shard-id requires --shard-count")
		}
		if shardID >= shardCount {
			return nil, fmt.Errorf("--shard-id %d out of range for %d shards", shardID, shardCount)
		}
		return dbl.ShardStat{ServerCount: servers, ShardID: shardID, ShardCount: shardCount}, nil
	default:
		st := dbl.CumulativeStats{ServerCount: servers}
		if hasCount {
			st.ShardCount = &shardCount
		}
		return st, nil
	}
}

func (c *CLI) votesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "votes <bot-id>",
		Short: "List the last 1000 voters of a bot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBot(args[0])
			if err != nil {
				return err
			}
			client, err := c.client()
			if err != nil {
				return err
			}
			users, err := client.Votes(cmd.Context(), id)
			if err != nil {
				return err
			}
			return c.print(users, func(w io.Writer) error { return render.Voters(w, users) })
		},
	}
}

func (c *CLI) votedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "voted <bot-id> <user-id>",
		Short: "Check whether a user voted for a bot in the past 24 hours",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bot, err := parseBot(args[0])
			if err != nil {
				return err
			}
			user, err := parseUser(args[1])
			if err != nil {
				return err
			}
			client, err := c.client()
			if err != nil {
				return err
			}
			voted, err := client.HasVoted(cmd.Context(), bot, user)
			if err != nil {
				return err
			}
			return c.print(map[string]bool{"voted": voted}, func(w io.Writer) error {
				verb := "has not voted"
				if voted {
					verb = "has voted"
				}
				_, err := fmt.Fprintf(w, "user %s %s for bot %s\n", user, verb, bot)
				return err
			})
		},
	}
}

func (c *CLI) userCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "user <user-id>",
		Short: "Show a user's profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUser(args[0])
			if err != nil {
				return err
			}
			client, err := c.client()
			if err != nil {
				return err
			}
			user, err := client.User(cmd.Context(), id)
			if err != nil {
				return err
			}
			return c.print(user, func(w io.Writer) error { return render.User(w, user) })
		},
	}
}
