package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/dbl-go/pkg/dbl"
)

var badgeKinds = []dbl.Badge{dbl.BadgeOwner, dbl.BadgeUpvotes, dbl.BadgeServers, dbl.BadgeStatus, dbl.BadgeLibrary}

func (c *CLI) widgetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "widget",
		Short: "Print badge and widget image URLs",
	}
	cmd.AddCommand(c.widgetBadgeCommand())
	cmd.AddCommand(c.widgetLargeCommand())
	cmd.AddCommand(c.widgetSmallCommand())
	return cmd
}

func (c *CLI) widgetBadgeCommand() *cobra.Command {
	var noAvatar bool
	names := make([]string, len(badgeKinds))
	for i, b := range badgeKinds {
		names[i] = string(b)
	}
	cmd := &cobra.Command{
		Use:       "badge <" + strings.Join(names, "|") + "> <bot-id>",
		Short:     "Print a small badge URL",
		Args:      cobra.ExactArgs(2),
		ValidArgs: names,
		RunE: func(_ *cobra.Command, args []string) error {
			kind, err := parseBadge(args[0])
			if err != nil {
				return err
			}
			id, err := parseBot(args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, kind.URL(id, !noAvatar))
			return nil
		},
	}
	cmd.Flags().BoolVar(&noAvatar, "no-avatar", false, "hide the bot avatar")
	return cmd
}

func parseBadge(s string) (dbl.Badge, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "library" {
		s = string(dbl.BadgeLibrary)
	}
	for _, b := range badgeKinds {
		if string(b) == s {
			return b, nil
		}
	}
	return "", fmt.Errorf("unknown badge %q", s)
}

func (c *CLI) widgetLargeCommand() *cobra.Command {
	var top, middle, username, certified, data, label, highlight string
	cmd := &cobra.Command{
		Use:   "large <bot-id>",
		Short: "Print the large widget URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBot(args[0])
			if err != nil {
				return err
			}
			w := dbl.NewLargeWidget()
			f := cmd.Flags()
			for _, opt := range []struct {
				flag  string
				value string
				set   func(dbl.LargeWidget, string) dbl.LargeWidget
			}{
				{"top", top, dbl.LargeWidget.TopColor},
				{"middle", middle, dbl.LargeWidget.MiddleColor},
				{"username", username, dbl.LargeWidget.UsernameColor},
				{"certified", certified, dbl.LargeWidget.CertifiedColor},
				{"data", data, dbl.LargeWidget.DataColor},
				{"label", label, dbl.LargeWidget.LabelColor},
				{"highlight", highlight, dbl.LargeWidget.HighlightColor},
			} {
				if f.Changed(opt.flag) {
					w = opt.set(w, opt.value)
				}
			}
			fmt.Fprintln(c.out, w.URL(id))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&top, "top", "", "top colour (hex)")
	f.StringVar(&middle, "middle", "", "middle colour (hex)")
	f.StringVar(&username, "username", "", "username colour (hex)")
	f.StringVar(&certified, "certified", "", "certified badge colour (hex)")
	f.StringVar(&data, "data", "", "data colour (hex)")
	f.StringVar(&label, "label", "", "label colour (hex)")
	f.StringVar(&highlight, "highlight", "", "highlight colour (hex)")
	return cmd
}

func (c *CLI) widgetSmallCommand() *cobra.Command {
	var avatarBg, left, right, leftText, rightText string
	cmd := &cobra.Command{
		Use:   "small <bot-id>",
		Short: "Print the small widget URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBot(args[0])
			if err != nil {
				return err
			}
			w := dbl.NewSmallWidget()
			f := cmd.Flags()
			if f.Changed("avatar-bg") {
				w = w.AvatarBgColor(avatarBg)
			}
			if f.Changed("left") {
				w = w.LeftColor(left)
			}
			if f.Changed("right") {
				w = w.RightColor(right)
			}
			if f.Changed("left-text") {
				w = w.LeftTextColor(leftText)
			}
			if f.Changed("right-text") {
				w = w.RightTextColor(rightText)
			}
			fmt.Fprintln(c.out, w.URL(id))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&avatarBg, "avatar-bg", "", "avatar background colour (hex)")
	f.StringVar(&left, "left", "", "left side colour (hex)")
	f.StringVar(&right, "right", "", "right side colour (hex)")
	f.StringVar(&leftText, "left-text", "", "left text colour (hex)")
	f.StringVar(&rightText, "right-text", "", "right text colour (hex)")
	return cmd
}
