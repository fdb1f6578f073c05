package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/dbl-go/pkg/dbl"
	"github.com/samvad-hq/dbl-go/pkg/httpclient"
)

func (c *CLI) webhookCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Work with vote webhooks",
	}
	cmd.AddCommand(c.webhookSendCommand())
	return cmd
}

func (c *CLI) webhookSendCommand() *cobra.Command {
	var (
		url, secret, bot, user, query, typ string
		weekend                            bool
	)
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Post a vote to a webhook receiver",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			botID, err := parseBot(bot)
			if err != nil {
				return err
			}
			userID, err := parseUser(user)
			if err != nil {
				return err
			}

			hook := dbl.NewTestWebhook(botID, userID, query)
			switch strings.ToLower(strings.TrimSpace(typ)) {
			case string(dbl.WebhookTest):
			case string(dbl.WebhookUpvote):
				hook.Type = dbl.WebhookUpvote
			default:
				return fmt.Errorf("--type must be %q or %q", dbl.WebhookTest, dbl.WebhookUpvote)
			}
			hook.IsWeekend = weekend

			hc := httpclient.NewRestyClient(c.timeout)
			if err := dbl.SendWebhook(cmd.Context(), hc, url, secret, hook); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "delivered %s\n", hook)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&url, "url", "", "receiver URL, e.g. http://localhost:8080/dbl/webhook")
	f.StringVar(&secret, "secret", "", "webhook authorization secret")
	f.StringVar(&bot, "bot", "", "bot id")
	f.StringVar(&user, "user", "", "voting user id")
	f.StringVar(&query, "query", "", "query string to attach")
	f.StringVar(&typ, "type", string(dbl.WebhookTest), "vote type: test or upvote")
	f.BoolVar(&weekend, "weekend", false, "mark the vote as a weekend vote")
	_ = cmd.MarkFlagRequired("url")
	_ = cmd.MarkFlagRequired("bot")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
