// Package dbl provides Go bindings for the top.gg (formerly discordbots.org) API.
//
// Features
//   - Bot lookup, search, stats get/post, voters, vote check and user lookup
//   - Snowflake ids that round-trip through JSON as strings
//   - Typed rate-limit errors carrying the server's retry_after value
//   - Vote webhook handler and URL builders for badges and widgets
//
// The client never retries. A 429 response surfaces as *RatelimitError and
// callers decide when to try again:
//
//	client, err := dbl.New(os.Getenv("DBL_TOKEN"))
//	if err != nil {
//		return err
//	}
//	err = client.UpdateStats(ctx, 565030624499466240, dbl.CumulativeStats{ServerCount: 1234})
//	var rl *dbl.RatelimitError
//	if errors.As(err, &rl) {
//		time.Sleep(rl.Duration())
//	}
//
// API documentation: https://docs.top.gg
package dbl
