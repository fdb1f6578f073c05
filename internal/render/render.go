// Package render prints API objects as plain text for the CLI.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/PuerkitoBio/goquery"

	"github.com/samvad-hq/dbl-go/pkg/dbl"
)

const maxDescriptionRunes = 600

// JSON writes v indented.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Bot writes a bot summary. The long description is reduced to text.
func Bot(w io.Writer, b *dbl.Bot) error {
	tw := newTable(w)
	row(tw, "ID", b.ID.String())
	row(tw, "Name", b.Username+"#"+b.Discriminator)
	row(tw, "Library", b.Lib)
	row(tw, "Prefix", b.Prefix)
	row(tw, "Summary", b.ShortDesc)
	row(tw, "Tags", strings.Join(b.Tags, ", "))
	row(tw, "Certified", yesNo(b.CertifiedBot))
	row(tw, "Points", fmt.Sprintf("%d (%d this month)", b.Points, b.MonthlyPoints))
	row(tw, "Servers", shardTotal(b.Shards))
	row(tw, "Owners", joinIDs(b.Owners))
	row(tw, "Website", deref(b.Website))
	row(tw, "Support", deref(b.Support))
	row(tw, "Invite", deref(b.Invite))
	row(tw, "Created", b.ID.CreatedAt().Format("2006-01-02"))
	if err := tw.Flush(); err != nil {
		return err
	}
	if desc := truncate(HTMLToText(deref(b.LongDesc)), maxDescriptionRunes); desc != "" {
		_, err := fmt.Fprintf(w, "\n%s\n", desc)
		return err
	}
	return nil
}

// Listing writes one line per bot followed by the paging summary.
func Listing(w io.Writer, l *dbl.Listing) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tLIB\tPOINTS\tSUMMARY")
	for i := 0; i < l.Len(); i++ {
		b := l.At(i)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", b.ID, b.Username, b.Lib, b.Points, truncate(b.ShortDesc, 60))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d of %d (offset %d)\n", l.Count, l.Total, l.Offset)
	return err
}

// Stats writes a bot's reported stats.
func Stats(w io.Writer, s *dbl.Stats) error {
	tw := newTable(w)
	row(tw, "Servers", optUint(s.ServerCount))
	row(tw, "Shard count", optUint(s.ShardCount))
	if len(s.Shards) > 0 {
		parts := make([]string, len(s.Shards))
		for i, n := range s.Shards {
			parts[i] = fmt.Sprintf("#%d=%d", i, n)
		}
		row(tw, "Shards", strings.Join(parts, " "))
	}
	return tw.Flush()
}

// User writes a user profile.
func User(w io.Writer, u *dbl.DetailedUser) error {
	tw := newTable(w)
	row(tw, "ID", u.ID.String())
	row(tw, "Name", u.Username+"#"+u.Discriminator)
	row(tw, "Bio", HTMLToText(deref(u.Bio)))
	var roles []string
	for _, r := range []struct {
		name string
		ok   bool
	}{
		{"supporter", u.Supporter},
		{"certified developer", u.CertifiedDev},
		{"moderator", u.Mod},
		{"website moderator", u.WebMod},
		{"admin", u.Admin},
	} {
		if r.ok {
			roles = append(roles, r.name)
		}
	}
	row(tw, "Roles", strings.Join(roles, ", "))
	row(tw, "GitHub", u.Social.GitHub)
	row(tw, "Twitter", u.Social.Twitter)
	row(tw, "Joined Discord", u.ID.CreatedAt().Format("2006-01-02"))
	return tw.Flush()
}

// Voters writes one line per voter.
func Voters(w io.Writer, users []dbl.User) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tUSERNAME")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s#%s\n", u.ID, u.Username, u.Discriminator)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d voters\n", len(users))
	return err
}

// HTMLToText strips markup from an HTML fragment, keeping paragraph and line
// breaks. Plain text (e.g. markdown descriptions) is returned trimmed.
func HTMLToText(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "<") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	doc.Find("script, style, iframe").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div, h1, h2, h3, h4, h5, h6").AppendHtml("\n\n")
	doc.Find("li, tr").AppendHtml("\n")

	lines := strings.Split(doc.Text(), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func row(tw *tabwriter.Writer, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(tw, "%s:\t%s\n", label, value)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optUint(v *uint64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprint(*v)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func shardTotal(shards []uint64) string {
	if len(shards) == 0 {
		return ""
	}
	var total uint64
	for _, n := range shards {
		total += n
	}
	return fmt.Sprintf("%d across %d shards", total, len(shards))
}

func joinIDs(ids []dbl.UserID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
