package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/samvad-hq/dbl-go/pkg/dbl"
)

func TestHTMLToText(t *testing.T) {
	cases := map[string]string{
		"":                                        "",
		"  plain **markdown**  ":                  "plain **markdown**",
		"<p>Hello <b>world</b></p><p>Second</p>": "Hello world\n\nSecond",
		"line one<br>line two":                    "line one\nline two",
		"<div>a</div><script>alert(1)</script>":   "a",
		"<ul><li>one</li><li>two</li></ul>":       "one\ntwo",
	}
	for in, want := range cases {
		if got := HTMLToText(in); got != want {
			t.Errorf("HTMLToText(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBotRendersSummary(t *testing.T) {
	long := "<h1>Example</h1><p>Does things.</p>"
	site := "https://example.com"
	var buf bytes.Buffer
	err := Bot(&buf, &dbl.Bot{
		ID:            264811613708746752,
		Username:      "Luca",
		Discriminator: "1375",
		Lib:           "discordgo",
		ShortDesc:     "A bot",
		LongDesc:      &long,
		Website:       &site,
		Owners:        []dbl.UserID{1, 2},
		Shards:        []uint64{10, 20},
		Points:        7,
	})
	if err != nil {
		t.Fatalf("Bot: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Luca#1375", "discordgo", "1, 2", "30 across 2 shards", "https://example.com", "Example\n\nDoes things."} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "<h1>") {
		t.Fatalf("html leaked into output:\n%s", out)
	}
	if strings.Contains(out, "Support:") {
		t.Fatalf("empty fields should be omitted:\n%s", out)
	}
}

func TestListingAndVoters(t *testing.T) {
	var buf bytes.Buffer
	l := &dbl.Listing{Results: []dbl.Bot{{ID: 1, Username: "a"}, {ID: 2, Username: "b"}}, Count: 2, Total: 40}
	if err := Listing(&buf, l); err != nil {
		t.Fatalf("Listing: %v", err)
	}
	if !strings.Contains(buf.String(), "2 of 40") {
		t.Fatalf("paging summary missing:\n%s", buf.String())
	}

	buf.Reset()
	if err := Voters(&buf, []dbl.User{{ID: 5, Username: "v", Discriminator: "0001"}}); err != nil {
		t.Fatalf("Voters: %v", err)
	}
	if !strings.Contains(buf.String(), "v#0001") || !strings.Contains(buf.String(), "1 voters") {
		t.Fatalf("unexpected voters output:\n%s", buf.String())
	}
}

func TestStatsMissingValues(t *testing.T) {
	var buf bytes.Buffer
	if err := Stats(&buf, &dbl.Stats{}); err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if !strings.Contains(buf.String(), "n/a") {
		t.Fatalf("expected n/a for unset counts:\n%s", buf.String())
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("héllo world", 5); got != "héll…" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
}
