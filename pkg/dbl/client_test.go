package dbl

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samvad-hq/dbl-go/pkg/httpclient"
)

const testToken = "secret-token"

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(testToken, WithBaseURL(srv.URL+"/"))
	require.NoError(t, err)
	return c
}

const botJSON = `{
	"id": "565030624499466240",
	"username": "Example",
	"discriminator": "0001",
	"avatar": null,
	"defAvatar": "6debd47ed13483642cf09e832ed0bc1b",
	"clientid": "565030624499466240",
	"lib": "discordgo",
	"prefix": "!",
	"shortdesc": "An example bot",
	"longdesc": "<p>Long</p>",
	"tags": ["utility"],
	"website": "https://example.com",
	"support": null,
	"github": null,
	"owners": ["140862798832861184"],
	"guilds": ["264445053596991498"],
	"invite": null,
	"date": "2019-04-07T12:00:00.000Z",
	"certifiedBot": true,
	"vanity": "example",
	"shards": [10, 20],
	"points": 1200,
	"monthlyPoints": 34
}`

func TestNewRequiresToken(t *testing.T) {
	_, err := New("   ")
	assert.ErrorIs(t, err, ErrTokenMissing)
}

func TestBotDecodesResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/bots/565030624499466240", r.URL.Path)
		assert.Equal(t, testToken, r.Header.Get("Authorization"))
		assert.True(t, strings.HasPrefix(r.Header.Get("User-Agent"), "dbl-go/"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, botJSON)
	})

	bot, err := c.Bot(context.Background(), 565030624499466240)
	require.NoError(t, err)
	assert.Equal(t, BotID(565030624499466240), bot.ID)
	assert.Equal(t, "discordgo", bot.Lib)
	assert.Nil(t, bot.Avatar)
	require.NotNil(t, bot.LongDesc)
	assert.Equal(t, "<p>Long</p>", *bot.LongDesc)
	assert.Equal(t, []UserID{140862798832861184}, bot.Owners)
	assert.Equal(t, []GuildID{264445053596991498}, bot.Guilds)
	assert.True(t, bot.CertifiedBot)
	assert.Equal(t, uint64(34), bot.MonthlyPoints)
}

func TestSearchSendsFilter(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bots", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "500", q.Get("limit"))
		assert.Equal(t, "-points", q.Get("sort"))
		assert.Equal(t, "lib:discordgo", q.Get("search"))
		_, _ = io.WriteString(w, `{"results":[`+botJSON+`],"limit":500,"offset":0,"count":1,"total":1}`)
	})

	listing, err := c.Search(context.Background(), NewFilter().Limit(1000).Sort("points", false).Search("lib:discordgo"))
	require.NoError(t, err)
	require.Equal(t, 1, listing.Len())
	assert.Equal(t, "Example", listing.At(0).Username)
	assert.Equal(t, uint64(1), listing.Total)
}

func TestStatsDecodesOptionalFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bots/1/stats", r.URL.Path)
		_, _ = io.WriteString(w, `{"server_count":42,"shards":[],"shard_count":null}`)
	})

	stats, err := c.Stats(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, stats.ServerCount)
	assert.Equal(t, uint64(42), *stats.ServerCount)
	assert.Nil(t, stats.ShardCount)
	assert.Empty(t, stats.Shards)
}

func TestUpdateStatsPostsBody(t *testing.T) {
	tests := []struct {
		name  string
		stats ShardStats
		want  string
	}{
		{"cumulative", CumulativeStats{ServerCount: 1234}, `{"server_count":1234,"shard_count":null}`},
		{"shard", ShardStat{ServerCount: 10, ShardID: 1, ShardCount: 2}, `{"server_count":10,"shard_id":1,"shard_count":2}`},
		{"shards", ShardsStats{Shards: []uint64{5, 6}}, `{"shards":[5,6]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/bots/9/stats", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				raw, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				assert.JSONEq(t, tt.want, string(raw))
				w.WriteHeader(http.StatusOK)
			})
			require.NoError(t, c.UpdateStats(context.Background(), 9, tt.stats))
		})
	}
}

func TestUpdateStatsRejectsNil(t *testing.T) {
	c, err := New(testToken)
	require.NoError(t, err)
	assert.Error(t, c.UpdateStats(context.Background(), 1, nil))
}

func TestVotesAndHasVoted(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bots/3/votes":
			_, _ = io.WriteString(w, `[{"id":"11","username":"a","discriminator":"0001","avatar":"abc"}]`)
		case "/bots/3/check":
			if r.URL.Query().Get("userId") == "11" {
				_, _ = io.WriteString(w, `{"voted":1}`)
				return
			}
			_, _ = io.WriteString(w, `{"voted":0}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	votes, err := c.Votes(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, UserID(11), votes[0].ID)

	voted, err := c.HasVoted(context.Background(), 3, 11)
	require.NoError(t, err)
	assert.True(t, voted)

	voted, err = c.HasVoted(context.Background(), 3, 12)
	require.NoError(t, err)
	assert.False(t, voted)
}

func TestUserDecodesDetailedUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/140862798832861184", r.URL.Path)
		_, _ = io.WriteString(w, `{
			"id":"140862798832861184","username":"owner","discriminator":"0001",
			"avatar":null,"defAvatar":"x","bio":"hi","banner":null,
			"social":{"github":"gh","instagram":"","reddit":"","twitter":"tw","youtube":""},
			"color":"#fff","supporter":true,"certifiedDev":true,"mod":false,"webMod":true,"admin":false
		}`)
	})

	user, err := c.User(context.Background(), 140862798832861184)
	require.NoError(t, err)
	assert.Equal(t, "owner", user.Username)
	assert.Equal(t, "gh", user.Social.GitHub)
	assert.True(t, user.CertifiedDev)
	assert.True(t, user.WebMod)
	assert.False(t, user.Mod)
	require.NotNil(t, user.Bio)
	assert.Equal(t, "hi", *user.Bio)
}

func TestRatelimitFromBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"retry_after": 3600}`)
	})

	_, err := c.Bot(context.Background(), 1)
	require.Error(t, err)
	var rl *RatelimitError
	require.True(t, errors.As(err, &rl), "got %T", err)
	assert.Equal(t, uint32(3600), rl.RetryAfter)
	assert.True(t, IsRatelimit(err))
	assert.Equal(t, "ratelimit reached, retry after: 3600", err.Error())

	status, ok := StatusCode(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusTooManyRequests, status)
}

func TestRatelimitRoundsFractionalSeconds(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"retry_after": 1.2}`)
	})

	err := c.UpdateStats(context.Background(), 1, CumulativeStats{ServerCount: 1})
	var rl *RatelimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, uint32(2), rl.RetryAfter)
}

func TestRatelimitFallsBackToHeader(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "15")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `Too many requests`)
	})

	_, err := c.Stats(context.Background(), 1)
	var rl *RatelimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, uint32(15), rl.RetryAfter)
}

func TestRatelimitWithoutRetryInfoIsHTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Stats(context.Background(), 1)
	var he *HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusTooManyRequests, he.StatusCode)
	assert.False(t, IsRatelimit(err))
}

func TestNon2xxIsHTTPError(t *testing.T) {
	for _, code := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound, http.StatusInternalServerError, http.StatusBadGateway} {
		code := code
		t.Run(http.StatusText(code), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":"nope"}`, code)
			})

			_, err := c.Bot(context.Background(), 1)
			var he *HTTPError
			require.ErrorAs(t, err, &he)
			assert.Equal(t, code, he.StatusCode)
			assert.Contains(t, string(he.Body), "nope")
			assert.False(t, IsRatelimit(err))

			status, ok := StatusCode(err)
			assert.True(t, ok)
			assert.Equal(t, code, status)
		})
	}
}

func TestDecodeFailureIsHTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id": 565030624499466240}`)
	})

	_, err := c.Bot(context.Background(), 1)
	var he *HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusOK, he.StatusCode)
	assert.ErrorIs(t, err, ErrInvalidSnowflake)
}

func TestTransportFailureHasNoStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	c, err := New(testToken, WithBaseURL(base))
	require.NoError(t, err)

	_, err = c.Bot(context.Background(), 1)
	var he *HTTPError
	require.ErrorAs(t, err, &he)
	assert.Zero(t, he.StatusCode)
	assert.NotNil(t, errors.Unwrap(err))
	_, ok := StatusCode(err)
	assert.False(t, ok)
}

type recordingTransport struct {
	mu   sync.Mutex
	reqs []httpclient.Request
	resp httpclient.Response
}

func (r *recordingTransport) Do(_ context.Context, req httpclient.Request) (httpclient.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, req)
	return r.resp, nil
}

type stubResponse struct {
	status int
	body   string
	header http.Header
}

func (s stubResponse) Body() []byte        { return []byte(s.body) }
func (s stubResponse) StatusCode() int     { return s.status }
func (s stubResponse) Header() http.Header { return s.header }

func TestNewWithClientUsesInjectedTransport(t *testing.T) {
	rt := &recordingTransport{resp: stubResponse{status: http.StatusOK, body: `{"voted":2}`}}
	c, err := NewWithClient(rt, testToken)
	require.NoError(t, err)

	voted, err := c.HasVoted(context.Background(), 5, 6)
	require.NoError(t, err)
	assert.True(t, voted)

	require.Len(t, rt.reqs, 1)
	assert.Equal(t, DefaultBaseURL+"/bots/5/check?userId=6", rt.reqs[0].URL)
	assert.Equal(t, testToken, rt.reqs[0].Headers["Authorization"])
	assert.Nil(t, rt.reqs[0].Body)
}

func TestClientIsSafeForConcurrentUse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"server_count": 1, "shards": []int{}})
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Stats(context.Background(), 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
