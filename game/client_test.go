package game

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sleepchann/request"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Options{
		Session:  "alice",
		InitData: "query_id=AA123&user=%7B%22id%22%3A1%7D&hash=abc",
		BaseURL:  srv.URL,
		Retry:    RetryPolicy{Attempts: 3},
		Sleep:    func(ctx context.Context, d time.Duration) error { return ctx.Err() },
	})
	require.NoError(t, err)
	return c
}

func jsonError(status int, name, message string, calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			*calls++
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprintf(w, `{"name":%q,"message":%q}`, name, message)
	})
}

func TestClientForwardsInitDataAsQuery(t *testing.T) {
	t.Parallel()

	var got url.Values
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"player":{}}`)
	}))

	_, err := c.GetUserData(context.Background())
	require.NoError(t, err)
	require.Equal(t, "AA123", got.Get("query_id"))
	require.Equal(t, "abc", got.Get("hash"))
	require.Equal(t, `{"id":1}`, got.Get("user"))
}

func TestClientPostsJSONBody(t *testing.T) {
	t.Parallel()

	var body []byte
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{}`)
	}))

	err := c.SendToChallenge(context.Background(), "goldMine", []request.ChallengeHero{{SlotID: 0, HeroType: "bonk"}})
	require.NoError(t, err)
	require.JSONEq(t, `{"challengeType":"goldMine","heroes":[{"slotId":0,"heroType":"bonk"}]}`, string(body))
}

func TestClientStopsOnAuthError(t *testing.T) {
	t.Parallel()

	var calls int
	c := newTestClient(t, jsonError(401, "error_auth", "invalid init data", &calls))

	_, err := c.GetUserData(context.Background())
	require.True(t, IsAuth(err))
	require.Equal(t, 1, calls, "authorization failures must not be retried")

	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, 401, ae.Status)
}

func TestClientStopsOnGameRefusal(t *testing.T) {
	t.Parallel()

	var calls int
	c := newTestClient(t, jsonError(400, "error_challenge_in_progress", "challenge already running", &calls))

	err := c.ClaimDailyRewards(context.Background())
	require.True(t, IsGameLogic(err))
	require.True(t, IsSilent(err), "a running challenge is a routine refusal")
	require.Equal(t, 1, calls)
}

func TestClientRecognizesMaintenance(t *testing.T) {
	t.Parallel()

	var calls int
	c := newTestClient(t, jsonError(418, "error_teapot", "server is in maintenance mode", &calls))

	_, err := c.GetShop(context.Background())
	require.True(t, IsMaintenance(err))
	require.Equal(t, 1, calls)
}

func TestClientRetriesServerErrorsExactly(t *testing.T) {
	t.Parallel()

	var calls int
	c := newTestClient(t, jsonError(500, "error_lock", "Failed to acquire lock", &calls))

	_, err := c.GetUserData(context.Background())
	require.True(t, IsNetwork(err))
	require.Equal(t, 3, calls, "one call per configured attempt")
}

func TestClientRetriesRateLimiting(t *testing.T) {
	t.Parallel()

	var calls int
	c := newTestClient(t, jsonError(429, "error_rate_limit", "too many requests", &calls))

	_, err := c.GetUserData(context.Background())
	require.True(t, IsNetwork(err))
	require.Equal(t, 3, calls)
}

func TestClientTreatsHTMLAsNetworkTrouble(t *testing.T) {
	t.Parallel()

	var calls int
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "<html><body>502 Bad Gateway</body></html>")
	}))

	_, err := c.GetUserData(context.Background())
	require.True(t, IsNetwork(err), "gateway HTML pages are transport noise, not API answers")
	require.Equal(t, 3, calls)
}

func TestNewClientRejectsMissingInitData(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Options{})
	require.Error(t, err)
}
