package updater

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sleepchann/constant"
)

func newTestChecker(t *testing.T, handler http.HandlerFunc) (*Checker, *[]string) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	var notes []string
	c := New(time.Minute, zap.NewNop(), func(text string) { notes = append(notes, text) })
	c.releaseURL = srv.URL
	return c, &notes
}

func TestCheckNotifiesOnceForNewRelease(t *testing.T) {
	t.Parallel()

	c, notes := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"tag_name":"v9.9.9","html_url":"https://example.com/releases/v9.9.9"}`)
	})

	c.check(context.Background())
	c.check(context.Background())

	require.Len(t, *notes, 1, "the same release must not be announced twice")
	require.Contains(t, (*notes)[0], "9.9.9")
	require.Contains(t, (*notes)[0], constant.Version)
}

func TestCheckStaysQuietOnCurrentRelease(t *testing.T) {
	t.Parallel()

	c, notes := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"tag_name":"v%s"}`, constant.Version)
	})

	c.check(context.Background())
	require.Empty(t, *notes)
}

func TestCheckToleratesFeedErrors(t *testing.T) {
	t.Parallel()

	c, notes := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	c.check(context.Background())
	require.Empty(t, *notes)
}
