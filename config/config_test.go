package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// setRequired pins the mandatory keys and silences anything the ambient
// environment may carry for the keys under test.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("API_ID", "123456")
	t.Setenv("API_HASH", "0123456789abcdef")
	for _, key := range []string{
		"SESSION_START_DELAY", "ACTION_DELAY", "REQUEST_RETRIES", "SLEEP_TIME",
		"REF_ID", "SESSIONS_PER_PROXY", "USE_PROXY", "AUTO_UPDATE",
		"BLACKLISTED_SESSIONS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadRequiresTelegramCredentials(t *testing.T) {
	t.Setenv("API_ID", "")
	t.Setenv("API_HASH", "")

	_, err := Load()

	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "API_ID", cerr.Key)
}

func TestLoadAppliesDefaults(t *testing.T) {
	setRequired(t)

	s, err := Load()
	require.NoError(t, err)

	require.Equal(t, 123456, s.APIID)
	require.Equal(t, 360*time.Second, s.SessionStartDelay)
	require.Equal(t, Range{2 * time.Second, 5 * time.Second}, s.ActionDelay)
	require.Equal(t, Range{600 * time.Second, 3600 * time.Second}, s.SleepTime)
	require.Equal(t, 3, s.RequestRetries)
	require.True(t, s.UseProxy)
	require.True(t, s.AutoUpdate)
	require.NotEmpty(t, s.RefID)
}

func TestLoadParsesRanges(t *testing.T) {
	setRequired(t)
	t.Setenv("SLEEP_TIME", "100-200")
	t.Setenv("ACTION_DELAY", "4")

	s, err := Load()
	require.NoError(t, err)
	require.Equal(t, Range{100 * time.Second, 200 * time.Second}, s.SleepTime)
	require.Equal(t, Range{4 * time.Second, 4 * time.Second}, s.ActionDelay, "a single number pins both ends")
}

func TestLoadRejectsInvertedRange(t *testing.T) {
	setRequired(t)
	t.Setenv("SLEEP_TIME", "200-100")

	_, err := Load()

	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "SLEEP_TIME", cerr.Key)
}

func TestLoadRejectsZeroRetries(t *testing.T) {
	setRequired(t)
	t.Setenv("REQUEST_RETRIES", "0")

	_, err := Load()

	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "REQUEST_RETRIES", cerr.Key)
}

func TestLoadSplitsBlacklist(t *testing.T) {
	setRequired(t)
	t.Setenv("BLACKLISTED_SESSIONS", "alice, bob , ,charlie")

	s, err := Load()
	require.NoError(t, err)
	require.Equal(t, []string{"alice", "bob", "charlie"}, s.BlacklistedSessions)
	require.True(t, s.Blacklisted("ALICE"), "blacklist matching ignores case")
	require.False(t, s.Blacklisted("dave"))
}

func TestRangeRandomStaysInBounds(t *testing.T) {
	t.Parallel()

	r := Range{Min: 2 * time.Second, Max: 5 * time.Second}
	for i := 0; i < 100; i++ {
		d := r.Random()
		require.GreaterOrEqual(t, d, r.Min)
		require.Less(t, d, r.Max)
	}

	pinned := Range{Min: 3 * time.Second, Max: 3 * time.Second}
	require.Equal(t, 3*time.Second, pinned.Random())
}
