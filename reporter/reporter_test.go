package reporter

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sleepchann/game"
	"sleepchann/runner"
)

func TestMaskNameKeepsEdgesOnly(t *testing.T) {
	t.Parallel()

	require.Equal(t, "al******ne", maskName("alicephone"))
	require.Equal(t, "ma*in", maskName("main"))
	require.Equal(t, "b***", maskName("bob"))
	require.Equal(t, "", maskName(""))
}

func TestBuildReportCoversEverySession(t *testing.T) {
	t.Parallel()

	stats := runner.NewCollector()
	stats.SetPhase("fresh-session", runner.PhaseAuthenticated)
	stats.CycleDone("busy-session", &game.State{Gems: 1200, Gold: 500000}, time.Now().Add(time.Hour))
	stats.ActionDone("busy-session", "claimDaily")
	stats.ActionDone("busy-session", "levelHero")
	stats.ActionDone("busy-session", "levelHero")
	stats.Fail("dead-session", errors.New("session is no longer authorized"))

	r := &Reporter{stats: stats, logger: zap.NewNop()}
	report := r.buildReport()

	require.Contains(t, report, "Total Sessions: 3")
	require.Contains(t, report, maskName("busy-session"))
	require.Contains(t, report, "1200")
	require.Contains(t, report, "1 cycles, 3 actions")
	require.Contains(t, report, "No cycle finished yet")
	require.Contains(t, report, "session is no longer authorized")
	require.Contains(t, report, "• Farming: 1/3")
	require.NotContains(t, report, "busy-session", "raw session names must stay masked")
}

func TestBuildReportSkipsSummaryWhenNothingFarms(t *testing.T) {
	t.Parallel()

	stats := runner.NewCollector()
	stats.SetPhase("idle-one", runner.PhaseIdle)

	r := &Reporter{stats: stats, logger: zap.NewNop()}
	report := r.buildReport()

	require.NotContains(t, report, "Summary")
	require.Contains(t, report, "Total Sessions: 1")
}
