package config

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"sleepchann/constant"
)

// Error reports a malformed or missing configuration value.
type Error struct {
	Key    string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Key, e.Reason)
}

// Range is an inclusive interval in seconds, written KEY=min-max.
type Range struct {
	Min time.Duration
	Max time.Duration
}

// Random picks a uniformly distributed duration from the range.
func (r Range) Random() time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + time.Duration(rand.Int63n(int64(r.Max-r.Min)))
}

func (r Range) String() string {
	return fmt.Sprintf("%d-%d", int(r.Min.Seconds()), int(r.Max.Seconds()))
}

// Settings are the process-wide knobs, loaded once at startup from .env and
// the environment. Per-account settings live next to each session file.
type Settings struct {
	APIID   int
	APIHash string

	FixCert bool

	SessionStartDelay time.Duration
	ActionDelay       Range
	RequestRetries    int
	SleepTime         Range

	RefID               string
	SessionsPerProxy    int
	UseProxy            bool
	DisableProxyReplace bool
	DeviceParams        bool

	DebugLogging bool

	AutoUpdate          bool
	CheckUpdateInterval time.Duration

	BlacklistedSessions []string

	BotToken    string
	AdminChatID int64
}

// Load reads .env from the working directory, then resolves every setting
// from the environment with defaults for unset keys. API_ID and API_HASH
// have no defaults and must be present.
func Load() (*Settings, error) {
	_ = godotenv.Load()

	s := &Settings{
		RefID: constant.DefaultRefID,
	}

	var err error
	if s.APIID, err = intEnv("API_ID", 0); err != nil {
		return nil, err
	}
	if s.APIID == 0 {
		return nil, &Error{Key: "API_ID", Reason: "not set"}
	}
	s.APIHash = os.Getenv("API_HASH")
	if s.APIHash == "" {
		return nil, &Error{Key: "API_HASH", Reason: "not set"}
	}

	if s.FixCert, err = boolEnv("FIX_CERT", false); err != nil {
		return nil, err
	}

	if s.SessionStartDelay, err = secondsEnv("SESSION_START_DELAY", 360*time.Second); err != nil {
		return nil, err
	}
	if s.ActionDelay, err = rangeEnv("ACTION_DELAY", Range{2 * time.Second, 5 * time.Second}); err != nil {
		return nil, err
	}
	if s.RequestRetries, err = intEnv("REQUEST_RETRIES", 3); err != nil {
		return nil, err
	}
	if s.RequestRetries < 1 {
		return nil, &Error{Key: "REQUEST_RETRIES", Reason: "must be at least 1"}
	}
	if s.SleepTime, err = rangeEnv("SLEEP_TIME", Range{600 * time.Second, 3600 * time.Second}); err != nil {
		return nil, err
	}

	if ref := os.Getenv("REF_ID"); ref != "" {
		s.RefID = ref
	}
	if s.SessionsPerProxy, err = intEnv("SESSIONS_PER_PROXY", 1); err != nil {
		return nil, err
	}
	if s.SessionsPerProxy < 1 {
		return nil, &Error{Key: "SESSIONS_PER_PROXY", Reason: "must be at least 1"}
	}
	if s.UseProxy, err = boolEnv("USE_PROXY", true); err != nil {
		return nil, err
	}
	if s.DisableProxyReplace, err = boolEnv("DISABLE_PROXY_REPLACE", false); err != nil {
		return nil, err
	}
	if s.DeviceParams, err = boolEnv("DEVICE_PARAMS", false); err != nil {
		return nil, err
	}

	if s.DebugLogging, err = boolEnv("DEBUG_LOGGING", false); err != nil {
		return nil, err
	}

	if s.AutoUpdate, err = boolEnv("AUTO_UPDATE", true); err != nil {
		return nil, err
	}
	if s.CheckUpdateInterval, err = secondsEnv("CHECK_UPDATE_INTERVAL", 60*time.Second); err != nil {
		return nil, err
	}

	s.BlacklistedSessions = splitList(os.Getenv("BLACKLISTED_SESSIONS"))

	s.BotToken = os.Getenv("BOT_TOKEN")
	if s.AdminChatID, err = int64Env("ADMIN_CHAT_ID", 0); err != nil {
		return nil, err
	}

	return s, nil
}

// Blacklisted reports whether the session is excluded from farming.
func (s *Settings) Blacklisted(session string) bool {
	for _, name := range s.BlacklistedSessions {
		if strings.EqualFold(name, session) {
			return true
		}
	}
	return false
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &Error{Key: key, Reason: "not an integer: " + raw}
	}
	return v, nil
}

func int64Env(key string, def int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &Error{Key: key, Reason: "not an integer: " + raw}
	}
	return v, nil
}

func boolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &Error{Key: key, Reason: "not a boolean: " + raw}
	}
	return v, nil
}

func secondsEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, &Error{Key: key, Reason: "not a number of seconds: " + raw}
	}
	return time.Duration(v) * time.Second, nil
}

// rangeEnv parses KEY=min-max in seconds. A single number pins both ends.
func rangeEnv(key string, def Range) (Range, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	parts := strings.SplitN(raw, "-", 2)
	min, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Range{}, &Error{Key: key, Reason: "bad range: " + raw}
	}
	max := min
	if len(parts) == 2 {
		if max, err = strconv.Atoi(strings.TrimSpace(parts[1])); err != nil {
			return Range{}, &Error{Key: key, Reason: "bad range: " + raw}
		}
	}
	if min < 0 || max < min {
		return Range{}, &Error{Key: key, Reason: "bad range: " + raw}
	}
	return Range{
		Min: time.Duration(min) * time.Second,
		Max: time.Duration(max) * time.Second,
	}, nil
}
