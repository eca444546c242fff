package tgauth

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"sleepchann/constant"
)

func TestParseWebViewURL(t *testing.T) {
	t.Parallel()

	user := `{"id":228618799,"first_name":"Sleepy","language_code":"en"}`
	data := "query_id=AAEbQq1q&user=" + url.QueryEscape(user) + "&auth_date=1723456789&hash=deadbeef"
	webview := "https://tgcf.sleepagotchi.com/#tgWebAppData=" + url.QueryEscape(data) +
		"&tgWebAppVersion=7.8&tgWebAppPlatform=android"

	initData, err := ParseWebViewURL(webview)
	require.NoError(t, err)

	parsed, err := url.ParseQuery(initData)
	require.NoError(t, err)
	require.Equal(t, user, parsed.Get("user"))
	require.Equal(t, "1723456789", parsed.Get("auth_date"))
	require.Equal(t, "deadbeef", parsed.Get("hash"))
	require.Equal(t, "AAEbQq1q", parsed.Get("query_id"))
}

func TestParseWebViewURLWithoutVersionSuffix(t *testing.T) {
	t.Parallel()

	data := "auth_date=1723456789&hash=cafe"
	initData, err := ParseWebViewURL("https://example.com/#tgWebAppData=" + url.QueryEscape(data))
	require.NoError(t, err)

	parsed, err := url.ParseQuery(initData)
	require.NoError(t, err)
	require.Equal(t, "cafe", parsed.Get("hash"))
}

func TestParseWebViewURLRejectsMissingFragment(t *testing.T) {
	t.Parallel()

	_, err := ParseWebViewURL("https://example.com/game?foo=bar")
	require.Error(t, err)
}

func TestPickRefID(t *testing.T) {
	t.Parallel()

	require.Equal(t, constant.DefaultRefID, PickRefID(""))

	for i := 0; i < 50; i++ {
		got := PickRefID("r_custom")
		require.Contains(t, []string{"r_custom", constant.DefaultRefID}, got)
	}
}
