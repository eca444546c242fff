package tgauth

import (
	"fmt"
	"math/rand"
	"net/url"
	"strings"

	"sleepchann/constant"
)

// PickRefID chooses the referral code sent as the web view start parameter:
// the configured one seven times out of ten, the project default otherwise.
// Callers pick once per session and reuse the result.
func PickRefID(configured string) string {
	if configured == "" {
		return constant.DefaultRefID
	}
	if rand.Intn(100) < 70 {
		return configured
	}
	return constant.DefaultRefID
}

// ParseWebViewURL extracts the init data from a web view URL. The data sits
// in the fragment between #tgWebAppData= and &tgWebAppVersion, URL-encoded
// as a whole with the user payload encoded a second time. The result is a
// canonical query string ready to ride along as request parameters.
func ParseWebViewURL(rawURL string) (string, error) {
	_, fragment, ok := strings.Cut(rawURL, "#tgWebAppData=")
	if !ok {
		return "", fmt.Errorf("web view url has no tgWebAppData fragment")
	}
	raw := fragment
	if head, _, found := strings.Cut(fragment, "&tgWebAppVersion"); found {
		raw = head
	}

	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("decode web app data: %w", err)
	}

	values := url.Values{}
	for _, pair := range strings.Split(decoded, "&") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		if key == "user" {
			if u, err := url.QueryUnescape(value); err == nil {
				value = u
			}
		}
		values.Set(key, value)
	}
	if len(values) == 0 {
		return "", fmt.Errorf("web app data is empty")
	}
	return values.Encode(), nil
}
