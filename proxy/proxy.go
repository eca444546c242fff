// Package proxy reads the shared proxy list, probes proxy health and hands
// out fixed session-to-proxy assignments.
package proxy

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"sleepchann/constant"
)

// Parse normalizes one proxy line into a URL. Accepted forms are
// host:port, user:pass@host:port, with an optional http/https/socks5 scheme.
func Parse(line string) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("empty proxy line")
	}

	protocol := "http"
	if strings.Contains(line, "://") {
		parts := strings.SplitN(line, "://", 2)
		protocol = strings.ToLower(parts[0])
		line = parts[1]
	}
	switch protocol {
	case "http", "https", "socks5":
	default:
		return "", fmt.Errorf("unsupported proxy protocol: %s", protocol)
	}

	var username, password string
	if strings.Contains(line, "@") {
		authParts := strings.SplitN(line, "@", 2)
		credentials := strings.SplitN(authParts[0], ":", 2)
		if len(credentials) != 2 {
			return "", fmt.Errorf("invalid proxy credentials format")
		}
		username = credentials[0]
		password = credentials[1]
		line = authParts[1]
	}

	if username != "" && password != "" {
		return fmt.Sprintf("%s://%s:%s@%s", protocol, username, password, line), nil
	}
	return fmt.Sprintf("%s://%s", protocol, line), nil
}

// ReadFile loads proxies from path, one per line. Blank lines and # comments
// are skipped; malformed lines are logged and dropped. A missing file is not
// an error, it just means no proxies.
func ReadFile(path string, logger *zap.Logger) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var proxies []string
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		proxyURL, err := Parse(line)
		if err != nil {
			logger.Warn("Skipping invalid proxy line", zap.String("line", line), zap.Error(err))
			continue
		}
		if seen[proxyURL] {
			continue
		}
		seen[proxyURL] = true
		proxies = append(proxies, proxyURL)
	}

	return proxies, scanner.Err()
}

// Check probes the proxy by fetching the caller's IP through it. Healthy
// means a 200 with a parseable address in the body.
func Check(ctx context.Context, proxyURL string, logger *zap.Logger) bool {
	client := resty.New().
		SetProxy(proxyURL).
		SetTimeout(constant.ProxyCheckTimeout)

	resp, err := client.R().SetContext(ctx).Get(constant.ProxyCheckURL)
	if err != nil {
		logger.Debug("Proxy probe failed", zap.String("proxy", proxyURL), zap.Error(err))
		return false
	}
	if resp.StatusCode() != 200 {
		logger.Debug("Proxy probe bad status", zap.String("proxy", proxyURL), zap.Int("status", resp.StatusCode()))
		return false
	}

	ip := strings.TrimSpace(resp.String())
	if net.ParseIP(ip) == nil {
		logger.Debug("Proxy probe bad body", zap.String("proxy", proxyURL), zap.String("body", ip))
		return false
	}

	logger.Debug("Proxy healthy", zap.String("proxy", proxyURL), zap.String("ip", ip))
	return true
}
