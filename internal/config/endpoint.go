package config

import (
	"fmt"
	"net/url"
	"strings"
)

// LiveURL resolves the WebSocket endpoint: the explicit live.url override
// wins, then the API base URL with its scheme swapped (http→ws, https→wss)
// and the live path appended, then the local development fallback.
func (c *Config) LiveURL() (string, error) {
	if c.Live.URL != "" {
		return c.Live.URL, nil
	}
	if c.API.BaseURL != "" {
		return deriveLiveURL(c.API.BaseURL)
	}
	return DevLiveURL, nil
}

func deriveLiveURL(apiBase string) (string, error) {
	u, err := url.Parse(apiBase)
	if err != nil {
		return "", fmt.Errorf("parse api base url: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("api base url has unsupported scheme %q", u.Scheme)
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + LivePathSuffix
	return u.String(), nil
}
