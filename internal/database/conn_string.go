package database

import (
	"fmt"
	"net/url"

	"github.com/bidhaus/livefeed/internal/config"
)

// BuildConnString builds a PostgreSQL connection URL for the recorder
// database. The password is escaped by url.Userinfo, so special characters
// are safe.
func BuildConnString(cfg config.DBConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:     "/" + cfg.Name,
		RawQuery: "sslmode=" + sslMode,
	}
	return u.String()
}
