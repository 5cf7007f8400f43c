package store

import (
	"fmt"
	"net/url"

	"github.com/rickgao/futures-data/internal/config"
)

// BuildConnString renders a pgx-compatible postgres:// URL from config.
// Credentials pass through url.URL so passwords with reserved characters
// survive; the sslmode default comes from config.applyDefaults with the
// rest of the optional fields.
func BuildConnString(cfg config.DBConfig) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:   cfg.Name,
	}
	if cfg.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {cfg.SSLMode}}.Encode()
	}
	return u.String()
}
