package database

import (
	"fmt"
	"net"
	"net/url"

	coreconfig "github.com/uthef/QrBot/core/config"
)

// DSN renders cfg as a lib/pq keyword/value connection string.
func DSN(cfg coreconfig.DatabaseConfig) string {
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=%s",
		quote(cfg.User), quote(cfg.Password), quote(cfg.Host), quote(cfg.Port), quote(cfg.Name), quote(cfg.SSLMode),
	)
}

// URL renders cfg as a postgres:// URL for golang-migrate.
func URL(cfg coreconfig.DatabaseConfig) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host,
		Path:     "/" + cfg.Name,
		RawQuery: url.Values{"sslmode": {cfg.SSLMode}}.Encode(),
	}
	if cfg.Port != "" {
		u.Host = net.JoinHostPort(cfg.Host, cfg.Port)
	}
	return u.String()
}

// quote escapes a keyword/value parameter the way lib/pq parses it.
func quote(v string) string {
	if v == "" {
		return "''"
	}
	needs := false
	for _, r := range v {
		if r == ' ' || r == '\'' || r == '\\' {
			needs = true
			break
		}
	}
	if !needs {
		return v
	}
	out := make([]rune, 0, len(v)+2)
	out = append(out, '\'')
	for _, r := range v {
		if r == '\'' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(append(out, '\''))
}
