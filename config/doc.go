// Package config loads client configuration from a YAML file, a .env file
// and the environment, in that order of increasing precedence.
//
//	var cfg client.Config
//	err := config.LoadConfig("sessionkit", &cfg, config.WithEnvPrefix("SESSIONKIT"))
//
// An environment variable maps to nested keys by splitting on underscores,
// so API_BASE_URL sets api.base_url and ACCOUNTS_MEMBER_REFRESH_INTERVAL sets
// accounts.member.refresh_interval.
package config
