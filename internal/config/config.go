package config

import "time"

type Config interface {
	EnvConfig
}

type EnvConfig interface {
	GetAppName() string
	GetBaseURL() string
	GetRequestTimeout() time.Duration
	GetRefreshTimeout() time.Duration
	GetCredentialStorePath() string
	GetCredentialStoreSecret() string
	GetIdentityPath() string
}

type mainConfig struct {
	EnvVars
}

func New() Config {
	return mainConfig{}
}
