package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	appNameVar        = "INFYBYTE_APP_NAME"
	baseURLVar        = "INFYBYTE_BASE_URL"
	requestTimeoutVar = "INFYBYTE_REQUEST_TIMEOUT"
	refreshTimeoutVar = "INFYBYTE_REFRESH_TIMEOUT"
	storePathVar      = "INFYBYTE_CREDENTIAL_STORE"
	storeSecretVar    = "INFYBYTE_CREDENTIAL_SECRET"
	identityPathVar   = "INFYBYTE_IDENTITY_FILE"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "InfyByte")
}

// GetBaseURL returns the backend origin, the single setting that selects
// which InfyByte deployment the client talks to.
func (EnvVars) GetBaseURL() string {
	return GetEnv(baseURLVar, "http://localhost:5000/api/v1")
}

func (EnvVars) GetRequestTimeout() time.Duration {
	return getDuration(requestTimeoutVar, 30*time.Second)
}

func (EnvVars) GetRefreshTimeout() time.Duration {
	return getDuration(refreshTimeoutVar, 10*time.Second)
}

func (EnvVars) GetCredentialStorePath() string {
	return GetEnv(storePathVar, filepath.Join(stateDir(), "credentials.json"))
}

func (EnvVars) GetCredentialStoreSecret() string {
	return GetEnv(storeSecretVar, "")
}

func (EnvVars) GetIdentityPath() string {
	return GetEnv(identityPathVar, filepath.Join(stateDir(), "identity.json"))
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDuration(envVar string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func stateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".infybyte"
	}
	return filepath.Join(home, ".infybyte")
}
