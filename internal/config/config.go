package config

type Config interface {
	EnvConfig
	SecurityConfig
	TokenConfig
	DatabaseConfig
	OidcConfig
}

type mainConfig struct {
	EnvVars
	Security
	Token
	Database
	Oidc
}

func New() Config {
	return mainConfig{}
}
