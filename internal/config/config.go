package config

type Config interface {
	EnvConfig
	CorsConfig
	SecurityConfig
	FederatedConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDatabaseURI() string
	GetSmtpHost() string
	GetSmtpPort() string
	GetSmtpPassword() string
	GetSmtpAccount() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Security
	Federated
}

func New() Config {
	return mainConfig{}
}
