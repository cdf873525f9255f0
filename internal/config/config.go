package config

type Config interface {
	EnvConfig
	NavigraphConfig
}

type EnvConfig interface {
	GetAppName() string
	GetDataFolder() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	Navigraph
}

func New() Config {
	return mainConfig{}
}
