package cli

var (
	EnvFilePath    = envFilePath
	GetIndexConfig = getIndexConfig
)
