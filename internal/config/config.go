package config

import (
	"os"

	"github.com/go-yaml/yaml"
)

type Config struct {
	App    App    `yaml:"app"`
	Server Server `yaml:"server"`
}

type App struct {
	JwtSecret        string `yaml:"jwtSecret"`
	PageSize         int    `yaml:"pageSize"`
	UserCacheSeconds int    `yaml:"userCacheSeconds"`
}

type Server struct {
	ListenAddr    string `yaml:"listenAddr"`
	PostgresDsn   string `yaml:"postgresDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	if config.Server.ListenAddr == "" {
		config.Server.ListenAddr = ":8000"
	}
	if config.App.PageSize <= 0 {
		config.App.PageSize = 32
	}
	if config.App.UserCacheSeconds <= 0 {
		config.App.UserCacheSeconds = 300
	}

	return config, nil
}
