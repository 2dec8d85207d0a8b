package config

type Config struct {
	Port        int    `mapstructure:"port"`
	WSPort      int    `mapstructure:"ws_port"`
	LogLevel    string `mapstructure:"log_level"`
	LogFile     string `mapstructure:"log_file"`
	NATSURL     string `mapstructure:"nats_url"`
	DefaultRoom string `mapstructure:"default_room"`
}
