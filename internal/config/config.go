package config

import (
	"time"

	pkgconfig "github.com/dyndash/combat-provider/pkg/config"
	"github.com/dyndash/combat-provider/pkg/log"
	"github.com/dyndash/combat-provider/pkg/storage"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	Dice      DiceConfig
	Data      DataConfig
	Scraper   ScraperConfig
	Storage   storage.Config
	HTTP      HTTPConfig
	Log       log.Config
}

type ServerConfig struct {
	Host            string
	Port            int
	PublicAddress   string        `mapstructure:"public_address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	SendBuffer     int           `mapstructure:"send_buffer"`
}

type DiceConfig struct {
	Source         string
	TumbleInterval time.Duration `mapstructure:"tumble_interval"`
	TumbleCount    int           `mapstructure:"tumble_count"`
	SettleDelay    time.Duration `mapstructure:"settle_delay"`
}

// DataConfig points at the seed files: types.json, sources.json and data.json.
type DataConfig struct {
	Dir string
}

type ScraperConfig struct {
	PartyDir         string        `mapstructure:"party_dir"`
	EncounterDir     string        `mapstructure:"encounter_dir"`
	PartyBonuses     []int         `mapstructure:"party_bonuses"`
	EncounterBonuses []int         `mapstructure:"encounter_bonuses"`
	Watch            bool          `mapstructure:"watch"`
	Debounce         time.Duration `mapstructure:"debounce"`
}

type HTTPConfig struct {
	Gzip bool
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}
	setDefaults(v)

	// Override from environment
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.public_address", "PUBLIC_ADDRESS")
	v.BindEnv("data.dir", "DATA_DIR")
	v.BindEnv("scraper.party_dir", "PARTY_DIR")
	v.BindEnv("scraper.encounter_dir", "ENCOUNTER_DIR")
	v.BindEnv("storage.driver", "STORAGE_DRIVER")
	v.BindEnv("storage.local.base_path", "STORAGE_LOCAL_BASE_PATH")
	v.BindEnv("storage.s3.endpoint", "S3_ENDPOINT")
	v.BindEnv("storage.s3.bucket", "S3_BUCKET")
	v.BindEnv("storage.s3.access_key_id", "S3_ACCESS_KEY_ID")
	v.BindEnv("storage.s3.secret_access_key", "S3_SECRET_ACCESS_KEY")
	v.BindEnv("log.level", "LOG_LEVEL")

	return decode(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 4453)
	v.SetDefault("server.public_address", "localhost:4453")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 4096)
	v.SetDefault("websocket.send_buffer", 256)
	v.SetDefault("dice.source", "simulated-dice")
	v.SetDefault("dice.tumble_interval", "100ms")
	v.SetDefault("dice.tumble_count", 4)
	v.SetDefault("dice.settle_delay", "10ms")
	v.SetDefault("data.dir", "./data")
	v.SetDefault("scraper.party_dir", "./content/parties")
	v.SetDefault("scraper.encounter_dir", "./content/encounters")
	v.SetDefault("scraper.party_bonuses", []int{2, 5})
	v.SetDefault("scraper.encounter_bonuses", []int{2, 5})
	v.SetDefault("scraper.watch", false)
	v.SetDefault("scraper.debounce", "500ms")
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local.base_path", "./assets")
	v.SetDefault("storage.local.url_prefix", "/assets")
	v.SetDefault("http.gzip", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.service_name", "combat-provider")
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.Server.ShutdownTimeout = parseDuration(v, "server.shutdown_timeout", 10*time.Second)
	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", 10*time.Second)
	cfg.Dice.TumbleInterval = parseDuration(v, "dice.tumble_interval", 100*time.Millisecond)
	cfg.Dice.SettleDelay = parseDuration(v, "dice.settle_delay", 10*time.Millisecond)
	cfg.Scraper.Debounce = parseDuration(v, "scraper.debounce", 500*time.Millisecond)

	return &cfg, nil
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}
