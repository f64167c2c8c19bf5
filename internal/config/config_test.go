package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)

	cfg, err := Load()
	req.NoError(err)

	req.Equal(4453, cfg.Server.Port)
	req.Equal(100*time.Millisecond, cfg.Dice.TumbleInterval)
	req.Equal(4, cfg.Dice.TumbleCount)
	req.Equal(10*time.Millisecond, cfg.Dice.SettleDelay)
	req.Equal(256, cfg.WebSocket.SendBuffer)
	req.Equal("local", cfg.Storage.Driver)
	req.Equal("/assets", cfg.Storage.Local.URLPrefix)
	req.Equal([]int{2, 5}, cfg.Scraper.PartyBonuses)
	req.True(cfg.HTTP.Gzip)
}

func TestLoad_EnvOverrides(t *testing.T) {
	req := require.New(t)

	t.Setenv("PORT", "5001")
	t.Setenv("DATA_DIR", "/srv/combat")
	t.Setenv("DICE_TUMBLE_INTERVAL", "20ms")

	cfg, err := Load()
	req.NoError(err)

	req.Equal(5001, cfg.Server.Port)
	req.Equal("/srv/combat", cfg.Data.Dir)
	req.Equal(20*time.Millisecond, cfg.Dice.TumbleInterval)
}
