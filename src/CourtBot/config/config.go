package config

import (
	"log"
	"os"

	"github.com/example/courtbot/src/data"
	"gorm.io/gorm"
)

type Config struct {
	Token             string
	DevGuildID        string
	SetGlobalCommands bool
	JWTSecret         string
	APIAddr           string
	MySQLDSN          string
	RedisURL          string
}

func Load(db *gorm.DB) Config {
	// Load settings from database
	if err := data.LoadSettings(db); err != nil {
		log.Printf("Failed to load settings: %v", err)
	}

	// Get values from database with env fallbacks
	discordToken := data.GetSetting("discord_token")
	if discordToken == "" {
		discordToken = os.Getenv("DISCORD_TOKEN")
	}

	devGuildID := data.GetSetting("dev_guild_id")
	if devGuildID == "" {
		devGuildID = os.Getenv("DEV_GUILD_ID")
	}

	jwtSecret := data.GetSetting("jwt_secret")
	if jwtSecret == "" {
		jwtSecret = os.Getenv("JWT_SECRET")
	}

	setGlobal := data.GetSetting("set_global_commands")
	if setGlobal == "" {
		setGlobal = os.Getenv("SET_GLOBAL_COMMANDS")
	}

	return Config{
		Token:             discordToken,
		DevGuildID:        devGuildID,
		SetGlobalCommands: setGlobal == "1" || setGlobal == "true",
		JWTSecret:         jwtSecret,
		APIAddr:           getenv("API_ADDR", ":8090"),
		MySQLDSN:          getenv("MYSQL_DSN", "courtbot:courtbot@tcp(127.0.0.1:3306)/courtbot"),
		RedisURL:          getenv("REDIS_URL", "redis://127.0.0.1:6379/0"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
