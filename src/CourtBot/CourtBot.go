package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/courtbot/src/CourtBot/bot"
	"github.com/example/courtbot/src/CourtBot/components/webserver"
	"github.com/example/courtbot/src/CourtBot/config"
	"github.com/example/courtbot/src/data"
)

func main() {
	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		mysqlDSN = "courtbot:courtbot@tcp(127.0.0.1:3306)/courtbot"
	}

	db := data.MustMySQL(mysqlDSN)
	if err := data.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	cfg := config.Load(db)
	if cfg.Token == "" {
		log.Fatal("DISCORD_TOKEN not set in database or environment")
	}

	rdb := data.MustRedis(cfg.RedisURL)

	b, err := bot.New(bot.Config{
		Token:             cfg.Token,
		DevGuildID:        cfg.DevGuildID,
		SetGlobalCommands: cfg.SetGlobalCommands,
		DB:                db,
		Redis:             rdb,
	})
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	if err := b.Start(); err != nil {
		log.Fatalf("Failed to start bot: %v", err)
	}

	if cfg.JWTSecret != "" {
		api := webserver.New([]byte(cfg.JWTSecret), data.NewStore(db))
		go func() {
			if err := api.Run(cfg.APIAddr); err != nil {
				log.Printf("admin api: %v", err)
			}
		}()
	} else {
		log.Println("JWT_SECRET not set, admin API disabled")
	}

	log.Println("CourtBot is running. Press CTRL-C to exit.")

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	b.Stop()
	log.Println("CourtBot stopped gracefully")
}
