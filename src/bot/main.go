package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/communitykit/suggestbox/src/bot/bot"
	"github.com/communitykit/suggestbox/src/bot/config"
	"github.com/communitykit/suggestbox/src/data"
	"github.com/communitykit/suggestbox/src/suggestions/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Token == "" {
		log.Fatal("TOKEN not set in config or environment")
	}

	db := data.MustMySQL(cfg.MySQLDSN)
	if err := store.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate schema: %v", err)
	}

	rdb := data.MustRedis(cfg.RedisURL)

	b, err := bot.New(&cfg, db, rdb)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	if err := b.Start(); err != nil {
		log.Fatalf("Failed to start bot: %v", err)
	}

	log.Println("Suggestion bot is running. Press CTRL-C to exit.")

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	b.Stop()
	log.Println("Suggestion bot stopped gracefully")
}
