package main

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"

	"gamebook-engine/internal/config"
	"gamebook-engine/internal/repository/contract"
	"gamebook-engine/internal/repository/implementation"
	"gamebook-engine/pkg/database"
	"gamebook-engine/pkg/store"
)

// Demo sections in the style of a branching adventure book. Each entry is
// the raw scanned text the content stage will format on first request.
var demoSections = map[int]string{
	1: `1
You stand at the mouth of a dark cave. Water drips somewhere in the
blackness ahead. If you wish to light your lantern and enter, turn to 145.
If you would rather circle the hillside looking for another way in, turn
to 278.`,
	145: `145
The lantern throws long shadows on the wet stone. A low growl rises from
a side passage. You may draw your sword and fight the creature (turn to
212) or retreat the way you came (turn to 1).`,
	212: `212
The cave troll lumbers toward you, club raised. This is a fight you
cannot avoid. Resolve the combat. If you win, turn to 301. If you lose,
turn to 99.`,
	278: `278
The hillside path narrows to a goat track above a ravine. Test your luck.
If you are lucky, turn to 301. If you are unlucky, turn to 99.`,
	301: `301
Beyond the troll's lair you find a chamber heaped with old coins and a
single iron key. Take the key and turn to 1 to leave the caves.`,
	99: `99
Your adventure ends here.`,
}

func main() {
	cfg := config.Load()

	var sections contract.SectionRepository
	switch cfg.Storage.Backend {
	case "postgres":
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			log.Fatalf("Error: Failed to connect to database: %v", err)
		}
		sections = implementation.NewSectionRepository(db)
	case "redis":
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Fatalf("Error: Invalid REDIS_URL: %v", err)
		}
		sections = implementation.NewRedisSectionRepository(redis.NewClient(opt))
	default:
		log.Fatal("Error: seeding requires a durable STORAGE_BACKEND (postgres or redis)")
	}

	ctx := context.Background()
	for section, text := range demoSections {
		if err := sections.PutRaw(ctx, section, store.KindContent, text); err != nil {
			log.Fatalf("Error: Failed to seed section %d: %v", section, err)
		}
		log.Printf("Seeded section %d (%d bytes)", section, len(text))
	}

	log.Printf("Seeding completed: %d sections.", len(demoSections))
}
