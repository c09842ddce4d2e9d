// Command server runs the slither.live game server.
package main

import (
	"flag"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"slither.live/engine"
)

func main() {
	port := flag.Int("port", 0, "Server port (default 8080)")
	configFile := flag.String("config", "", "Path to YAML config file")
	bots := flag.Int("bots", -1, "Initial count of AI-controlled snakes (default 0)")
	botRespawn := flag.Bool("bot-respawn", true, "Maintain the configured bot count as bots die")
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime)

	// Config layering: defaults -> YAML file -> CLI flag overrides.
	cfg := engine.DefaultConfig()

	if *configFile != "" {
		data, err := os.ReadFile(*configFile)
		if err != nil {
			log.Fatalf("failed to read config file: %v", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("failed to parse config file: %v", err)
		}
		log.Printf("loaded config from %s", *configFile)
	}

	if *port > 0 {
		cfg.Port = *port
	}
	if *bots >= 0 {
		cfg.Bots = *bots
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "bot-respawn" {
			cfg.BotRespawn = *botRespawn
		}
	})

	log.Printf("config: port=%d bots=%d botRespawn=%v frameTimeMs=%d",
		cfg.Port, cfg.Bots, cfg.BotRespawn, cfg.FrameTimeMs)

	srv := engine.NewServer(cfg)
	log.Fatal(srv.ListenAndServe(cfg.Port))
}
