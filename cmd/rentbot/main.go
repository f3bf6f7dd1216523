package main

import (
	"fmt"
	"log"

	"github.com/m3rciful/rentbot/core/cmd"
	"github.com/m3rciful/rentbot/internal/app"
	"github.com/m3rciful/rentbot/internal/config"
)

func main() {
	err := cmd.Run(cmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (cmd.ConfigCarrier, error) {
			cfg, err := config.Load(path)
			if err != nil {
				return nil, err
			}
			return cfg, nil
		},
		Bootstrap: func(c cmd.ConfigCarrier) (cmd.TelegramApp, error) {
			cfg, ok := c.(*config.Config)
			if !ok {
				return nil, fmt.Errorf("unexpected config type %T", c)
			}
			return app.Bootstrap(cfg)
		},
	})
	if err != nil {
		log.Fatalf("rentbot: %v", err)
	}
}
