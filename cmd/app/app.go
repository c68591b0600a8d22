package main

import (
	"os"

	"github.com/DRSN-tech/minimarket/internal/app"
	config "github.com/DRSN-tech/minimarket/internal/cfg"
	"github.com/DRSN-tech/minimarket/pkg/logger"
)

// main запускает сервис MiniMarket.
//
//	@title			MiniMarket API
//	@version		1.0
//	@description	Касса мини-маркета: каталог, корзины, проведение и журнал продаж
//	@host			localhost:8080
//	@BasePath		/api/v1
func main() {
	log := logger.NewSlogLogger()

	cfg, err := config.Load(log)
	if err != nil {
		log.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Errorf(err, "failed to initialize app")
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		os.Exit(1)
	}
}
