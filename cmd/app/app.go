package main

import (
	"os"

	"github.com/DRSN-tech/catalog-recommender/internal/app"
	config "github.com/DRSN-tech/catalog-recommender/internal/cfg"
	"github.com/DRSN-tech/catalog-recommender/pkg/logger"
)

//	@title			Catalog Recommender API
//	@version		1.0
//	@description	Семантический поиск и рекомендации по каталогу товаров
//	@BasePath		/api/v1
func main() {
	log := logger.NewZerologLogger()

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
		log.Errorf(err, "application stopped with error")
		os.Exit(1)
	}
}
