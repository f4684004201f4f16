package main

import (
	"context"
	"flag"
	"time"

	"github.com/estagioplus/benefits/config"
	"github.com/estagioplus/benefits/models"
	"github.com/estagioplus/benefits/routes"
	"github.com/estagioplus/benefits/services"
	"github.com/estagioplus/benefits/utils"
)

func main() {
	seed := flag.Bool("seed", false, "insert the demo catalog and member before serving")
	flag.Parse()

	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer utils.Logger.Sync() //nolint:errcheck

	db := config.InitDatabase(models.All()...)

	if *seed {
		if err := services.SeedDemo(context.Background(), db, cfg.DailyPointsRate); err != nil {
			utils.Sugar.Fatalf("seed demo data: %v", err)
		}
		utils.Sugar.Infof("demo data ready, login with %s", services.DemoEmail)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	utils.StartBlacklistSweeper(ctx, 10*time.Minute)

	loyalty := services.NewLoyaltyService(db, services.SettingsFromConfig(cfg), utils.Logger)
	r := routes.SetupRouter(db, loyalty)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
