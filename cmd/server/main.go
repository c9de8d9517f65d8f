package main

import (
	"context"
	"net/http"
	"os"

	webAdapter "prodsales-backend/internal/adapters/web"
	"prodsales-backend/internal/app"
	"prodsales-backend/internal/config"
	"prodsales-backend/internal/core"
	"prodsales-backend/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	logger := config.GetLogger()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer pool.Close()

	inventoryService := core.NewInventoryService(pool)
	lineService := core.NewLineService(pool, inventoryService)
	orderService := core.NewOrderService(pool, inventoryService, lineService)

	svc := app.NewAppService(pool, inventoryService, lineService, orderService)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins)

	logger.Infof("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		logger.Fatalf("server: %v", err)
	}
}
