package main

import (
	"context"

	"github.com/msavelyev/notiboard/internal/server"
	"github.com/msavelyev/notiboard/internal/server/config"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()
	app := server.NewApp(cfg)
	app.Run(ctx)
}
