package main

import (
	"context"
	"log"
	"os"

	"github.com/catusdev/catus-client/internal/buildinfo"
	"github.com/catusdev/catus-client/internal/client/cli"
	"github.com/catusdev/catus-client/internal/client/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
