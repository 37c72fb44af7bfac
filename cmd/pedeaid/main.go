package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pedeai/pedeai/internal/daemon"
	"github.com/pedeai/pedeai/internal/workspace"
	"go.uber.org/fx"
)

func main() {
	restaurantFlag := flag.String("restaurant", "", "restaurant slug (overrides config default)")
	flag.Parse()

	slug := workspace.Resolve(*restaurantFlag)
	if err := workspace.ValidateSlug(slug); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	app := fx.New(
		daemon.Module(daemon.Params{RestaurantSlug: slug}),
	)

	app.Run()
}
