package main

import (
	"context"
	"net/http"
)

func main() {
	app := mustBootstrapShipAPI()
	defer app.Close()

	if err := app.Run(); err != nil && err != http.ErrServerClosed && err != context.Canceled {
		panic(err)
	}
}
