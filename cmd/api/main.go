package main

import (
	"fmt"
	"os"

	"github.com/filmsociety/ticketing/internal/app"
)

func main() {
	err := app.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
