package main

import (
	"log"

	"github.com/smartfarmdiy/strawbydetet/internal/app"
)

func main() {
	application := app.NewApp()
	defer application.Close()

	if err := application.Run(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
