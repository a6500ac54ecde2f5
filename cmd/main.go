package main

import (
	"fmt"
	"os"

	"github.com/cvready/cvready-backend/internal/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	if err := application.Start(); err != nil {
		application.Log.Fatal("Failed to start app", "error", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	application.Log.Info("Starting server", "port", port)
	if err := application.Run(":" + port); err != nil {
		application.Log.Fatal("Server exited", "error", err)
	}
}
