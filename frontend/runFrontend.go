package frontend

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/jghoshh/getfit/frontend/client"
	"github.com/jghoshh/getfit/frontend/cmd"
)

// RunFrontend starts the interactive GetFit shell against SERVER_URL.
func RunFrontend() {
	// Load the .env file
	if err := godotenv.Load("frontend/.env"); err != nil {
		log.Println("No frontend/.env file found, using environment variables")
	}

	c := client.New(serverURL(os.Getenv("SERVER_URL")))
	cmd.InitShell(c)
	cmd.Execute()
}

// serverURL adds the http scheme to a bare host:port.
func serverURL(raw string) string {
	if raw == "" {
		return "http://localhost:8080"
	}
	if !strings.Contains(raw, "://") {
		return "http://" + raw
	}
	return raw
}
