package main

import (
	"fmt"
	"os"

	"github.com/jghoshh/getfit/backend"
	"github.com/jghoshh/getfit/frontend"
)

const usage = `usage: getfit [backend|shell|both]

  backend  run the RPC server and the daily coaching scheduler
  shell    run the interactive shell against SERVER_URL (default)
  both     run the server in the background and the shell in front`

func main() {
	mode := "shell"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	switch mode {
	case "backend":
		backend.RunBackend()
	case "shell":
		frontend.RunFrontend()
	case "both":
		go backend.RunBackend()
		frontend.RunFrontend()
	default:
		fmt.Println(usage)
		os.Exit(2)
	}
}
