package main

import (
	"fmt"
	"os"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	cmd := "serve"
	args := []string{}
	if len(os.Args) > 1 {
		cmd, args = os.Args[1], os.Args[2:]
	}

	switch cmd {
	case "serve":
		if err := runServe(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "seed":
		if err := runSeed(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("postapi %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`postapi - a JSON API for blog posts

Usage:
  postapi [command] [arguments]

Commands:
  serve         Run the HTTP server (default)
  seed [-n N]   Insert N generated posts into DATABASE_URL (default 10)
  version       Print the postapi version
  help          Show this help message

Environment:
  DATABASE_URL       sqlite://path, mongodb://..., postgres://... or redis://...
  PORT, ADDR         listen port or address (default :8080)
  LOG_LEVEL          debug, info, warn, error or off
  WRITE_RATE_LIMIT   max POST/PUT/DELETE per client IP per minute (0 = off)`)
}
