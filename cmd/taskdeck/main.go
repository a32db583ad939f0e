// Package main is the entrypoint for the Taskdeck terminal client.
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskdeck/taskdeck/internal/client"
	"github.com/taskdeck/taskdeck/internal/tui"
)

func main() {
	backendURL := flag.String("backend-url", "", "API server base URL (overrides config file and BACKEND_URL)")
	flag.Parse()

	cfg, err := tui.LoadClientConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	base := cfg.BackendURL
	if *backendURL != "" {
		base = *backendURL
	}

	api := client.New(base)
	app := tui.NewApp(api)

	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
