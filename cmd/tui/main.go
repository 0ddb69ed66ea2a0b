package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"ecgrisk/internal/config"
	"ecgrisk/internal/predict"
)

func main() {
	_ = godotenv.Load()
	seed := flag.Int64("seed", 1, "Seed of the mock model")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	m := newModel(cfg, predict.NewMock(*seed))
	defer m.player.Close()

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
