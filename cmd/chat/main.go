package main

import (
	"flag"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/community-helpdesk/backend/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var apiURL string
	var location string
	flag.StringVar(&apiURL, "api", "http://localhost:8000", "Base URL of the helpdesk API")
	flag.StringVar(&location, "location", "", "Locality to attach to questions (e.g. Adyar)")
	flag.Parse()

	client := tui.NewChatClient(apiURL)

	m := tui.New(client, location)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Fatal(err)
	}
}
