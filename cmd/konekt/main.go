// Command konekt is the TeamKonekt terminal client.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	flag "github.com/spf13/pflag"

	"github.com/teamkonekt/konekt/internal/api"
	"github.com/teamkonekt/konekt/internal/app"
	"github.com/teamkonekt/konekt/internal/credential"
	"github.com/teamkonekt/konekt/internal/model"
	"github.com/teamkonekt/konekt/internal/notify"
	"github.com/teamkonekt/konekt/internal/session"
	"github.com/teamkonekt/konekt/internal/store"
	"github.com/teamkonekt/konekt/internal/theme"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "konekt:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.StringP("config", "c", model.DefaultConfigPath(), "path to the YAML config file")
	baseURL := flag.String("api", "", "override the API base URL")
	flag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *baseURL != "" {
		cfg.API.BaseURL = *baseURL
	}

	for _, p := range []string{cfg.Log.Path, cfg.Store.Path} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(p), err)
		}
	}

	logFile, err := tea.LogToFile(cfg.Log.Path, "konekt")
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()

	theme.Apply(cfg.Display.Theme)

	db, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	creds, err := credential.Open(model.ConfigDir())
	if err != nil {
		return err
	}

	client := api.NewClient(cfg.API)
	center := notify.New(client, cfg.Notifications.PollInterval(), db)
	defer center.Stop()

	sm := session.NewManager(client, creds, center, db)

	log.Printf("starting against %s", cfg.API.BaseURL)
	p := tea.NewProgram(app.New(app.Deps{
		Config:     *cfg,
		ConfigPath: *configPath,
		Client:     client,
		Session:    sm,
		Center:     center,
		Store:      db,
	}), tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}
	return nil
}
