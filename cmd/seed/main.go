package main

import (
	"os"
	"path/filepath"

	"ai-partner-be/internal/config"
	"ai-partner-be/internal/pkg/logger"
	"ai-partner-be/pkg/knowledge"

	"github.com/fatih/color"
)

// Seeds the knowledge store with the initial personal corpus and writes it
// to the backup file. Run once before first server start.
func main() {
	cfg := config.Load()
	log := logger.NewZapLogger(cfg.App.LogFilePath, false)
	defer log.Sync()

	backupPath := filepath.Join(cfg.Knowledge.DataDir, cfg.Knowledge.BackupFile)

	if _, err := os.Stat(backupPath); err == nil {
		color.Yellow("Backup already exists at %s, leaving it untouched", backupPath)
		return
	}

	store := knowledge.NewStore(log, "")
	store.Seed()

	if err := store.Save(backupPath); err != nil {
		color.Red("Failed to write seed backup: %v", err)
		os.Exit(1)
	}

	color.Green("Seeded %d documents into %s", store.Count(), backupPath)

	// Sanity check: the seed corpus should answer a chair question.
	result := store.Search("椅子について", 3)
	if result == "" {
		color.Yellow("Warning: test query returned no documents")
		return
	}
	color.Green("Test query OK (matched seed documents)")
}
