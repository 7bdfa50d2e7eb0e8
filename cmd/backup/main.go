package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"

	"ai-partner-be/internal/config"
	"ai-partner-be/internal/pkg/logger"
	"ai-partner-be/pkg/backup"
	"ai-partner-be/pkg/knowledge"

	"github.com/fatih/color"
)

// Exports the knowledge store into the data directory and pushes it to the
// configured git remote.
func main() {
	noPush := flag.Bool("no-push", false, "export only, skip git commit and push")
	flag.Parse()

	cfg := config.Load()
	log := logger.NewZapLogger(cfg.App.LogFilePath, false)
	defer log.Sync()

	store := knowledge.NewStore(log, "")
	backupPath := filepath.Join(cfg.Knowledge.DataDir, cfg.Knowledge.BackupFile)
	if err := store.Load(backupPath); err != nil {
		color.Red("No knowledge backup to export at %s: %v", backupPath, err)
		os.Exit(1)
	}

	if cfg.Backup.GitHubOwner != "" && cfg.Backup.GitHubRepo != "" {
		if err := backup.VerifyRemote(context.Background(), cfg.Backup.GitHubToken, cfg.Backup.GitHubOwner, cfg.Backup.GitHubRepo); err != nil {
			color.Yellow("Remote check: %v", err)
		} else {
			color.Green("Remote repository %s/%s reachable", cfg.Backup.GitHubOwner, cfg.Backup.GitHubRepo)
		}
	}

	manager := backup.NewManager(cfg.Backup.RepoPath, cfg.Knowledge.DataDir, cfg.Backup.Branch, log)
	if err := manager.AutoBackup(store, !*noPush); err != nil {
		color.Red("Backup failed: %v", err)
		os.Exit(1)
	}

	if *noPush {
		color.Green("Export complete (%d documents, push skipped)", store.Count())
	} else {
		color.Green("Backup complete (%d documents pushed)", store.Count())
	}
}
