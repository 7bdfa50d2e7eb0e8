package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"ai-partner-be/internal/pkg/logger"
	"ai-partner-be/pkg/knowledge"

	"github.com/google/go-github/v80/github"
)

const pushTimeout = 30 * time.Second

// Manager exports the knowledge store into the data directory and pushes it
// to the repository's git remote. The git CLI is the external collaborator
// here; the manager shells out rather than reimplementing it.
type Manager struct {
	repoPath string
	dataDir  string
	branch   string
	logger   logger.ILogger
}

func NewManager(repoPath, dataDir, branch string, log logger.ILogger) *Manager {
	if branch == "" {
		branch = "main"
	}
	return &Manager{
		repoPath: repoPath,
		dataDir:  dataDir,
		branch:   branch,
		logger:   log,
	}
}

// typedExport is the shape of the per-type export files
// (purchases.json, conversations.json).
type typedExport struct {
	Timestamp string `json:"timestamp"`
	Total     int    `json:"total"`
	Entries   []struct {
		ID       string            `json:"id"`
		Content  string            `json:"content"`
		Metadata map[string]string `json:"metadata"`
	} `json:"entries"`
}

// ExportStore writes backup.json plus the purchases and conversations
// exports into the data directory.
func (m *Manager) ExportStore(store *knowledge.Store) error {
	if err := store.Save(filepath.Join(m.dataDir, "backup.json")); err != nil {
		return err
	}
	if err := m.exportByType(store, "purchase", "purchases.json"); err != nil {
		return err
	}
	if err := m.exportByType(store, "conversation", "conversations_export.json"); err != nil {
		return err
	}
	return nil
}

func (m *Manager) exportByType(store *knowledge.Store, docType, filename string) error {
	docs := store.DocumentsByType(docType)

	export := typedExport{
		Timestamp: time.Now().Format(time.RFC3339),
		Total:     len(docs),
	}
	for _, doc := range docs {
		export.Entries = append(export.Entries, struct {
			ID       string            `json:"id"`
			Content  string            `json:"content"`
			Metadata map[string]string `json:"metadata"`
		}{ID: doc.ID, Content: doc.Text, Metadata: doc.Metadata})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filename, err)
	}
	path := filepath.Join(m.dataDir, filename)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	m.logger.Info("Backup", "Export written", map[string]interface{}{"path": path, "total": export.Total})
	return nil
}

// CommitAndPush stages the data directory, commits, and pushes. A commit
// with nothing to commit is tolerated; a push failure is not.
func (m *Manager) CommitAndPush(message string) error {
	if message == "" {
		message = fmt.Sprintf("Auto backup: %s", time.Now().Format(time.RFC3339))
	}

	if _, err := os.Stat(filepath.Join(m.repoPath, ".git")); err != nil {
		return fmt.Errorf("no git repository at %s", m.repoPath)
	}

	if out, err := m.git(context.Background(), "add", m.dataDir); err != nil {
		return fmt.Errorf("git add: %s: %w", strings.TrimSpace(out), err)
	}

	if out, err := m.git(context.Background(), "commit", "-m", message); err != nil {
		// Nothing staged is fine: the data did not change since last run.
		m.logger.Warn("Backup", "git commit skipped", map[string]interface{}{"output": strings.TrimSpace(out)})
	}

	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()
	if out, err := m.git(ctx, "push", "origin", m.branch); err != nil {
		return fmt.Errorf("git push: %s: %w", strings.TrimSpace(out), err)
	}

	m.logger.Info("Backup", "Push complete", map[string]interface{}{"branch": m.branch})
	return nil
}

// AutoBackup exports everything and pushes it in one go.
func (m *Manager) AutoBackup(store *knowledge.Store, commit bool) error {
	if err := m.ExportStore(store); err != nil {
		return err
	}
	if !commit {
		return nil
	}
	return m.CommitAndPush(fmt.Sprintf("Auto backup: %d documents", store.Count()))
}

func (m *Manager) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = m.repoPath
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// VerifyRemote checks through the GitHub API that the backup repository
// exists and is reachable with the given token.
func VerifyRemote(ctx context.Context, token, owner, repo string) error {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	if _, _, err := client.Repositories.Get(ctx, owner, repo); err != nil {
		return fmt.Errorf("backup remote %s/%s unreachable: %w", owner, repo, err)
	}
	return nil
}
