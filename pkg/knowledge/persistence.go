package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// BackupFile is the on-disk form of the whole store:
// {timestamp, documents: [text...], metadatas: [mapping...]}.
// IDs are written on export; seed files without them get generated ids on
// load. Document and metadata lists round-trip byte-identically.
type BackupFile struct {
	Timestamp string              `json:"timestamp"`
	Documents []string            `json:"documents"`
	Metadatas []map[string]string `json:"metadatas"`
	IDs       []string            `json:"ids,omitempty"`
}

// ConversationRecord is one entry of the append-only conversation log.
type ConversationRecord struct {
	Timestamp  string `json:"timestamp"`
	UserInput  string `json:"user_input"`
	AIResponse string `json:"ai_response"`
}

type conversationLog struct {
	Conversations []ConversationRecord `json:"conversations"`
}

// Save writes the store to path in backup form.
func (s *Store) Save(path string) error {
	s.mu.Lock()
	backup := BackupFile{
		Timestamp: time.Now().Format(time.RFC3339),
		Documents: make([]string, 0, len(s.docs)),
		Metadatas: make([]map[string]string, 0, len(s.docs)),
		IDs:       make([]string, 0, len(s.docs)),
	}
	for _, doc := range s.docs {
		backup.Documents = append(backup.Documents, doc.Text)
		backup.Metadatas = append(backup.Metadatas, doc.Metadata)
		backup.IDs = append(backup.IDs, doc.ID)
	}
	s.mu.Unlock()

	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal backup: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

// Load replaces the store contents with the documents read from path.
func (s *Store) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}

	var backup BackupFile
	if err := json.Unmarshal(data, &backup); err != nil {
		return fmt.Errorf("parse backup: %w", err)
	}
	if len(backup.Documents) != len(backup.Metadatas) {
		return fmt.Errorf("backup corrupt: %d documents vs %d metadatas", len(backup.Documents), len(backup.Metadatas))
	}

	docs := make([]Document, 0, len(backup.Documents))
	for i, text := range backup.Documents {
		id := ""
		if i < len(backup.IDs) {
			id = backup.IDs[i]
		}
		if id == "" {
			id = fmt.Sprintf("doc_%d", i)
		}
		metadata := backup.Metadatas[i]
		if metadata == nil {
			metadata = map[string]string{}
		}
		docs = append(docs, Document{ID: id, Text: text, Metadata: metadata})
	}

	s.mu.Lock()
	s.docs = docs
	s.mu.Unlock()
	return nil
}

func (s *Store) appendConversationRecord(rec ConversationRecord) error {
	s.logMu.Lock()
	defer s.logMu.Unlock()

	var log conversationLog
	if data, err := os.ReadFile(s.convLogPath); err == nil {
		// A broken log is started over rather than blocking persistence.
		_ = json.Unmarshal(data, &log)
	}
	log.Conversations = append(log.Conversations, rec)

	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal conversation log: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.convLogPath), 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(s.convLogPath, data, 0644); err != nil {
		return fmt.Errorf("write conversation log: %w", err)
	}
	return nil
}

// LoadConversationLog reads the append-only conversation log at path.
// A missing file yields an empty list.
func LoadConversationLog(path string) ([]ConversationRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []ConversationRecord{}, nil
		}
		return nil, fmt.Errorf("read conversation log: %w", err)
	}
	var log conversationLog
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("parse conversation log: %w", err)
	}
	return log.Conversations, nil
}
