package knowledge

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"ai-partner-be/internal/pkg/logger"
)

// Document is one immutable entry in the knowledge store.
type Document struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
}

// Store is an append-only collection of documents with linear substring
// retrieval. Documents are never mutated or deleted; insertion order is
// preserved. All internal mutation is guarded by a single mutex.
type Store struct {
	mu     sync.Mutex
	docs   []Document
	logger logger.ILogger

	// Conversation turns are written through to this file (best effort).
	// Empty path disables the write-through. logMu serializes the
	// read-append-rewrite so concurrent turns cannot drop each other.
	convLogPath string
	logMu       sync.Mutex
}

func NewStore(log logger.ILogger, convLogPath string) *Store {
	return &Store{
		logger:      log,
		convLogPath: convLogPath,
	}
}

// Search splits the query into whitespace-delimited tokens, scores every
// document by how many tokens occur as substrings of its text, and returns
// the texts of the top `limit` matches joined by newlines. Documents with no
// matching token are excluded. Ranking is by match count descending; equal
// counts fall back to descending lexical order of the document text (the
// reverse tuple-sort behavior of the original data set).
// An empty store or a query with no tokens yields "". Never fails.
func (s *Store) Search(query string, limit int) string {
	tokens := strings.Fields(query)
	if len(tokens) == 0 || limit <= 0 {
		return ""
	}

	type scored struct {
		count int
		text  string
	}

	s.mu.Lock()
	var hits []scored
	for _, doc := range s.docs {
		count := 0
		for _, token := range tokens {
			if strings.Contains(doc.Text, token) {
				count++
			}
		}
		if count > 0 {
			hits = append(hits, scored{count: count, text: doc.Text})
		}
	}
	s.mu.Unlock()

	if len(hits) == 0 {
		return ""
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].count != hits[j].count {
			return hits[i].count > hits[j].count
		}
		return hits[i].text > hits[j].text
	})

	if limit > len(hits) {
		limit = len(hits)
	}

	texts := make([]string, 0, limit)
	for _, h := range hits[:limit] {
		texts = append(texts, h.text)
	}
	return strings.Join(texts, "\n")
}

// Append adds one document with a timestamp-derived id and returns that id.
func (s *Store) Append(text string, metadata map[string]string) string {
	id := fmt.Sprintf("doc_%d", time.Now().UnixNano())
	s.AppendWithID(id, text, metadata)
	return id
}

// AppendWithID adds one document under a caller-chosen id.
func (s *Store) AppendWithID(id, text string, metadata map[string]string) {
	if metadata == nil {
		metadata = map[string]string{}
	}
	s.mu.Lock()
	s.docs = append(s.docs, Document{ID: id, Text: text, Metadata: metadata})
	s.mu.Unlock()
}

// AppendConversation records one finished turn as a document of type
// "conversation" and writes it through to the conversation log. Log I/O
// failures are logged only; the document stays in memory either way.
func (s *Store) AppendConversation(userInput, aiResponse string) {
	now := time.Now()
	id := fmt.Sprintf("conversation_%d", now.UnixNano())
	text := fmt.Sprintf("質問: %s\n回答: %s", userInput, aiResponse)

	s.AppendWithID(id, text, map[string]string{"type": "conversation"})

	if s.convLogPath == "" {
		return
	}
	if err := s.appendConversationRecord(ConversationRecord{
		Timestamp:  now.Format(time.RFC3339),
		UserInput:  userInput,
		AIResponse: aiResponse,
	}); err != nil {
		s.logger.Error("KnowledgeStore", "Failed to persist conversation turn", map[string]interface{}{
			"error": err.Error(),
			"path":  s.convLogPath,
		})
	}
}

// Count returns the number of stored documents.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

// Snapshot returns a copy of all documents in insertion order.
func (s *Store) Snapshot() []Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Document, len(s.docs))
	copy(out, s.docs)
	return out
}

// DocumentsByType returns copies of all documents whose metadata "type"
// matches, in insertion order.
func (s *Store) DocumentsByType(docType string) []Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Document
	for _, doc := range s.docs {
		if doc.Metadata["type"] == docType {
			out = append(out, doc)
		}
	}
	return out
}
