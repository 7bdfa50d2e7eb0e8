package knowledge

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"ai-partner-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(logger.NewNopLogger(), "")
}

func TestSearch_EmptyStoreAndEmptyQuery(t *testing.T) {
	store := newTestStore(t)

	assert.Equal(t, "", store.Search("チェア", 3), "empty store must yield empty result")

	store.AppendWithID("d1", "オフィスチェアの話", nil)
	assert.Equal(t, "", store.Search("", 3), "empty query must yield empty result")
	assert.Equal(t, "", store.Search("   ", 3), "whitespace-only query has no tokens")
	assert.Equal(t, "", store.Search("チェア", 0), "non-positive limit yields empty result")
}

func TestSearch_RankingByMatchCount(t *testing.T) {
	store := newTestStore(t)
	store.AppendWithID("one", "椅子について", nil)
	store.AppendWithID("two", "椅子と机について", nil)
	store.AppendWithID("none", "観葉植物の水やり", nil)

	got := store.Search("椅子 机", 3)
	lines := strings.Split(got, "\n")

	require.Len(t, lines, 2, "document with no token match must be excluded")
	assert.Equal(t, "椅子と机について", lines[0], "two token matches outrank one")
	assert.Equal(t, "椅子について", lines[1])
}

func TestSearch_TieBreakIsDescendingLexical(t *testing.T) {
	store := newTestStore(t)
	store.AppendWithID("a", "aaa 椅子", nil)
	store.AppendWithID("b", "zzz 椅子", nil)
	store.AppendWithID("c", "mmm 椅子", nil)

	got := store.Search("椅子", 3)

	assert.Equal(t, []string{"zzz 椅子", "mmm 椅子", "aaa 椅子"}, strings.Split(got, "\n"))
}

func TestSearch_LimitCapsResults(t *testing.T) {
	store := newTestStore(t)
	for _, text := range []string{"椅子 一", "椅子 二", "椅子 三", "椅子 四"} {
		store.Append(text, nil)
	}

	got := store.Search("椅子", 2)
	assert.Len(t, strings.Split(got, "\n"), 2)
}

func TestSearch_SeededPurchaseScenario(t *testing.T) {
	store := newTestStore(t)
	store.Seed()

	got := store.Search("椅子を買いたいんだけど、どんなのがいいかな チェア", 3)

	assert.Contains(t, got, "メッシュ素材のオフィスチェア（3年前、快適）→ 成功",
		"purchase history must surface for a chair question")
}

func TestAppendConversation(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "conversations.json")
	store := NewStore(logger.NewNopLogger(), logPath)

	store.AppendConversation("椅子が欲しい", "メッシュ素材がおすすめです")

	docs := store.DocumentsByType("conversation")
	require.Len(t, docs, 1)
	assert.True(t, strings.HasPrefix(docs[0].ID, "conversation_"))
	assert.Equal(t, "質問: 椅子が欲しい\n回答: メッシュ素材がおすすめです", docs[0].Text)

	records, err := LoadConversationLog(logPath)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "椅子が欲しい", records[0].UserInput)
	assert.Equal(t, "メッシュ素材がおすすめです", records[0].AIResponse)
	assert.NotEmpty(t, records[0].Timestamp)

	// Appending again must keep the earlier record.
	store.AppendConversation("机も欲しい", "昇降デスクはどうでしょう")
	records, err = LoadConversationLog(logPath)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestAppendConversation_ConcurrentTurnsAllPersisted(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "conversations.json")
	store := NewStore(logger.NewNopLogger(), logPath)

	const turns = 20
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.AppendConversation(fmt.Sprintf("質問%d", i), fmt.Sprintf("回答%d", i))
		}(i)
	}
	wg.Wait()

	assert.Len(t, store.DocumentsByType("conversation"), turns)

	records, err := LoadConversationLog(logPath)
	require.NoError(t, err)
	assert.Len(t, records, turns, "no turn may be lost to a concurrent rewrite")
}

func TestLoadConversationLog_MissingFile(t *testing.T) {
	records, err := LoadConversationLog(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backup.json")

	store := newTestStore(t)
	store.Seed()
	store.AppendConversation("こんにちは", "こんにちは！")
	require.NoError(t, store.Save(path))

	restored := newTestStore(t)
	require.NoError(t, restored.Load(path))

	assert.Equal(t, store.Snapshot(), restored.Snapshot(),
		"documents, metadata and ids must survive the round trip unchanged")
}

func TestLoad_GeneratesIDsWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backup.json")

	seed := []byte(`{
  "timestamp": "2026-01-01T00:00:00Z",
  "documents": ["ひとつめ", "ふたつめ"],
  "metadatas": [{"type": "profile"}, null]
}`)
	require.NoError(t, os.WriteFile(path, seed, 0644))

	store := newTestStore(t)
	require.NoError(t, store.Load(path))

	docs := store.Snapshot()
	require.Len(t, docs, 2)
	assert.Equal(t, "doc_0", docs[0].ID)
	assert.Equal(t, "doc_1", docs[1].ID)
	assert.NotNil(t, docs[1].Metadata, "null metadata becomes an empty map")
}

func TestLoad_RejectsMismatchedLengths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backup.json")

	bad := []byte(`{"documents": ["a", "b"], "metadatas": [{}]}`)
	require.NoError(t, os.WriteFile(path, bad, 0644))

	store := newTestStore(t)
	assert.Error(t, store.Load(path))
}
