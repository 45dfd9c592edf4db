package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	companion "github.com/cyberFlowTech/companion-sdk-go"
	"github.com/cyberFlowTech/companion-sdk-go/emotion"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ════════════════════════════════════════════
// Helpers
// ════════════════════════════════════════════

var baseTime = time.Date(2026, 3, 14, 12, 0, 0, 123456789, time.FixedZone("CET", 3600))

func sampleSnapshot() *companion.Snapshot {
	rel := companion.DefaultRelationshipState("tsundere")
	rel.TotalInteractions = 12
	rel.IntimacyLevel = 34
	rel.FlirtLevel = 70
	rel.CurrentMood = emotion.Love
	rel.MilestonesReached = []int{10}
	rel.LastInteractionAt = baseTime
	rel.RecentSignals = []companion.Signal{
		{Type: "positive", Emotion: emotion.Love, Intensity: 40, Timestamp: baseTime.Add(-time.Minute)},
		{Type: "neutral", Emotion: emotion.Neutral, Intensity: 0, Timestamp: baseTime},
	}
	return &companion.Snapshot{
		Version:      companion.SnapshotVersion,
		SessionID:    "user-42",
		Relationship: rel,
		Memories: []companion.MemoryRecord{
			{
				ID: "m1", Content: "my name is Kai", Category: companion.MemoryPersonal,
				Importance: 55, CreatedAt: baseTime.Add(-48 * time.Hour),
			},
			{
				ID: "m2", Content: "I love rainy days", Category: companion.MemoryPreferences,
				Emotion: emotion.Love, Importance: 45, CreatedAt: baseTime.Add(-time.Hour),
				AccessCount: 3, LastAccessedAt: baseTime,
			},
		},
		SavedAt: baseTime,
	}
}

func expected() *companion.Snapshot {
	return normalizedCopy(sampleSnapshot())
}

func backends(t *testing.T) map[string]companion.Persistence {
	t.Helper()

	jsonFile, err := NewFile(t.TempDir(), FormatJSON)
	require.NoError(t, err)
	yamlFile, err := NewFile(t.TempDir(), FormatYAML)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	sqlite, err := NewSQLite(filepath.Join(t.TempDir(), "companion.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]companion.Persistence{
		"memory": NewMemory(),
		"json":   jsonFile,
		"yaml":   yamlFile,
		"redis":  NewRedis(client),
		"sqlite": sqlite,
	}
}

// ════════════════════════════════════════════
// Round trip
// ════════════════════════════════════════════

func TestBackends_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, p := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, p.Save(ctx, "user-42", sampleSnapshot()))

			got, err := p.Load(ctx, "user-42")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, expected(), got)
		})
	}
}

func TestBackends_MissingSessionIsNil(t *testing.T) {
	ctx := context.Background()
	for name, p := range backends(t) {
		t.Run(name, func(t *testing.T) {
			got, err := p.Load(ctx, "nobody")
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestBackends_Overwrite(t *testing.T) {
	ctx := context.Background()
	for name, p := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, p.Save(ctx, "user-42", sampleSnapshot()))

			next := sampleSnapshot()
			next.Relationship.TotalInteractions = 13
			next.Memories = next.Memories[:1]
			require.NoError(t, p.Save(ctx, "user-42", next))

			got, err := p.Load(ctx, "user-42")
			require.NoError(t, err)
			assert.Equal(t, 13, got.Relationship.TotalInteractions)
			require.Len(t, got.Memories, 1)
			assert.Equal(t, "m1", got.Memories[0].ID)
		})
	}
}

func TestBackends_EmptySnapshot(t *testing.T) {
	ctx := context.Background()
	for name, p := range backends(t) {
		t.Run(name, func(t *testing.T) {
			snap := &companion.Snapshot{
				SessionID:    "fresh",
				Relationship: companion.DefaultRelationshipState("sweet"),
			}
			require.NoError(t, p.Save(ctx, "fresh", snap))

			got, err := p.Load(ctx, "fresh")
			require.NoError(t, err)
			assert.Equal(t, companion.SnapshotVersion, got.Version)
			assert.NotNil(t, got.Memories)
			assert.Empty(t, got.Memories)
			assert.Equal(t, []int{}, got.Relationship.MilestonesReached)
		})
	}
}

func TestBackends_InvalidSessionID(t *testing.T) {
	ctx := context.Background()
	for name, p := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, id := range []string{"", "../etc/passwd", "a b", ".hidden"} {
				_, err := p.Load(ctx, id)
				assert.ErrorIs(t, err, ErrInvalidSessionID, id)
				assert.ErrorIs(t, p.Save(ctx, id, sampleSnapshot()), ErrInvalidSessionID, id)
			}
		})
	}
}

func TestSave_DoesNotMutateCaller(t *testing.T) {
	snap := sampleSnapshot()
	require.NoError(t, NewMemory().Save(context.Background(), "user-42", snap))
	assert.Equal(t, baseTime.Location(), snap.Memories[0].CreatedAt.Location())
}

// ════════════════════════════════════════════
// Backend specifics
// ════════════════════════════════════════════

func TestMemory_LoadedSnapshotsDoNotAlias(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Save(ctx, "user-42", sampleSnapshot()))

	a, err := m.Load(ctx, "user-42")
	require.NoError(t, err)
	a.Memories[0].Content = "changed"

	b, err := m.Load(ctx, "user-42")
	require.NoError(t, err)
	assert.Equal(t, "my name is Kai", b.Memories[0].Content)

	require.NoError(t, m.Delete(ctx, "user-42"))
	gone, err := m.Load(ctx, "user-42")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestFile_LayoutAndFormat(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(dir, FormatYAML)
	require.NoError(t, err)
	require.NoError(t, f.Save(context.Background(), "user-42", sampleSnapshot()))

	data, err := os.ReadFile(filepath.Join(dir, "user-42.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "currentPersonaId: tsundere")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file should be renamed away")

	_, err = NewFile(dir, "xml")
	assert.Error(t, err)
}

func TestFile_UnsupportedVersion(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(dir, FormatJSON)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "user-42.json"), []byte(`{"version": 99}`), 0644))

	_, err = f.Load(context.Background(), "user-42")
	assert.ErrorIs(t, err, companion.ErrUnsupportedSnapshot)
}

func TestRedis_KeyAndTTL(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	r := NewRedis(client, RedisConfig{Prefix: "test", TTL: time.Hour})
	require.NoError(t, r.Save(ctx, "user-42", sampleSnapshot()))
	assert.True(t, mr.Exists("test:session:user-42"))
	assert.Equal(t, time.Hour, mr.TTL("test:session:user-42"))

	mr.FastForward(2 * time.Hour)
	got, err := r.Load(ctx, "user-42")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedis_Delete(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	r := NewRedis(client)
	require.NoError(t, r.Save(ctx, "user-42", sampleSnapshot()))
	assert.True(t, mr.Exists("companion:session:user-42"))
	require.NoError(t, r.Delete(ctx, "user-42"))
	assert.False(t, mr.Exists("companion:session:user-42"))
}

func TestDialRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := DialRedis(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	client.Close()

	mr.Close()
	_, err = DialRedis(context.Background(), mr.Addr(), "", 0)
	assert.Error(t, err)
}

func TestSQLite_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "companion.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "user-42", sampleSnapshot()))
	require.NoError(t, s.Close())

	s, err = NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Load(ctx, "user-42")
	require.NoError(t, err)
	assert.Equal(t, expected(), got)

	require.NoError(t, s.Delete(ctx, "user-42"))
	var n int
	require.NoError(t, s.db.Get(&n, `SELECT COUNT(*) FROM memories`))
	assert.Zero(t, n)
}

func TestSQLite_InMemory(t *testing.T) {
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save(context.Background(), "user-42", sampleSnapshot()))
	got, err := s.Load(context.Background(), "user-42")
	require.NoError(t, err)
	assert.Equal(t, expected(), got)
}

// ════════════════════════════════════════════
// Session integration
// ════════════════════════════════════════════

func TestSession_PersistsThroughSQLite(t *testing.T) {
	ctx := context.Background()
	registry, err := companion.LoadDefaultPersonas()
	require.NoError(t, err)
	db, err := NewSQLite(filepath.Join(t.TempDir(), "companion.db"))
	require.NoError(t, err)
	defer db.Close()

	s, err := companion.OpenSession(ctx, "user-42", registry, companion.WithPersistence(db), companion.WithAutoSave())
	require.NoError(t, err)
	_, err = s.Turn(ctx, "my name is Kai and I love pizza")
	require.NoError(t, err)

	again, err := companion.OpenSession(ctx, "user-42", registry, companion.WithPersistence(db))
	require.NoError(t, err)
	assert.Equal(t, 1, again.State().TotalInteractions)
	require.Len(t, again.Memories(), 1)
	assert.Equal(t, "my name is Kai and I love pizza", again.Memories()[0].Content)
}
