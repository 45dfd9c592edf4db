package companion

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// ──────────────────────────────────────────────
// Memory Store: bounded categorized memory
// ──────────────────────────────────────────────

const (
	DefaultCategoryCap = 20
	DefaultGlobalCap   = 100
)

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryCaps overrides the per-category and global caps. Non-positive
// values keep the defaults.
func WithMemoryCaps(categoryCap, globalCap int) MemoryOption {
	return func(m *MemoryStore) {
		if categoryCap > 0 {
			m.categoryCap = categoryCap
		}
		if globalCap > 0 {
			m.globalCap = globalCap
		}
	}
}

// WithMemoryLogger sets the logger.
func WithMemoryLogger(l *log.Logger) MemoryOption {
	return func(m *MemoryStore) { m.logger = l }
}

// WithAuditLogger sets the audit sink.
func WithAuditLogger(a MemoryAuditLogger) MemoryOption {
	return func(m *MemoryStore) { m.audit = a }
}

// WithMemoryClock overrides time.Now.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) { m.now = now }
}

// WithNamespace tags audit entries with a namespace, typically the session id.
func WithNamespace(ns string) MemoryOption {
	return func(m *MemoryStore) { m.namespace = ns }
}

// MemoryStore exclusively owns a user's memory records. It is not safe for
// concurrent use; Session serializes access. Callers only ever receive copies.
type MemoryStore struct {
	records     []*MemoryRecord // creation order
	categoryCap int
	globalCap   int
	namespace   string

	logger *log.Logger
	audit  MemoryAuditLogger
	now    func() time.Time
}

// NewMemoryStore creates an empty store with the default caps.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		categoryCap: DefaultCategoryCap,
		globalCap:   DefaultGlobalCap,
		logger:      log.New(io.Discard),
		audit:       NoopAuditLogger{},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Store records content. Hints override the rule-based category and
// importance; the per-category cap is enforced immediately, which may evict
// the new record itself if it ranks lowest.
func (m *MemoryStore) Store(content string, hints StoreHints) MemoryRecord {
	category := hints.Category
	if !category.Valid() {
		category = ClassifyMemory(content)
	}

	var importance int
	if hints.Importance != nil {
		importance = clampImportance(*hints.Importance)
	} else {
		importance = ScoreImportance(content, hints.Intimate || category == MemoryIntimate)
	}

	rec := &MemoryRecord{
		ID:         uuid.NewString(),
		Content:    content,
		Category:   category,
		Emotion:    hints.Emotion,
		Importance: importance,
		CreatedAt:  m.now(),
	}
	m.records = append(m.records, rec)
	m.logAudit(AuditActionAdd, rec, fmt.Sprintf("importance=%d", importance))
	m.logger.Debug("Memory stored", "id", rec.ID, "category", category, "importance", importance)

	m.enforceCategoryCap(category)
	return *rec
}

// enforceCategoryCap evicts the lowest-importance records of category until
// it is back at cap. Ties go to the least accessed, then the oldest.
func (m *MemoryStore) enforceCategoryCap(category MemoryCategory) {
	for {
		inCat := lo.Filter(m.records, func(r *MemoryRecord, _ int) bool { return r.Category == category })
		if len(inCat) <= m.categoryCap {
			return
		}
		victim := inCat[0]
		for _, r := range inCat[1:] {
			if evictsBefore(r, victim) {
				victim = r
			}
		}
		m.remove(victim.ID)
		m.logAudit(AuditActionEvict, victim, "category cap")
		m.logger.Debug("Memory evicted", "id", victim.ID, "category", category, "importance", victim.Importance)
	}
}

func evictsBefore(a, b *MemoryRecord) bool {
	if a.Importance != b.Importance {
		return a.Importance < b.Importance
	}
	if a.AccessCount != b.AccessCount {
		return a.AccessCount < b.AccessCount
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func (m *MemoryStore) remove(id string) {
	m.records = slices.DeleteFunc(m.records, func(r *MemoryRecord) bool { return r.ID == id })
}

// Records returns copies of all records in creation order.
func (m *MemoryStore) Records() []MemoryRecord {
	return lo.Map(m.records, func(r *MemoryRecord, _ int) MemoryRecord { return *r })
}

// Len returns the number of stored records.
func (m *MemoryStore) Len() int { return len(m.records) }

// CountByCategory returns the number of records per category.
func (m *MemoryStore) CountByCategory() map[MemoryCategory]int {
	return lo.CountValuesBy(m.records, func(r *MemoryRecord) MemoryCategory { return r.Category })
}

// Restore replaces the store contents with records from a snapshot. Records
// are ordered by creation time and the caps are enforced. On error the store
// is unchanged.
func (m *MemoryStore) Restore(records []MemoryRecord) error {
	restored, err := prepareRestore(records)
	if err != nil {
		return err
	}
	m.commitRestore(restored)
	return nil
}

// prepareRestore validates and copies snapshot records without touching any
// store.
func prepareRestore(records []MemoryRecord) ([]*MemoryRecord, error) {
	seen := make(map[string]struct{}, len(records))
	restored := make([]*MemoryRecord, 0, len(records))
	for i := range records {
		r := records[i]
		if strings.TrimSpace(r.ID) == "" {
			return nil, preconditionf("MemoryStore.Restore", nil, "record %d has no id", i)
		}
		if _, dup := seen[r.ID]; dup {
			return nil, preconditionf("MemoryStore.Restore", nil, "duplicate record id %q", r.ID)
		}
		if !r.Category.Valid() {
			return nil, preconditionf("MemoryStore.Restore", nil, "record %q has unknown category %q", r.ID, r.Category)
		}
		seen[r.ID] = struct{}{}
		r.Importance = clampImportance(r.Importance)
		if r.AccessCount < 0 {
			r.AccessCount = 0
		}
		restored = append(restored, &r)
	}
	slices.SortStableFunc(restored, func(a, b *MemoryRecord) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return restored, nil
}

func (m *MemoryStore) commitRestore(restored []*MemoryRecord) {
	m.records = restored
	for _, c := range MemoryCategories {
		m.enforceCategoryCap(c)
	}
	m.Consolidate()
	m.logAudit(AuditActionRestore, nil, fmt.Sprintf("records=%d", len(m.records)))
}

// Forget removes every record.
func (m *MemoryStore) Forget() int {
	n := len(m.records)
	m.records = nil
	m.logAudit(AuditActionForget, nil, fmt.Sprintf("records=%d", n))
	m.logger.Info("Memories forgotten", "count", n)
	return n
}

func (m *MemoryStore) logAudit(action MemoryAuditAction, rec *MemoryRecord, details string) {
	entry := MemoryAuditEntry{
		Timestamp: m.now(),
		Action:    action,
		Namespace: m.namespace,
		Details:   details,
	}
	if rec != nil {
		entry.MemoryID = rec.ID
		entry.Category = rec.Category
	}
	m.audit.Log(entry)
}
