package companion

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// ──────────────────────────────────────────────
// Consolidation: global cap enforcement
// ──────────────────────────────────────────────

// DefaultConsolidationInterval is how often RunConsolidation runs by default.
const DefaultConsolidationInterval = 5 * time.Minute

// consolidationAccessWeight scales access count in the retention rank.
const consolidationAccessWeight = 5

// retentionRank is the value a record is kept by during consolidation.
func retentionRank(r *MemoryRecord) int {
	return r.Importance + consolidationAccessWeight*r.AccessCount
}

// Consolidate enforces the global cap. When the store holds more records
// than the cap, it keeps the top records by importance + 5×accessCount
// (newer first on ties) and discards the rest. Returns the number evicted.
func (m *MemoryStore) Consolidate() int {
	over := len(m.records) - m.globalCap
	if over <= 0 {
		return 0
	}

	ranked := append([]*MemoryRecord{}, m.records...)
	sort.SliceStable(ranked, func(i, j int) bool {
		ri, rj := retentionRank(ranked[i]), retentionRank(ranked[j])
		if ri != rj {
			return ri > rj
		}
		return ranked[i].CreatedAt.After(ranked[j].CreatedAt)
	})

	keep := make(map[string]struct{}, m.globalCap)
	for _, r := range ranked[:m.globalCap] {
		keep[r.ID] = struct{}{}
	}
	kept := m.records[:0:0]
	for _, r := range m.records {
		if _, ok := keep[r.ID]; ok {
			kept = append(kept, r)
			continue
		}
		m.logAudit(AuditActionEvict, r, "global cap")
	}
	m.records = kept

	m.logAudit(AuditActionConsolidate, nil, fmt.Sprintf("evicted=%d kept=%d", over, len(kept)))
	m.logger.Info("Memory consolidated", "evicted", over, "kept", len(kept))
	return over
}

// RunConsolidation calls Consolidate every interval until ctx is done. lock
// guards the store; pass the same lock that serializes turns, or nil when
// the caller owns the store exclusively.
func (m *MemoryStore) RunConsolidation(ctx context.Context, interval time.Duration, lock sync.Locker) {
	if interval <= 0 {
		interval = DefaultConsolidationInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if lock != nil {
				lock.Lock()
			}
			m.Consolidate()
			if lock != nil {
				lock.Unlock()
			}
		}
	}
}

// ──────────────────────────────────────────────
// Memory Audit Log
// ──────────────────────────────────────────────

// MemoryAuditAction represents the type of auditable memory operation.
type MemoryAuditAction string

const (
	AuditActionAdd         MemoryAuditAction = "add"
	AuditActionAccess      MemoryAuditAction = "access"
	AuditActionEvict       MemoryAuditAction = "evict"
	AuditActionConsolidate MemoryAuditAction = "consolidate"
	AuditActionRestore     MemoryAuditAction = "restore"
	AuditActionForget      MemoryAuditAction = "forget"
)

// MemoryAuditEntry represents a single auditable memory event.
type MemoryAuditEntry struct {
	Timestamp time.Time         `json:"timestamp"`
	Action    MemoryAuditAction `json:"action"`
	Namespace string            `json:"namespace"`
	MemoryID  string            `json:"memory_id,omitempty"`
	Category  MemoryCategory    `json:"category,omitempty"`
	Details   string            `json:"details,omitempty"`
}

// MemoryAuditLogger receives audit events for external processing.
type MemoryAuditLogger interface {
	Log(entry MemoryAuditEntry)
}

// NoopAuditLogger discards all audit events. Used as default.
type NoopAuditLogger struct{}

func (NoopAuditLogger) Log(MemoryAuditEntry) {}

// LogAuditLogger writes audit events to a structured logger at debug level.
type LogAuditLogger struct {
	Logger *log.Logger
}

func (l LogAuditLogger) Log(e MemoryAuditEntry) {
	l.Logger.Debug("Memory audit",
		"action", e.Action,
		"namespace", e.Namespace,
		"id", e.MemoryID,
		"category", e.Category,
		"details", e.Details,
	)
}
