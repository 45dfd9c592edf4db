package store

import (
	"context"
	"sync"

	companion "github.com/cyberFlowTech/companion-sdk-go"
)

// Memory keeps encoded snapshots in process. Saved and loaded snapshots never
// alias each other. Intended for tests and ephemeral hosts.
type Memory struct {
	mu    sync.RWMutex
	snaps map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{snaps: make(map[string][]byte)}
}

func (m *Memory) Load(_ context.Context, sessionID string) (*companion.Snapshot, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	m.mu.RLock()
	data, ok := m.snaps[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return decodeSnapshot(data)
}

func (m *Memory) Save(_ context.Context, sessionID string, snap *companion.Snapshot) error {
	if err := ValidateSessionID(sessionID); err != nil {
		return err
	}
	data, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.snaps[sessionID] = data
	m.mu.Unlock()
	return nil
}

// Delete removes a session snapshot.
func (m *Memory) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.snaps, sessionID)
	m.mu.Unlock()
	return nil
}
