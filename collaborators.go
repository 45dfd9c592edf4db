package companion

import (
	"context"

	"github.com/pkg/errors"
)

// ──────────────────────────────────────────────
// External collaborators
// ──────────────────────────────────────────────

// ErrCompletionUnavailable is returned by a Completer that cannot answer.
// Session falls back to the templated reply.
var ErrCompletionUnavailable = errors.New("completion unavailable")

// Persistence loads and saves session snapshots. Load returns (nil, nil)
// when no snapshot exists for the session.
type Persistence interface {
	Load(ctx context.Context, sessionID string) (*Snapshot, error)
	Save(ctx context.Context, sessionID string, snap *Snapshot) error
}

// Completer produces free-form reply text from a prompt context.
type Completer interface {
	Complete(ctx context.Context, pc PromptContext) (string, error)
}

// Synthesizer turns reply text into audio with the given voice tuning.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice VoiceParams) ([]byte, error)
}

// MilestoneSink is notified synchronously when a milestone is crossed.
type MilestoneSink interface {
	OnMilestoneReached(milestone, totalInteractions int)
}

// MilestoneSinkFunc adapts a function to MilestoneSink.
type MilestoneSinkFunc func(milestone, totalInteractions int)

func (f MilestoneSinkFunc) OnMilestoneReached(milestone, totalInteractions int) {
	f(milestone, totalInteractions)
}
