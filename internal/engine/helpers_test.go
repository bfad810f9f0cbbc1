package engine

import (
	"io"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// newTestEngine builds an Engine against a fake clock and a discarding
// logger, with no audit adapter wired (exercising the e.audit == nil path
// that fireAudit guards against).
func newTestEngine(heartbeatTimeout, sweepInterval time.Duration) (*Engine, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClock()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(clock, heartbeatTimeout, sweepInterval, nil, logger), clock
}
