// Package fsm orchestrates each room's traversal of the phase graph
// (§4.6): it invokes the pairing, prompt-source, and scoring components,
// arms and resumes timers, and emits phase-entry events through the
// transport adapter. It is also the handler layer named in §4.9 — every
// inbound wire event is validated and dispatched from here.
package fsm

import (
	"context"
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"time"

	"github.com/zachegner/QuipWits/internal/config"
	"github.com/zachegner/QuipWits/internal/ids"
	"github.com/zachegner/QuipWits/internal/prompts"
	"github.com/zachegner/QuipWits/internal/room"
	"github.com/zachegner/QuipWits/internal/timer"
	"github.com/zachegner/QuipWits/internal/transport"
)

// Service is the session FSM plus handler layer for every room in the
// registry. One Service instance is shared by the whole process; the
// per-room serialization guarantee comes from each *room.Room's own
// embedded mutex (§5), not from anything in Service itself.
type Service struct {
	Registry *room.Registry
	Prompts  prompts.Source
	Timers   *timer.Manager
	Emit     transport.Emitter
	Cfg      *config.Config
}

func New(reg *room.Registry, src prompts.Source, emit transport.Emitter, cfg *config.Config) *Service {
	s := &Service{Registry: reg, Prompts: src, Emit: emit, Cfg: cfg}
	s.Timers = timer.NewManager(s.onTick)
	return s
}

func (s *Service) onTick(roomCode string, remaining time.Duration) {
	s.Emit.ToRoom(roomCode, "TIMER_UPDATE", map[string]any{
		"remaining": int(remaining.Seconds()),
	})
}

// newRand returns a fresh, unshared *rand.Rand seeded from crypto/rand, so
// concurrent rooms never contend on (or race on) a shared generator.
func newRand() *rand.Rand {
	var seed [8]byte
	_, _ = cryptorand.Read(seed[:])
	return rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(seed[:]))))
}

func ctx() context.Context {
	return context.Background()
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

func newOpaqueID() string {
	return ids.New()
}

func durationSeconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
