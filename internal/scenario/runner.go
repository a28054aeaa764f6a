package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"

	"pkt.systems/pslog"

	"pkt.systems/objlookup/internal/clock"
	"pkt.systems/objlookup/internal/objns"
	"pkt.systems/objlookup/internal/svcfields"
	"pkt.systems/objlookup/internal/timing"
)

// Env carries the collaborators a scenario runs against.
type Env struct {
	Namespace objns.Namespace
	// Clock defaults to clock.Real.
	Clock clock.Clock
	// Out receives the result lines. Defaults to io.Discard.
	Out    io.Writer
	Logger pslog.Logger
	// BaseDir defaults to objns.BaseNamedObjects.
	BaseDir string
}

type session struct {
	ns      objns.Namespace
	clock   clock.Clock
	out     io.Writer
	logger  pslog.Logger
	baseDir string
	arena   objns.Arena
}

// Run binds raw to scenario id and executes it. Every handle the scenario
// creates is released before Run returns. Namespace failures are returned
// as *objns.CreationError or *objns.LookupError.
func Run(ctx context.Context, env Env, id int, raw []string) error {
	def, ok := Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownScenario, id)
	}
	args, err := def.Bind(raw)
	if err != nil {
		return err
	}
	return def.Execute(ctx, env, args)
}

// Execute runs d with already bound arguments.
func (d Definition) Execute(ctx context.Context, env Env, args Args) (err error) {
	if env.Namespace == nil {
		return errors.New("scenario: namespace is required")
	}
	s := &session{
		ns:      env.Namespace,
		clock:   env.Clock,
		out:     env.Out,
		logger:  svcfields.WithScenario(env.Logger, d.ID),
		baseDir: env.BaseDir,
	}
	if s.clock == nil {
		s.clock = clock.Real{}
	}
	if s.out == nil {
		s.out = io.Discard
	}
	if s.baseDir == "" {
		s.baseDir = objns.BaseNamedObjects
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Info("scenario.start", append([]any{"name", d.Name}, args.Fields()...)...)
	defer func() {
		held := s.arena.Len()
		if closeErr := s.arena.Close(); closeErr != nil {
			s.logger.Warn("scenario.release_failed", "error", closeErr)
			if err == nil {
				err = closeErr
			}
		}
		if err != nil {
			s.logger.Error("scenario.failed", "error", err)
			return
		}
		s.logger.Info("scenario.done", "released", held)
	}()
	return d.run(ctx, s, args)
}

func (s *session) printf(format string, args ...any) error {
	if _, err := fmt.Fprintf(s.out, format, args...); err != nil {
		return fmt.Errorf("scenario: write result: %w", err)
	}
	return nil
}

func (s *session) keep(h *objns.Handle) *objns.Handle {
	return s.arena.Push(h)
}

// openLoop creates the event createName (relative to root when root is
// non-nil), then opens name by absolute path iterations times keeping every
// handle alive. The sample is taken before any opened handle is released.
func (s *session) openLoop(name string, iterations int, createName string, root *objns.Handle) (float64, error) {
	if createName == "" {
		createName = name
	}
	event, err := s.ns.CreateEvent(createName, root)
	if err != nil {
		return 0, err
	}
	defer event.Close()

	var opened objns.Arena
	timer := timing.Start(s.clock)
	for i := 0; i < iterations; i++ {
		h, err := s.ns.OpenEvent(name, nil)
		if err != nil {
			_ = opened.Close()
			return 0, err
		}
		opened.Push(h)
	}
	sample := timer.Sample(iterations)
	if err := opened.Close(); err != nil {
		return 0, err
	}
	if err := event.Close(); err != nil {
		return 0, err
	}
	us := sample.Microseconds()
	s.logger.Debug("scenario.sample", "name", objns.Display(name), "iterations", iterations, "elapsed", sample.Elapsed, "us", us)
	return us, nil
}

// checkPath logs names the object manager cannot represent. The call is
// still attempted so the reported status comes from the backend.
func (s *session) checkPath(name string) {
	if err := objns.CheckLength(name); err != nil {
		s.logger.Warn("scenario.path_too_long", "error", err)
	}
}
