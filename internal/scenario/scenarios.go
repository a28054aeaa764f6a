package scenario

import (
	"context"

	"pkt.systems/objlookup/internal/objns"
	"pkt.systems/objlookup/internal/timing"
)

const simpleOpenEvent = "{2F2C4C1D-FD52-47CA-BF97-CA72B6CA55F8}"

func simpleOpen(_ context.Context, s *session, args Args) error {
	n := args.Int(paramIterations)
	us, err := s.openLoop(objns.Join(s.baseDir, simpleOpenEvent), n, "", nil)
	if err != nil {
		return err
	}
	return s.printf("%.2fus for %d iterations.\n", us, n)
}

func nameLength(ctx context.Context, s *session, args Args) error {
	n := args.Int(paramIterations)
	maxLength := args.Int(paramMaxLength)
	step := args.Int(paramStep)
	for length := 0; length <= maxLength; length += step {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := objns.Join(s.baseDir, "A"+objns.RepeatName("A", length))
		s.checkPath(name)
		us, err := s.openLoop(name, n, "", nil)
		if err != nil {
			return err
		}
		if err := s.printf("%d,%f\n", length, us); err != nil {
			return err
		}
	}
	return nil
}

// directoryChain creates depth nested directories named A beneath the base
// directory and calls sample after each insertion i where i%every == 0.
func (s *session) directoryChain(ctx context.Context, depth, every int, sample func(i int, deepest *objns.Handle) error) (*objns.Handle, error) {
	last, err := s.ns.OpenDirectory(s.baseDir, nil)
	if err != nil {
		return nil, err
	}
	s.keep(last)
	for i := 0; i < depth; i++ {
		dir, err := s.ns.CreateDirectory("A", last, nil)
		if err != nil {
			return nil, err
		}
		last = s.keep(dir)
		if sample == nil || i%every != 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := sample(i, last); err != nil {
			return nil, err
		}
	}
	return last, nil
}

func nestedDirectories(ctx context.Context, s *session, args Args) error {
	n := args.Int(paramIterations)
	_, err := s.directoryChain(ctx, args.Int(paramDirCount), args.Int(paramInterval), func(i int, deepest *objns.Handle) error {
		name, err := deepest.Name()
		if err != nil {
			return err
		}
		us, err := s.openLoop(objns.Join(name, "X"), n, "", nil)
		if err != nil {
			return err
		}
		return s.printf("%d,%f\n", i+1, us)
	})
	return err
}

// linkChain creates links 0..count-1 in dir, link i targeting
// <dirName>\<i+1>. It returns the first link.
func (s *session) linkChain(dir *objns.Handle, dirName string, count int) (*objns.Handle, error) {
	var first *objns.Handle
	for i := 0; i < count; i++ {
		link, err := s.ns.CreateSymlink(objns.Itoa(i), dir, objns.Join(dirName, objns.Itoa(i+1)))
		if err != nil {
			return nil, err
		}
		s.keep(link)
		if first == nil {
			first = link
		}
	}
	return first, nil
}

func symlinkChain(ctx context.Context, s *session, args Args) error {
	links := args.Int(paramSymlinkCount)
	deepest, err := s.directoryChain(ctx, args.Int(paramDirCount), 1, nil)
	if err != nil {
		return err
	}
	deepestName, err := deepest.Name()
	if err != nil {
		return err
	}
	first, err := s.linkChain(deepest, deepestName, links)
	if err != nil {
		return err
	}
	firstName, err := first.Name()
	if err != nil {
		return err
	}
	us, err := s.openLoop(firstName, args.Int(paramIterations), objns.Itoa(links), deepest)
	if err != nil {
		return err
	}
	return s.printf("%f\n", us)
}

func nameCollisions(ctx context.Context, s *session, args Args) error {
	n := args.Int(paramIterations)
	count := args.Int(paramCollisionCount)
	every := args.Int(paramInterval)
	dir, err := s.ns.CreateDirectory(objns.Join(s.baseDir, "A"), nil, nil)
	if err != nil {
		return err
	}
	s.keep(dir)
	// The first name inserted sits behind every later one in its chain.
	probe := objns.CollisionName(count)
	for i := 0; i < count; i++ {
		child, err := s.ns.CreateDirectory(objns.CollisionName(count-i), dir, nil)
		if err != nil {
			return err
		}
		s.keep(child)
		if i%every != 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		timer := timing.Start(s.clock)
		for j := 0; j < n; j++ {
			h, err := s.ns.OpenDirectory(probe, dir)
			if err != nil {
				return err
			}
			if err := h.Close(); err != nil {
				return err
			}
		}
		sample := timer.Sample(n)
		s.logger.Debug("scenario.sample", "inserted", i, "iterations", n, "elapsed", sample.Elapsed)
		if err := s.printf("%d,%f\n", i, sample.Microseconds()); err != nil {
			return err
		}
	}
	return nil
}

func collisionInsert(_ context.Context, s *session, args Args) error {
	names := objns.CollisionNames(args.Int(paramCollisionCount))
	dir, err := s.ns.CreateDirectory(objns.Join(s.baseDir, "A"), nil, nil)
	if err != nil {
		return err
	}
	s.keep(dir)
	timer := timing.Start(s.clock)
	for _, name := range names {
		child, err := s.ns.CreateDirectory(name, dir, nil)
		if err != nil {
			return err
		}
		s.keep(child)
	}
	return s.printf("%f\n", timer.PerIteration(1))
}

// shadowPair creates <base>\A and a child A that uses <base>\A as its
// shadow, so every further \A component resolves back through the shadow.
func (s *session) shadowPair() (*objns.Handle, string, error) {
	name := objns.Join(s.baseDir, "A")
	shadow, err := s.ns.CreateDirectory(name, nil, nil)
	if err != nil {
		return nil, "", err
	}
	s.keep(shadow)
	target, err := s.ns.CreateDirectory("A", shadow, shadow)
	if err != nil {
		return nil, "", err
	}
	s.keep(target)
	return shadow, name, nil
}

func shadowDirectories(ctx context.Context, s *session, args Args) error {
	n := args.Int(paramIterations)
	depth := args.Int(paramDirCount)
	every := args.Int(paramInterval)
	shadow, shadowName, err := s.shadowPair()
	if err != nil {
		return err
	}
	for i := 0; i < depth; i += every {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := objns.Join(objns.NestedPath(shadowName, "A", i), "X")
		s.checkPath(name)
		us, err := s.openLoop(name, n, "X", shadow)
		if err != nil {
			return err
		}
		if err := s.printf("%d,%f\n", i, us); err != nil {
			return err
		}
	}
	return nil
}

func fullTest(ctx context.Context, s *session, args Args) error {
	count := args.Int(paramCollisionCount)
	links := args.Int(paramSymlinkCount)
	shadow, shadowName, err := s.shadowPair()
	if err != nil {
		return err
	}
	// Collisions land in the shadow so each \A fall-through walks the
	// crowded chain. CollisionName(1) is skipped.
	for i := 0; i < count-1; i++ {
		child, err := s.ns.CreateDirectory(objns.CollisionName(count-i), shadow, nil)
		if err != nil {
			return err
		}
		s.keep(child)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	deepestName := objns.NestedPath(shadowName, "A", args.Int(paramDirCount))
	s.checkPath(deepestName)
	if err := s.printf("Created directories\n"); err != nil {
		return err
	}
	if _, err := s.linkChain(shadow, deepestName, links); err != nil {
		return err
	}
	us, err := s.openLoop(objns.Join(deepestName, "0"), args.Int(paramIterations), objns.Itoa(links), shadow)
	if err != nil {
		return err
	}
	return s.printf("%f\n", us)
}
