// Package svcfields centralises the structured log keys shared by the
// harness subsystems.
package svcfields

import (
	"strconv"
	"strings"

	"pkt.systems/pslog"
)

const (
	// SubsystemKey is the canonical key for subsystem tags.
	SubsystemKey = pslog.TrustedString("sys")
	// RunKey tags every entry of one harness invocation.
	RunKey = pslog.TrustedString("run")
	// ScenarioKey carries the numeric scenario id.
	ScenarioKey = pslog.TrustedString("scenario")
)

// Subsystem builds a dot-delimited subsystem path from the supplied parts while
// skipping empty fragments.
func Subsystem(parts ...string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.Trim(part, ". ")
		if part == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, ".")
}

// WithSubsystem attaches a subsystem tag to every log entry.
func WithSubsystem(logger pslog.Logger, subsystem string) pslog.Logger {
	if logger == nil {
		logger = pslog.NoopLogger()
	}
	subsystem = strings.Trim(subsystem, ". ")
	if subsystem == "" {
		return logger
	}
	return logger.With(SubsystemKey, subsystem)
}

// WithScenario tags logger with the scenario id and a scenario.<id>
// subsystem.
func WithScenario(logger pslog.Logger, id int) pslog.Logger {
	return WithSubsystem(logger, Subsystem("scenario", strconv.Itoa(id))).With(ScenarioKey, id)
}
