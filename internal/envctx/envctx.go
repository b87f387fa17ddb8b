// Package envctx carries the locked execution environment every Git Driver
// invocation runs under. The source this system was distilled from relied
// on process-global Git environment configuration; here it is an explicit,
// immutable value passed to every driver call instead, so no call mutates
// the process-global environment.
package envctx

import "fmt"

// Locked is the fixed environment under which every git subprocess runs.
type Locked struct {
	LCAll         string
	ColorOff      bool
	AutoCRLFFalse bool
}

// Default returns the environment lock required by the pipeline: LC_ALL=C,
// color disabled, CRLF conversion disabled, line-ending preservation on.
func Default() Locked {
	return Locked{LCAll: "C", ColorOff: true, AutoCRLFFalse: true}
}

// Environ returns the environment variable slice to apply to a git
// subprocess, appended to a base environment (typically a minimal PATH/HOME
// set, never the full ambient os.Environ()).
func (l Locked) Environ(base []string) []string {
	out := make([]string, len(base), len(base)+1)
	copy(out, base)
	out = append(out, fmt.Sprintf("LC_ALL=%s", l.LCAll))
	return out
}

// GlobalArgs returns the -c overrides applied to every git invocation to
// enforce color-off, CRLF handling, and the diff algorithm without touching
// git config files. diff.algorithm is locked to myers unconditionally since
// the emitted hunks must match the "myers" value the pipeline records in
// provenance.diff_algorithm regardless of the host's own git config.
func (l Locked) GlobalArgs() []string {
	args := make([]string, 0, 6)
	if l.ColorOff {
		args = append(args, "-c", "color.ui=false")
	}
	if l.AutoCRLFFalse {
		args = append(args, "-c", "core.autocrlf=false")
	}
	args = append(args, "-c", "diff.algorithm=myers")
	return args
}
