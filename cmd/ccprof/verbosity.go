package main

import (
	"strconv"

	"github.com/viant/ccprof/internal/rlog"
)

// verbosityFlag implements pflag.Value for `-v[N]` (spec.md §6): bare `-v`
// selects LevelDebug, `-v2` (or `--verbose=2`) selects an explicit
// numeric level, mirroring HPCRUN_DEBUG's verbosity knob.
type verbosityFlag struct {
	level rlog.Level
	set   bool
}

func (f *verbosityFlag) String() string {
	if !f.set {
		return ""
	}
	return strconv.Itoa(int(f.level))
}

func (f *verbosityFlag) Set(s string) error {
	if s == "" {
		f.level = rlog.LevelDebug
		f.set = true
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	f.level = levelFromN(n)
	f.set = true
	return nil
}

func (f *verbosityFlag) Type() string { return "verbosity" }

// levelFromN maps HPCRUN_DEBUG-style numeric verbosity to rlog's four
// levels: 0 stays at the CLI's default (warnings only), higher numbers
// progressively unlock info then debug output.
func levelFromN(n int) rlog.Level {
	switch {
	case n <= 0:
		return rlog.LevelWarn
	case n == 1:
		return rlog.LevelInfo
	default:
		return rlog.LevelDebug
	}
}
