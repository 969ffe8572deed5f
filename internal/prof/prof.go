// Package prof wraps runtime/pprof and runtime/trace for the CLI's
// profiling flags.
package prof

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"

	"go.uber.org/multierr"
)

// Options names the output files; empty paths disable that profile.
type Options struct {
	CPU   string
	Mem   string
	Trace string
}

// Session is a set of running profilers. Stop is safe to call more than once.
type Session struct {
	opts      Options
	cpuFile   *os.File
	traceFile *os.File
	stopped   bool
}

// Start enables the profilers named by opts. On error nothing is left running.
func Start(opts Options) (*Session, error) {
	s := &Session{opts: opts}
	if opts.CPU != "" {
		f, err := os.Create(opts.CPU)
		if err != nil {
			return nil, fmt.Errorf("failed to start cpu profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to start cpu profile: %w", err)
		}
		s.cpuFile = f
	}
	if opts.Trace != "" {
		f, err := os.Create(opts.Trace)
		if err != nil {
			s.stopCPU()
			return nil, fmt.Errorf("failed to start trace: %w", err)
		}
		if err := trace.Start(f); err != nil {
			_ = f.Close()
			s.stopCPU()
			return nil, fmt.Errorf("failed to start trace: %w", err)
		}
		s.traceFile = f
	}
	return s, nil
}

// Stop ends the trace and CPU profile and writes the heap profile.
func (s *Session) Stop() error {
	if s == nil || s.stopped {
		return nil
	}
	s.stopped = true

	var err error
	if s.traceFile != nil {
		trace.Stop()
		err = multierr.Append(err, s.traceFile.Close())
		s.traceFile = nil
	}
	err = multierr.Append(err, s.stopCPU())
	if s.opts.Mem != "" {
		err = multierr.Append(err, writeMem(s.opts.Mem))
	}
	return err
}

func (s *Session) stopCPU() error {
	if s.cpuFile == nil {
		return nil
	}
	pprof.StopCPUProfile()
	err := s.cpuFile.Close()
	s.cpuFile = nil
	return err
}

// writeMem captures a heap profile to path.
func writeMem(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to write heap profile: %w", err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("failed to write heap profile: %w", err)
	}
	return nil
}
