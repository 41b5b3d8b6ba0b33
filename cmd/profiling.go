package cmd

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"

	"github.com/spiffcs/scout/internal/log"
)

// profiler writes the CPU, heap, and execution-trace profiles requested on
// the command line. Empty paths disable the corresponding profile.
type profiler struct {
	cpuPath   string
	heapPath  string
	tracePath string

	cpuFile   *os.File
	traceFile *os.File
}

func newProfiler(opts *Options) *profiler {
	return &profiler{
		cpuPath:   opts.CPUProfile,
		heapPath:  opts.MemProfile,
		tracePath: opts.Trace,
	}
}

// startProfiling starts the requested profiles and returns the function
// that flushes them.
func startProfiling(opts *Options) (func(), error) {
	p := newProfiler(opts)
	if err := p.start(); err != nil {
		return nil, err
	}
	return p.stop, nil
}

func (p *profiler) start() error {
	if p.cpuPath != "" {
		f, err := os.Create(p.cpuPath)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			closeQuietly(f, "CPU profile")
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		p.cpuFile = f
	}

	if p.tracePath != "" {
		f, err := os.Create(p.tracePath)
		if err != nil {
			p.stopCPU()
			return fmt.Errorf("could not create trace: %w", err)
		}
		if err := trace.Start(f); err != nil {
			closeQuietly(f, "trace")
			p.stopCPU()
			return fmt.Errorf("could not start trace: %w", err)
		}
		p.traceFile = f
	}
	return nil
}

func (p *profiler) stop() {
	if p.traceFile != nil {
		trace.Stop()
		closeQuietly(p.traceFile, "trace")
		p.traceFile = nil
	}
	p.stopCPU()
	if p.heapPath != "" {
		p.writeHeap()
	}
}

func (p *profiler) stopCPU() {
	if p.cpuFile == nil {
		return
	}
	pprof.StopCPUProfile()
	closeQuietly(p.cpuFile, "CPU profile")
	p.cpuFile = nil
}

func (p *profiler) writeHeap() {
	f, err := os.Create(p.heapPath)
	if err != nil {
		log.Warn("could not create memory profile", "path", p.heapPath, "error", err)
		return
	}
	defer closeQuietly(f, "memory profile")

	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		log.Warn("could not write memory profile", "path", p.heapPath, "error", err)
	}
}

func closeQuietly(f *os.File, what string) {
	if err := f.Close(); err != nil {
		log.Warn("could not close "+what+" file", "path", f.Name(), "error", err)
	}
}
