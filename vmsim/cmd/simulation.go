package cmd

import (
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/pkg/browser"
	"github.com/sarchlab/vmsim/datarecording"
	"github.com/sarchlab/vmsim/mem/vm"
	"github.com/sarchlab/vmsim/mem/vm/addresstranslator"
	"github.com/sarchlab/vmsim/monitoring"
	"github.com/sarchlab/vmsim/tracing"
	"github.com/spf13/cobra"
)

type options struct {
	config      vm.Config
	eviction    addresstranslator.EvictionPolicy
	victim      addresstranslator.VictimPolicy
	checkFrames bool
	recordPath  string
	monitorPort int
	openBrowser bool
	verbose     bool
}

func optionsFromFlags(cmd *cobra.Command) (options, error) {
	f := cmd.Flags()
	opts := options{}

	preset, _ := f.GetString("preset")
	config, err := vm.PresetConfig(preset)
	if err != nil {
		return opts, err
	}

	tlbSize, _ := f.GetInt("tlb-size")
	if tlbSize < 0 {
		return opts, fmt.Errorf("invalid TLB size %d", tlbSize)
	}

	if tlbSize > 0 {
		config = config.WithTLBSize(tlbSize)
	}

	opts.config = config

	eviction, _ := f.GetString("eviction")
	if opts.eviction, err = parseEvictionPolicy(eviction); err != nil {
		return opts, err
	}

	victim, _ := f.GetString("victim")
	if opts.victim, err = parseVictimPolicy(victim); err != nil {
		return opts, err
	}

	opts.checkFrames, _ = f.GetBool("check-frames")
	opts.recordPath, _ = f.GetString("record")
	opts.monitorPort, _ = f.GetInt("monitor")
	opts.openBrowser, _ = f.GetBool("open-browser")
	opts.verbose, _ = f.GetBool("verbose")

	return opts, nil
}

func parseEvictionPolicy(s string) (addresstranslator.EvictionPolicy, error) {
	switch s {
	case "none":
		return addresstranslator.EvictionNone, nil
	case "invalidate":
		return addresstranslator.EvictionInvalidate, nil
	default:
		return 0, fmt.Errorf("unknown eviction policy %q", s)
	}
}

func parseVictimPolicy(s string) (addresstranslator.VictimPolicy, error) {
	switch s {
	case "first-unpinned":
		return addresstranslator.VictimFirstUnpinned, nil
	case "clock":
		return addresstranslator.VictimClock, nil
	default:
		return 0, fmt.Errorf("unknown victim policy %q", s)
	}
}

// A simulation owns an address translator and everything that observes it.
// The embedded mutex is held around every operation on the translator, so
// that the monitor never reads it in the middle of a translation.
type simulation struct {
	sync.Mutex

	translator *addresstranslator.Comp
	counter    *tracing.CountTracer
	recorder   *datarecording.SQLiteRecorder
	dbTracer   *tracing.DBTracer
	monitor    *monitoring.Monitor
}

func newSimulation(opts options, logOut io.Writer) *simulation {
	s := &simulation{
		translator: addresstranslator.MakeBuilder().
			WithConfig(opts.config).
			WithEvictionPolicy(opts.eviction).
			WithVictimPolicy(opts.victim).
			WithAllocatedFrameCheck(opts.checkFrames).
			Build("VMM"),
		counter: tracing.NewCountTracer(),
	}

	s.translator.AcceptHook(s.counter)

	if opts.verbose {
		logger := log.New(logOut, "", log.Lmicroseconds)
		s.translator.AcceptHook(tracing.NewLogTracer(logger))
	}

	if opts.recordPath != "" {
		s.recorder = datarecording.New(opts.recordPath)
		s.dbTracer = tracing.NewDBTracer(s.recorder)
		s.translator.AcceptHook(s.dbTracer)
	}

	if opts.monitorPort >= 0 {
		s.monitor = monitoring.NewMonitor(s.translator, s).
			WithPortNumber(opts.monitorPort)
		url := s.monitor.StartServer()

		if opts.openBrowser {
			if err := browser.OpenURL(url); err != nil {
				fmt.Fprintf(logOut, "Failed to open browser: %v\n", err)
			}
		}
	}

	return s
}

// do runs f with the lock held.
func (s *simulation) do(f func(at *addresstranslator.Comp) error) error {
	s.Lock()
	defer s.Unlock()

	return f(s.translator)
}

// progressBar returns a bar shown by the monitor, or a bar that nobody
// watches if there is no monitor.
func (s *simulation) progressBar(
	name string,
	total uint64,
) (bar *monitoring.ProgressBar, done func()) {
	if s.monitor == nil {
		return &monitoring.ProgressBar{Name: name, Total: total}, func() {}
	}

	bar = s.monitor.CreateProgressBar(name, total)

	return bar, func() { s.monitor.CompleteProgressBar(bar) }
}

// close writes the recorded data.
func (s *simulation) close() error {
	if s.recorder == nil {
		return nil
	}

	return s.recorder.Close()
}
