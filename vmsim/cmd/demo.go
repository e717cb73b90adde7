package cmd

import (
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/sarchlab/vmsim/mem/vm"
	"github.com/sarchlab/vmsim/mem/vm/addresstranslator"
	"github.com/spf13/cobra"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the demonstration scenarios and print the statistics.",
	Long: `demo runs basic reads and writes, shows how the TLB behaves, ` +
		`triggers demand paging, spreads pages over the page table, ` +
		`performs random accesses and compares access patterns. The ` +
		`statistics report is printed at the end.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts, err := optionsFromFlags(cmd)
		if err != nil {
			return err
		}

		seed, _ := cmd.Flags().GetInt64("seed")
		if seed == 0 {
			seed = time.Now().UnixNano()
		}

		s := newSimulation(opts, cmd.ErrOrStderr())

		err = runDemo(cmd.OutOrStdout(), s, seed)
		if closeErr := s.close(); err == nil {
			err = closeErr
		}

		return err
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.Flags().Int64("seed", 0,
		"Seed of the random access scenario. 0 uses the current time.")
}

type demoScenario func(w io.Writer, s *simulation) error

func runDemo(w io.Writer, s *simulation, seed int64) error {
	config := s.translator.Config()

	fmt.Fprintln(w, "========================================")
	fmt.Fprintln(w, "   Virtual Memory Manager Simulator")
	fmt.Fprintln(w, "========================================")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Configuration:")
	fmt.Fprintf(w, "  Page size: %d bytes\n", config.PageSize)
	fmt.Fprintf(w, "  Physical memory: %d KB\n", config.PhysicalMemorySize/1024)
	fmt.Fprintf(w, "  Number of frames: %d\n", config.NumFrames)
	fmt.Fprintf(w, "  TLB size: %d entries\n", config.TLBSize)
	fmt.Fprintf(w, "  Page table levels: %d\n", config.PageTableLevels)

	scenarios := []demoScenario{
		demoBasicOperations,
		demoTLBBehavior,
		demoDemandPaging,
		demoPageTableHierarchy,
		func(w io.Writer, s *simulation) error {
			return demoRandomAccess(w, s, seed)
		},
		demoAccessPatterns,
	}

	bar, done := s.progressBar("Demo scenarios", uint64(len(scenarios)))
	defer done()

	for _, scenario := range scenarios {
		if err := scenario(w, s); err != nil {
			return err
		}

		bar.IncrementFinished(1)
	}

	fmt.Fprintln(w)

	return s.do(func(at *addresstranslator.Comp) error {
		return at.WriteReport(w)
	})
}

func demoBasicOperations(w io.Writer, s *simulation) error {
	fmt.Fprintln(w, "\n=== Demo 1: Basic Memory Operations ===")

	return s.do(func(at *addresstranslator.Comp) error {
		fmt.Fprintln(w, "Writing values to virtual addresses...")
		for addr := vm.VirtualAddress(0); addr < 10000; addr += 1000 {
			value := byte(addr % 256)
			if err := at.WriteByteAt(addr, value); err != nil {
				return err
			}

			fmt.Fprintf(w, "  Wrote %d to virtual address %d\n", value, addr)
		}

		fmt.Fprintln(w, "\nReading values back from virtual addresses...")
		for addr := vm.VirtualAddress(0); addr < 10000; addr += 1000 {
			value, err := at.ReadByteAt(addr)
			if err != nil {
				return err
			}

			fmt.Fprintf(w, "  Read %d from virtual address %d\n", value, addr)
		}

		return nil
	})
}

func demoTLBBehavior(w io.Writer, s *simulation) error {
	fmt.Fprintln(w, "\n=== Demo 2: TLB Behavior ===")

	return s.do(func(at *addresstranslator.Comp) error {
		pageSize := at.Config().PageSize
		tlbSize := uint64(at.Config().TLBSize)

		at.ResetStatistics()

		fmt.Fprintln(w, "Accessing pages sequentially...")
		for i := uint64(0); i < tlbSize+10; i++ {
			if err := at.WriteByteAt(i*pageSize, byte(i)); err != nil {
				return err
			}
		}

		fmt.Fprintf(w, "  TLB hit rate after first pass: %.2f%%\n",
			at.TLB().HitRate()*100)

		fmt.Fprintln(w, "Accessing the same pages again...")
		for i := uint64(0); i+5 < tlbSize; i++ {
			if _, err := at.ReadByteAt(i * pageSize); err != nil {
				return err
			}
		}

		fmt.Fprintf(w, "  TLB hit rate after second pass: %.2f%%\n",
			at.TLB().HitRate()*100)

		return nil
	})
}

func demoDemandPaging(w io.Writer, s *simulation) error {
	fmt.Fprintln(w, "\n=== Demo 3: Demand Paging ===")

	return s.do(func(at *addresstranslator.Comp) error {
		pageSize := at.Config().PageSize

		at.ResetStatistics()

		fmt.Fprintln(w, "Accessing new pages...")
		for i := uint64(0); i < 20; i++ {
			err := at.WriteByteAt((100000+i)*pageSize, byte(i*7))
			if err != nil {
				return err
			}
		}

		fmt.Fprintf(w, "  Page faults during allocation: %d\n",
			at.Allocator().PageFaults())

		at.ResetStatistics()

		fmt.Fprintln(w, "Accessing the same pages again...")
		for i := uint64(0); i < 20; i++ {
			value, err := at.ReadByteAt((100000 + i) * pageSize)
			if err != nil {
				return err
			}

			if value != byte(i*7) {
				fmt.Fprintf(w, "  Unexpected value %d at page %d\n",
					value, 100000+i)
			}
		}

		fmt.Fprintf(w, "  Page faults during re-access: %d\n",
			at.Allocator().PageFaults())

		return nil
	})
}

func demoPageTableHierarchy(w io.Writer, s *simulation) error {
	fmt.Fprintln(w, "\n=== Demo 4: Multi-level Page Table ===")

	return s.do(func(at *addresstranslator.Comp) error {
		config := at.Config()

		fmt.Fprintf(w, "  Levels: %d\n", config.PageTableLevels)
		fmt.Fprintf(w, "  Bits per level: %d\n", config.BitsPerLevel)
		fmt.Fprintf(w, "  Entries per level: %d\n", config.EntriesPerLevel())

		fmt.Fprintln(w, "Allocating sparse pages across the address space...")
		for i := uint64(0); i < 10; i++ {
			addr := i * 1000000
			if err := at.WriteByteAt(addr, byte(i)); err != nil {
				return err
			}

			fmt.Fprintf(w, "  Allocated page at virtual address %d\n", addr)
		}

		fmt.Fprintf(w, "  Page table entries: %d in %d nodes\n",
			at.PageTable().NumEntries(), at.PageTable().NumNodes())

		return nil
	})
}

const numRandomAccesses = 1000

func demoRandomAccess(w io.Writer, s *simulation, seed int64) error {
	fmt.Fprintln(w, "\n=== Demo 5: Random Access Pattern ===")

	rng := rand.New(rand.NewSource(seed))
	maxAddr := int64(s.translator.Config().PageSize * 100)

	bar, done := s.progressBar("Random access", numRandomAccesses)
	defer done()

	if err := s.do(func(at *addresstranslator.Comp) error {
		at.ResetStatistics()
		return nil
	}); err != nil {
		return err
	}

	fmt.Fprintf(w, "Performing %d random memory accesses (seed %d)...\n",
		numRandomAccesses, seed)

	for i := 0; i < numRandomAccesses; i++ {
		addr := vm.VirtualAddress(rng.Int63n(maxAddr + 1))
		value := byte(rng.Intn(256))

		bar.IncrementInProgress(1)

		err := s.do(func(at *addresstranslator.Comp) error {
			if i%2 == 0 {
				return at.WriteByteAt(addr, value)
			}

			_, err := at.ReadByteAt(addr)

			return err
		})
		if err != nil {
			return err
		}

		bar.MoveInProgressToFinished(1)
	}

	fmt.Fprintln(w, "Random access completed.")

	return nil
}

func demoAccessPatterns(w io.Writer, s *simulation) error {
	fmt.Fprintln(w, "\n=== Demo 6: Access Pattern Comparison ===")

	const numPages = 50

	return s.do(func(at *addresstranslator.Comp) error {
		pageSize := at.Config().PageSize

		fmt.Fprintln(w, "Sequential access pattern:")
		at.ResetStatistics()

		indices := make([]uint64, numPages)
		for i := range indices {
			indices[i] = uint64(i)
		}

		if err := writeThenRead(at, indices, indices, pageSize); err != nil {
			return err
		}

		fmt.Fprintf(w, "  TLB hit rate: %.2f%%\n", at.TLB().HitRate()*100)

		fmt.Fprintln(w, "Random access pattern:")
		at.TLB().Clear()
		at.ResetStatistics()

		rng := rand.New(rand.NewSource(42))
		writeOrder := shuffled(rng, indices)
		readOrder := shuffled(rng, writeOrder)

		if err := writeThenRead(at, writeOrder, readOrder, pageSize); err != nil {
			return err
		}

		fmt.Fprintf(w, "  TLB hit rate: %.2f%%\n", at.TLB().HitRate()*100)

		return nil
	})
}

func shuffled(rng *rand.Rand, in []uint64) []uint64 {
	out := append([]uint64(nil), in...)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })

	return out
}

func writeThenRead(
	at *addresstranslator.Comp,
	writeOrder, readOrder []uint64,
	pageSize uint64,
) error {
	for _, page := range writeOrder {
		if err := at.WriteByteAt(page*pageSize, byte(page)); err != nil {
			return err
		}
	}

	for _, page := range readOrder {
		if _, err := at.ReadByteAt(page * pageSize); err != nil {
			return err
		}
	}

	return nil
}
