package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/sarchlab/vmsim/mem/vm"
	"github.com/sarchlab/vmsim/mem/vm/addresstranslator"
	"github.com/spf13/cobra"
)

var translateCmd = &cobra.Command{
	Use:   "translate ADDR...",
	Short: "Translate virtual addresses in order and print the results.",
	Long: `translate translates each virtual address in the given order, ` +
		`allocating frames on first touch. Addresses are decimal, or ` +
		`hexadecimal with a 0x prefix.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addrs, err := parseAddresses(args)
		if err != nil {
			return err
		}

		opts, err := optionsFromFlags(cmd)
		if err != nil {
			return err
		}

		isWrite, _ := cmd.Flags().GetBool("write")
		withReport, _ := cmd.Flags().GetBool("report")

		s := newSimulation(opts, cmd.ErrOrStderr())

		err = translateAll(cmd.OutOrStdout(), s, addrs, isWrite)
		if err == nil && withReport {
			fmt.Fprintln(cmd.OutOrStdout())
			err = s.do(func(at *addresstranslator.Comp) error {
				return at.WriteReport(cmd.OutOrStdout())
			})
		}

		if closeErr := s.close(); err == nil {
			err = closeErr
		}

		return err
	},
}

func init() {
	rootCmd.AddCommand(translateCmd)
	translateCmd.Flags().Bool("write", false,
		"Translate as writes, which marks the pages dirty.")
	translateCmd.Flags().Bool("report", false,
		"Print the statistics report after the translations.")
}

func parseAddresses(args []string) ([]vm.VirtualAddress, error) {
	addrs := make([]vm.VirtualAddress, 0, len(args))

	for _, arg := range args {
		addr, err := strconv.ParseUint(arg, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid address %q: %w", arg, err)
		}

		addrs = append(addrs, addr)
	}

	return addrs, nil
}

func translateAll(
	w io.Writer,
	s *simulation,
	addrs []vm.VirtualAddress,
	isWrite bool,
) error {
	return s.do(func(at *addresstranslator.Comp) error {
		for _, addr := range addrs {
			before := at.Statistics()
			pAddr, ok := at.Translate(addr, isWrite)
			path := translationPath(before, at.Statistics())

			if !ok {
				fmt.Fprintf(w, "0x%x -> failed (%s)\n", addr, path)
				continue
			}

			fmt.Fprintf(w, "0x%x -> 0x%x (%s)\n", addr, pAddr, path)
		}

		return nil
	})
}

func translationPath(before, after addresstranslator.Statistics) string {
	switch {
	case after.TLBHits > before.TLBHits:
		return "TLB hit"
	case after.PageTableHits > before.PageTableHits:
		return "page table hit"
	default:
		return "page fault"
	}
}
