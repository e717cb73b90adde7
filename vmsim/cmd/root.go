// Package cmd provides the command-line interface for vmsim.
package cmd

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vmsim",
	Short: "vmsim simulates the address translation of a demand-paged memory.",
	Long: `vmsim simulates how virtual addresses are translated into ` +
		`physical addresses through a TLB, a multi-level page table and a ` +
		`frame allocator. Flags that are not given on the command line can ` +
		`be set with VMSIM_PRESET, VMSIM_TLB_SIZE and VMSIM_EVICTION, ` +
		`either in the environment or in a .env file.`,
	SilenceUsage:      true,
	PersistentPreRunE: applyEnv,
}

// envFlags maps environment variables to the flags they provide defaults for.
var envFlags = map[string]string{
	"VMSIM_PRESET":   "preset",
	"VMSIM_TLB_SIZE": "tlb-size",
	"VMSIM_EVICTION": "eviction",
}

func init() {
	f := rootCmd.PersistentFlags()
	f.String("preset", "default",
		"Memory configuration preset, default or small.")
	f.Int("tlb-size", 0,
		"Number of TLB entries. 0 keeps the value of the preset.")
	f.String("eviction", "none",
		"What happens to the owner of a reused frame, none or invalidate.")
	f.String("victim", "first-unpinned",
		"How victim frames are picked, first-unpinned or clock.")
	f.Bool("check-frames", false,
		"Fail byte accesses whose frame is no longer allocated.")
	f.String("record", "",
		"Record every translation into <record>.sqlite3.")
	f.Int("monitor", -1,
		"Serve the monitor on the given port. 0 picks a random port.")
	f.Bool("open-browser", false,
		"Open the monitor in a browser.")
	f.BoolP("verbose", "v", false,
		"Log every translation to stderr.")
}

// applyEnv loads .env and copies the environment into the flags that are not
// set on the command line.
func applyEnv(cmd *cobra.Command, _ []string) error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return applyEnvTo(cmd, os.LookupEnv)
}

func applyEnvTo(cmd *cobra.Command, lookup func(string) (string, bool)) error {
	for env, name := range envFlags {
		flag := cmd.Flags().Lookup(name)
		if flag == nil || flag.Changed {
			continue
		}

		value, ok := lookup(env)
		if !ok || value == "" {
			continue
		}

		if err := cmd.Flags().Set(name, value); err != nil {
			return err
		}
	}

	return nil
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Exit handlers, such as the flush of recorded data, run
// before the program exits.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
