package cmd

import (
	"encoding/json"

	"github.com/sarchlab/vmsim/mem/vm/addresstranslator"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report [ADDR...]",
	Short: "Read the given addresses and print only the statistics report.",
	RunE: func(cmd *cobra.Command, args []string) error {
		addrs, err := parseAddresses(args)
		if err != nil {
			return err
		}

		opts, err := optionsFromFlags(cmd)
		if err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")

		s := newSimulation(opts, cmd.ErrOrStderr())

		err = s.do(func(at *addresstranslator.Comp) error {
			for _, addr := range addrs {
				if _, err := at.ReadByteAt(addr); err != nil {
					return err
				}
			}

			if !asJSON {
				return at.WriteReport(cmd.OutOrStdout())
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			return enc.Encode(at.Report())
		})

		if closeErr := s.close(); err == nil {
			err = closeErr
		}

		return err
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().Bool("json", false, "Print the report as JSON.")
}
