package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newRateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rate <currency>",
		Short:   "Look up the market value of one JPY in a currency",
		Example: "  ledgerctl rate USD --date 2025-06-30",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetString("date")
			var date time.Time
			if raw != "" {
				parsed, err := time.Parse(time.DateOnly, raw)
				if err != nil {
					return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", raw)
				}
				date = parsed
			}

			s, err := openSession(cmd.Context(), envFile(cmd))
			if err != nil {
				return err
			}
			defer s.close()

			rate, err := s.svc.Rates.Lookup(cmd.Context(), args[0], date)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), rate)
		},
	}
	cmd.Flags().String("date", "", "Rate date (YYYY-MM-DD), default latest")
	return cmd
}
