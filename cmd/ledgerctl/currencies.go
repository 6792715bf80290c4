package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	appreceivable "github.com/tradeledger/backend/internal/application/receivable"
)

var defaultCurrencies = []appreceivable.CurrencyRequest{
	{Code: "USD", Name: "US Dollar"},
	{Code: "EUR", Name: "Euro"},
	{Code: "GBP", Name: "British Pound"},
	{Code: "CNY", Name: "Chinese Yuan"},
	{Code: "JPY", Name: "Japanese Yen"},
}

// parseCurrencies reads CODE[:Name] pairs, falling back to the defaults.
func parseCurrencies(args []string) []appreceivable.CurrencyRequest {
	if len(args) == 0 {
		return defaultCurrencies
	}
	out := make([]appreceivable.CurrencyRequest, 0, len(args))
	for _, arg := range args {
		code, name, _ := strings.Cut(arg, ":")
		out = append(out, appreceivable.CurrencyRequest{Code: strings.ToUpper(strings.TrimSpace(code)), Name: name})
	}
	return out
}

func newSeedCurrenciesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-currencies [CODE[:Name]...]",
		Short: "Create missing currency ledgers",
		Long:  "Creates a zeroed ledger for each currency that has none. Existing ledgers are left untouched.",
		Example: `  ledgerctl seed-currencies
  ledgerctl seed-currencies USD:"US Dollar" THB:Baht`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), envFile(cmd))
			if err != nil {
				return err
			}
			defer s.close()

			created, err := s.svc.Currencies.Seed(cmd.Context(), parseCurrencies(args))
			if err != nil {
				return err
			}
			if len(created) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "all ledgers already exist")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", strings.Join(created, ", "))
			return nil
		},
	}
}
