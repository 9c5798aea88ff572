package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var creditsCmd = &cobra.Command{
	Use:   "credits",
	Short: "Show the remaining Fullenrich credit balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		balance, err := newEnrichClient().Credits(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "get credits")
		}
		fmt.Printf("Crédits Fullenrich restants : %d\n", balance)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(creditsCmd)
}
