package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var companiesJSON bool

var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "List the companies currently in the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		records, err := st.LoadAll(ctx)
		if err != nil {
			return eris.Wrap(err, "load records")
		}

		if companiesJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		}

		for _, r := range records {
			fmt.Println(r.Name)
		}
		fmt.Fprintf(os.Stderr, "%d companies\n", len(records))
		return nil
	},
}

func init() {
	companiesCmd.Flags().BoolVar(&companiesJSON, "json", false, "print full records as JSON")
	rootCmd.AddCommand(companiesCmd)
}
