package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sgva-ao/sgva/internal/payroll"
	"github.com/sgva-ao/sgva/internal/server"
	"github.com/sgva-ao/sgva/internal/store"
)

var (
	serveAddr     string
	serveBrackets string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(flagDB)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := context.Background()
		if serveBrackets != "" {
			if err := importBracketFile(ctx, st, serveBrackets); err != nil {
				return err
			}
		}

		years, err := st.ListBracketYears(ctx)
		if err != nil {
			return err
		}
		if _, err := st.BracketTable(ctx, time.Now().Year()); err != nil {
			log.Printf("warning: %v (tables loaded: %v)", err, years)
		}

		srv := server.New(st, serveAddr)
		return srv.ListenAndServe()
	},
}

// importBracketFile installs a YAML bracket file before the server starts.
func importBracketFile(ctx context.Context, st *store.Store, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	table, label, err := payroll.ParseBracketFile(b)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if _, err := st.ReplaceBracketTable(ctx, table, label); err != nil {
		return err
	}
	return nil
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8890", "Listen address")
	serveCmd.Flags().StringVar(&serveBrackets, "brackets", "", "Install this IRT bracket file before serving")
	rootCmd.AddCommand(serveCmd)
}
