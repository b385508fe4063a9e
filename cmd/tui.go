package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sgva-ao/sgva/internal/client"
	"github.com/sgva-ao/sgva/internal/payroll"
	"github.com/sgva-ao/sgva/internal/server"
	"github.com/sgva-ao/sgva/internal/store"
	"github.com/sgva-ao/sgva/internal/tui"
)

var (
	tuiMonth int
	tuiYear  int
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		serverAddr := flagServer

		if !cmd.Flags().Changed("server") {
			// Start embedded server in background on a free port
			st, err := store.Open(flagDB)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer st.Close()

			ln, err := net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				return fmt.Errorf("listen: %w", err)
			}
			log.SetOutput(io.Discard)
			srv := server.New(st, ln.Addr().String(), server.WithoutRequestLog())
			go func() {
				if err := srv.Serve(ln); err != nil {
					log.Printf("embedded server error: %v", err)
				}
			}()
			serverAddr = "http://" + ln.Addr().String()

			// Wait for server to be ready
			c := client.New(serverAddr)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			for {
				if err := c.Ping(ctx); err == nil {
					break
				}
				if ctx.Err() != nil {
					return fmt.Errorf("timeout waiting for embedded server")
				}
				time.Sleep(50 * time.Millisecond)
			}
		}

		now := time.Now()
		p := payroll.Period{Month: int(now.Month()), Year: now.Year()}
		if tuiMonth != 0 || tuiYear != 0 {
			var err error
			if p, err = period(tuiMonth, tuiYear); err != nil {
				return err
			}
		}

		app := tui.NewApp(client.New(serverAddr), p)
		_, err := tea.NewProgram(app, tea.WithAltScreen()).Run()
		return err
	},
}

func init() {
	tuiCmd.Flags().IntVar(&tuiMonth, "month", 0, "Initial month (default: current)")
	tuiCmd.Flags().IntVar(&tuiYear, "year", 0, "Initial year (default: current)")
	rootCmd.AddCommand(tuiCmd)
}
