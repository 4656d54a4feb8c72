package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/umlgen/internal/db"
	"github.com/ziadkadry99/umlgen/internal/generations"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse previously generated diagrams",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent generations",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		session, _ := cmd.Flags().GetString("session")

		return withHistory(func(store *generations.Store) error {
			gens, err := store.List(context.Background(), generations.ListOptions{
				SessionID: session,
				Limit:     limit,
			})
			if err != nil {
				return err
			}
			if len(gens) == 0 {
				fmt.Println("No diagrams generated yet.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED\tTYPE\tMODEL\tCONTEXT")
			for _, g := range gens {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					g.ID,
					g.CreatedAt.Local().Format("2006-01-02 15:04"),
					truncate(g.Instruction, 30),
					g.Model,
					truncate(g.ProjectContext, 50),
				)
			}
			return w.Flush()
		})
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the markup of a past generation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(store *generations.Store) error {
			g, err := store.Get(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Session:  %s\n", g.SessionID)
			fmt.Fprintf(os.Stderr, "Created:  %s\n", g.CreatedAt.Local().Format(time.RFC1123))
			fmt.Fprintf(os.Stderr, "Request:  %s\n", g.Instruction)
			fmt.Fprintf(os.Stderr, "Model:    %s/%s (%s)\n\n", g.Provider, g.Model, g.Duration.Round(time.Millisecond))
			fmt.Fprintln(cmd.OutOrStdout(), g.Markup)
			return nil
		})
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a past generation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(store *generations.Store) error {
			if err := store.Delete(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted %s\n", args[0])
			return nil
		})
	},
}

func withHistory(fn func(store *generations.Store) error) error {
	d, err := db.Open(appConfig.DBPath())
	if err != nil {
		return err
	}
	defer d.Close()
	return fn(generations.NewStore(d))
}

// truncate shortens s to a single line of at most n runes.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "maximum number of entries")
	historyListCmd.Flags().String("session", "", "only show one session")
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyDeleteCmd)
	rootCmd.AddCommand(historyCmd)
}
