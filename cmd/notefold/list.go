package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List your notes, most recently touched first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		client, _, err := openClient(ctx)
		if err != nil {
			return err
		}
		defer client.Close()
		if err := requireSession(client); err != nil {
			return err
		}

		if err := client.Notes.List(ctx); err != nil {
			return err
		}
		notes := client.Notes.Notes()
		if len(notes) == 0 {
			fmt.Println("No notes yet. Create your first note with `notefold add`.")
			return nil
		}
		for _, n := range notes {
			preview := n.Content
			if i := strings.IndexByte(preview, '\n'); i >= 0 {
				preview = preview[:i]
			}
			if len(preview) > 60 {
				preview = preview[:57] + "..."
			}
			fmt.Printf("%s  %-30s  %s\n", n.ID, n.Title, preview)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
