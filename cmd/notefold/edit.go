package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	editTitle   string
	editContent string
)

var editCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Edit a note's title and/or content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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
		var found bool
		for _, n := range client.Notes.Notes() {
			if n.ID != args[0] {
				continue
			}
			found = true
			// open the editor on the note's current values
			if err := client.Interactions.RequestEdit(n); err != nil {
				return err
			}
			title, content := n.Title, n.Content
			if cmd.Flags().Changed("title") {
				title = editTitle
			}
			if cmd.Flags().Changed("content") {
				content = editContent
			}
			return client.Interactions.Save(ctx, title, content)
		}
		if !found {
			return fmt.Errorf("no note with id %s", args[0])
		}
		return nil
	},
}

func init() {
	editCmd.Flags().StringVarP(&editTitle, "title", "t", "", "New title")
	editCmd.Flags().StringVarP(&editContent, "content", "c", "", "New content")
	rootCmd.AddCommand(editCmd)
}
