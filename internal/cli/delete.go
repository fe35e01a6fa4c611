package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <compilation-id>",
		Short: "Delete a stored compilation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if _, err := client.Delete("/api/v1/compilations/" + url.PathEscape(id)); err != nil {
				return fmt.Errorf("delete compilation: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Compilation %s deleted.\n", id)
			return nil
		},
	}
}
