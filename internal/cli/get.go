package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/me/phenogen/internal/bundle"
	"github.com/me/phenogen/pkg/model"
	"github.com/spf13/cobra"
)

func newGetCmd() *cobra.Command {
	var (
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:   "get <compilation-id>",
		Short: "Show a compilation or download its archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			out := cmd.OutOrStdout()

			if output != "" {
				f, err := bundle.ParseFormat(format)
				if err != nil {
					return err
				}
				data, err := client.Download("/api/v1/compilations/" + url.PathEscape(id) + "/archive?format=" + url.QueryEscape(string(f)))
				if err != nil {
					return fmt.Errorf("download archive: %w", err)
				}
				if err := os.WriteFile(output, data, 0o644); err != nil {
					return fmt.Errorf("write archive: %w", err)
				}
				fmt.Fprintf(out, "Wrote %s (%d bytes)\n", output, len(data))
				return nil
			}

			resp, err := client.Get("/api/v1/compilations/" + url.PathEscape(id))
			if err != nil {
				return fmt.Errorf("get compilation: %w", err)
			}
			var comp model.Compilation
			if err := json.Unmarshal(resp.Data, &comp); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			fmt.Fprintf(out, "Compilation: %s\n", comp.ID)
			fmt.Fprintf(out, "  Name:     %s\n", comp.Name)
			fmt.Fprintf(out, "  Hash:     %s\n", comp.ContentHash)
			fmt.Fprintf(out, "  Steps:    %d (%d leaves)\n", comp.StepCount, comp.LeafCount)
			fmt.Fprintf(out, "  Created:  %s\n", comp.CreatedAt.Format("2006-01-02 15:04:05"))
			if comp.Bundle != nil {
				fmt.Fprintln(out, "\nArtifacts:")
				printArtifacts(out, comp.Bundle.Steps, "  ")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Download the bundle archive to this path")
	cmd.Flags().StringVar(&format, "format", "zip", "Archive format (zip, tar.xz)")
	return cmd
}

func printArtifacts(w io.Writer, artifacts []model.Artifact, indent string) {
	for _, a := range artifacts {
		if a.IsNested() {
			fmt.Fprintf(w, "%s%s.cwl  (workflow, %d steps)\n", indent, a.ID, len(a.Steps))
			printArtifacts(w, a.Steps, indent+"  ")
			continue
		}
		fmt.Fprintf(w, "%s%s.cwl  (%s)\n", indent, a.ID, a.FileName)
	}
}
