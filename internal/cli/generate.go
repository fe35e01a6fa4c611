package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/me/phenogen/pkg/model"
	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "generate <steps-file>",
		Short: "Compile a step file on the server and store the result",
		Long: "Send a JSON or YAML step file to the phenogen server. The server compiles\n" +
			"it and stores the bundle; a tree that was compiled before returns the\n" +
			"existing compilation.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read steps: %w", err)
			}
			if name == "" {
				name = fileStem(path)
			}

			logger.Info("submitting steps", "path", path, "name", name)
			resp, err := client.PostRaw("/api/v1/compilations/?name="+url.QueryEscape(name), stepsContentType(path), data)
			if err != nil {
				return fmt.Errorf("create compilation: %w", err)
			}

			var comp model.Compilation
			if err := json.Unmarshal(resp.Data, &comp); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			out := cmd.OutOrStdout()
			if resp.StatusCode == http.StatusCreated {
				fmt.Fprintf(out, "Compilation created: %s\n", comp.ID)
			} else {
				fmt.Fprintf(out, "Compilation exists: %s\n", comp.ID)
				if comp.Name != name {
					fmt.Fprintf(out, "  (stored as %q; name %q not applied)\n", comp.Name, name)
				}
			}
			fmt.Fprintf(out, "  Name:   %s\n", comp.Name)
			fmt.Fprintf(out, "  Steps:  %d (%d leaves)\n", comp.StepCount, comp.LeafCount)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Compilation name (default: file name without extension)")
	return cmd
}

func stepsContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "application/yaml"
	}
	return "application/json"
}
