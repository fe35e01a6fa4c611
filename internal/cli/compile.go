package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/me/phenogen/internal/bundle"
	"github.com/me/phenogen/internal/compiler"
	"github.com/me/phenogen/internal/parser"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newCompileCmd() *cobra.Command {
	var (
		outDir       string
		archive      string
		packed       bool
		jobs         int
		allowUnknown bool
		maxDepth     int
	)

	cmd := &cobra.Command{
		Use:   "compile <steps-file>...",
		Short: "Compile step files into CWL bundles locally",
		Long: "Compile each JSON or YAML step file into a CWL bundle without a server.\n" +
			"Each bundle is written to <out>/<file stem>/, or to an archive with --archive.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var format bundle.Format
			if archive != "" {
				f, err := bundle.ParseFormat(archive)
				if err != nil {
					return err
				}
				format = f
			}

			compilerCfg := cfg.Compiler
			if cmd.Flags().Changed("allow-unknown-languages") {
				compilerCfg.AllowUnknownLanguages = allowUnknown
			}
			if cmd.Flags().Changed("max-depth") {
				compilerCfg.MaxDepth = maxDepth
			}

			// Outputs are named by file stem, so each stem may appear once.
			stems := make(map[string]string, len(args))
			for _, path := range args {
				stem := fileStem(path)
				if prev, dup := stems[stem]; dup {
					return fmt.Errorf("%s and %s would both be written to %q; compile them into separate -o directories", prev, path, stem)
				}
				stems[stem] = path
			}

			p := parser.New(logger)
			v := parser.NewValidator(logger)
			c := compiler.New(compilerCfg, logger)

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}

			written := make([]string, len(args))
			g := new(errgroup.Group)
			g.SetLimit(max(jobs, 1))
			for i, path := range args {
				g.Go(func() error {
					out, err := compileFile(p, v, c, path, outDir, format, packed)
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					written[i] = out
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			for i, path := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "Compiled %s -> %s\n", path, written[i])
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Output directory")
	cmd.Flags().StringVar(&archive, "archive", "", "Write an archive instead of a directory (zip, tar.xz)")
	cmd.Flags().BoolVar(&packed, "packed", false, "Write a single packed $graph document instead of a directory")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "Number of files compiled concurrently")
	cmd.Flags().BoolVar(&allowUnknown, "allow-unknown-languages", false, "Emit empty tools for unsupported languages instead of failing")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "Maximum nesting depth (default from config)")
	cmd.MarkFlagsMutuallyExclusive("archive", "packed")

	return cmd
}

// compileFile compiles one step file and writes its bundle, returning the
// path written.
func compileFile(p *parser.Parser, v *parser.Validator, c *compiler.Compiler, path, outDir string, format bundle.Format, packed bool) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read steps: %w", err)
	}
	steps, err := p.ParseSteps(data)
	if err != nil {
		return "", err
	}
	if apiErr := v.Validate(steps); apiErr != nil {
		return "", apiErr
	}
	b, err := c.Compile(steps)
	if err != nil {
		return "", err
	}

	stem := fileStem(path)
	switch {
	case packed:
		doc, err := bundle.Pack(b)
		if err != nil {
			return "", err
		}
		dest := filepath.Join(outDir, stem+".cwl")
		if err := os.WriteFile(dest, doc, 0o644); err != nil {
			return "", fmt.Errorf("write packed document: %w", err)
		}
		return dest, nil

	case format != "":
		dest := filepath.Join(outDir, stem+format.Ext())
		f, err := os.Create(dest)
		if err != nil {
			return "", fmt.Errorf("create archive: %w", err)
		}
		if err := bundle.WriteArchive(f, b, stem, format); err != nil {
			f.Close()
			return "", err
		}
		return dest, f.Close()

	default:
		dest := filepath.Join(outDir, stem)
		if err := bundle.WriteDir(b, dest); err != nil {
			return "", err
		}
		return dest, nil
	}
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
