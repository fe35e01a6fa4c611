package cli

import (
	"log/slog"

	"github.com/me/phenogen/internal/config"
	"github.com/me/phenogen/internal/logging"
	"github.com/spf13/cobra"
)

var (
	flagServer    string
	flagConfig    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	cfg    config.Config
	logger *slog.Logger
	client *Client
)

// NewRootCmd creates the root cobra command for the phenogen CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "phenogen",
		Short: "phenogen compiles phenotype step trees into CWL workflows",
		Long: "phenogen turns a tree of phenotype definition steps into a CWL workflow,\n" +
			"one tool or sub-workflow per step, plus the workflow input bindings.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(flagConfig)
			if err != nil {
				return err
			}
			cfg = loaded

			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.NewLogger(logging.ParseLevel(flagLogLevel), flagLogFormat)

			if flagServer == "" {
				flagServer = cfg.Client.ServerURL
			}
			client = NewClient(flagServer, logger)
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", "", "phenogen server URL (or PHENOGEN_CLIENT_SERVER_URL env)")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a phenogen.yaml config file")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newCompileCmd(),
		newGenerateCmd(),
		newListCmd(),
		newGetCmd(),
		newDeleteCmd(),
	)

	return root
}
