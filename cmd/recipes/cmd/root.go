package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/corey/gourmand/internal/adapters/bedrock"
	"github.com/corey/gourmand/internal/config"
	"github.com/corey/gourmand/internal/defaults"
	"github.com/corey/gourmand/internal/logging"
	"github.com/corey/gourmand/internal/ports"
)

const name = "recipes"

var (
	// overridden during build with ldflags
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// cli carries state shared by all commands of one invocation.
type cli struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	// newCatalog builds the model catalog; replaced in tests.
	newCatalog func(ctx context.Context, cfg *config.Config) (ports.ModelCatalog, error)
}

// Execute runs the root command with SIGINT/SIGTERM cancelling the context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, formatError(err))
		return err
	}
	return nil
}

// NewRootCmd builds the command tree.
func NewRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	return newCLI(in, out, errOut).rootCmd()
}

func newCLI(in io.Reader, out, errOut io.Writer) *cli {
	return &cli{
		v:          viper.New(),
		in:         in,
		out:        out,
		errOut:     errOut,
		newCatalog: bedrockCatalog,
	}
}

func (c *cli) rootCmd() *cobra.Command {
	var list bool
	root := &cobra.Command{
		Use:   name,
		Short: "recipes - chat with a model about what to cook",
		Long: fmt.Sprintf(`recipes - chat with a model about what to cook

Version: %s
Commit:  %s
Built:   %s

Describe what you have in the fridge or what you feel like eating. When you
settle on a recipe, the model saves it (and optionally a photo) to the
output directory.`, version, commit, date),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		Args:              cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if list {
				return c.runModels(cmd.Context(), "table", "")
			}
			return c.runChat(cmd.Context(), "")
		},
	}
	root.SetIn(c.in)
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	root.Flags().BoolVarP(&list, "list", "l", false, "list models enabled for the account and exit")

	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default is $HOME/.gourmand.yaml)")
	addSettingsFlags(root.PersistentFlags())

	root.AddCommand(
		c.chatCmd(),
		c.modelsCmd(),
		c.savedCmd(),
		c.sessionsCmd(),
		c.configCmd(),
		c.wipeCmd(),
		versionCmd(),
	)
	return root
}

// addSettingsFlags registers one flag per config key. Sampling parameters
// are strings so that "unset" can be told apart from zero.
func addSettingsFlags(f *pflag.FlagSet) {
	f.String(config.KeyAWSProfile, "", "AWS shared config profile")
	f.String(config.KeyRegion, "", "AWS region (default from the AWS config)")
	f.BoolP(config.KeyVerbose, "v", false, "debug logging, including every message sent to the model")
	f.StringP(config.KeyModel, "m", defaults.ChatModel, "chat model id")
	f.String(config.KeyImageModel, defaults.ImageModel, "image model id")
	f.StringP(config.KeyOutput, "o", ".", "directory recipes are written to")
	f.String(config.KeyPrompt, defaults.PromptName, "built-in system prompt (guided, classic)")
	f.String(config.KeyPromptFile, "", "read the system prompt from a file; reloaded on change")
	f.Int(config.KeyImages, defaults.ImageCount, "images per recipe, 0 disables")
	f.String(config.KeyMaxTokens, "", "maximum tokens per reply (model default when unset)")
	f.String(config.KeyTemperature, "", "sampling temperature in [0,1]")
	f.String(config.KeyTopP, "", "nucleus sampling in (0,1]")
	f.Int(config.KeyRequestsPerMinute, defaults.RequestsPerMinute, "client-side request budget")
	f.String(config.KeyDataDir, filepath.Join("~", ".gourmand"), "where sessions and history are kept")
	f.String(config.KeyMetricsAddr, "", "serve metrics and the JSON API on this address (e.g. 127.0.0.1:9090)")
	f.String(config.KeyLogLevel, "", "log level (debug, info, warn, error); falls back to $LOG_LEVEL, then info")
	f.String(config.KeyLogFormat, "text", "log format (text, json)")
}

// setup resolves configuration and logging after flags are parsed.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if err := c.initConfig(); err != nil {
		return err
	}
	if err := c.v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}
	cfg, err := config.Load(c.v)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.initLogger()
	return nil
}

// initConfig reads the config file and GOURMAND_* environment variables.
func (c *cli) initConfig() error {
	config.SetDefaults(c.v)
	config.BindEnv(c.v)

	if c.cfgFile != "" {
		c.v.SetConfigFile(c.cfgFile)
		if err := c.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", c.cfgFile, err)
		}
		return nil
	}

	home, err := os.UserHomeDir()
	if err == nil {
		c.v.AddConfigPath(home)
	}
	c.v.AddConfigPath(".")
	c.v.SetConfigType("yaml")
	c.v.SetConfigName(".gourmand")

	// the discovered file is optional
	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func (c *cli) initLogger() {
	logging.SetDefault(logging.Format(c.cfg.LogFormat), name, version, c.cfg.LogLevel)
	slog.Debug("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"model", c.cfg.Model,
		"config", c.v.ConfigFileUsed())
}

func bedrockCatalog(ctx context.Context, cfg *config.Config) (ports.ModelCatalog, error) {
	awsCfg, err := bedrock.NewConfig(ctx, cfg.AWSProfile, cfg.Region)
	if err != nil {
		return nil, err
	}
	return bedrock.New(awsCfg, bedrock.Options{RequestsPerMinute: cfg.RequestsPerMinute}), nil
}
