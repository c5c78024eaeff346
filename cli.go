package warden

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultRoadmapPath = "ROADMAP.md"

type CLIConfig struct {
	Force      bool
	DryRun     bool
	Diff       bool
	NoVerify   bool
	NoCommit   bool
	NoPush     bool
	File       string
	Root       string
	Verbose    bool
	Completion string
}

// ErrApplyFailed is returned when the pipeline ends without applying; the
// outcome itself has already been printed.
var ErrApplyFailed = errors.New("apply failed")

var cfg = &CLIConfig{}

var rootCmd = &cobra.Command{
	Use:   "warden",
	Short: "Apply model-generated file payloads safely.",
	Long: `Validate and apply a payload of #__WARDEN_FILE__# blocks from stdin
(pipe) or the clipboard, verify the result, and commit it.

Example: pbpaste | warden apply`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Completion != "" {
			return handleCompletion(cmd)
		}
		return cmd.Help()
	},
}

var applyCmd = &cobra.Command{
	Use:          "apply",
	Short:        "Apply the payload from stdin, a file, or the clipboard",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApply(cmd.Context())
	},
}

func runApply(ctx context.Context) error {
	if cfg.Diff && !cfg.DryRun {
		return fmt.Errorf("error: --diff requires --dry-run")
	}

	logger, err := NewLogger(cfg.Verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	root := cfg.Root
	if root == "" {
		if root, err = FindProjectRoot(); err != nil {
			return fmt.Errorf("failed to locate project root: %w", err)
		}
	}

	conf, err := LoadConfig(root)
	if err != nil {
		return err
	}
	logger.Debug("config loaded", zap.String("root", root), zap.Stringer("project", DetectProject(root)))

	opts := Options{
		Force:       cfg.Force,
		DryRun:      cfg.DryRun,
		Diff:        cfg.Diff,
		NoVerify:    cfg.NoVerify,
		NoCommit:    cfg.NoCommit,
		Root:        root,
		RoadmapPath: filepath.Join(root, defaultRoadmapPath),
	}
	app := NewApp(opts.withPreferences(conf.Preferences), conf)
	app.SetLogger(logger)
	app.SetCommitter(&GitCommitter{Dir: root, Prefix: conf.Preferences.CommitPrefix, NoPush: cfg.NoPush})

	if cfg.File != "" {
		app.SetSource(FileSource{Path: cfg.File})
	}
	// A piped payload leaves stdin unusable for the prompt.
	if !IsTerminal(os.Stdin) {
		if tty, err := os.Open("/dev/tty"); err == nil {
			defer tty.Close()
			app.SetConfirmer(&PromptConfirmer{In: tty, Out: os.Stdout})
		}
	}

	outcome, err := app.Execute(ctx)
	if err != nil {
		var de *DetailedError
		if errors.As(err, &de) {
			logger.Error("panic during apply", zap.Error(de.Err), zap.ByteString("stack", de.Stack))
		}
		return err
	}
	if IsFailure(outcome) {
		return ErrApplyFailed
	}
	return nil
}

func handleCompletion(cmd *cobra.Command) error {
	switch cfg.Completion {
	case "bash":
		return cmd.Root().GenBashCompletion(os.Stdout)
	case "zsh":
		return cmd.Root().GenZshCompletion(os.Stdout)
	case "fish":
		return cmd.Root().GenFishCompletion(os.Stdout, true)
	case "powershell":
		return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
	default:
		return fmt.Errorf("unsupported shell for completion: %s", cfg.Completion)
	}
}

func init() {
	rootCmd.Flags().StringVar(&cfg.Completion, "completion", "", "Generate completion script")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "Enable debug logging")

	applyCmd.Flags().BoolVarP(&cfg.Force, "force", "f", false, "Skip the confirmation prompt")
	applyCmd.Flags().BoolVarP(&cfg.DryRun, "dry-run", "n", false, "Validate only, do not write")
	applyCmd.Flags().BoolVar(&cfg.Diff, "diff", false, "Print a unified diff of the changes (with --dry-run)")
	applyCmd.Flags().BoolVar(&cfg.NoVerify, "no-verify", false, "Skip check commands")
	applyCmd.Flags().BoolVar(&cfg.NoCommit, "no-commit", false, "Do not commit after verification")
	applyCmd.Flags().BoolVar(&cfg.NoPush, "no-push", false, "Commit without pushing")
	applyCmd.Flags().StringVarP(&cfg.File, "file", "i", "", "Read the payload from a file")
	applyCmd.Flags().StringVar(&cfg.Root, "root", "", "Project root (default: git top level)")

	rootCmd.AddCommand(applyCmd)
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
}

func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}
