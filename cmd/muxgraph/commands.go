package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/backmassage/muxgraph/internal/check"
	"github.com/backmassage/muxgraph/internal/cmdline"
	"github.com/backmassage/muxgraph/internal/config"
	"github.com/backmassage/muxgraph/internal/display"
	"github.com/backmassage/muxgraph/internal/logging"
	"github.com/backmassage/muxgraph/internal/options"
	"github.com/backmassage/muxgraph/internal/pipeline"
)

// app is the state shared by the subcommands once the root pre-run has
// loaded the configuration.
type app struct {
	flags *config.Flags
	cfg   config.Config
	log   *logging.Logger
}

func newRootCmd() *cobra.Command {
	return (&app{}).rootCmd()
}

// execute runs the command line and closes the logger afterwards, also
// when a subcommand failed.
func (a *app) execute(ctx context.Context, args []string) error {
	root := a.rootCmd()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if a.log != nil {
		if cerr := a.log.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "muxgraph",
		Short:         "Resolve ffmpeg command lines into stream graphs",
		Long:          `muxgraph parses an ffmpeg command line, probes its inputs and resolves the complete stream graph: which input streams feed which outputs, through which filters and codecs, with every option applied. It can print the graph or run the canonical command with automatic retry.`,
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.flags.Resolve()
			if err != nil {
				return err
			}
			log, err := logging.NewLogger(&cfg)
			if err != nil {
				return err
			}
			a.cfg, a.log = cfg, log
			return nil
		},
	}
	a.flags = config.BindFlags(root.PersistentFlags())

	root.AddCommand(a.newResolveCmd())
	root.AddCommand(a.newRunCmd())
	root.AddCommand(a.newOptionsCmd())
	root.AddCommand(a.newCheckCmd())
	return root
}

// --- resolve ---

func (a *app) newResolveCmd() *cobra.Command {
	var command string
	cmd := &cobra.Command{
		Use:   "resolve [--command STRING | -- FFMPEG-ARGS...]",
		Short: "Resolve a command line and print the stream graph",
		Example: `  muxgraph resolve -- -i in.mkv -map 0:v -c:v libx264 -crf 20 out.mp4
  muxgraph resolve -o yaml --command "ffmpeg -i in.mkv -c copy out.mkv"`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.resolve(cmd, command, args)
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&command, "command", "", "Full command line as one string")
	return cmd
}

func (a *app) resolve(cmd *cobra.Command, command string, args []string) (*pipeline.Resolved, error) {
	argv, err := ffmpegArgv(command, args)
	if err != nil {
		return nil, err
	}
	opener, err := pipeline.Opener(&a.cfg)
	if err != nil {
		return nil, err
	}
	return pipeline.Resolve(cmd.Context(), &a.cfg, opener, a.log, argv)
}

func (a *app) render(w io.Writer, res *pipeline.Resolved) error {
	switch a.cfg.Output {
	case config.OutputYAML:
		b, err := display.NewReport(res.Job, res.Args, res.Log).YAML()
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	case config.OutputArgs:
		_, err := fmt.Fprintln(w, display.QuoteArgs(res.Args))
		return err
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n", display.Graph(res.Job), display.QuoteArgs(res.Args))
	return err
}

// ffmpegArgv builds the argument vector, program name first. A leading
// "ffmpeg" token is kept; otherwise one is prepended.
func ffmpegArgv(command string, args []string) ([]string, error) {
	tokens := args
	if command != "" {
		if len(args) > 0 {
			return nil, errors.New("use either --command or arguments after --, not both")
		}
		tokens = cmdline.ParseCommand(command)
	}
	if len(tokens) == 0 {
		return nil, errors.New("no ffmpeg arguments given")
	}
	if first := tokens[0]; !strings.HasPrefix(first, "-") && strings.TrimSuffix(filepath.Base(first), ".exe") == "ffmpeg" {
		return tokens, nil
	}
	return append([]string{"ffmpeg"}, tokens...), nil
}

// --- run ---

func (a *app) newRunCmd() *cobra.Command {
	var (
		command string
		dryRun  bool
	)
	cmd := &cobra.Command{
		Use:   "run [--command STRING | -- FFMPEG-ARGS...]",
		Short: "Resolve a command line and execute it with ffmpeg",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.resolve(cmd, command, args)
			if err != nil {
				return err
			}
			if dryRun {
				a.log.Warn("DRY RUN: nothing is executed")
				_, err := fmt.Fprintln(cmd.OutOrStdout(), display.QuoteArgs(res.Args))
				return err
			}
			stats, err := pipeline.Run(cmd.Context(), &a.cfg, res, a.log, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if len(stats.Fixes) > 0 {
				a.log.Info("Applied fixes: %v", stats.Fixes)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&command, "command", "", "Full command line as one string")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Print the canonical command without running it")
	return cmd
}

// --- options ---

func (a *app) newOptionsCmd() *cobra.Command {
	var expert bool
	cmd := &cobra.Command{
		Use:   "options [FILTER]",
		Short: "List the supported ffmpeg options",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := ""
			if len(args) == 1 {
				filter = strings.TrimPrefix(args[0], "-")
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), display.OptionTable(options.Table(), filter, expert))
			return err
		},
	}
	cmd.Flags().BoolVar(&expert, "expert", false, "Include expert options")
	return cmd
}

// --- check ---

func (a *app) newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report ffmpeg/ffprobe availability and preset search paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			display.PrintBanner(out)
			results := check.Run(cmd.Context(), &a.cfg)
			fmt.Fprintln(out, display.CheckTable(results))
			for _, r := range results {
				if r.Status == check.StatusFail {
					return fmt.Errorf("check failed: %s", r.Name)
				}
			}
			return nil
		},
	}
}
