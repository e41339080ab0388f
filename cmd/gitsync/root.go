// Package gitsync contains the Cobra command tree for the gitsync CLI.
package gitsync

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/skaphos/gitsync/internal/engine"
	"github.com/skaphos/gitsync/internal/gitx"
)

var (
	// Global flags
	flagVerbose int
	flagQuiet   bool
	flagConfig  string
	flagNoColor bool
	// exitCode tracks the highest severity observed during a command run.
	exitCode int
	// pendingSignal is re-raised by Execute after an interrupted run.
	pendingSignal os.Signal
	// isTerminalFD is overridable in tests.
	isTerminalFD = term.IsTerminal
	// exitFunc is overridable in tests.
	exitFunc = os.Exit
	// reraiseFunc is overridable in tests.
	reraiseFunc = reraise
)

var rootCmd = &cobra.Command{
	Use:   "gitsync [category...]",
	Short: "Keep local git working copies in step with their upstreams",
	Long: "gitsync clones missing repositories and fast-forwards clean working copies " +
		"for local directories, remote ssh hosts and GitHub accounts. It never " +
		"discards uncommitted work and only touches the checked-out branch.",
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.ArbitraryArgs,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// `NO_COLOR` is a standard opt-out and should behave like --no-color.
		if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
			flagNoColor = true
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd, args, false)
	},
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&flagVerbose, "verbose", "v", "increase output verbosity (repeatable)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress non-essential output")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "override config file path")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colored output")
	addSyncFlags(rootCmd)
}

// Execute runs the root command and exits. An interrupted run re-raises
// its signal first.
func Execute() {
	code := ExecuteWithExitCode()
	if pendingSignal != nil {
		reraiseFunc(pendingSignal)
	}
	exitFunc(code)
}

// ExecuteWithExitCode runs the root command and returns a shell-friendly exit code.
func ExecuteWithExitCode() int {
	exitCode = 0
	pendingSignal = nil
	err := rootCmd.Execute()
	if err == nil {
		return exitCode
	}
	var intErr *gitx.InterruptError
	if errors.As(err, &intErr) {
		fmt.Fprintln(os.Stderr, "gitsync: interrupted")
		if sig, ok := intErr.Signal(); ok {
			pendingSignal = sig
		}
		return 130
	}
	fmt.Fprintln(os.Stderr, "gitsync:", err)
	return 3
}

func raiseExitCode(code int) {
	// Keep the highest severity: 0 success, 2 category error, 3 fatal.
	if code > exitCode {
		exitCode = code
	}
}

func infof(cmd *cobra.Command, format string, args ...any) {
	if flagQuiet {
		return
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
}

func debugf(cmd *cobra.Command, format string, args ...any) {
	if flagQuiet || flagVerbose <= 0 {
		return
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
}

// verbosity combines the flags with the configured defaults. Flags win.
func verbosity(cmd *cobra.Command, defaultVerbose, defaultQuiet bool) engine.Verbosity {
	switch {
	case flagQuiet:
		return engine.VerbosityQuiet
	case flagVerbose >= 2:
		return engine.VerbosityDebug
	case flagVerbose == 1:
		return engine.VerbosityVerbose
	case cmd.Flags().Changed("verbose"):
		return engine.VerbosityNormal
	case defaultQuiet:
		return engine.VerbosityQuiet
	case defaultVerbose:
		return engine.VerbosityVerbose
	default:
		return engine.VerbosityNormal
	}
}

// newLogger returns the debug logger: warnings by default, info with -v
// and debug traces of every command with -vv.
func newLogger(out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	switch {
	case flagVerbose >= 2:
		logger.SetLevel(logrus.DebugLevel)
	case flagVerbose == 1:
		logger.SetLevel(logrus.InfoLevel)
	default:
		logger.SetLevel(logrus.WarnLevel)
	}
	return logger
}

func shouldUseColorOutput(cmd *cobra.Command, format string) bool {
	if flagNoColor || !isTextFormat(format) {
		return false
	}
	file, ok := cmd.OutOrStdout().(*os.File)
	if !ok {
		return false
	}
	return isTerminalFD(int(file.Fd()))
}

func isTextFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return true
	default:
		return false
	}
}
