package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"soulstar.klederson.com/internal/app"
	"soulstar.klederson.com/internal/config"
	"soulstar.klederson.com/internal/identity"
	"soulstar.klederson.com/internal/led"
	"soulstar.klederson.com/internal/radio"
	"soulstar.klederson.com/internal/ui"
)

var (
	flagMock       bool
	flagHeadless   bool
	flagID         uint32
	flagName       string
	flagColor      string
	flagBrightness uint8
	flagLogFile    string
	flagVerbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "soulstar",
		Short: "Soul Star - proximity badge that lights up when kindred badges are near",
		Long: `Soul Star broadcasts a short-range beacon carrying this badge's identity
and color while listening for beacons from other badges, and renders the
detected crowd as a live animation on an addressable LED strip.

Without hardware, run with --mock to simulate nearby badges. Real BLE
requires sudo or CAP_NET_ADMIN capability.`,
		RunE: run,
	}

	rootCmd.Flags().BoolVar(&flagMock, "mock", false, "Simulate nearby badges (no Bluetooth required)")
	rootCmd.Flags().BoolVar(&flagHeadless, "headless", false, "Run without the terminal strip visualizer")
	rootCmd.Flags().Uint32Var(&flagID, "id", 0, "Badge id (0 picks a random one)")
	rootCmd.Flags().StringVar(&flagName, "name", "", "Display name, diagnostics only")
	rootCmd.Flags().StringVar(&flagColor, "color", "#FF2080", "Badge base color as #RRGGBB")
	rootCmd.Flags().Uint8Var(&flagBrightness, "brightness", 128, "Global LED brightness (0-255)")
	rootCmd.Flags().StringVar(&flagLogFile, "log-file", "", "Write diagnostics to this file")
	rootCmd.Flags().BoolVar(&flagVerbose, "verbose", false, "Log at debug level")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logger, closeLog, err := newLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	ident, err := identity.Provision(flagID, flagName, flagColor)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
		return err
	}

	var drv radio.Driver
	if flagMock {
		drv = radio.NewMockDriver()
	} else {
		drv = radio.NewBLEDriver()
	}

	cycler, err := radio.New(drv, radio.Config{
		AdvertisingInterval: config.AdvertisingInterval,
		ScanWindow:          config.ScanWindow,
		ScanInterval:        config.ScanInterval,
	}, ident, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
		return err
	}

	if flagHeadless {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		badge := app.New(ident, cycler, led.DiscardSink{}, flagBrightness, logger)
		return reportFatal(badge.Run(ctx))
	}

	sink := ui.NewProgramSink()
	badge := app.New(ident, cycler, sink, flagBrightness, logger)

	p := tea.NewProgram(
		ui.New(ident, flagBrightness, badge.Commands()),
		tea.WithAltScreen(),
		tea.WithFPS(30),
	)
	sink.Attach(p)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fatal := make(chan error, 1)
	go func() {
		if err := badge.Run(ctx); err != nil {
			fatal <- err
			p.Quit()
		}
	}()

	_, uiErr := p.Run()
	cancel()

	select {
	case err := <-fatal:
		return reportFatal(err)
	default:
		return uiErr
	}
}

// reportFatal prints the startup failure with the usual permission hints
// before handing the error back to cobra.
func reportFatal(err error) error {
	if err == nil {
		return nil
	}
	fmt.Fprintf(os.Stderr, "\nError: %v\n\n", err)
	if !flagMock {
		fmt.Fprintln(os.Stderr, "Bluetooth advertising and scanning require elevated permissions.")
		fmt.Fprintln(os.Stderr, "Try one of:")
		fmt.Fprintln(os.Stderr, "  sudo ./soulstar")
		fmt.Fprintln(os.Stderr, "  sudo setcap cap_net_admin+ep ./soulstar")
		fmt.Fprintln(os.Stderr, "  ./soulstar --mock    (simulated badges, no hardware needed)")
	}
	return err
}

// newLogger builds the diagnostics logger. The visualizer owns the terminal,
// so logs go to a file when asked for, to stderr when headless, and nowhere
// otherwise.
func newLogger() (*logrus.Logger, func(), error) {
	logger := logrus.New()
	if flagVerbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	closeLog := func() {}
	switch {
	case flagLogFile != "":
		f, err := os.OpenFile(flagLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		logger.SetOutput(f)
		closeLog = func() { _ = f.Close() }
	case flagHeadless:
		logger.SetOutput(os.Stderr)
	default:
		logger.SetOutput(io.Discard)
	}
	return logger, closeLog, nil
}
