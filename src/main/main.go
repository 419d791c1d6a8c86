package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"screen-capture-ocr/src/clipboard"
	"screen-capture-ocr/src/config"
	"screen-capture-ocr/src/eventloop"
	"screen-capture-ocr/src/host"
	"screen-capture-ocr/src/hotkey"
	"screen-capture-ocr/src/llm"
	"screen-capture-ocr/src/logutil"
	"screen-capture-ocr/src/notification"
	"screen-capture-ocr/src/ocr"
	"screen-capture-ocr/src/overlay"
	"screen-capture-ocr/src/pixelformat"
	"screen-capture-ocr/src/screenshot"
)

const (
	appTitle      = "Screen Capture OCR"
	debugImageDir = "debug_images"
)

type mainOptions struct {
	runOnce    bool
	hotkey     string
	engine     string
	envFile    string
	apiKeyPath string
	verbose    bool
}

func main() {
	if err := runWithArgs(normalizeLegacyArgs(os.Args)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"screen-capture-ocr"}
	}
	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "screen-capture-ocr",
		Short:         "Select a screen region and copy its text to the clipboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(*opts)
		},
	}

	cmd.Flags().BoolVar(&opts.runOnce, "run-once", false, "Show the overlay immediately and exit after one selection")
	cmd.Flags().StringVar(&opts.hotkey, "hotkey", "", "Hotkey that toggles the overlay (overrides HOTKEY)")
	cmd.Flags().StringVar(&opts.engine, "engine", "", "Recognition engine: llm or tesseract (overrides OCR_ENGINE)")
	cmd.Flags().StringVar(&opts.envFile, "env-file", "", "Path to the .env file")
	cmd.Flags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log to stderr")
	return cmd
}

// normalizeLegacyArgs maps single-dash long flags to cobra's double-dash form.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}
	normalized := make([]string, len(args))
	copy(normalized, args)

	long := []string{"run-once", "hotkey", "engine", "env-file", "api-key-path", "verbose"}
	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range long {
			if arg == "-"+name || strings.HasPrefix(arg, "-"+name+"=") {
				normalized[i] = "-" + arg
				break
			}
		}
	}
	return normalized
}

func loadOptions(opts mainOptions) config.LoadOptions {
	return config.LoadOptions{
		EnvFile:            opts.envFile,
		APIKeyPathOverride: opts.apiKeyPath,
		HotkeyOverride:     opts.hotkey,
		EngineOverride:     opts.engine,
	}
}

func styleFromConfig(cfg *config.Config) overlay.Style {
	style := overlay.DefaultStyle()
	style.MaskColor.A = uint8(cfg.MaskOpacity)
	style.BorderWidth = cfg.BorderWidth
	style.ShowHints = cfg.ShowHints
	return style
}

func ocrOptions(cfg *config.Config) ocr.Options {
	return ocr.Options{
		Engine:         cfg.Engine,
		Language:       cfg.TesseractLanguage,
		TessdataPrefix: cfg.TessdataPrefix,
		LLM: llm.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			Providers: cfg.Providers,
		},
	}
}

func loopOptions(cfg *config.Config, runOnce bool) eventloop.Options {
	opts := eventloop.Options{
		Style:          styleFromConfig(cfg),
		Deadline:       time.Duration(cfg.OCRDeadlineSec) * time.Second,
		CopyImage:      cfg.CopyImage,
		RunOnce:        runOnce,
		DefaultTooltip: fmt.Sprintf("%s - Press %s to capture", appTitle, cfg.Hotkey),
	}
	if cfg.DebugSaveImages {
		opts.DebugDir = debugImageDir
	}
	return opts
}

func runApp(opts mainOptions) error {
	// DPI awareness must precede any window or metric query.
	enableDPIAwareness()

	cfg, err := config.LoadWithOptions(loadOptions(opts))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logutil.Setup(cfg.EnableFileLogging, opts.verbose)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	combo, err := hotkey.ParseCombo(cfg.Hotkey)
	if err != nil {
		return err
	}
	logMonitorConfiguration()
	log.Printf("Engine: %s, hotkey: %s, OCR deadline: %ds, key: %s", cfg.Engine, cfg.Hotkey, cfg.OCRDeadlineSec, logutil.RedactKey(cfg.APIKey))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var recognizer ocr.Recognizer
	if !cfg.CopyImage {
		recognizer, err = ocr.New(ctx, ocrOptions(cfg))
		if err != nil {
			notification.ShowBlockingError("OCR unavailable", fmt.Sprintf("Startup check failed: %v\n\nPlease verify your configuration and network connectivity.", err))
			return err
		}
		defer recognizer.Close()
	}

	clip := clipboard.NewSystem()
	checkClipboard(clip.InitErr())

	snap := screenshot.New(nil)
	bounds, err := snap.ScreenBounds()
	if err != nil {
		return err
	}

	loopOpts := loopOptions(cfg, opts.runOnce)
	h := host.New(host.Options{Title: appTitle, Tooltip: loopOpts.DefaultTooltip, Origin: bounds.Min})
	loop := eventloop.New(eventloop.Deps{
		Host:       h,
		Capturer:   snap,
		Converter:  pixelformat.Bridge{},
		Recognizer: recognizer,
		Clipboard:  clip,
		Notifier:   h.Notifier(),
	}, loopOpts)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		select {
		case <-h.Ready():
		case <-gctx.Done():
			return nil
		}
		if !opts.runOnce {
			mgr, err := hotkey.Install(gctx, combo, h, nil)
			if err != nil {
				return err
			}
			defer mgr.Close()
			log.Printf("HOTKEY: %s watched in %s mode", combo, mgr.Mode())
			loop.SetHotkeySignals(mgr.Signals())
		}
		if err := loop.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	// The window host keeps the calling goroutine until the loop is done.
	hostErr := h.Run(gctx)
	cancel()
	if err := g.Wait(); err != nil {
		return err
	}
	log.Printf("Screen Capture OCR stopped")
	return hostErr
}

// checkClipboard logs a failed clipboard init. The app keeps running: each
// write then fails with an AccessError that the loop shows to the user.
func checkClipboard(initErr error) bool {
	if initErr != nil {
		log.Printf("CLIPBOARD: unavailable, copies will fail until restart: %v", initErr)
		return false
	}
	return true
}
