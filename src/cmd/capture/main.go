package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/image/bmp"

	"screen-capture-ocr/src/config"
	"screen-capture-ocr/src/llm"
	"screen-capture-ocr/src/ocr"
	"screen-capture-ocr/src/pixelformat"
	"screen-capture-ocr/src/screenshot"
)

type cliOptions struct {
	rect       string
	outPath    string
	runOCR     bool
	jsonOutput bool
	engine     string
	envFile    string
	apiKeyPath string
	verbose    bool
}

func main() {
	if err := runWithArgs(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"capture"}
	}
	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "capture",
		Short:         "Capture a screen region to a file and optionally recognize its text",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(cmd.Context(), *opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.rect, "rect", "", "Region as x,y,w,h (default: whole primary screen)")
	cmd.Flags().StringVar(&opts.outPath, "out", "", "Write the capture to a .png or .bmp file")
	cmd.Flags().BoolVar(&opts.runOCR, "ocr", false, "Recognize text in the capture and print it")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().StringVar(&opts.engine, "engine", "", "Recognition engine: llm or tesseract")
	cmd.Flags().StringVar(&opts.envFile, "env-file", "", "Path to the .env file")
	cmd.Flags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	return cmd
}

func runWithOptions(ctx context.Context, opts cliOptions, stdout io.Writer) error {
	if !opts.verbose {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(os.Stderr)
	}
	if opts.outPath == "" && !opts.runOCR {
		return errors.New("nothing to do: pass --out and/or --ocr")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	snap := screenshot.New(nil)
	var region screenshot.Region
	if opts.rect != "" {
		r, err := parseRect(opts.rect)
		if err != nil {
			return err
		}
		region = r
	} else {
		bounds, err := snap.ScreenBounds()
		if err != nil {
			return err
		}
		region = screenshot.RegionFromRect(bounds)
	}

	started := time.Now()
	captured, err := snap.CaptureRegion(region)
	if err != nil {
		return err
	}
	img, err := pixelformat.Convert(captured)
	if err != nil {
		return err
	}
	log.Printf("CAPTURE: %dx%d at (%d,%d) in %v", region.Width, region.Height, region.X, region.Y, time.Since(started))

	if opts.outPath != "" {
		if err := writeImage(opts.outPath, img); err != nil {
			return err
		}
	}
	if !opts.runOCR {
		return nil
	}

	cfg, err := config.LoadWithOptions(config.LoadOptions{
		EnvFile:            opts.envFile,
		APIKeyPathOverride: opts.apiKeyPath,
		EngineOverride:     opts.engine,
	})
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	recognizer, err := ocr.New(ctx, ocr.Options{
		Engine:         cfg.Engine,
		Language:       cfg.TesseractLanguage,
		TessdataPrefix: cfg.TessdataPrefix,
		LLM:            llm.Config{APIKey: cfg.APIKey, Model: cfg.Model, Providers: cfg.Providers},
		SkipPing:       true,
	})
	if err != nil {
		return err
	}
	defer recognizer.Close()

	rctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.OCRDeadlineSec)*time.Second)
	defer cancel()
	ocrStart := time.Now()
	text, err := recognizer.Recognize(rctx, img)
	if err != nil {
		return fmt.Errorf("OCR failed: %w", err)
	}
	return outputResult(stdout, Result{
		Text:      text,
		Engine:    cfg.Engine,
		Region:    region,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Duration:  time.Since(ocrStart).Seconds(),
		CharCount: len(text),
	}, opts.jsonOutput)
}

// parseRect reads "x,y,w,h".
func parseRect(s string) (screenshot.Region, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return screenshot.Region{}, fmt.Errorf("invalid --rect %q: want x,y,w,h", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return screenshot.Region{}, fmt.Errorf("invalid --rect %q: %w", s, err)
		}
		v[i] = n
	}
	region := screenshot.Region{X: v[0], Y: v[1], Width: v[2], Height: v[3]}
	if region.Empty() {
		return screenshot.Region{}, fmt.Errorf("invalid --rect %q: %w", s, screenshot.ErrInvalidDimensions)
	}
	return region, nil
}

func writeImage(path string, img *pixelformat.CanonicalImage) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".png" && ext != ".bmp" {
		return fmt.Errorf("unsupported output format %q: use .png or .bmp", ext)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if ext == ".bmp" {
		err = bmp.Encode(f, img)
	} else {
		err = img.EncodePNG(f)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

type Result struct {
	Text      string            `json:"text"`
	Engine    string            `json:"engine"`
	Region    screenshot.Region `json:"region"`
	Timestamp string            `json:"timestamp"`
	Duration  float64           `json:"duration_seconds"`
	CharCount int               `json:"character_count"`
}

func outputResult(w io.Writer, result Result, jsonOutput bool) error {
	if !jsonOutput {
		_, err := fmt.Fprint(w, result.Text)
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}
