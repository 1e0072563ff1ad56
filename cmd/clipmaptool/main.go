// clipmaptool prepares heightmap textures for the clipmap terrain renderer.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Faultbox/clipmap-tools/internal/config"
	"github.com/Faultbox/clipmap-tools/internal/logger"
	"github.com/Faultbox/clipmap-tools/internal/pipeline"
	"github.com/Faultbox/clipmap-tools/pkg/formats"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "ktx":
		err = cmdKTX(args)
	case "horizon":
		err = cmdHorizon(args)
	case "info":
		err = cmdInfo(args)
	case "config":
		err = cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`clipmaptool - heightmap processing for the clipmap terrain renderer

Usage:
  clipmaptool <command> [options] <args>

Commands:
  ktx <heightmap> <width> <height>              Convert a heightmap to R16 KTX2
  horizon <heightmap> <width> <height> <coeffs> Bake a Fourier horizon map to KTX2
  info <file.ktx2>                              Show texture information
  config <file.yaml>                            Write the effective configuration

Heightmaps may be 16-bit PNG, TIFF, BMP or a Ragnarok Online .gat file.
A width and height of 0 keep the source size.

Options (ktx, horizon, config):
  -config <file>    Config file (default ./clipmaptool.yaml)
  -o <dir>          Output directory (default: next to the input)
  -azimuths <n>     Number of azimuths, must divide 360 (default 360)
  -workers <n>      Concurrent azimuth passes (default 8)
  -scratch <dir>    Scratch directory (default ./horizons)
  -keep             Keep per-azimuth scratch files
  -preview <dir>    Write PNG previews of each coefficient layer
  -debug            Enable debug logging
  -log <file>       Also write logs to file

Examples:
  clipmaptool ktx terrain.png 1024 1024
  clipmaptool horizon -workers 16 terrain.png 512 512 8
  clipmaptool info terrain_horizon_512x512_8.ktx2`)
}

// setup parses flags, loads configuration and starts logging.
func setup(name string, args []string, nargs int, usage string) (*config.Config, []string, error) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	fs.Parse(args)

	if fs.NArg() != nargs {
		fmt.Fprintln(os.Stderr, "Usage: clipmaptool "+usage)
		os.Exit(1)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return nil, nil, err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, nil, fmt.Errorf("initializing logger: %w", err)
	}
	return cfg, fs.Args(), nil
}

func parseDims(args ...string) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: %q", formats.ErrInvalidDimensions, a)
		}
		out[i] = n
	}
	return out, nil
}

// outputPath derives <base><suffix>.ktx2 from the input path, placed in
// dir when it is set.
func outputPath(input, dir, suffix string) (string, error) {
	base := strings.TrimSuffix(input, filepath.Ext(input)) + suffix + ".ktx2"
	if dir == "" {
		return base, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}
	return filepath.Join(dir, filepath.Base(base)), nil
}

func cmdKTX(args []string) error {
	cfg, rest, err := setup("ktx", args, 3, "ktx [options] <heightmap> <width> <height>")
	if err != nil {
		return err
	}
	dims, err := parseDims(rest[1], rest[2])
	if err != nil {
		return err
	}
	input, width, height := rest[0], dims[0], dims[1]

	logger.Info("Converting heightmap", zap.String("path", input), zap.Int("width", width), zap.Int("height", height))
	img, err := formats.LoadGray16(input, width, height)
	if err != nil {
		return err
	}

	b := img.Bounds()
	out, err := outputPath(input, cfg.Output.Dir, fmt.Sprintf("_%dx%d", b.Dx(), b.Dy()))
	if err != nil {
		return err
	}
	if err := formats.NewR16Texture(img).WriteFile(out); err != nil {
		return err
	}

	fmt.Println(out)
	return nil
}

func cmdHorizon(args []string) error {
	cfg, rest, err := setup("horizon", args, 4, "horizon [options] <heightmap> <width> <height> <coeffs>")
	if err != nil {
		return err
	}
	dims, err := parseDims(rest[1], rest[2], rest[3])
	if err != nil {
		return err
	}
	input, width, height, coeffs := rest[0], dims[0], dims[1], dims[2]

	hm, err := formats.LoadHeightmap(input, width, height)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := pipeline.OptionsFromConfig(cfg, coeffs)
	opts.PreviewPrefix = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	vol, err := pipeline.Bake(ctx, hm, opts)
	if err != nil {
		return err
	}

	out, err := outputPath(input, cfg.Output.Dir, fmt.Sprintf("_horizon_%dx%d_%d", hm.Width, hm.Height, coeffs))
	if err != nil {
		return err
	}
	tex := formats.NewR32ArrayTexture(vol)
	tex.KeyValues = map[string]string{
		"HorizonAzimuths":     strconv.Itoa(opts.Azimuths),
		"HorizonCoefficients": strconv.Itoa(coeffs),
	}
	if err := tex.WriteFile(out); err != nil {
		return err
	}

	logger.Info("Horizon map written", zap.String("path", out), zap.Int("coeffs", coeffs))
	fmt.Println(out)
	return nil
}

func cmdInfo(args []string) error {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: clipmaptool info <file.ktx2>")
		os.Exit(1)
	}

	tex, err := formats.ParseKTX2File(args[0])
	if err != nil {
		return err
	}

	p := message.NewPrinter(language.English)
	p.Printf("Texture: %s\n", args[0])
	p.Printf("Format:  %s\n", tex.Format)
	p.Printf("Size:    %dx%d\n", tex.Width, tex.Height)
	p.Printf("Layers:  %d\n", tex.Layers)
	p.Printf("Payload: %d bytes\n", len(tex.Data))

	if len(tex.KeyValues) > 0 {
		fmt.Println()
		fmt.Println("Metadata:")
		keys := make([]string, 0, len(tex.KeyValues))
		for k := range tex.KeyValues {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  %-20s %s\n", k, tex.KeyValues[k])
		}
	}

	fmt.Println()
	fmt.Println("Layer ranges:")
	for i := range tex.LayerCount() {
		f, err := tex.LayerField(i)
		if err != nil {
			return err
		}
		lo, hi := f.MinMax()
		fmt.Printf("  %3d  %12.6f  %12.6f\n", i, lo, hi)
	}
	return nil
}

func cmdConfig(args []string) error {
	cfg, rest, err := setup("config", args, 1, "config [options] <file.yaml>")
	if err != nil {
		return err
	}
	if err := cfg.SaveTo(rest[0]); err != nil {
		return err
	}
	fmt.Println(rest[0])
	return nil
}
