package main

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/voidshard/tilefix"
)

const desc = `Fixes tilesets for tile-map rendering by giving every tile a 1px border of its own edge pixels.

Renderers that filter textures bleed neighbouring tiles into each other at tile edges. The fixed
tileset is bigger: each tile gains 2px of width & height, the first tile moves in by 1px and tiles
move apart by 2px, so use margin+1 & spacing+2 for the fixed image (--tsx does this for you).`

// Exit codes
const (
	exitOK      = 0
	exitFailed  = 1
	exitBadArgs = 2
)

type cli struct {
	File string `short:"f" help:"Filename of the tileset to fix."`
	Out  string `short:"o" help:"Filename of the fixed tileset. Defaults to fixed_<file> next to the input."`

	TileWidth  int `short:"w" help:"Width of a tile in px."`
	TileHeight int `short:"h" help:"Height of a tile in px."`
	Margin     int `short:"m" default:"0" help:"Margin of the existing tileset."`
	Spacing    int `short:"s" default:"0" help:"Spacing of the existing tileset."`

	Usage bool `short:"u" help:"Print this help and exit."`

	Tsx    string `help:"Read geometry & image from a Tiled .tsx tileset and write a fixed copy of it."`
	TsxOut string `help:"Filename of the fixed .tsx. Defaults to fixed_<tsx> next to the input."`

	Config string `help:"YAML profile with tileset geometry. Flags given explicitly win."`
	Ledger string `help:"sqlite file journaling runs. Refuses to pad our own output again."`
	Force  bool   `help:"Pad even if the input looks already padded."`

	Preview      string `help:"Also write a magnified preview with the tile grid drawn over it."`
	PreviewScale int    `default:"4" help:"Magnification of the preview."`

	Quiet    bool   `short:"q" help:"Don't print progress."`
	LogLevel string `default:"INFO" help:"Log level (DEBUG, INFO, WARN, ERROR)."`
	LogFile  string `help:"Write logs to this file (rotated) rather than stderr."`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run the tool with the given args, returning the exit code
func run(args []string, stdout, stderr io.Writer) int {
	c := &cli{}
	parser, err := kong.New(
		c,
		kong.Name("tilefix"),
		kong.Description(desc),
		kong.NoDefaultHelp(),
		kong.Writers(stdout, stderr),
	)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailed
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		var perr *kong.ParseError
		if errors.As(err, &perr) && perr.Context != nil {
			perr.Context.PrintUsage(false)
		}
		return exitBadArgs
	}

	if c.Usage {
		kctx.PrintUsage(false)
		return exitOK
	}

	log, closer := newLogger(c.LogLevel, c.LogFile, stderr)
	defer closer.Close()

	err = fix(c, explicitFlags(kctx), log, stdout)
	if err == nil {
		return exitOK
	}

	log.Error("failed to fix tileset", "error", err)
	if errors.Is(err, tilefix.ErrInvalidArguments) {
		fmt.Fprintln(stderr, err)
		kctx.PrintUsage(false)
		return exitBadArgs
	}
	return exitFailed
}

// explicitFlags returns the names of flags given on the command line
func explicitFlags(kctx *kong.Context) map[string]bool {
	set := map[string]bool{}
	for _, p := range kctx.Path {
		if p.Flag != nil {
			set[p.Flag.Name] = true
		}
	}
	return set
}

// newLogger builds the logger for a run. Logs go to stderr unless a log
// file is given, which is rotated by lumberjack.
func newLogger(level, logfile string, stderr io.Writer) (*slog.Logger, io.Closer) {
	var lvl slog.Level
	lvlErr := lvl.UnmarshalText([]byte(strings.ToUpper(level)))
	if lvlErr != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var log *slog.Logger
	var closer io.Closer = io.NopCloser(nil)
	if logfile != "" {
		lj := &lumberjack.Logger{
			Filename:   logfile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
		}
		closer = lj
		log = slog.New(slog.NewJSONHandler(lj, opts))
	} else {
		log = slog.New(slog.NewTextHandler(stderr, opts))
	}

	if lvlErr != nil {
		log.Warn("invalid log level, defaulting to INFO", "level", level)
	}
	return log, closer
}

// fix works out what to do from the cli & does it
func fix(c *cli, explicit map[string]bool, log *slog.Logger, stdout io.Writer) error {
	geometry := tilefix.DefaultConfig()
	outdir := ""
	source := c.File

	if c.Config != "" {
		profile, err := tilefix.OpenProfile(c.Config)
		if err != nil {
			return err
		}
		geometry.Merge(&profile.Config)
		outdir = profile.OutDir
		log.Debug("read profile", "path", c.Config, "geometry", geometry.String())
	}

	var tileset *tilefix.Tileset
	if c.Tsx != "" {
		var err error
		tileset, err = tilefix.OpenTileset(c.Tsx)
		if err != nil {
			return err
		}
		if tileset.Padded() && !c.Force {
			return fmt.Errorf("%w: tileset %s was written by tilefix, use --force to pad it again", tilefix.ErrAlreadyPadded, c.Tsx)
		}
		if c.Config != "" {
			log.Debug("tileset geometry replaces profile geometry", "profile", geometry.String())
		}
		geometry = tileset.Config()
		if source == "" {
			source, err = tileset.ImagePath()
			if err != nil {
				return err
			}
		}
		log.Debug("read tileset", "path", c.Tsx, "geometry", geometry.String())
	}

	if explicit["tile-width"] {
		geometry.TileWidth = c.TileWidth
	}
	if explicit["tile-height"] {
		geometry.TileHeight = c.TileHeight
	}
	if explicit["margin"] {
		geometry.Margin = c.Margin
	}
	if explicit["spacing"] {
		geometry.Spacing = c.Spacing
	}

	if source == "" {
		return fmt.Errorf("%w: no tileset given (-f or --tsx)", tilefix.ErrInvalidArguments)
	}
	if geometry.TileWidth == 0 && !explicit["tile-width"] {
		return fmt.Errorf("%w: tile width is required (-w)", tilefix.ErrInvalidArguments)
	}
	if geometry.TileHeight == 0 && !explicit["tile-height"] {
		return fmt.Errorf("%w: tile height is required (-h)", tilefix.ErrInvalidArguments)
	}
	if err := geometry.Validate(); err != nil {
		return err
	}

	out := c.Out
	if out == "" {
		out = tilefix.OutputPath(source)
		if outdir != "" {
			out = filepath.Join(outdir, filepath.Base(out))
		}
	}

	img, imgdata, err := tilefix.LoadImage(source)
	if err != nil {
		return err
	}

	var ledger *tilefix.Ledger
	if c.Ledger != "" {
		ledger, err = tilefix.OpenLedger(c.Ledger)
		if err != nil {
			return err
		}
		defer ledger.Close()

		if !c.Force {
			if err := ledger.Check(imgdata); err != nil {
				return err
			}
		}
	}

	plan, err := tilefix.NewPlan(img.Bounds(), geometry)
	if err != nil {
		return err
	}
	if plan.Clipped() {
		log.Warn("tile grid runs past the image, missing pixels will be transparent",
			"image", img.Bounds().Size().String(),
			"geometry", geometry.String(),
		)
	}

	log.Info("fixing",
		"source", source,
		"geometry", geometry.String(),
		"columns", plan.Columns,
		"rows", plan.Rows,
	)

	var progress tilefix.Progress
	if !c.Quiet {
		progress = tilefix.NewMarkers(stdout)
	}
	padded := plan.Apply(img, progress)

	outdata, err := tilefix.EncodePNG(padded)
	if err != nil {
		return err
	}
	files := &tilefix.Outputs{}
	files.Add(out, outdata)

	if tileset != nil {
		tsxout, tsxdata, err := fixTileset(tileset, c, out, padded.Bounds())
		if err != nil {
			return err
		}
		files.Add(tsxout, tsxdata)
	}

	if c.Preview != "" {
		data, err := tilefix.EncodePNG(tilefix.Preview(padded, plan, c.PreviewScale))
		if err != nil {
			return err
		}
		files.Add(c.Preview, data)
	}

	err = files.Commit()
	if err != nil {
		return err
	}
	log.Info("saved", "output", out, "size", padded.Bounds().Size().String())
	if c.Preview != "" {
		log.Info("saved preview", "output", c.Preview)
	}

	if ledger != nil {
		run := tilefix.NewRun(source, out, plan, imgdata, outdata)
		err = ledger.Record(run)
		if err != nil {
			files.Rollback()
			return err
		}
		log.Debug("recorded run", "id", run.ID, "ledger", ledger.Filename())
	}

	return nil
}

// fixTileset points the tileset at the fixed image, returning where the
// copy should be saved and its encoded form
func fixTileset(ts *tilefix.Tileset, c *cli, out string, bnds image.Rectangle) (string, []byte, error) {
	tsxout := c.TsxOut
	if tsxout == "" {
		tsxout = tilefix.OutputPath(c.Tsx)
	}

	dir, err := filepath.Abs(filepath.Dir(tsxout))
	if err != nil {
		return "", nil, err
	}
	absout, err := filepath.Abs(out)
	if err != nil {
		return "", nil, err
	}

	ts.Fixed(dir, absout, bnds.Dx(), bnds.Dy())
	data, err := ts.Bytes()
	return tsxout, data, err
}
