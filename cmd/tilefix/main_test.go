package main

import (
	"bytes"
	"image"
	"image/color"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voidshard/tilefix"
)

// writeTestTileset saves a w x h tileset png into dir
func writeTestTileset(t *testing.T, dir, name string, w, h int) string {
	im := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			im.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 1, A: 255})
		}
	}
	fname := filepath.Join(dir, name)
	_, err := tilefix.WritePNG(fname, im)
	require.Nil(t, err)
	return fname
}

func execute(args ...string) (int, string, string) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	code := run(args, stdout, stderr)
	return code, stdout.String(), stderr.String()
}

func TestUsage(t *testing.T) {
	code, stdout, _ := execute("-u")

	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "--tile-width")
	assert.Contains(t, stdout, "--spacing")
}

func TestMissingArguments(t *testing.T) {
	code, stdout, stderr := execute("-w", "16", "-h", "16")

	assert.Equal(t, exitBadArgs, code)
	assert.Contains(t, stderr, "invalid arguments")
	assert.Contains(t, stdout, "--file")
}

func TestMissingTileSize(t *testing.T) {
	src := writeTestTileset(t, t.TempDir(), "tiles.png", 32, 32)

	code, _, _ := execute("-f", src, "-w", "16")

	assert.Equal(t, exitBadArgs, code)
}

func TestNotAnInteger(t *testing.T) {
	code, _, _ := execute("-f", "tiles.png", "-w", "sixteen", "-h", "16")

	assert.Equal(t, exitBadArgs, code)
}

func TestSourceNotFound(t *testing.T) {
	dir := t.TempDir()

	code, _, _ := execute("-f", filepath.Join(dir, "nope.png"), "-w", "16", "-h", "16")

	assert.Equal(t, exitFailed, code)
	_, err := os.Stat(filepath.Join(dir, "fixed_nope.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestZeroTileWidth(t *testing.T) {
	src := writeTestTileset(t, t.TempDir(), "tiles.png", 32, 32)

	code, _, _ := execute("-f", src, "-w", "0", "-h", "16")

	assert.Equal(t, exitFailed, code)
}

func TestFix(t *testing.T) {
	dir := t.TempDir()
	src := writeTestTileset(t, dir, "tiles.png", 34, 16)

	code, stdout, _ := execute("-f", src, "-w", "16", "-h", "16", "-s", "2")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "xx\n", stdout)

	im, err := tilefix.ReadImage(filepath.Join(dir, "fixed_tiles.png"))
	require.Nil(t, err)
	assert.Equal(t, image.Rect(0, 0, 38, 18), im.Bounds())
}

func TestFixOutputQuiet(t *testing.T) {
	dir := t.TempDir()
	src := writeTestTileset(t, dir, "tiles.png", 64, 64)
	out := filepath.Join(dir, "out.png")

	code, stdout, _ := execute("--file", src, "--out", out, "-w", "16", "-h", "16", "-q")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "", stdout)

	im, err := tilefix.ReadImage(out)
	require.Nil(t, err)
	assert.Equal(t, image.Rect(0, 0, 72, 72), im.Bounds())
}

func TestFixProfile(t *testing.T) {
	dir := t.TempDir()
	src := writeTestTileset(t, dir, "tiles.png", 32, 32)
	profile := filepath.Join(dir, "tilefix.yaml")
	require.Nil(t, ioutil.WriteFile(profile, []byte("tile_width: 8\ntile_height: 8\nmargin: 2\nspacing: 2\n"), 0644))

	code, stdout, _ := execute("-f", src, "--config", profile)
	require.Equal(t, exitOK, code)
	assert.Equal(t, "xxx\nxxx\nxxx\n", stdout)

	// explicit flags win over the profile
	out := filepath.Join(dir, "flags.png")
	code, stdout, _ = execute("-f", src, "-o", out, "--config", profile, "-w", "16", "-h", "16", "-m", "0", "-s", "0")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "xx\nxx\n", stdout)
}

func TestFixTsx(t *testing.T) {
	dir := t.TempDir()
	writeTestTileset(t, dir, "terrain.png", 36, 36)
	tsx := filepath.Join(dir, "terrain.tsx")
	require.Nil(t, ioutil.WriteFile(tsx, []byte(`<?xml version="1.0" encoding="UTF-8"?>
<tileset version="1.10" name="terrain" tilewidth="16" tileheight="16" spacing="2" margin="1" tilecount="4" columns="2">
 <image source="terrain.png" width="36" height="36"/>
</tileset>
`), 0644))

	code, stdout, _ := execute("--tsx", tsx)
	require.Equal(t, exitOK, code)
	assert.Equal(t, "xx\nxx\n", stdout)

	fixed, err := tilefix.OpenTileset(filepath.Join(dir, "fixed_terrain.tsx"))
	require.Nil(t, err)
	assert.True(t, fixed.Padded())
	assert.Equal(t, 2, fixed.Margin)
	assert.Equal(t, 4, fixed.Spacing)
	assert.Equal(t, "fixed_terrain.png", fixed.Image.Source)
	assert.Equal(t, 40, fixed.Image.Width)

	// padding our own output again is refused
	code, _, _ = execute("--tsx", filepath.Join(dir, "fixed_terrain.tsx"))
	assert.Equal(t, exitFailed, code)

	code, _, _ = execute("--tsx", filepath.Join(dir, "fixed_terrain.tsx"), "--force", "-q")
	assert.Equal(t, exitOK, code)
}

func TestFixTsxOverridesProfile(t *testing.T) {
	dir := t.TempDir()
	outdir := filepath.Join(dir, "out")
	require.Nil(t, os.Mkdir(outdir, 0755))
	writeTestTileset(t, dir, "terrain.png", 32, 32)
	tsx := filepath.Join(dir, "terrain.tsx")
	require.Nil(t, ioutil.WriteFile(tsx, []byte(`<tileset name="terrain" tilewidth="16" tileheight="16" spacing="0" margin="0">
 <image source="terrain.png" width="32" height="32"/>
</tileset>
`), 0644))
	profile := filepath.Join(dir, "tilefix.yaml")
	require.Nil(t, ioutil.WriteFile(profile, []byte("tile_width: 8\ntile_height: 8\nout_dir: "+outdir+"\n"), 0644))

	// the tileset's geometry is used, the profile's out_dir still applies
	code, stdout, _ := execute("--tsx", tsx, "--config", profile)
	require.Equal(t, exitOK, code)
	assert.Equal(t, "xx\nxx\n", stdout)

	im, err := tilefix.ReadImage(filepath.Join(outdir, "fixed_terrain.png"))
	require.Nil(t, err)
	assert.Equal(t, image.Rect(0, 0, 36, 36), im.Bounds())
}

func TestFixFailureWritesNothing(t *testing.T) {
	dir := t.TempDir()
	writeTestTileset(t, dir, "terrain.png", 32, 32)
	tsx := filepath.Join(dir, "terrain.tsx")
	require.Nil(t, ioutil.WriteFile(tsx, []byte(`<tileset name="terrain" tilewidth="16" tileheight="16" spacing="0" margin="0">
 <image source="terrain.png" width="32" height="32"/>
</tileset>
`), 0644))

	code, _, _ := execute("--tsx", tsx, "--tsx-out", filepath.Join(dir, "missing", "terrain.tsx"), "-q")
	assert.Equal(t, exitFailed, code)
	_, err := os.Stat(filepath.Join(dir, "fixed_terrain.png"))
	assert.True(t, os.IsNotExist(err))

	code, _, _ = execute("--tsx", tsx, "--preview", filepath.Join(dir, "missing", "preview.png"), "-q")
	assert.Equal(t, exitFailed, code)
	_, err = os.Stat(filepath.Join(dir, "fixed_terrain.png"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "fixed_terrain.tsx"))
	assert.True(t, os.IsNotExist(err))
}

func TestFixLedger(t *testing.T) {
	dir := t.TempDir()
	src := writeTestTileset(t, dir, "tiles.png", 32, 32)
	ledger := filepath.Join(dir, "runs.sqlite")

	code, _, _ := execute("-f", src, "-w", "16", "-h", "16", "--ledger", ledger, "-q")
	require.Equal(t, exitOK, code)

	// the output is recognised as ours
	fixed := filepath.Join(dir, "fixed_tiles.png")
	code, _, _ = execute("-f", fixed, "-w", "16", "-h", "16", "--ledger", ledger, "-q")
	assert.Equal(t, exitFailed, code)

	l, err := tilefix.OpenLedger(ledger)
	require.Nil(t, err)
	defer l.Close()
	runs, err := l.Runs()
	require.Nil(t, err)
	assert.Equal(t, 1, len(runs))
}

func TestFixPreviewAndLogFile(t *testing.T) {
	dir := t.TempDir()
	src := writeTestTileset(t, dir, "tiles.png", 16, 16)
	preview := filepath.Join(dir, "preview.png")
	logfile := filepath.Join(dir, "tilefix.log")

	code, _, stderr := execute("-f", src, "-w", "8", "-h", "8", "--preview", preview, "--preview-scale", "2", "--log-file", logfile, "-q")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "", stderr)

	im, err := tilefix.ReadImage(preview)
	require.Nil(t, err)
	assert.Equal(t, image.Rect(0, 0, 40, 40), im.Bounds())

	logs, err := ioutil.ReadFile(logfile)
	require.Nil(t, err)
	assert.Contains(t, string(logs), `"msg":"saved"`)
}
