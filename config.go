package tilefix

import (
	"fmt"
	"io/ioutil"

	"github.com/go-yaml/yaml"
	"github.com/mitchellh/go-homedir"
)

// Config holds the geometry of a source tileset.
type Config struct {
	// in pixels
	TileWidth  int `yaml:"tile_width"`
	TileHeight int `yaml:"tile_height"`

	// blank border around the whole tile grid, in pixels
	Margin int `yaml:"margin"`

	// gap between adjacent tiles, in pixels
	Spacing int `yaml:"spacing"`
}

// DefaultConfig returns a config with default settings.
// Margin & spacing default to 0, tile sizes must be supplied.
func DefaultConfig() *Config {
	return &Config{}
}

// Validate returns ErrDegenerateGeometry if the config cannot describe a
// tile grid. Zero sized tiles would never let the grid count terminate.
func (c *Config) Validate() error {
	if c.TileWidth <= 0 || c.TileHeight <= 0 {
		return fmt.Errorf("%w: tile size must be at least 1x1, got %dx%d", ErrDegenerateGeometry, c.TileWidth, c.TileHeight)
	}
	if c.Margin < 0 {
		return fmt.Errorf("%w: margin must not be negative, got %d", ErrDegenerateGeometry, c.Margin)
	}
	if c.Spacing < 0 {
		return fmt.Errorf("%w: spacing must not be negative, got %d", ErrDegenerateGeometry, c.Spacing)
	}
	return nil
}

// Fixed returns the geometry of the padded tileset produced from a tileset
// with this geometry. Every tile gains a 1px halo, so the first tile moves in
// by one pixel and neighbouring tiles move apart by two.
func (c *Config) Fixed() *Config {
	return &Config{
		TileWidth:  c.TileWidth,
		TileHeight: c.TileHeight,
		Margin:     c.Margin + 1,
		Spacing:    c.Spacing + 2,
	}
}

// Merge copies any non zero values from `o` into this config
func (c *Config) Merge(o *Config) *Config {
	if o == nil {
		return c
	}
	if o.TileWidth != 0 {
		c.TileWidth = o.TileWidth
	}
	if o.TileHeight != 0 {
		c.TileHeight = o.TileHeight
	}
	if o.Margin != 0 {
		c.Margin = o.Margin
	}
	if o.Spacing != 0 {
		c.Spacing = o.Spacing
	}
	return c
}

func (c *Config) String() string {
	return fmt.Sprintf("tile=%dx%d margin=%d spacing=%d", c.TileWidth, c.TileHeight, c.Margin, c.Spacing)
}

// Profile is a YAML file of tileset geometry, so a project can keep the
// settings of its tilesets next to them.
//
//	tile_width: 16
//	tile_height: 16
//	margin: 1
//	spacing: 2
type Profile struct {
	Config `yaml:",inline"`

	// Output directory for fixed images, relative to the working dir.
	OutDir string `yaml:"out_dir"`
}

// DecodeProfile parses YAML profile data.
func DecodeProfile(data []byte) (*Profile, error) {
	p := &Profile{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("%w: bad profile: %v", ErrInvalidArguments, err)
	}
	return p, nil
}

// OpenProfile reads a YAML profile from disk. A leading ~ is expanded.
func OpenProfile(fname string) (*Profile, error) {
	fpath, err := homedir.Expand(fname)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	data, err := ioutil.ReadFile(fpath)
	if err != nil {
		return nil, fmt.Errorf("%w: profile %s: %v", ErrInvalidArguments, fpath, err)
	}
	return DecodeProfile(data)
}
