/* this file is a simplified set of structs for reading & writing Tiled
external tileset (.tsx) files.

We only need the geometry & image of a tileset in order to pad it, so only
those are modelled. Anything else in the file (tiles, wangsets, grid ..)
is carried through untouched.
*/
package tilefix

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

const (
	// properties we set on tilesets we've padded
	PropPadded        = "tilefix.padded"
	PropSourceMargin  = "tilefix.margin"
	PropSourceSpacing = "tilefix.spacing"
)

// Tileset is a TSX file structure representing a whole tileset file.
type Tileset struct {
	XMLName      xml.Name    `xml:"tileset"`
	Version      string      `xml:"version,attr,omitempty"`
	TiledVersion string      `xml:"tiledversion,attr,omitempty"`
	Name         string      `xml:"name,attr"`
	TileWidth    int         `xml:"tilewidth,attr"`  // in pixels
	TileHeight   int         `xml:"tileheight,attr"` // in pixels
	Spacing      int         `xml:"spacing,attr,omitempty"`
	Margin       int         `xml:"margin,attr,omitempty"`
	TileCount    int         `xml:"tilecount,attr,omitempty"`
	Columns      int         `xml:"columns,attr,omitempty"`
	Attrs        []xml.Attr  `xml:",any,attr"`
	Properties   []*Property `xml:"properties>property,omitempty"`
	Image        *Image      `xml:"image"`
	Extra        []*element  `xml:",any"`

	// where we were read from, image sources are relative to this
	path string
}

// Property is a TSX file structure which holds a Tiled property.
type Property struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
	Type  string `xml:"type,attr,omitempty"` // string (default), int, bool + other (we don't use)
}

// Image is an image file in TSX
type Image struct {
	Source string `xml:"source,attr"`
	Trans  string `xml:"trans,attr,omitempty"`
	Width  int    `xml:"width,attr"`
	Height int    `xml:"height,attr"`
}

// element is any child element we don't model, kept as is
type element struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Inner   []byte     `xml:",innerxml"`
}

// Config returns the geometry of the tileset
func (t *Tileset) Config() *Config {
	return &Config{
		TileWidth:  t.TileWidth,
		TileHeight: t.TileHeight,
		Margin:     t.Margin,
		Spacing:    t.Spacing,
	}
}

// ImagePath returns the path of the tileset image. Relative sources are
// resolved against the directory of the .tsx file.
func (t *Tileset) ImagePath() (string, error) {
	if t.Image == nil || t.Image.Source == "" {
		return "", fmt.Errorf("%w: tileset %q has no image", ErrInvalidArguments, t.Name)
	}
	if filepath.IsAbs(t.Image.Source) || t.path == "" {
		return t.Image.Source, nil
	}
	return filepath.Join(filepath.Dir(t.path), filepath.FromSlash(t.Image.Source)), nil
}

// TilesetProperties returns properties set on the tileset itself
func (t *Tileset) TilesetProperties() *Properties {
	return newPropertiesFromList(t.Properties)
}

// SetTilesetProperties sets properties on the tileset
func (t *Tileset) SetTilesetProperties(in *Properties) {
	t.Properties = in.toList()
}

// Padded returns if tilefix wrote this tileset
func (t *Tileset) Padded() bool {
	v, _ := t.TilesetProperties().Bool(PropPadded)
	return v
}

// Fixed points the tileset at the padded image `out` of size (w, h) and
// updates the geometry to match. `out` is stored relative to `dir` (the
// directory the .tsx will be written to) where possible.
func (t *Tileset) Fixed(dir, out string, w, h int) {
	fixed := t.Config().Fixed()

	stamp := NewProperties()
	stamp.SetBool(PropPadded, true)
	stamp.SetInt(PropSourceMargin, t.Margin)
	stamp.SetInt(PropSourceSpacing, t.Spacing)
	t.SetTilesetProperties(t.TilesetProperties().Merge(stamp))

	t.Margin = fixed.Margin
	t.Spacing = fixed.Spacing

	src := out
	if rel, err := filepath.Rel(dir, out); err == nil {
		src = rel
	}
	if t.Image == nil {
		t.Image = &Image{}
	}
	t.Image.Source = filepath.ToSlash(src)
	t.Image.Width = w
	t.Image.Height = h
}

// Encode the tileset as XML to a io.Writer stream
func (t *Tileset) Encode(w io.Writer) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", " ")
	if err := enc.Encode(t); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// DecodeTileset reads an input TSX tileset XML
func DecodeTileset(r io.Reader) (*Tileset, error) {
	t := &Tileset{}
	if err := xml.NewDecoder(r).Decode(t); err != nil {
		return nil, fmt.Errorf("%w: bad tileset: %v", ErrDecode, err)
	}
	return t, nil
}

// OpenTileset reads a .tsx file from disk
func OpenTileset(fname string) (*Tileset, error) {
	fpath, err := homedir.Expand(fname)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceNotFound, err)
	}
	if !fileExists(fpath) {
		return nil, fmt.Errorf("%w: not a file: %s", ErrSourceNotFound, fpath)
	}

	f, err := os.Open(fpath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceNotFound, err)
	}
	defer f.Close()

	t, err := DecodeTileset(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fpath, err)
	}
	t.path = fpath
	return t, nil
}

// Bytes returns the tileset encoded as XML
func (t *Tileset) Bytes() ([]byte, error) {
	buff := bytes.Buffer{}
	if err := t.Encode(&buff); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return buff.Bytes(), nil
}

// WriteFile saves the tileset to disk
func (t *Tileset) WriteFile(fname string) error {
	data, err := t.Bytes()
	if err != nil {
		return err
	}
	return writeFile(fname, data)
}
