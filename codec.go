package tilefix

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// OutputPrefix is prepended to the source file name when no output is given
const OutputPrefix = "fixed_"

// Decode an image in any registered format (png, gif, jpeg, bmp, tiff, webp)
func Decode(in io.Reader) (image.Image, error) {
	im, _, err := image.Decode(in)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return im, nil
}

// ReadImage decodes the image at `fpath`. ErrSourceNotFound is returned
// before decoding is attempted if `fpath` isn't a regular file.
func ReadImage(fpath string) (image.Image, error) {
	im, _, err := LoadImage(fpath)
	return im, err
}

// LoadImage is ReadImage but also returns the raw file data.
func LoadImage(fpath string) (image.Image, []byte, error) {
	fpath, err := homedir.Expand(fpath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrSourceNotFound, err)
	}
	if !fileExists(fpath) {
		return nil, nil, fmt.Errorf("%w: not a file: %s", ErrSourceNotFound, fpath)
	}

	imgdata, err := ioutil.ReadFile(fpath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrSourceNotFound, err)
	}

	im, err := Decode(bytes.NewBuffer(imgdata))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", fpath, err)
	}
	return im, imgdata, nil
}

// EncodePNG returns `in` as PNG data
func EncodePNG(in image.Image) ([]byte, error) {
	buff := new(bytes.Buffer)
	err := png.Encode(buff, in)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return buff.Bytes(), nil
}

// WritePNG encodes `in` and saves it to `fpath`, returning the bytes written.
// Nothing is written if encoding fails.
func WritePNG(fpath string, in image.Image) ([]byte, error) {
	data, err := EncodePNG(in)
	if err != nil {
		return nil, err
	}
	if err := writeFile(fpath, data); err != nil {
		return nil, err
	}
	return data, nil
}

// writeFile saves data to disk, expanding ~
func writeFile(fpath string, data []byte) error {
	fpath, err := homedir.Expand(fpath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}
	if err := ioutil.WriteFile(fpath, data, 0644); err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return nil
}

// Outputs is a set of files that are written together. Nothing reaches the
// disk before Commit, and a failed Commit removes the files it already wrote.
type Outputs struct {
	pending []pendingFile
	written []string
}

type pendingFile struct {
	path string
	data []byte
}

// Add queues data to be saved at fpath
func (o *Outputs) Add(fpath string, data []byte) {
	o.pending = append(o.pending, pendingFile{path: fpath, data: data})
}

// Commit writes every queued file in the order they were added
func (o *Outputs) Commit() error {
	for _, f := range o.pending {
		fpath, err := homedir.Expand(f.path)
		if err != nil {
			o.Rollback()
			return fmt.Errorf("%w: %v", ErrEncode, err)
		}
		if err := ioutil.WriteFile(fpath, f.data, 0644); err != nil {
			o.Rollback()
			return fmt.Errorf("%w: %v", ErrEncode, err)
		}
		o.written = append(o.written, fpath)
	}
	o.pending = nil
	return nil
}

// Rollback removes every file written by Commit
func (o *Outputs) Rollback() {
	for _, fpath := range o.written {
		os.Remove(fpath)
	}
	o.written = nil
}

// OutputPath returns the default output path for a source: the same
// directory with the file name prefixed by "fixed_".
func OutputPath(src string) string {
	dir, name := filepath.Split(src)
	return filepath.Join(dir, OutputPrefix+name)
}

// fileExists checks if a regular file exists
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
