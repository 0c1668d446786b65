package faces

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Image is a decoded photo handed to an Engine
type Image struct {
	Path   string
	Format string // as reported by image.Decode, e.g. "jpeg", "png"
	Width  int
	Height int
	Pixels image.Image
}

// LoadImage fully decodes the image at path so broken files are caught before any detection
func LoadImage(path string) (*Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	pixels, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	size := pixels.Bounds().Size()
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoImage)
	}
	return &Image{
		Path:   path,
		Format: format,
		Width:  size.X,
		Height: size.Y,
		Pixels: pixels,
	}, nil
}

// JPEG returns the image as JPEG data, re-encoding it if the source is in another format
func (img *Image) JPEG() ([]byte, error) {
	if img.Format == "jpeg" && img.Path != "" {
		return os.ReadFile(img.Path)
	}
	if img.Pixels == nil {
		return nil, ErrNoImage
	}
	buf := bytes.Buffer{}
	if err := jpeg.Encode(&buf, img.Pixels, &jpeg.Options{Quality: 95}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Thumbnail returns a copy that fits in size x size, written as a temporary JPEG in dir.
// The returned clean function removes the temporary file. If the image already fits, img itself is returned.
func (img *Image) Thumbnail(size uint, dir string) (result *Image, clean func(), err error) {
	clean = func() {}
	if size == 0 || (img.Width <= int(size) && img.Height <= int(size)) {
		return img, clean, nil
	}
	if img.Pixels == nil {
		return nil, clean, ErrNoImage
	}
	thumb := resize.Thumbnail(size, size, img.Pixels, resize.Lanczos3)
	file, err := os.CreateTemp(dir, "thumb-*.jpg")
	if err != nil {
		return nil, clean, err
	}
	defer file.Close()
	clean = func() {
		_ = os.Remove(file.Name())
	}
	if err = jpeg.Encode(file, thumb, &jpeg.Options{Quality: 90}); err != nil {
		clean()
		return nil, func() {}, err
	}
	bounds := thumb.Bounds().Size()
	result = &Image{
		Path:   file.Name(),
		Format: "jpeg",
		Width:  bounds.X,
		Height: bounds.Y,
		Pixels: thumb,
	}
	return result, clean, nil
}
