// Package facestest provides a scripted faces.Engine and image fixtures for tests
package facestest

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"threadfinder/faces"
)

// Face is what the fake engine "sees" in an image
type Face struct {
	Box      faces.Box
	Encoding faces.Encoding
}

// Engine returns scripted results keyed by image file name (base name)
type Engine struct {
	Faces map[string][]Face
	// Default is used for images not listed in Faces
	Default []Face
	// Short drops this many encodings from the end of every Encode result
	Short     int
	DetectErr error
	EncodeErr error

	mutex       sync.Mutex
	EncodeCalls []faces.BoxList
}

func (e *Engine) Name() string { return "fake" }

func (e *Engine) Detect(ctx context.Context, img *faces.Image) (faces.BoxList, error) {
	if e.DetectErr != nil {
		return nil, e.DetectErr
	}
	boxes := faces.BoxList{}
	for _, f := range e.found(img) {
		boxes = append(boxes, f.Box)
	}
	return boxes, nil
}

func (e *Engine) Encode(ctx context.Context, img *faces.Image, boxes faces.BoxList) (faces.EncodingList, error) {
	e.mutex.Lock()
	e.EncodeCalls = append(e.EncodeCalls, boxes)
	e.mutex.Unlock()
	if e.EncodeErr != nil {
		return nil, e.EncodeErr
	}
	known := e.found(img)
	result := faces.EncodingList{}
	for _, box := range boxes {
		found := false
		for _, f := range known {
			if f.Box == box {
				result = append(result, f.Encoding)
				found = true
				break
			}
		}
		if !found {
			return nil, errors.New("unknown box")
		}
	}
	if e.Short > 0 {
		result = result[:max(0, len(result)-e.Short)]
	}
	return result, nil
}

func (e *Engine) Close() error { return nil }

func (e *Engine) found(img *faces.Image) []Face {
	if found, ok := e.Faces[filepath.Base(img.Path)]; ok {
		return found
	}
	return e.Default
}

// WritePNG creates a w x h PNG at path, creating parent directories
func WritePNG(t testing.TB, path string, w, h int) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.White)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err = png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}
