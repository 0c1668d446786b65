package main

import (
	"context"
	"fmt"

	"threadfinder/config"
	"threadfinder/faces"
	"threadfinder/faces/dlib"
	"threadfinder/gallery"
)

// newEngine creates the face engine selected by FACE_ENGINE
func newEngine(name string) (faces.Engine, error) {
	switch name {
	case "python":
		return faces.NewPythonEngine(config.FACE_SCRIPT, config.FACE_DETECT_CNN, config.FACE_WORKERS), nil
	case "dlib":
		engine, err := dlib.New(config.FACE_MODELS_DIR, config.FACE_DETECT_CNN)
		if err != nil {
			return nil, fmt.Errorf("loading dlib models from %s: %w", config.FACE_MODELS_DIR, err)
		}
		return engine, nil
	}
	return nil, fmt.Errorf("unknown face engine %q (use python or dlib)", name)
}

func loadGallery(ctx context.Context, engine faces.Engine, progress func(string)) *gallery.Gallery {
	maxDimension := uint(0)
	if config.GALLERY_MAX_DIMENSION > 0 {
		maxDimension = uint(config.GALLERY_MAX_DIMENSION)
	}
	return gallery.Load(ctx, config.KNOWN_FACES_DIR, engine, gallery.Options{
		MaxDimension: maxDimension,
		TmpDir:       config.TMP_DIR,
		Progress:     progress,
	})
}
