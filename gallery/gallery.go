// Package gallery holds the known identities faces are matched against.
// A Gallery is built once by Load and is read-only afterwards, so it can be shared by any number of requests.
package gallery

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"threadfinder/faces"
	"threadfinder/logger"
)

const UnknownName = "Unknown"

var ValidImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".webp"}

// Identity is a known person and the encoding of their reference photo
type Identity struct {
	Name     string
	Encoding faces.Encoding
}

type Gallery struct {
	identities []Identity
	encodings  faces.EncodingList
}

type Options struct {
	// MaxDimension thumbnails bigger reference photos before encoding, 0 disables it
	MaxDimension uint
	// TmpDir is where thumbnails are written
	TmpDir string
	// Progress is called for every reference photo before it is processed
	Progress func(path string)
}

func New(identities ...Identity) *Gallery {
	g := &Gallery{}
	for _, id := range identities {
		g.add(id.Name, id.Encoding)
	}
	return g
}

// add keeps its own copy of enc, the gallery never shares encodings with callers
func (g *Gallery) add(name string, enc faces.Encoding) {
	enc = slices.Clone(enc)
	g.identities = append(g.identities, Identity{Name: name, Encoding: enc})
	g.encodings = append(g.encodings, enc)
}

func (g *Gallery) Len() int {
	return len(g.identities)
}

// Identity returns a copy of the i-th identity
func (g *Gallery) Identity(i int) Identity {
	id := g.identities[i]
	id.Encoding = slices.Clone(id.Encoding)
	return id
}

func (g *Gallery) Names() []string {
	result := make([]string, 0, len(g.identities))
	for _, id := range g.identities {
		result = append(result, id.Name)
	}
	return result
}

// Match returns the name of the closest identity, but only if that closest one is within tolerance.
// When another identity is within tolerance while the overall closest is not, the result is still UnknownName.
func (g *Gallery) Match(enc faces.Encoding, tolerance float64) (name string, distance float64, ok bool) {
	if g == nil || len(g.identities) == 0 {
		return UnknownName, 0, false
	}
	matches, distances := faces.Compare(g.encodings, enc, tolerance)
	anyMatch := false
	for _, m := range matches {
		if m {
			anyMatch = true
			break
		}
	}
	if !anyMatch {
		return UnknownName, 0, false
	}
	best := faces.ArgMin(distances)
	if !matches[best] {
		return UnknownName, distances[best], false
	}
	return g.identities[best].Name, distances[best], true
}

func IsValidImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, valid := range ValidImageExtensions {
		if ext == valid {
			return true
		}
	}
	return false
}

// NameFromPath turns "some/dir/John_Smith.jpg" into "John Smith"
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.ReplaceAll(strings.TrimSuffix(base, filepath.Ext(base)), "_", " ")
}

// Load walks rootDir and adds one identity for every reference photo that has at least one face.
// It never fails, a missing directory or broken photos just result in a smaller gallery.
func Load(ctx context.Context, rootDir string, engine faces.Engine, opts Options) *Gallery {
	g := &Gallery{}
	log := logger.Log.WithField("dir", rootDir)
	log.Info("Loading known faces...")

	info, err := os.Stat(rootDir)
	if err != nil || !info.IsDir() {
		log.Warn("Known faces path not found or is not a directory")
		return g
	}

	err = filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			logger.Log.WithField("path", path).Warnf("Cannot read: %v", err)
			if d != nil && d.IsDir() && path != rootDir {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsValidImage(path) {
			return nil
		}
		if opts.Progress != nil {
			opts.Progress(path)
		}
		name := NameFromPath(path)
		enc, err := encodeReference(ctx, path, engine, opts)
		if err != nil {
			logger.Log.WithFields(logger.Fields{"path": path, "name": name}).
				Warnf("Could not load/process reference image: %v", err)
			return nil
		}
		if enc == nil {
			logger.Log.WithFields(logger.Fields{"path": path, "name": name}).Debug("No face found in reference image, skipping")
			return nil
		}
		g.add(name, enc)
		return nil
	})
	if err != nil {
		log.Warnf("Loading known faces interrupted: %v", err)
	}

	if g.Len() == 0 {
		log.Warn("No known faces were loaded, every face will be reported as Unknown")
	} else {
		log.WithField("count", g.Len()).Info("Known face encodings loaded")
	}
	return g
}

// encodeReference returns the first encoding found in the photo, nil if there are no faces
func encodeReference(ctx context.Context, path string, engine faces.Engine, opts Options) (faces.Encoding, error) {
	img, err := faces.LoadImage(path)
	if err != nil {
		return nil, err
	}
	img, clean, err := img.Thumbnail(opts.MaxDimension, opts.TmpDir)
	if err != nil {
		return nil, err
	}
	defer clean()

	boxes, err := engine.Detect(ctx, img)
	if err != nil || len(boxes) == 0 {
		return nil, err
	}
	encodings, err := engine.Encode(ctx, img, boxes)
	if err != nil || len(encodings) == 0 {
		return nil, err
	}
	return encodings[0], nil
}
