// Package dlib runs dlib in process through go-face. It needs the dlib libraries at build time.
package dlib

import (
	"context"
	"sync"

	"threadfinder/faces"
	"threadfinder/logger"

	"github.com/Kagami/go-face"
)

// go-face detects and describes in one go, results wait here between Detect and Encode
const cachedImages = 16

// Engine implements faces.Engine on top of a go-face recognizer
type Engine struct {
	recognizer *face.Recognizer
	cnn        bool
	// go-face recognizers are not safe for concurrent use
	mutex sync.Mutex
	cache *faces.ResultCache[[]face.Face]
}

func New(modelsDir string, cnn bool) (*Engine, error) {
	recognizer, err := face.NewRecognizer(modelsDir)
	if err != nil {
		return nil, err
	}
	return &Engine{
		recognizer: recognizer,
		cnn:        cnn,
		cache:      faces.NewResultCache[[]face.Face](cachedImages),
	}, nil
}

func (e *Engine) Name() string {
	if e.cnn {
		return "dlib-cnn"
	}
	return "dlib"
}

func (e *Engine) recognize(img *faces.Image) ([]face.Face, error) {
	data, err := img.JPEG()
	if err != nil {
		return nil, err
	}
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.cnn {
		return e.recognizer.RecognizeCNN(data)
	}
	return e.recognizer.Recognize(data)
}

func (e *Engine) Detect(ctx context.Context, img *faces.Image) (faces.BoxList, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := faces.ImageKey(img)
	found, ok := e.cache.Get(key)
	if !ok {
		var err error
		if found, err = e.recognize(img); err != nil {
			return nil, err
		}
		e.cache.Put(key, found)
	}
	boxes := make(faces.BoxList, 0, len(found))
	for i := range found {
		boxes = append(boxes, boxFromFace(&found[i]))
	}
	return boxes, nil
}

func (e *Engine) Encode(ctx context.Context, img *faces.Image, boxes faces.BoxList) (faces.EncodingList, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Encode is the last step for an image, so its entry is dropped here
	found, ok := e.cache.Take(faces.ImageKey(img))
	if !ok {
		var err error
		if found, err = e.recognize(img); err != nil {
			return nil, err
		}
	}
	byBox := make(map[faces.Box]face.Descriptor, len(found))
	for i := range found {
		byBox[boxFromFace(&found[i])] = found[i].Descriptor
	}
	result := make(faces.EncodingList, 0, len(boxes))
	for i, box := range boxes {
		desc, ok := byBox[box]
		if !ok {
			// There should be always a corresponding descriptor for each detected face
			logger.Log.WithFields(logger.Fields{"path": img.Path, "index": i, "box": box.ToJSONString()}).
				Warn("No descriptor for face location")
			break
		}
		enc := make(faces.Encoding, len(desc))
		for j, v := range desc {
			enc[j] = float64(v)
		}
		result = append(result, enc)
	}
	return result, nil
}

func (e *Engine) Close() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.recognizer.Close()
	return nil
}

func boxFromFace(f *face.Face) faces.Box {
	return faces.NewBox(f.Rectangle.Min.Y, f.Rectangle.Max.X, f.Rectangle.Max.Y, f.Rectangle.Min.X)
}
