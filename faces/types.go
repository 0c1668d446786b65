package faces

import (
	"context"
	"encoding/json"
	"errors"
)

const (
	IndexTop    = 0
	IndexRight  = 1
	IndexBottom = 2
	IndexLeft   = 3
)

var (
	ErrNoImage        = errors.New("no image")
	ErrEngineStopped  = errors.New("face engine stopped")
	ErrEngineResponse = errors.New("invalid face engine response")
)

type (
	// Box is a face bounding box in pixels: top, right, bottom, left (origin top-left)
	Box          [4]int
	BoxList      []Box
	Encoding     []float64
	EncodingList []Encoding
	// FaceDetectionResult is what the helper script returns
	FaceDetectionResult struct {
		Locations BoxList      `json:"locations"`
		Encodings EncodingList `json:"encodings"`
		Error     string       `json:"error"`
	}
)

// Engine is the face detection/encoding capability.
// Encode must return encodings positionally aligned with the boxes it was given.
type Engine interface {
	Name() string
	Detect(ctx context.Context, img *Image) (BoxList, error)
	Encode(ctx context.Context, img *Image, boxes BoxList) (EncodingList, error)
	Close() error
}

func NewBox(top, right, bottom, left int) Box {
	return Box{top, right, bottom, left}
}

func (b Box) Top() int    { return b[IndexTop] }
func (b Box) Right() int  { return b[IndexRight] }
func (b Box) Bottom() int { return b[IndexBottom] }
func (b Box) Left() int   { return b[IndexLeft] }

func (b Box) Width() int {
	return b[IndexRight] - b[IndexLeft]
}

func (b Box) Height() int {
	return b[IndexBottom] - b[IndexTop]
}

func (b Box) Area() int {
	return b.Width() * b.Height()
}

func (b *Box) ToJSONString() string {
	data, _ := json.Marshal(b)
	return string(data)
}
