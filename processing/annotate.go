package processing

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"threadfinder/config"
	"threadfinder/faces"
	"threadfinder/gallery"
	"threadfinder/logger"
)

// Rect is the externally visible face box
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Annotation struct {
	ID   string `json:"id"` // "face-<original index>", stable whatever the filters are
	Name string `json:"name"`
	Box  Rect   `json:"box"`
}

type Result struct {
	Annotations []Annotation `json:"annotations"`
	Message     string       `json:"message"`
	Error       string       `json:"error,omitempty"`
	// Diagnostics
	Candidates   int `json:"-"` // faces detected
	SizeFiltered int `json:"-"` // faces left after the size filter
}

// DetectedFace ties a detected face to its position in the full detection list
type DetectedFace struct {
	Box           faces.Box
	Area          int
	Encoding      faces.Encoding
	OriginalIndex int
}

func FaceID(originalIndex int) string {
	return "face-" + strconv.Itoa(originalIndex)
}

func RectFrom(b faces.Box) Rect {
	return Rect{
		Left:   b.Left(),
		Top:    b.Top(),
		Width:  b.Width(),
		Height: b.Height(),
	}
}

// FilterBySize keeps the faces at least minWidthPct% of the image width AND minHeightPct% of its height
func FilterBySize(boxes faces.BoxList, imgWidth, imgHeight int, minWidthPct, minHeightPct float64) []DetectedFace {
	minWidth := float64(imgWidth) * (minWidthPct / 100)
	minHeight := float64(imgHeight) * (minHeightPct / 100)
	result := []DetectedFace{}
	for i, box := range boxes {
		if float64(box.Width()) < minWidth || float64(box.Height()) < minHeight {
			continue
		}
		result = append(result, DetectedFace{
			Box:           box,
			Area:          box.Area(),
			OriginalIndex: i,
		})
	}
	return result
}

// LimitLargest keeps the maxFaces biggest faces (by area), ties keep detection order.
// maxFaces <= 0 means no limit.
func LimitLargest(detected []DetectedFace, maxFaces int) []DetectedFace {
	if maxFaces <= 0 || len(detected) <= maxFaces {
		return detected
	}
	sorted := make([]DetectedFace, len(detected))
	copy(sorted, detected)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Area > sorted[j].Area
	})
	return sorted[:maxFaces]
}

// Annotate finds the faces in the image at imagePath and names the ones it can using g.
// Only a failure to load or process the image sets Result.Error.
func Annotate(ctx context.Context, imagePath string, g *gallery.Gallery, engine faces.Engine, cfg config.RequestConfig) Result {
	log := logger.Log.WithField("path", imagePath)
	result := Result{Annotations: []Annotation{}}
	cfg = cfg.Normalize()

	img, err := faces.LoadImage(imagePath)
	if err != nil {
		log.Errorf("Error loading target image: %v", err)
		result.Error = "Failed to load image: " + err.Error()
		return result
	}

	boxes, err := engine.Detect(ctx, img)
	if err != nil {
		log.Errorf("Error detecting faces: %v", err)
		result.Error = "Failed to detect faces: " + err.Error()
		return result
	}
	result.Candidates = len(boxes)
	log.Debugf("Initially found %d face(s)", len(boxes))

	survivors := FilterBySize(boxes, img.Width, img.Height, cfg.MinFaceWidthPercentage, cfg.MinFaceHeightPercentage)
	result.SizeFiltered = len(survivors)
	selected := LimitLargest(survivors, cfg.MaxFaces)
	if len(selected) == 0 {
		result.Message = fmt.Sprintf("No faces met the size criteria from %d initial candidates.", result.Candidates)
		return result
	}

	// Encodings are computed for the whole detection list so OriginalIndex points into it
	encodings, err := engine.Encode(ctx, img, boxes)
	if err != nil {
		log.Errorf("Error computing face encodings: %v", err)
		result.Error = "Failed to compute face encodings: " + err.Error()
		return result
	}

	for _, face := range selected {
		if face.OriginalIndex >= len(encodings) {
			log.WithFields(logger.Fields{"index": face.OriginalIndex, "encodings": len(encodings)}).
				Warn("Face location without encoding, skipping")
			continue
		}
		face.Encoding = encodings[face.OriginalIndex]
		name, _, _ := g.Match(face.Encoding, cfg.Tolerance)
		result.Annotations = append(result.Annotations, Annotation{
			ID:   FaceID(face.OriginalIndex),
			Name: name,
			Box:  RectFrom(face.Box),
		})
	}
	result.Message = buildMessage(&result, len(selected), cfg)
	log.Debug(result.Message)
	return result
}

func buildMessage(result *Result, selected int, cfg config.RequestConfig) string {
	msg := strings.Builder{}
	fmt.Fprintf(&msg, "Processed %d face(s).", len(result.Annotations))
	if removed := result.Candidates - result.SizeFiltered; removed > 0 {
		fmt.Fprintf(&msg, " %d of %d candidate(s) were smaller than %s%% width / %s%% height.",
			removed, result.Candidates, formatPct(cfg.MinFaceWidthPercentage), formatPct(cfg.MinFaceHeightPercentage))
	}
	if selected < result.SizeFiltered {
		fmt.Fprintf(&msg, " Limited to the %d largest of %d face(s).", cfg.MaxFaces, result.SizeFiltered)
	}
	if skipped := selected - len(result.Annotations); skipped > 0 {
		fmt.Fprintf(&msg, " %d face(s) skipped without encoding.", skipped)
	}
	return msg.String()
}

func formatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
