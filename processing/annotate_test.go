package processing

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"threadfinder/config"
	"threadfinder/faces"
	"threadfinder/faces/facestest"
	"threadfinder/gallery"
)

func square(top, left, size int) faces.Box {
	return faces.NewBox(top, left+size, top+size, left)
}

func testConfig(pct float64, maxFaces int) config.RequestConfig {
	return config.RequestConfig{
		Tolerance:               0.6,
		MinFaceWidthPercentage:  pct,
		MinFaceHeightPercentage: pct,
		MaxFaces:                maxFaces,
	}
}

// setup writes a 100x100 photo.png and scripts the engine with the given faces
func setup(t *testing.T, found ...facestest.Face) (string, *facestest.Engine) {
	t.Helper()
	path := facestest.WritePNG(t, filepath.Join(t.TempDir(), "photo.png"), 100, 100)
	return path, &facestest.Engine{Faces: map[string][]facestest.Face{"photo.png": found}}
}

func ids(annotations []Annotation) []string {
	result := []string{}
	for _, a := range annotations {
		result = append(result, a.ID)
	}
	return result
}

func TestAnnotate_NoFaces(t *testing.T) {
	path, engine := setup(t)
	result := Annotate(context.Background(), path, gallery.New(), engine, testConfig(0.5, 0))
	if result.Error != "" || result.Annotations == nil || len(result.Annotations) != 0 {
		t.Errorf("Annotate() = %+v, want empty annotations without error", result)
	}
	want := "No faces met the size criteria from 0 initial candidates."
	if result.Message != want {
		t.Errorf("Message = %q, want %q", result.Message, want)
	}
	if len(engine.EncodeCalls) != 0 {
		t.Errorf("Encode should not be called when nothing survives")
	}
}

func TestAnnotate_SizeFilterAndLimit(t *testing.T) {
	path, engine := setup(t,
		facestest.Face{Box: square(0, 0, 40), Encoding: faces.Encoding{0, 0}},
		facestest.Face{Box: square(50, 50, 15), Encoding: faces.Encoding{1, 1}},
		facestest.Face{Box: square(80, 80, 4), Encoding: faces.Encoding{2, 2}},
	)
	tests := []struct {
		name     string
		maxFaces int
		want     []string
		message  string
	}{
		{"no limit", 0, []string{"face-0", "face-1"},
			"Processed 2 face(s). 1 of 3 candidate(s) were smaller than 10% width / 10% height."},
		{"limit above survivors", 5, []string{"face-0", "face-1"},
			"Processed 2 face(s). 1 of 3 candidate(s) were smaller than 10% width / 10% height."},
		{"limit 1", 1, []string{"face-0"},
			"Processed 1 face(s). 1 of 3 candidate(s) were smaller than 10% width / 10% height. Limited to the 1 largest of 2 face(s)."},
		{"negative limit means none", -2, []string{"face-0", "face-1"},
			"Processed 2 face(s). 1 of 3 candidate(s) were smaller than 10% width / 10% height."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Annotate(context.Background(), path, gallery.New(), engine, testConfig(10, tt.maxFaces))
			if got := ids(result.Annotations); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ids = %v, want %v", got, tt.want)
			}
			if result.Message != tt.message {
				t.Errorf("Message = %q, want %q", result.Message, tt.message)
			}
			if result.Candidates != 3 || result.SizeFiltered != 2 {
				t.Errorf("Candidates = %d, SizeFiltered = %d", result.Candidates, result.SizeFiltered)
			}
		})
	}
}

func TestAnnotate_WidthAndHeightBothRequired(t *testing.T) {
	path, engine := setup(t,
		facestest.Face{Box: faces.NewBox(0, 30, 5, 0), Encoding: faces.Encoding{0}},   // wide but flat
		facestest.Face{Box: faces.NewBox(0, 5, 30, 0), Encoding: faces.Encoding{0}},   // tall but thin
		facestest.Face{Box: faces.NewBox(0, 40, 10, 30), Encoding: faces.Encoding{0}}, // exactly at the threshold
	)
	result := Annotate(context.Background(), path, gallery.New(), engine, testConfig(10, 0))
	if got := ids(result.Annotations); !reflect.DeepEqual(got, []string{"face-2"}) {
		t.Errorf("ids = %v, want [face-2]", got)
	}
}

func TestAnnotate_IDsAreStable(t *testing.T) {
	path, engine := setup(t,
		facestest.Face{Box: square(0, 0, 12), Encoding: faces.Encoding{0}},
		facestest.Face{Box: square(20, 20, 30), Encoding: faces.Encoding{0}},
		facestest.Face{Box: square(60, 60, 20), Encoding: faces.Encoding{0}},
	)
	all := Annotate(context.Background(), path, gallery.New(), engine, testConfig(0, 0))
	limited := Annotate(context.Background(), path, gallery.New(), engine, testConfig(15, 1))
	if got := ids(all.Annotations); !reflect.DeepEqual(got, []string{"face-0", "face-1", "face-2"}) {
		t.Errorf("ids without filters = %v", got)
	}
	if got := ids(limited.Annotations); !reflect.DeepEqual(got, []string{"face-1"}) {
		t.Errorf("ids with filters = %v, want [face-1]", got)
	}
	if limited.Annotations[0].Box != all.Annotations[1].Box {
		t.Errorf("box changed between configurations: %v vs %v", limited.Annotations[0].Box, all.Annotations[1].Box)
	}
	want := Rect{Left: 20, Top: 20, Width: 30, Height: 30}
	if limited.Annotations[0].Box != want {
		t.Errorf("Box = %+v, want %+v", limited.Annotations[0].Box, want)
	}
}

func TestAnnotate_LargestFirst(t *testing.T) {
	sizes := []int{11, 25, 18, 25, 30, 12}
	found := []facestest.Face{}
	for i, s := range sizes {
		found = append(found, facestest.Face{Box: square(i, i, s), Encoding: faces.Encoding{float64(i)}})
	}
	path, engine := setup(t, found...)
	result := Annotate(context.Background(), path, gallery.New(), engine, testConfig(0, 3))
	// 30 first, then the two 25s in detection order
	if got := ids(result.Annotations); !reflect.DeepEqual(got, []string{"face-4", "face-1", "face-3"}) {
		t.Errorf("ids = %v", got)
	}
	minKept := -1
	for _, a := range result.Annotations {
		if area := a.Box.Width * a.Box.Height; minKept < 0 || area < minKept {
			minKept = area
		}
	}
	for i, s := range sizes {
		if i == 4 || i == 1 || i == 3 {
			continue
		}
		if s*s > minKept {
			t.Errorf("excluded face-%d (area %d) is larger than a kept one (%d)", i, s*s, minKept)
		}
	}
}

func TestAnnotate_EncodesFullDetectionList(t *testing.T) {
	path, engine := setup(t,
		facestest.Face{Box: square(0, 0, 2), Encoding: faces.Encoding{0}},
		facestest.Face{Box: square(10, 10, 50), Encoding: faces.Encoding{1}},
	)
	Annotate(context.Background(), path, gallery.New(), engine, testConfig(10, 0))
	if len(engine.EncodeCalls) != 1 || len(engine.EncodeCalls[0]) != 2 {
		t.Errorf("Encode calls = %v, want one call with both boxes", engine.EncodeCalls)
	}
}

func TestAnnotate_Names(t *testing.T) {
	g := gallery.New(
		gallery.Identity{Name: "Alice", Encoding: faces.Encoding{0, 0}},
		gallery.Identity{Name: "Bob", Encoding: faces.Encoding{10, 10}},
	)
	path, engine := setup(t,
		facestest.Face{Box: square(0, 0, 30), Encoding: faces.Encoding{0.5, 0}},
		facestest.Face{Box: square(50, 50, 30), Encoding: faces.Encoding{10, 10.1}},
		facestest.Face{Box: square(50, 0, 30), Encoding: faces.Encoding{5, 5}},
	)
	tests := []struct {
		name      string
		gallery   *gallery.Gallery
		tolerance float64
		want      []string
	}{
		{"default tolerance", g, 0.6, []string{"Alice", "Bob", "Unknown"}},
		{"minimum outside tolerance", g, 0.4, []string{"Unknown", "Bob", "Unknown"}},
		{"empty gallery", gallery.New(), 0.6, []string{"Unknown", "Unknown", "Unknown"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(0, 0)
			cfg.Tolerance = tt.tolerance
			result := Annotate(context.Background(), path, tt.gallery, engine, cfg)
			names := []string{}
			for _, a := range result.Annotations {
				names = append(names, a.Name)
			}
			if !reflect.DeepEqual(names, tt.want) {
				t.Errorf("names = %v, want %v", names, tt.want)
			}
			again := Annotate(context.Background(), path, tt.gallery, engine, cfg)
			if !reflect.DeepEqual(result.Annotations, again.Annotations) {
				t.Errorf("results differ between identical runs")
			}
		})
	}
}

func TestAnnotate_LoadFailure(t *testing.T) {
	engine := &facestest.Engine{}
	result := Annotate(context.Background(), filepath.Join(t.TempDir(), "missing.png"), gallery.New(), engine, testConfig(0, 0))
	if !strings.HasPrefix(result.Error, "Failed to load image") {
		t.Errorf("Error = %q", result.Error)
	}
	if result.Annotations == nil || len(result.Annotations) != 0 {
		t.Errorf("Annotations = %v, want empty", result.Annotations)
	}
}

func TestAnnotate_EngineFailures(t *testing.T) {
	path, engine := setup(t, facestest.Face{Box: square(0, 0, 30), Encoding: faces.Encoding{0}})
	engine.DetectErr = errors.New("boom")
	if result := Annotate(context.Background(), path, gallery.New(), engine, testConfig(0, 0)); !strings.HasPrefix(result.Error, "Failed to detect faces") {
		t.Errorf("Error = %q", result.Error)
	}
	engine.DetectErr = nil
	engine.EncodeErr = errors.New("boom")
	if result := Annotate(context.Background(), path, gallery.New(), engine, testConfig(0, 0)); !strings.HasPrefix(result.Error, "Failed to compute face encodings") {
		t.Errorf("Error = %q", result.Error)
	}
}

func TestAnnotate_MissingEncodingIsSkipped(t *testing.T) {
	path, engine := setup(t,
		facestest.Face{Box: square(0, 0, 30), Encoding: faces.Encoding{0}},
		facestest.Face{Box: square(50, 50, 30), Encoding: faces.Encoding{0}},
	)
	engine.Short = 1
	result := Annotate(context.Background(), path, gallery.New(), engine, testConfig(0, 0))
	if result.Error != "" {
		t.Errorf("Error = %q, want none", result.Error)
	}
	if got := ids(result.Annotations); !reflect.DeepEqual(got, []string{"face-0"}) {
		t.Errorf("ids = %v, want [face-0]", got)
	}
	if !strings.Contains(result.Message, "1 face(s) skipped") {
		t.Errorf("Message = %q", result.Message)
	}
}

func TestLimitLargest(t *testing.T) {
	in := []DetectedFace{{Area: 5, OriginalIndex: 0}, {Area: 9, OriginalIndex: 1}, {Area: 7, OriginalIndex: 2}}
	got := LimitLargest(in, 2)
	if len(got) != 2 || got[0].OriginalIndex != 1 || got[1].OriginalIndex != 2 {
		t.Errorf("LimitLargest() = %+v", got)
	}
	if in[0].OriginalIndex != 0 || in[1].OriginalIndex != 1 {
		t.Errorf("LimitLargest() modified its input")
	}
	if got = LimitLargest(in, 0); len(got) != 3 {
		t.Errorf("LimitLargest(0) should not limit, got %d", len(got))
	}
}

func TestPool(t *testing.T) {
	path, engine := setup(t, facestest.Face{Box: square(0, 0, 30), Encoding: faces.Encoding{0, 0}})
	g := gallery.New(gallery.Identity{Name: "Alice", Encoding: faces.Encoding{0, 0}})
	pool := NewPool(g, engine, 1)

	result, err := pool.Annotate(context.Background(), path, testConfig(0, 0))
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Annotations) != 1 || result.Annotations[0].Name != "Alice" {
		t.Errorf("Annotate() = %+v", result)
	}

	// Hold the only slot, a canceled request must give up
	if err = pool.slots.Acquire(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	defer pool.slots.Release(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err = pool.Annotate(ctx, path, testConfig(0, 0)); !errors.Is(err, context.Canceled) {
		t.Errorf("Annotate() error = %v, want context.Canceled", err)
	}
}
