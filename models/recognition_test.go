package models

import (
	"path/filepath"
	"testing"

	"threadfinder/config"
	"threadfinder/db"
	"threadfinder/processing"
)

func initTestDB(t *testing.T) {
	t.Helper()
	if err := db.Init("", filepath.Join(t.TempDir(), "test.db")); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Instance = nil })
	if err := Init(); err != nil {
		t.Fatal(err)
	}
}

func TestRecognition_SaveAndList(t *testing.T) {
	initTestDB(t)
	cfg := config.RequestConfig{Tolerance: 0.5, MinFaceWidthPercentage: 1, MinFaceHeightPercentage: 2, MaxFaces: 3}

	first := NewRecognition("a.jpg", "holiday.jpg", cfg, &processing.Result{
		Annotations: []processing.Annotation{
			{ID: "face-0", Name: "Alice", Box: processing.Rect{Left: 1, Top: 2, Width: 3, Height: 4}},
			{ID: "face-2", Name: "Unknown", Box: processing.Rect{Left: 5, Top: 6, Width: 7, Height: 8}},
		},
		Message:    "Processed 2 face(s).",
		Candidates: 3,
	})
	if err := first.Save(); err != nil {
		t.Fatal(err)
	}
	second := NewRecognition("b.jpg", "broken.jpg", cfg, &processing.Result{Error: "Failed to load image: x"})
	if err := second.Save(); err != nil {
		t.Fatal(err)
	}

	list, err := RecentRecognitions(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("RecentRecognitions() returned %d rows, want 2", len(list))
	}
	if list[0].FileName != "b.jpg" || list[0].Error == "" || len(list[0].Faces) != 0 {
		t.Errorf("latest recognition = %+v", list[0])
	}
	got := list[1]
	if got.OriginalFileName != "holiday.jpg" || got.Candidates != 3 || got.MaxFaces != 3 || len(got.Faces) != 2 {
		t.Fatalf("first recognition = %+v", got)
	}
	if got.Faces[0].FaceID != "face-0" || got.Faces[0].Name != "Alice" || got.Faces[1].Left != 5 {
		t.Errorf("faces = %+v", got.Faces)
	}

	if list, err = RecentRecognitions(1); err != nil || len(list) != 1 {
		t.Errorf("RecentRecognitions(1) = %d rows, %v", len(list), err)
	}
}

func TestInit_Disabled(t *testing.T) {
	db.Instance = nil
	if err := Init(); err != nil {
		t.Errorf("Init() without a database = %v", err)
	}
}
