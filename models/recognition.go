package models

import (
	"threadfinder/config"
	"threadfinder/db"
	"threadfinder/processing"

	"gorm.io/gorm"
)

// Recognition is a processed upload, kept for the history view
type Recognition struct {
	ID               uint64           `gorm:"primaryKey" json:"id"`
	CreatedAt        int64            `gorm:"autoCreateTime;index" json:"created_at"`
	FileName         string           `gorm:"type:varchar(300)" json:"file_name"`
	OriginalFileName string           `gorm:"type:varchar(300)" json:"original_filename"`
	Tolerance        float64          `json:"tolerance"`
	MinWidthPct      float64          `json:"min_face_width_percentage"`
	MinHeightPct     float64          `json:"min_face_height_percentage"`
	MaxFaces         int              `json:"max_faces"`
	Candidates       int              `json:"candidates"`
	Message          string           `gorm:"type:varchar(1000)" json:"message"`
	Error            string           `gorm:"type:varchar(1000)" json:"error,omitempty"`
	Faces            []RecognizedFace `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"faces"`
}

func NewRecognition(fileName, originalFileName string, cfg config.RequestConfig, result *processing.Result) Recognition {
	r := Recognition{
		FileName:         fileName,
		OriginalFileName: originalFileName,
		Tolerance:        cfg.Tolerance,
		MinWidthPct:      cfg.MinFaceWidthPercentage,
		MinHeightPct:     cfg.MinFaceHeightPercentage,
		MaxFaces:         cfg.MaxFaces,
		Candidates:       result.Candidates,
		Message:          result.Message,
		Error:            result.Error,
		Faces:            []RecognizedFace{},
	}
	for _, a := range result.Annotations {
		r.Faces = append(r.Faces, RecognizedFace{
			FaceID: a.ID,
			Name:   a.Name,
			Left:   a.Box.Left,
			Top:    a.Box.Top,
			Width:  a.Box.Width,
			Height: a.Box.Height,
		})
	}
	return r
}

// Save stores the recognition and its faces
func (r *Recognition) Save() error {
	return db.Instance.Create(r).Error
}

// RecentRecognitions returns the latest recognitions first
func RecentRecognitions(limit int) (result []Recognition, err error) {
	err = db.Instance.
		Preload("Faces", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).
		Order("id DESC").
		Limit(limit).
		Find(&result).Error
	return
}
