package models

// RecognizedFace is one annotation of a Recognition
type RecognizedFace struct {
	ID            uint64 `gorm:"primaryKey" json:"-"`
	RecognitionID uint64 `gorm:"index" json:"-"`
	FaceID        string `gorm:"type:varchar(30)" json:"id"`
	Name          string `gorm:"type:varchar(300)" json:"name"`
	Left          int    `json:"left"`
	Top           int    `json:"top"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
}
