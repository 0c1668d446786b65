package models

import (
	"threadfinder/db"
)

func Init() error {
	if !db.Enabled() {
		return nil
	}
	return db.Instance.AutoMigrate(&Recognition{}, &RecognizedFace{})
}
