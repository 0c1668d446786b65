package config

// RequestConfig holds the recognition parameters of a single request
type RequestConfig struct {
	Tolerance               float64 `json:"tolerance"`
	MinFaceWidthPercentage  float64 `json:"minFaceWidthPercentage"`
	MinFaceHeightPercentage float64 `json:"minFaceHeightPercentage"`
	MaxFaces                int     `json:"maxFaces"` // 0 = unlimited
}

func DefaultRequestConfig() RequestConfig {
	return RequestConfig{
		Tolerance:               DEFAULT_TOLERANCE,
		MinFaceWidthPercentage:  DEFAULT_MIN_FACE_WIDTH_PERCENTAGE,
		MinFaceHeightPercentage: DEFAULT_MIN_FACE_HEIGHT_PERCENTAGE,
		MaxFaces:                DEFAULT_MAX_FACES,
	}.Normalize()
}

// Normalize makes sure MaxFaces is never negative, 0 means no limit
func (rc RequestConfig) Normalize() RequestConfig {
	if rc.MaxFaces < 0 {
		rc.MaxFaces = 0
	}
	return rc
}
