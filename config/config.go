package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

var (
	TLS_DOMAINS     = "" // e.g. "example.com,example2.com"
	BIND_ADDRESS    = "0.0.0.0:8080"
	DEBUG_MODE      = false
	KNOWN_FACES_DIR = "./known_faces" // Reference photos, one person per file, name taken from the file name
	UPLOAD_DIR      = "./uploads"     // Used for storing uploaded photos unless S3_BUCKET is set
	STATIC_DIR      = "./static"
	TMP_DIR         = "/tmp" // Used for local copies of S3 objects and reference thumbnails
	MAX_UPLOAD_MB   = 5
	ALLOWED_UPLOADS = "png,jpg,jpeg,gif"
	// S3 upload storage. Leave S3_BUCKET empty to keep uploads on disk
	S3_BUCKET   = ""
	S3_REGION   = "us-east-1"
	S3_ENDPOINT = "" // For S3 compatible services (MinIO, etc)
	S3_PREFIX   = "uploads"
	S3_AUTH     = "" // "key:secret", falls back to the default AWS credential chain if empty
	// Recognition history. MySQL will be used if MYSQL_DSN is set, otherwise SQLite if SQLITE_FILE is set
	MYSQL_DSN   = ""
	SQLITE_FILE = ""
	// Face engine
	FACE_ENGINE           = "python" // "python" (face_recognition helper script) or "dlib" (go-face, in process)
	FACE_SCRIPT           = "./faces/face-extract.py"
	FACE_MODELS_DIR       = "./models" // dlib models for go-face
	FACE_DETECT_CNN       = false      // Use Convolutional Neural Network for face detection (as opposed to HOG). Much slower, supposedly more accurate at different angles
	FACE_WORKERS          = runtime.NumCPU()
	GALLERY_MAX_DIMENSION = 1280 // Reference photos are thumbnailed to this size before encoding, 0 disables it
	// Per-request defaults, all of them can be overridden by the client
	DEFAULT_TOLERANCE                  = 0.6
	DEFAULT_MIN_FACE_WIDTH_PERCENTAGE  = 0.5
	DEFAULT_MIN_FACE_HEIGHT_PERCENTAGE = 0.5
	DEFAULT_MAX_FACES                  = 0 // 0 = no limit
	// Logging
	LOG_LEVEL = "info"
	LOG_FILE  = "" // Rotated log file, stderr only if empty
)

func init() {
	// A missing .env file is fine
	_ = godotenv.Load()

	readEnvString("TLS_DOMAINS", &TLS_DOMAINS)
	readEnvString("BIND_ADDRESS", &BIND_ADDRESS)
	readEnvBool("DEBUG_MODE", &DEBUG_MODE)
	readEnvString("KNOWN_FACES_DIR", &KNOWN_FACES_DIR)
	readEnvString("UPLOAD_DIR", &UPLOAD_DIR)
	readEnvString("STATIC_DIR", &STATIC_DIR)
	readEnvString("TMP_DIR", &TMP_DIR)
	readEnvInt("MAX_UPLOAD_MB", &MAX_UPLOAD_MB)
	readEnvString("ALLOWED_UPLOADS", &ALLOWED_UPLOADS)
	readEnvString("S3_BUCKET", &S3_BUCKET)
	readEnvString("S3_REGION", &S3_REGION)
	readEnvString("S3_ENDPOINT", &S3_ENDPOINT)
	readEnvString("S3_PREFIX", &S3_PREFIX)
	readEnvString("S3_AUTH", &S3_AUTH)
	readEnvString("MYSQL_DSN", &MYSQL_DSN)
	readEnvString("SQLITE_FILE", &SQLITE_FILE)
	readEnvString("FACE_ENGINE", &FACE_ENGINE)
	readEnvString("FACE_SCRIPT", &FACE_SCRIPT)
	readEnvString("FACE_MODELS_DIR", &FACE_MODELS_DIR)
	readEnvBool("FACE_DETECT_CNN", &FACE_DETECT_CNN)
	readEnvInt("FACE_WORKERS", &FACE_WORKERS)
	readEnvInt("GALLERY_MAX_DIMENSION", &GALLERY_MAX_DIMENSION)
	readEnvFloat("DEFAULT_TOLERANCE", &DEFAULT_TOLERANCE)
	readEnvFloat("DEFAULT_MIN_FACE_WIDTH_PERCENTAGE", &DEFAULT_MIN_FACE_WIDTH_PERCENTAGE)
	readEnvFloat("DEFAULT_MIN_FACE_HEIGHT_PERCENTAGE", &DEFAULT_MIN_FACE_HEIGHT_PERCENTAGE)
	readEnvInt("DEFAULT_MAX_FACES", &DEFAULT_MAX_FACES)
	readEnvString("LOG_LEVEL", &LOG_LEVEL)
	readEnvString("LOG_FILE", &LOG_FILE)
}

// AllowedUploadExtensions returns the lowercased upload extensions, without the dot
func AllowedUploadExtensions() []string {
	result := []string{}
	for _, ext := range strings.Split(ALLOWED_UPLOADS, ",") {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			result = append(result, ext)
		}
	}
	return result
}

func readEnvString(name string, value *string) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	*value = v
}

func readEnvBool(name string, value *bool) {
	v := strings.ToLower(os.Getenv(name))
	if v == "true" || v == "1" || v == "yes" || v == "on" {
		*value = true
	} else if v == "false" || v == "0" || v == "no" || v == "off" {
		*value = false
	}
}

func readEnvFloat(name string, value *float64) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return
	}
	*value = f
}

func readEnvInt(name string, value *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	f, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	*value = f
}
