package handlers

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"threadfinder/config"
	"threadfinder/db"
	"threadfinder/logger"
	"threadfinder/models"
	"threadfinder/processing"
	"threadfinder/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RecognizeResponse struct {
	ImageURL         string                  `json:"image_url"`
	Annotations      []processing.Annotation `json:"annotations"`
	OriginalFilename string                  `json:"original_filename"`
	Message          string                  `json:"message"`
	Error            string                  `json:"error,omitempty"`
}

// Recognize stores the uploaded image, annotates it and records the result in the history (if enabled)
func (h *Handlers) Recognize(c *gin.Context) {
	if c.Request.ContentLength > h.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, TooLargeResponse)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, TooLargeResponse)
			return
		}
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		// A file input left empty is sent as a plain value
		if _, exists := c.GetPostForm("file"); exists {
			c.JSON(http.StatusBadRequest, NoFileSelectedResponse)
			return
		}
		c.JSON(http.StatusBadRequest, NoFilePartResponse)
		return
	}
	if fileHeader.Filename == "" {
		c.JSON(http.StatusBadRequest, NoFileSelectedResponse)
		return
	}
	if !utils.HasExtension(fileHeader.Filename, config.AllowedUploadExtensions()) {
		c.JSON(http.StatusBadRequest, InvalidFileResponse)
		return
	}
	cfg, err := requestConfig(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, InvalidParamsResponse)
		return
	}

	originalFilename := utils.SecureFilename(fileHeader.Filename)
	uniqueFilename := uuid.NewString()
	if ext := utils.Extension(originalFilename); ext != "" {
		uniqueFilename += "." + ext
	}
	log := logger.Log.WithFields(logger.Fields{"file": uniqueFilename, "original": originalFilename})
	if err = h.save(fileHeader, uniqueFilename); err != nil {
		log.Errorf("Error saving file: %v", err)
		h.discard(uniqueFilename)
		c.JSON(http.StatusInternalServerError, SaveFailedResponse)
		return
	}
	defer h.Storage.ReleaseLocalFile(uniqueFilename)
	if err = h.Storage.EnsureLocalFile(uniqueFilename); err != nil {
		log.Errorf("Error fetching local copy: %v", err)
		h.discard(uniqueFilename)
		c.JSON(http.StatusInternalServerError, SaveFailedResponse)
		return
	}

	result, err := h.Pool.Annotate(c.Request.Context(), h.Storage.GetFullPath(uniqueFilename), cfg)
	if err != nil {
		log.Warnf("Annotation not started: %v", err)
		h.discard(uniqueFilename)
		c.JSON(http.StatusServiceUnavailable, BusyResponse)
		return
	}
	if db.Enabled() {
		recognition := models.NewRecognition(uniqueFilename, originalFilename, cfg, &result)
		if err = recognition.Save(); err != nil {
			log.Errorf("Error saving recognition history: %v", err)
		}
	}

	response := RecognizeResponse{
		ImageURL:         "/uploads/" + uniqueFilename,
		Annotations:      result.Annotations,
		OriginalFilename: originalFilename,
		Message:          result.Message,
		Error:            result.Error,
	}
	if response.Annotations == nil {
		response.Annotations = []processing.Annotation{}
	}
	if response.Message == "" {
		response.Message = "Processing complete."
	}
	if result.Error != "" {
		// The image passed every request check, so this is a processing failure
		c.JSON(http.StatusInternalServerError, response)
		return
	}
	c.JSON(http.StatusOK, response)
}

// discard removes an upload that will never be annotated
func (h *Handlers) discard(path string) {
	if err := h.Storage.Delete(path); err != nil {
		logger.Log.WithField("file", path).Warnf("Cannot remove upload: %v", err)
	}
}

func (h *Handlers) save(fileHeader *multipart.FileHeader, path string) error {
	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()
	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = mime.TypeByExtension(filepath.Ext(path))
	}
	_, err = h.Storage.Save(path, mimeType, file)
	return err
}

// requestConfig reads the optional tuning fields, missing ones take the configured defaults
func requestConfig(c *gin.Context) (cfg config.RequestConfig, err error) {
	cfg = config.DefaultRequestConfig()
	floats := []struct {
		field string
		value *float64
	}{
		{"tolerance", &cfg.Tolerance},
		{"minFaceWidthPercentage", &cfg.MinFaceWidthPercentage},
		{"minFaceHeightPercentage", &cfg.MinFaceHeightPercentage},
	}
	for _, f := range floats {
		if s, exists := c.GetPostForm(f.field); exists {
			if *f.value, err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
				return
			}
		}
	}
	if s, exists := c.GetPostForm("maxFaces"); exists {
		if cfg.MaxFaces, err = strconv.Atoi(strings.TrimSpace(s)); err != nil {
			return
		}
	}
	return cfg.Normalize(), nil
}
