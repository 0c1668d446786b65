package handlers

import (
	"net/http"
	"path"

	"threadfinder/db"
	"threadfinder/logger"
	"threadfinder/models"

	"github.com/gin-gonic/gin"
)

// Upload serves a previously uploaded image. Caching is set up by the router
func (h *Handlers) Upload(c *gin.Context) {
	name := c.Param("name")
	if name == "" || name != path.Base(name) || name == "." || name == ".." {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	h.Storage.Serve(name, c.Request, c.Writer)
}

func (h *Handlers) Gallery(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"count": h.Pool.Gallery.Len(),
		"names": h.Pool.Gallery.Names(),
	})
}

type HistoryRequest struct {
	Limit int `form:"limit"`
}

// History lists the latest recognitions, newest first
func (h *Handlers) History(c *gin.Context) {
	if !db.Enabled() {
		c.JSON(http.StatusNotFound, HistoryOffResponse)
		return
	}
	r := HistoryRequest{}
	if err := c.ShouldBindQuery(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if r.Limit <= 0 {
		r.Limit = 20
	} else if r.Limit > 100 {
		r.Limit = 100
	}
	result, err := models.RecentRecognitions(r.Limit)
	if err != nil {
		logger.Log.Errorf("Error loading history: %v", err)
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	c.JSON(http.StatusOK, result)
}

type StatusResponse struct {
	Engine     string `json:"engine"`
	Gallery    int    `json:"gallery"`
	Storage    string `json:"storage"`
	TotalSpace uint64 `json:"total_space"`
	FreeSpace  uint64 `json:"free_space"`
	History    bool   `json:"history"`
}

func (h *Handlers) Status(c *gin.Context) {
	if s, ok := h.Storage.(interface{ UpdateSpace() }); ok {
		s.UpdateSpace()
	}
	c.JSON(http.StatusOK, StatusResponse{
		Engine:     h.Pool.Engine.Name(),
		Gallery:    h.Pool.Gallery.Len(),
		Storage:    h.Storage.GetBucket().StorageType.String(),
		TotalSpace: h.Storage.GetTotalSpace(),
		FreeSpace:  h.Storage.GetFreeSpace(),
		History:    db.Enabled(),
	})
}
