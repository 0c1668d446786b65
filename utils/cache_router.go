package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	CacheNoCache = 0
	CacheCustom  = -1
	// Uploaded images never change once stored
	CacheUploads = 24 * 60 * 60
)

// CacheControl returns the cache-control value for the given max age in seconds
func CacheControl(seconds int) string {
	if seconds <= CacheNoCache {
		return "no-cache"
	}
	return "private, max-age=" + strconv.Itoa(seconds)
}

// CacheFor sets the cache-control header of a single route, overriding the router default
func CacheFor(seconds int) gin.HandlerFunc {
	return (&CacheRouter{CacheTime: seconds}).Handler()
}

type CacheRouter struct {
	CacheTime int // defaults to CacheNoCache = 0
}

func (cr *CacheRouter) Handler() gin.HandlerFunc {
	if cr.CacheTime == CacheCustom {
		return func(c *gin.Context) { c.Next() }
	}
	value := CacheControl(cr.CacheTime)
	return func(c *gin.Context) {
		c.Header("cache-control", value)
		c.Next()
	}
}
