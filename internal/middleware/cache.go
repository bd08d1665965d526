package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	responseMetaKey  = "response_meta"
	responseStartKey = "response_started"

	cacheHitKey  = "cache_hit"
	refreshedKey = "refreshed"
	elapsedKey   = "processing_time_ms"
)

// WithResponseMeta starts the per-request metadata that handlers attach to the envelope.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseStartKey, time.Now())
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
	}
}

// SetCacheHit records whether the payload came from the cache.
func SetCacheHit(c *gin.Context, hit bool) {
	setMeta(c, cacheHitKey, hit)
}

// SetRefreshed records whether the payload was reloaded from the system of record instead
// of an open attendance ledger.
func SetRefreshed(c *gin.Context, refreshed bool) {
	setMeta(c, refreshedKey, refreshed)
}

// ExtractMeta returns the metadata recorded so far, stamped with the time spent since
// WithResponseMeta ran. It is called right before the body is rendered.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	meta := metaOf(c)
	if meta == nil {
		return nil
	}
	if value, ok := c.Get(responseStartKey); ok {
		if started, ok := value.(time.Time); ok {
			meta[elapsedKey] = time.Since(started).Milliseconds()
		}
	}
	return meta
}

func setMeta(c *gin.Context, key string, value interface{}) {
	if c == nil {
		return
	}
	meta := metaOf(c)
	if meta == nil {
		meta = map[string]interface{}{}
		c.Set(responseMetaKey, meta)
	}
	meta[key] = value
}

func metaOf(c *gin.Context) map[string]interface{} {
	value, ok := c.Get(responseMetaKey)
	if !ok {
		return nil
	}
	meta, _ := value.(map[string]interface{})
	return meta
}
