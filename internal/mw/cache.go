package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// The floor grid and kitchen queue are polled every few seconds by many
// clients; serving a short-lived snapshot is explicitly allowed (reads may
// be momentarily stale) and keeps the hot GETs off the database.

type cachedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

type snapshotWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w snapshotWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w snapshotWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Snapshot caches successful GET responses for the given duration, keyed by
// the full request URI (so per-outlet and per-floor views cache separately).
func Snapshot(store *cache.Cache, duration time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.RequestURI
		if hit, found := store.Get(key); found {
			resp := hit.(cachedResponse)
			for k, v := range resp.headers {
				c.Writer.Header()[k] = v
			}
			c.Writer.WriteHeader(resp.status)
			c.Writer.Write(resp.body)
			c.Abort()
			return
		}

		sw := &snapshotWriter{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = sw

		c.Next()

		if sw.Status() >= 200 && sw.Status() < 300 {
			store.Set(key, cachedResponse{
				status:  sw.Status(),
				headers: sw.Header().Clone(),
				body:    sw.body.Bytes(),
			}, duration)
		}
	}
}
