package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/danmuck/edgeparse/internal/auth"
	"github.com/danmuck/edgeparse/internal/body"
	"github.com/danmuck/edgeparse/internal/jsonv"
	"github.com/danmuck/edgeparse/internal/multipart"
	"github.com/danmuck/edgeparse/internal/registry"
	"github.com/danmuck/edgeparse/internal/wire"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	headerBodyKind = "X-Body-Kind"
	wireMediaType  = "application/octet-stream"
)

type partInfo struct {
	Name        string `json:"name,omitempty"`
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	IsFile      bool   `json:"is_file"`
	Size        int    `json:"size"`
}

func (s *Server) RegisterRoutes() {
	r := s.router
	r.GET("/health", func(c *gin.Context) {
		st := s.engine.RegistryStats()
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Appeared).String(),
			"service": s.Name,
			"version": "0.1.0",
			"registry": gin.H{
				"live":     st.Live,
				"capacity": st.Capacity,
			},
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	v1.POST("/json", s.handleJSON)
	v1.POST("/form", s.handleForm)
	v1.POST("/multipart", s.handleMultipart)
	v1.POST("/body", s.handleBody)
	v1.GET("/headers/:handle", s.handleListHeaders)
	v1.GET("/headers/:handle/:name", s.handleLookupHeader)

	mutating := v1.Group("")
	if s.authToken != "" {
		mutating.Use(auth.Require(auth.StaticToken{Token: s.authToken}))
	}
	mutating.POST("/headers", s.handleRegisterHeaders)
	mutating.DELETE("/headers/:handle", s.handleReleaseHeaders)
}

// readBody reads the request body up to the configured limit. On failure the response has
// already been written.
func (s *Server) readBody(c *gin.Context) ([]byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBodyBytes)
	data, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large", "limit": tooLarge.Limit})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return data, true
}

func wantWire(c *gin.Context) bool {
	return c.Query("format") == "wire"
}

func (s *Server) handleJSON(c *gin.Context) {
	data, ok := s.readBody(c)
	if !ok {
		return
	}
	v, err := s.engine.ParseJSON(data)
	if err != nil {
		resp := gin.H{"error": err.Error()}
		var se *jsonv.SyntaxError
		if errors.As(err, &se) {
			resp["offset"] = se.Offset
		}
		c.JSON(http.StatusBadRequest, resp)
		return
	}
	c.JSON(http.StatusOK, gin.H{"value": v})
}

func (s *Server) handleForm(c *gin.Context) {
	data, ok := s.readBody(c)
	if !ok {
		return
	}
	pairs := s.engine.DecodeForm(data)
	if wantWire(c) {
		buf, err := wire.EncodeForm(pairs)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, wireMediaType, buf)
		return
	}
	out := make([][2]string, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, [2]string{p.Key, p.Value})
	}
	c.JSON(http.StatusOK, gin.H{"pairs": out})
}

func (s *Server) handleMultipart(c *gin.Context) {
	data, ok := s.readBody(c)
	if !ok {
		return
	}
	parts, err := s.engine.DecodeMultipartFor(c.GetHeader("Content-Type"), data)
	if err != nil {
		status := http.StatusBadRequest
		if multipart.IsNotMultipart(err) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	if wantWire(c) {
		buf, err := wire.EncodeMultipart(parts)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, wireMediaType, buf)
		return
	}
	infos := make([]partInfo, 0, len(parts))
	for _, p := range parts {
		infos = append(infos, partInfo{
			Name:        p.Name,
			Filename:    p.Filename,
			ContentType: p.ContentType,
			IsFile:      p.IsFile,
			Size:        len(p.Data),
		})
	}
	c.JSON(http.StatusOK, gin.H{"parts": infos})
}

func (s *Server) handleBody(c *gin.Context) {
	data, ok := s.readBody(c)
	if !ok {
		return
	}
	kind, buf, err := s.engine.ParseBody(c.GetHeader("Content-Type"), data)
	c.Header(headerBodyKind, kind.String())
	if err != nil {
		status := http.StatusBadRequest
		if kind == body.KindMultipart && multipart.IsNotMultipart(err) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error(), "kind": kind.String()})
		return
	}
	c.Data(http.StatusOK, wireMediaType, buf)
}

func (s *Server) handleRegisterHeaders(c *gin.Context) {
	data, ok := s.readBody(c)
	if !ok {
		return
	}
	set := s.engine.ParseHeaderBlock(data)
	h := s.engine.RegisterHeaders(set)
	if h == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "header registry full"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"handle": int64(h), "count": set.Len()})
}

func parseHandle(c *gin.Context) (registry.Handle, bool) {
	n, err := strconv.ParseInt(c.Param("handle"), 10, 64)
	if err != nil || n <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid handle"})
		return 0, false
	}
	return registry.Handle(n), true
}

func (s *Server) handleListHeaders(c *gin.Context) {
	h, ok := parseHandle(c)
	if !ok {
		return
	}
	set := s.engine.HeaderSet(h)
	if set == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown handle"})
		return
	}
	entries := set.Entries()
	out := make([][2]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, [2]string{e.Name, e.Value})
	}
	c.JSON(http.StatusOK, gin.H{"handle": int64(h), "headers": out})
}

func (s *Server) handleLookupHeader(c *gin.Context) {
	h, ok := parseHandle(c)
	if !ok {
		return
	}
	v, found := s.engine.LookupHeader(h, c.Param("name"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "header not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"value": v})
}

func (s *Server) handleReleaseHeaders(c *gin.Context) {
	h, ok := parseHandle(c)
	if !ok {
		return
	}
	s.engine.ReleaseHeaders(h)
	c.Status(http.StatusNoContent)
}
