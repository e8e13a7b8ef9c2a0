// Package engine binds the decoders to one set of limits and one handle registry.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/edgeparse/internal/body"
	"github.com/danmuck/edgeparse/internal/config"
	"github.com/danmuck/edgeparse/internal/form"
	"github.com/danmuck/edgeparse/internal/headers"
	"github.com/danmuck/edgeparse/internal/jsonv"
	"github.com/danmuck/edgeparse/internal/multipart"
	"github.com/danmuck/edgeparse/internal/observability"
	"github.com/danmuck/edgeparse/internal/registry"
	"github.com/danmuck/edgeparse/internal/wire"
	"github.com/rs/zerolog"
)

var ErrUnknownKind = errors.New("engine: unknown body kind")

type Engine struct {
	limits   config.Limits
	registry *registry.Registry
	logger   zerolog.Logger
}

// New builds an engine with its own registry and points the registry gauges at it.
func New(limits config.Limits, logger zerolog.Logger) *Engine {
	e := &Engine{
		limits:   limits,
		registry: registry.New(limits.RegistryConfig()),
		logger:   logger.With().Str("component", "engine").Logger(),
	}
	observability.SetRegistryStats(func() (int, int, int) {
		st := e.registry.Stats()
		return st.Live, st.Capacity, st.Free
	})
	return e
}

func (e *Engine) Limits() config.Limits {
	return e.limits
}

func (e *Engine) RegistryStats() registry.Stats {
	return e.registry.Stats()
}

func (e *Engine) ParseJSON(data []byte) (jsonv.Value, error) {
	start := time.Now()
	v, err := jsonv.ParseWithLimits(data, e.limits.JSONLimits())
	e.record("json", len(data), start, err)
	return v, err
}

func (e *Engine) DecodeForm(data []byte) form.Pairs {
	start := time.Now()
	pairs := form.Decode(data)
	e.record("form", len(data), start, nil)
	return pairs
}

// DecodeMultipart discovers the boundary from data. Parts borrow data.
func (e *Engine) DecodeMultipart(data []byte) ([]multipart.Part, error) {
	start := time.Now()
	parts, err := multipart.DecodeWithLimits(data, e.limits.MultipartLimits())
	e.record("multipart", len(data), start, err)
	return parts, err
}

// DecodeMultipartFor prefers the boundary declared in contentType and falls back to
// discovery when there is none.
func (e *Engine) DecodeMultipartFor(contentType string, data []byte) ([]multipart.Part, error) {
	boundary, ok := multipart.BoundaryFromContentType(contentType)
	if !ok {
		return e.DecodeMultipart(data)
	}
	start := time.Now()
	parts, err := multipart.DecodeBoundary(data, boundary, e.limits.MultipartLimits())
	e.record("multipart", len(data), start, err)
	return parts, err
}

func (e *Engine) ParseHeaderBlock(data []byte) *headers.Set {
	start := time.Now()
	set := headers.ParseWithLimits(data, e.limits.HeaderLimits())
	e.record("headers", len(data), start, nil)
	return set
}

// RegisterHeaders returns 0 when the registry is full.
func (e *Engine) RegisterHeaders(set *headers.Set) registry.Handle {
	h := e.registry.Register(set)
	if h == 0 && set != nil {
		observability.RecordRegistryExhausted()
		st := e.registry.Stats()
		e.logger.Warn().Int("capacity", st.Capacity).Int("live", st.Live).Msg("header registry full")
	}
	return h
}

func (e *Engine) LookupHeader(h registry.Handle, name string) (string, bool) {
	return e.registry.Lookup(h, name)
}

func (e *Engine) HeaderSet(h registry.Handle) *headers.Set {
	return e.registry.Set(h)
}

func (e *Engine) ReleaseHeaders(h registry.Handle) {
	e.registry.Release(h)
}

func (e *Engine) Classify(contentType string, data []byte) body.Kind {
	return body.Classify(contentType, data)
}

// FastParseBody turns a body of the given kind into a wire buffer. Form and multipart
// bodies are decoded and framed; every other kind is returned as is.
func (e *Engine) FastParseBody(data []byte, kind body.Kind) ([]byte, error) {
	return e.fastParse("", data, kind)
}

// ParseBody classifies data by contentType and returns the kind with its wire buffer.
// Multipart bodies use the declared boundary when the Content-Type carries one.
func (e *Engine) ParseBody(contentType string, data []byte) (body.Kind, []byte, error) {
	kind := e.Classify(contentType, data)
	out, err := e.fastParse(contentType, data, kind)
	return kind, out, err
}

func (e *Engine) fastParse(contentType string, data []byte, kind body.Kind) ([]byte, error) {
	switch kind {
	case body.KindForm:
		return wire.EncodeForm(e.DecodeForm(data))
	case body.KindMultipart:
		parts, err := e.DecodeMultipartFor(contentType, data)
		if err != nil {
			return nil, err
		}
		return wire.EncodeMultipart(parts)
	case body.KindUnknown, body.KindJSON, body.KindText, body.KindBinary:
		return data, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}
}

func (e *Engine) record(decoder string, n int, start time.Time, err error) {
	elapsed := time.Since(start)
	outcome := "ok"
	if err != nil {
		outcome = outcomeLabel(err)
		e.logger.Debug().Str("decoder", decoder).Int("bytes", n).Err(err).Msg("decode failed")
	}
	observability.RecordDecode(decoder, outcome, n, elapsed)
}

func outcomeLabel(err error) string {
	switch {
	case multipart.IsNotMultipart(err):
		return "not_multipart"
	case errors.Is(err, jsonv.ErrTooDeeplyNested), errors.Is(err, jsonv.ErrNumberTooLong):
		return "limit"
	default:
		return "error"
	}
}
