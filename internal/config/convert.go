package config

import (
	"github.com/danmuck/edgeparse/internal/headers"
	"github.com/danmuck/edgeparse/internal/jsonv"
	"github.com/danmuck/edgeparse/internal/multipart"
	"github.com/danmuck/edgeparse/internal/registry"
)

func fromPackages() Limits {
	j := jsonv.DefaultLimits()
	m := multipart.DefaultLimits()
	return Limits{
		JSON: JSONLimits{MaxDepth: j.MaxDepth, MaxNumberLen: j.MaxNumberLen},
		Multipart: MultipartLimits{
			MaxParts:          m.MaxParts,
			MaxBoundaryLen:    m.MaxBoundaryLen,
			BoundaryLookahead: m.BoundaryLookahead,
			MaxParamLen:       m.MaxParamLen,
			MaxContentTypeLen: m.MaxContentTypeLen,
		},
		Headers:  HeaderLimits{MaxNameLen: headers.DefaultLimits().MaxNameLen},
		Registry: RegistryLimits{Capacity: registry.DefaultConfig().Capacity},
	}
}

func (l Limits) JSONLimits() jsonv.Limits {
	return jsonv.Limits{MaxDepth: l.JSON.MaxDepth, MaxNumberLen: l.JSON.MaxNumberLen}
}

func (l Limits) MultipartLimits() multipart.Limits {
	return multipart.Limits{
		MaxParts:          l.Multipart.MaxParts,
		MaxBoundaryLen:    l.Multipart.MaxBoundaryLen,
		BoundaryLookahead: l.Multipart.BoundaryLookahead,
		MaxParamLen:       l.Multipart.MaxParamLen,
		MaxContentTypeLen: l.Multipart.MaxContentTypeLen,
	}
}

func (l Limits) HeaderLimits() headers.Limits {
	return headers.Limits{MaxNameLen: l.Headers.MaxNameLen}
}

func (l Limits) RegistryConfig() registry.Config {
	return registry.Config{Capacity: l.Registry.Capacity, Headers: l.HeaderLimits()}
}
