package multipart

const (
	DefaultMaxParts          = 100
	DefaultMaxBoundaryLen    = 256
	DefaultBoundaryLookahead = 200
	DefaultMaxParamLen       = 1024
	DefaultMaxContentTypeLen = 256
)

// Limits bound the work done per body. Reaching MaxParts stops iteration without an error.
// MaxParamLen and MaxContentTypeLen are exclusive upper bounds; longer values are dropped.
type Limits struct {
	MaxParts          int
	MaxBoundaryLen    int
	BoundaryLookahead int
	MaxParamLen       int
	MaxContentTypeLen int
}

func DefaultLimits() Limits {
	return Limits{
		MaxParts:          DefaultMaxParts,
		MaxBoundaryLen:    DefaultMaxBoundaryLen,
		BoundaryLookahead: DefaultBoundaryLookahead,
		MaxParamLen:       DefaultMaxParamLen,
		MaxContentTypeLen: DefaultMaxContentTypeLen,
	}
}

func (l Limits) normalized() Limits {
	def := DefaultLimits()
	if l.MaxParts <= 0 {
		l.MaxParts = def.MaxParts
	}
	if l.MaxBoundaryLen <= 0 {
		l.MaxBoundaryLen = def.MaxBoundaryLen
	}
	if l.BoundaryLookahead <= 0 {
		l.BoundaryLookahead = def.BoundaryLookahead
	}
	if l.MaxParamLen <= 0 {
		l.MaxParamLen = def.MaxParamLen
	}
	if l.MaxContentTypeLen <= 0 {
		l.MaxContentTypeLen = def.MaxContentTypeLen
	}
	return l
}
