package bookmarker

const (
	NoLimit      = -1
	MaxLimit     = 100
	DefaultLimit = 10
)

// IsNormalizedLimitWith clamps limit into (0, maxLimit]. Non-positive limits
// become defaultLimit (itself capped by maxLimit). The flag reports whether
// limit was kept as is.
func IsNormalizedLimitWith(limit int, defaultLimit int, maxLimit int) (int, bool) {
	if limit <= 0 {
		return min(defaultLimit, maxLimit), false
	} else if limit > maxLimit {
		return maxLimit, false
	}

	return limit, true
}
