package conf

import "log/slog"

// clampSettings enforces the "clamped, not rejected" policy for
// out-of-range configuration: resolution is clamped to [0.01, 5.0] and
// the variable-mod list is truncated to 32 entries, each with a logged
// warning, rather than causing Load to fail. A negative precursor
// tolerance (dM) is left unchanged.
func clampSettings(s *Settings) {
	if s.Search.Res < 0.01 {
		slog.Warn("search.res below minimum, clamping", "configured", s.Search.Res, "clamped", 0.01)
		s.Search.Res = 0.01
	}
	if s.Search.Res > 5.0 {
		slog.Warn("search.res above maximum, clamping", "configured", s.Search.Res, "clamped", 5.0)
		s.Search.Res = 5.0
	}

	if s.Search.DM < 0 {
		// A negative dM is a valid sentinel (spec: "full chunk, no
		// false inclusions") and must not be clamped to zero.
	}

	const maxMods = 32
	if len(s.Search.Mods) > maxMods {
		slog.Warn("too many variable mods configured, truncating", "configured", len(s.Search.Mods), "clamped", maxMods)
		s.Search.Mods = s.Search.Mods[:maxMods]
	}

	if s.Search.Threads < 1 {
		s.Search.Threads = defaultComputeThreads()
	}
	if s.Search.PrepThreads < 1 {
		s.Search.PrepThreads = defaultPrepThreads()
	}
	if s.Search.TopMatches < 1 {
		s.Search.TopMatches = 1
	}
	if s.BufferPool.Size < 2 {
		s.BufferPool.Size = 2
	}
	if s.BufferPool.LowWatermark >= s.BufferPool.Size {
		s.BufferPool.LowWatermark = s.BufferPool.Size - 1
	}
	if s.BufferPool.HighWatermark <=s.BufferPool.LowWatermark {
		s.BufferPool.HighWatermark = s.BufferPool.LowWatermark + 1
	}
	if s.BufferPool.HighWatermark > s.BufferPool.Size {
		s.BufferPool.HighWatermark = s.BufferPool.Size
	}

	switch s.Search.Policy {
	case "cyclic", "chunk", "zigzag":
	default:
		slog.Warn("unknown index distribution policy, defaulting to cyclic", "configured", s.Search.Policy)
		s.Search.Policy = "cyclic"
	}
}
