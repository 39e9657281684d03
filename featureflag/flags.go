package featureflag

type Flag string

const (
	// FlagDisableMarkerExport leaves agents and pallets out of payloads for
	// planners that only know the legacy format.
	FlagDisableMarkerExport   Flag = "DISABLE_MARKER_EXPORT"
	FlagDisablePlaybackStream Flag = "DISABLE_PLAYBACK_STREAM"
	FlagDisableCharts         Flag = "DISABLE_CHARTS"
)

var knownFlags = map[Flag]struct{}{
	FlagDisableMarkerExport:   {},
	FlagDisablePlaybackStream: {},
	FlagDisableCharts:         {},
}

// Known reports whether f is a flag the service reacts to.
func (f Flag) Known() bool {
	_, ok := knownFlags[f]
	return ok
}
