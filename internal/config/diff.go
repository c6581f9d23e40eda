package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	MinScoreChanged bool
	NewMinScore     float64

	OrthodoxModeChanged bool
	NewOrthodoxMode     bool

	// DictionaryDirChanged signals that the store directory moved. The
	// running watcher keeps observing the old path, so this needs a restart.
	DictionaryDirChanged bool
}

// Changed reports whether the diff carries any change at all.
func (d ConfigDiff) Changed() bool {
	return d.LogLevelChanged || d.MinScoreChanged || d.OrthodoxModeChanged || d.DictionaryDirChanged
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart, plus the
// dictionary directory move that warrants a restart warning.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Dictionary.MinScore != new.Dictionary.MinScore {
		d.MinScoreChanged = true
		d.NewMinScore = new.Dictionary.MinScore
	}

	if old.Chat.OrthodoxMode != new.Chat.OrthodoxMode {
		d.OrthodoxModeChanged = true
		d.NewOrthodoxMode = new.Chat.OrthodoxMode
	}

	if old.Dictionary.Dir != new.Dictionary.Dir {
		d.DictionaryDirChanged = true
	}

	return d
}
