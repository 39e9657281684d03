// Package featureflag turns optional parts of the layout service off at
// startup.
package featureflag

import (
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
)

// FeatureFlag is the set of flags enabled for a process.
type FeatureFlag map[Flag]struct{}

// New parses flag names. Names are case insensitive and surrounding spaces
// are ignored. Unknown names are logged and skipped.
func New(flags []string) FeatureFlag {
	featureFlag := make(FeatureFlag, len(flags))
	for _, name := range flags {
		name = strings.ToUpper(strings.TrimSpace(name))
		if name == "" {
			continue
		}

		flag := Flag(name)
		if !flag.Known() {
			logs.Warn(errors.New("unknown feature flag").
				WithTag("flag", name))
			continue
		}
		featureFlag[flag] = struct{}{}
	}
	return featureFlag
}

// IsSet reports whether flag is enabled.
func (f FeatureFlag) IsSet(flag Flag) bool {
	_, ok := f[flag]
	return ok
}

// IfSet runs do when flag is enabled.
func (f FeatureFlag) IfSet(flag Flag, do func()) {
	if f.IsSet(flag) {
		do()
	}
}

// IfNotSet runs do when flag is not enabled.
func (f FeatureFlag) IfNotSet(flag Flag, do func()) {
	if !f.IsSet(flag) {
		do()
	}
}
