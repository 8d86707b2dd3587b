package fx

import (
	"fmt"
	"math"

	"github.com/spf13/viper"
)

// Config describes one playable effect.
type Config struct {
	// Path is the asset path the effect's template loads from.
	Path string
	// Duration is the effect lifetime in seconds. math.Inf(1) marks a
	// perpetual effect terminated only by StopFx.
	Duration float64
}

type rawEffect struct {
	Path     string  `json:"path" mapstructure:"path"`
	Duration float64 `json:"duration" mapstructure:"duration"`
	Loop     bool    `json:"loop" mapstructure:"loop"`
}

// ConfigsFromViper reads the fx.effects config tree. Looping entries get an
// infinite duration; non-looping entries must declare a positive one.
func ConfigsFromViper() (map[string]Config, error) {
	raw := make(map[string]rawEffect)
	if err := viper.UnmarshalKey("fx.effects", &raw); err != nil {
		return nil, fmt.Errorf("error reading fx.effects config: %w", err)
	}

	configs := make(map[string]Config, len(raw))
	for key, entry := range raw {
		if entry.Path == "" {
			return nil, fmt.Errorf("fx effect %q missing path", key)
		}
		duration := entry.Duration
		if entry.Loop {
			duration = math.Inf(1)
		} else if duration <= 0 {
			return nil, fmt.Errorf("fx effect %q needs a positive duration or loop=true", key)
		}
		configs[key] = Config{Path: entry.Path, Duration: duration}
	}
	return configs, nil
}
