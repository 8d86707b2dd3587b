package fx

import (
	"math"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigsFromViper(t *testing.T) {
	t.Cleanup(viper.Reset)

	viper.Set("fx.effects", map[string]any{
		"hit":  map[string]any{"path": "fx/hit", "duration": 0.5},
		"aura": map[string]any{"path": "fx/aura", "loop": true},
	})

	configs, err := ConfigsFromViper()
	require.NoError(t, err)
	require.Len(t, configs, 2)

	assert.Equal(t, "fx/hit", configs["hit"].Path)
	assert.Equal(t, 0.5, configs["hit"].Duration)

	assert.Equal(t, "fx/aura", configs["aura"].Path)
	assert.True(t, math.IsInf(configs["aura"].Duration, 1), "looping effect must be perpetual")
}

func TestConfigsFromViper_MissingPath(t *testing.T) {
	t.Cleanup(viper.Reset)

	viper.Set("fx.effects", map[string]any{
		"broken": map[string]any{"duration": 1.0},
	})

	_, err := ConfigsFromViper()
	assert.Error(t, err)
}

func TestConfigsFromViper_NonPositiveDuration(t *testing.T) {
	t.Cleanup(viper.Reset)

	viper.Set("fx.effects", map[string]any{
		"broken": map[string]any{"path": "fx/broken", "duration": 0.0},
	})

	_, err := ConfigsFromViper()
	assert.Error(t, err)
}

func TestConfigsFromViper_Empty(t *testing.T) {
	t.Cleanup(viper.Reset)

	configs, err := ConfigsFromViper()
	require.NoError(t, err)
	assert.Empty(t, configs)
}
