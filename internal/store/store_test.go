package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aurafrog/aura-frog/internal/config"
	"github.com/aurafrog/aura-frog/internal/learning"
)

func TestNew_SelectsMode(t *testing.T) {
	tests := []struct {
		name string
		url  string
		key  config.Secret
		want learning.Mode
	}{
		{"no backend", "", "", learning.ModeLocal},
		{"url only", "https://example.supabase.co", "", learning.ModeLocal},
		{"key only", "", "k", learning.ModeLocal},
		{"both", "https://example.supabase.co", "k", learning.ModeRemote},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Storage.Dir = t.TempDir()
			cfg.Backend.URL = tt.url
			cfg.Backend.Key = tt.key

			s := New(cfg, nil, nil)
			assert.Equal(t, tt.want, s.Mode())
		})
	}
}

func TestKeepLast(t *testing.T) {
	assert.Equal(t, []int{3, 4}, keepLast([]int{1, 2, 3, 4}, 2))
	assert.Equal(t, []int{1, 2}, keepLast([]int{1, 2}, 5))
	assert.Equal(t, []int{1, 2}, keepLast([]int{1, 2}, 0))
}
