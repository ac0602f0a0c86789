package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raikerian/go-voicechat/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	tests := map[string]struct {
		body    string
		env     map[string]string
		want    config.Config
		wantErr string
	}{
		"defaults": {
			body: "",
			env:  map[string]string{config.GeminiAPIKeyEnv: "g-key"},
			want: config.Config{
				LogLevel:   "info",
				LogFile:    "voicechat.log",
				Provider:   config.ProviderGemini,
				Audio:      config.AudioConfig{CaptureFrameSize: 4096},
				Visualizer: config.VisualizerConfig{Style: config.StyleBars, FPS: 30},
				APIKey:     "g-key",
			},
		},
		"openai with blob": {
			body: "log_level: debug\nprovider: openai\naudio:\n  capture_frame_size: 2048\nvisualizer:\n  style: blob\n  fps: 20\n",
			env:  map[string]string{config.OpenAIAPIKeyEnv: "o-key"},
			want: config.Config{
				LogLevel:   "debug",
				LogFile:    "voicechat.log",
				Provider:   config.ProviderOpenAI,
				Audio:      config.AudioConfig{CaptureFrameSize: 2048},
				Visualizer: config.VisualizerConfig{Style: config.StyleBlob, FPS: 20},
				APIKey:     "o-key",
			},
		},
		"missing credential": {
			body:    "provider: gemini\n",
			env:     map[string]string{config.OpenAIAPIKeyEnv: "wrong-provider"},
			wantErr: config.GeminiAPIKeyEnv,
		},
		"unknown provider": {
			body:    "provider: watson\n",
			wantErr: "unknown provider",
		},
		"unknown style": {
			body:    "visualizer:\n  style: waveform\n",
			env:     map[string]string{config.GeminiAPIKeyEnv: "g-key"},
			wantErr: "unknown visualizer style",
		},
		"malformed yaml": {
			body:    "provider: [",
			wantErr: "failed to parse",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv(config.GeminiAPIKeyEnv, "")
			t.Setenv(config.OpenAIAPIKeyEnv, "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := config.LoadConfig(writeConfig(t, tt.body))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, *cfg)
		})
	}
}

func TestLoadConfig_MissingCredentialIsSentinel(t *testing.T) {
	t.Setenv(config.GeminiAPIKeyEnv, "")

	_, err := config.LoadConfig(writeConfig(t, ""))

	assert.ErrorIs(t, err, config.ErrMissingCredential)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv(config.GeminiAPIKeyEnv, "g-key")

	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))

	require.NoError(t, err)
	assert.Equal(t, config.ProviderGemini, cfg.Provider)
	assert.Equal(t, 4096, cfg.Audio.CaptureFrameSize)
}
