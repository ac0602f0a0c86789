package provider_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Raikerian/go-voicechat/internal/config"
	"github.com/Raikerian/go-voicechat/internal/live"
	"github.com/Raikerian/go-voicechat/internal/live/gemini"
	"github.com/Raikerian/go-voicechat/internal/live/openai"
	"github.com/Raikerian/go-voicechat/internal/live/provider"
)

func TestNew(t *testing.T) {
	tests := map[string]struct {
		provider    string
		wantDialer  any
		wantSession live.SessionConfig
	}{
		"gemini": {
			provider:    config.ProviderGemini,
			wantDialer:  &gemini.Dialer{},
			wantSession: live.GeminiSession,
		},
		"openai": {
			provider:    config.ProviderOpenAI,
			wantDialer:  &openai.Dialer{},
			wantSession: live.OpenAISession,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			res, err := provider.New(provider.Params{
				Logger: zaptest.NewLogger(t),
				Cfg:    &config.Config{Provider: tt.provider, APIKey: "key"},
			})

			require.NoError(t, err)
			assert.IsType(t, tt.wantDialer, res.Dialer)
			assert.Equal(t, tt.wantSession, res.Session)
		})
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := provider.New(provider.Params{
		Logger: zaptest.NewLogger(t),
		Cfg:    &config.Config{Provider: "watson"},
	})

	assert.Error(t, err)
}
