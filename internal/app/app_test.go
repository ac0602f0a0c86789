package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	"github.com/Raikerian/go-voicechat/internal/config"
	"github.com/Raikerian/go-voicechat/internal/device"
	"github.com/Raikerian/go-voicechat/internal/infrastructure"
	"github.com/Raikerian/go-voicechat/internal/live/provider"
	"github.com/Raikerian/go-voicechat/internal/ui"
	"github.com/Raikerian/go-voicechat/internal/voice"
)

func TestDependencyGraph(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "log_file: " + filepath.Join(dir, "test.log") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv(config.GeminiAPIKeyEnv, "test-key")

	err := fx.ValidateApp(
		config.Module,
		infrastructure.LoggerModule,
		provider.Module,
		device.Module,
		voice.Module,
		ui.Module,
		fx.Supply(path),
		fx.Invoke(registerLifecycleHooks),
		fx.NopLogger,
	)

	assert.NoError(t, err)
}
