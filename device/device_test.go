package device

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vkngwrapper/extensions/ext_debug_utils"
	"github.com/vkngwrapper/extensions/khr_surface"
)

func family(i int) *int {
	return &i
}

func TestQueueFamilyIndices(t *testing.T) {
	var indices QueueFamilyIndices
	assert.False(t, indices.IsComplete())
	assert.Nil(t, indices.Unique())

	indices.GraphicsFamily = family(0)
	assert.False(t, indices.IsComplete())

	indices.PresentFamily = family(0)
	assert.True(t, indices.IsComplete())
	assert.Equal(t, []int{0}, indices.Unique())

	indices.PresentFamily = family(2)
	assert.Equal(t, []int{0, 2}, indices.Unique())
}

func TestSwapChainSupportAdequate(t *testing.T) {
	details := SwapChainSupportDetails{}
	assert.False(t, details.Adequate())

	details.Formats = []khr_surface.SurfaceFormat{{}}
	assert.False(t, details.Adequate())

	details.PresentModes = []khr_surface.PresentMode{khr_surface.PresentModeFIFO}
	assert.True(t, details.Adequate())
}

func TestSeverityLevel(t *testing.T) {
	assert.Equal(t, slog.LevelError, severityLevel(ext_debug_utils.SeverityError))
	assert.Equal(t, slog.LevelError, severityLevel(ext_debug_utils.SeverityError|ext_debug_utils.SeverityWarning))
	assert.Equal(t, slog.LevelWarn, severityLevel(ext_debug_utils.SeverityWarning))
	assert.Equal(t, slog.LevelInfo, severityLevel(ext_debug_utils.SeverityInfo))
	assert.Equal(t, slog.LevelDebug, severityLevel(ext_debug_utils.SeverityVerbose))
}

func TestValidationMessagesGoToLogger(t *testing.T) {
	var buf bytes.Buffer
	d := &Device{logger: slog.New(slog.NewTextHandler(&buf, nil))}

	abort := d.logDebug(ext_debug_utils.TypeValidation, ext_debug_utils.SeverityWarning,
		&ext_debug_utils.DebugUtilsMessengerCallbackData{Message: "image layout mismatch"})

	assert.False(t, abort)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "image layout mismatch")
}
