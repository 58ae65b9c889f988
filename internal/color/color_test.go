//go:build test

package color

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewColor(t *testing.T) {
	c := NewColor("\033[95m")
	assert.Equal(t, "\033[95mtext\033[0m", c("text"))
	assert.Equal(t, "\033[31mred\033[0m", Red("red"))
	assert.Equal(t, "\033[1m\033[0m", Bold(""))
}

func TestNewPalette(t *testing.T) {
	off := NewPalette(false)
	for _, c := range []Color{off.Violation, off.Warning, off.Privileged, off.Unprivileged, off.Elevated, off.Muted, off.OK} {
		assert.Equal(t, "text", c("text"))
	}

	on := NewPalette(true)
	assert.Equal(t, Red("v"), on.Violation("v"))
	assert.Equal(t, Yellow("w"), on.Warning("w"))
	assert.Equal(t, Green("u"), on.Unprivileged("u"))
	assert.Equal(t, Cyan("e"), on.Elevated("e"))
	assert.Equal(t, Gray("0x1"), on.Muted("0x1"))
}
