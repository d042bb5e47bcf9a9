package tray

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteIconFile(t *testing.T) {
	img := solidImage(16, 16, 10, 200, 30, 255)

	file, err := writeIconFile(img, "pchat-normal")
	require.NoError(t, err)
	t.Cleanup(file.remove)

	// Name is derived from the logical icon name and the process id so
	// concurrent instances never collide.
	want := fmt.Sprintf("pchat-tray-pchat-normal-%d.png", os.Getpid())
	assert.Equal(t, want, filepath.Base(file.path))
	assert.Equal(t, filepath.Join(os.TempDir(), want), file.path)

	// The shell resolves icons by search path plus extension-stripped
	// name.
	assert.Equal(t, os.TempDir(), filepath.Clean(file.dir))
	assert.Equal(t, fmt.Sprintf("pchat-tray-pchat-normal-%d", os.Getpid()), file.name)

	_, err = os.Stat(file.path)
	assert.NoError(t, err)
}

func TestWriteIconFileRoundTrip(t *testing.T) {
	img := &Image{Width: 2, Height: 2, Channels: 4, Pix: []byte{
		255, 0, 0, 255, 0, 255, 0, 255,
		0, 0, 255, 255, 10, 20, 30, 255,
	}}

	file, err := writeIconFile(img, "pchat-roundtrip")
	require.NoError(t, err)
	t.Cleanup(file.remove)

	f, err := os.Open(file.path)
	require.NoError(t, err)
	defer f.Close()

	decoded, err := png.Decode(f)
	require.NoError(t, err)

	back := FromImage(decoded)
	require.Equal(t, img.Width, back.Width)
	require.Equal(t, img.Height, back.Height)
	assert.Equal(t, img.Pix, back.Pix)
}

func TestWriteIconFileInvalidImage(t *testing.T) {
	_, err := writeIconFile(nil, "pchat-normal")
	assert.Error(t, err)

	_, err = writeIconFile(&Image{Width: -1, Height: 2, Channels: 4}, "pchat-normal")
	assert.Error(t, err)
}

func TestIconFileRemove(t *testing.T) {
	img := solidImage(4, 4, 0, 0, 0, 255)

	file, err := writeIconFile(img, "pchat-remove")
	require.NoError(t, err)

	file.remove()

	_, err = os.Stat(file.path)
	assert.True(t, os.IsNotExist(err))

	// Removing twice and removing nil are both safe.
	file.remove()
	(*iconFile)(nil).remove()
}

func TestUpdateIconNamesDistinct(t *testing.T) {
	seen := map[string]bool{}

	for i := 0; i < 16; i++ {
		name := updateIconName()
		assert.False(t, seen[name], "icon name %q repeated", name)
		seen[name] = true
	}
}
