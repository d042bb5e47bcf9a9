package tray

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
)

// initialIconName is the logical name used for the icon supplied at
// creation time. Subsequent updates use monotonically distinct names from
// updateIconName so successive files never collide.
const initialIconName = "pchat-normal"

// iconSeq disambiguates updates that land on the same clock tick.
var iconSeq atomic.Uint64

// updateIconName returns a time-derived, monotonically distinct logical
// icon name for icon updates.
func updateIconName() string {
	return fmt.Sprintf("pchat-%d-%d", time.Now().UnixMicro(), iconSeq.Add(1))
}

// iconFile is a raster icon serialized to the shared temporary directory.
// The StatusNotifierItem protocol resolves icons by theme path and name, not
// by file handle, so the directory and the extension-stripped base name are
// what get registered with the host shell.
type iconFile struct {
	path string
	dir  string
	name string
}

// writeIconFile encodes img as a PNG under the temporary directory, named
// from the logical icon name and the process id. A nil return with an error
// means no icon was produced; the caller keeps whatever icon it had.
func writeIconFile(img *Image, name string) (*iconFile, error) {
	if err := img.validate(); err != nil {
		return nil, fmt.Errorf("icon file: %w", err)
	}

	path := filepath.Join(os.TempDir(), fmt.Sprintf("pchat-tray-%s-%d.png", name, os.Getpid()))

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("icon file: %w", err)
	}

	if err := png.Encode(f, img.toNRGBA()); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("icon file: encode %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("icon file: %w", err)
	}

	return &iconFile{
		path: path,
		dir:  filepath.Dir(path),
		name: strings.TrimSuffix(filepath.Base(path), ".png"),
	}, nil
}

// remove unlinks the underlying file. Safe to call on a nil receiver.
func (f *iconFile) remove() {
	if f == nil {
		return
	}

	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		logger.Warn().Err(err).Str("path", f.path).Msg("failed to remove tray icon file")
	}
}
