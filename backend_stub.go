//go:build !linux && !windows && !darwin

package tray

const backendName = "none"

// stubBackend keeps the package building on platforms without a native
// notification area. Creation succeeds and every operation is a no-op.
type stubBackend struct{}

func newPlatformBackend(img *Image, tooltip string) (backend, error) {
	return stubBackend{}, nil
}

func (stubBackend) setIcon(img *Image) {}

func (stubBackend) setTooltip(text string) {}

func (stubBackend) setVisible(visible bool) {}

func (stubBackend) isEmbedded() bool { return false }

func (stubBackend) setActivateCallback(func()) {}

func (stubBackend) setMenuCallback(MenuFunc) {}

func (stubBackend) setEmbeddedCallback(func()) {}

func (stubBackend) rebuildMenu() {}

func (stubBackend) destroy() {}
