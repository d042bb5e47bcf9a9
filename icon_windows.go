//go:build windows

package tray

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// createTrayIcon builds an HICON from img: a premultiplied BGRA DIB section
// for color plus the 1-bpp mask bitmap CreateIconIndirect insists on even
// though the color bitmap already carries full transparency. The caller
// owns the returned icon and must release it with destroyIcon.
func createTrayIcon(img *Image) (windows.Handle, error) {
	pix, err := premultipliedBGRA(img)
	if err != nil {
		return 0, err
	}

	hdc, _, _ := procGetDC.Call(0)
	if hdc == 0 {
		return 0, fmt.Errorf("tray icon: GetDC failed")
	}
	defer procReleaseDC.Call(0, hdc)

	header := bitmapV5Header{
		Width:       int32(img.Width),
		Height:      -int32(img.Height), // top-down
		Planes:      1,
		BitCount:    32,
		Compression: biBitfields,
		RedMask:     0x00FF0000,
		GreenMask:   0x0000FF00,
		BlueMask:    0x000000FF,
		AlphaMask:   0xFF000000,
	}
	header.Size = uint32(unsafe.Sizeof(header))

	var bits unsafe.Pointer
	hbmColor, _, err := procCreateDIBSection.Call(
		hdc,
		uintptr(unsafe.Pointer(&header)),
		dibRGBColors,
		uintptr(unsafe.Pointer(&bits)),
		0, 0,
	)
	if hbmColor == 0 || bits == nil {
		return 0, fmt.Errorf("tray icon: CreateDIBSection: %w", err)
	}
	defer procDeleteObject.Call(hbmColor)

	copy(unsafe.Slice((*byte)(bits), len(pix)), pix)

	hbmMask, _, err := procCreateBitmap.Call(
		uintptr(img.Width), uintptr(img.Height), 1, 1, 0,
	)
	if hbmMask == 0 {
		return 0, fmt.Errorf("tray icon: CreateBitmap: %w", err)
	}
	defer procDeleteObject.Call(hbmMask)

	info := iconInfo{
		IsIcon:      1,
		MaskBitmap:  windows.Handle(hbmMask),
		ColorBitmap: windows.Handle(hbmColor),
	}

	hicon, _, err := procCreateIconIndirect.Call(uintptr(unsafe.Pointer(&info)))
	if hicon == 0 {
		return 0, fmt.Errorf("tray icon: CreateIconIndirect: %w", err)
	}

	return windows.Handle(hicon), nil
}

func destroyIcon(hicon windows.Handle) {
	if hicon != 0 {
		procDestroyIcon.Call(uintptr(hicon))
	}
}
