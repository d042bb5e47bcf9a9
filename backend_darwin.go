//go:build darwin

package tray

/*
#cgo CFLAGS: -x objective-c -fobjc-arc
#cgo LDFLAGS: -framework Cocoa

#include <stdlib.h>
#include <string.h>
#import <Cocoa/Cocoa.h>

extern void goTrayClicked(int button);

@interface PChatTrayTarget : NSObject
- (void)clicked:(id)sender;
@end

@implementation PChatTrayTarget
- (void)clicked:(id)sender
{
	NSEvent *event = [NSApp currentEvent];
	int button = 1;

	if (event != nil) {
		// A control-modified primary click is a secondary click.
		if (event.type == NSEventTypeRightMouseUp ||
		    (event.type == NSEventTypeLeftMouseUp &&
		     (event.modifierFlags & NSEventModifierFlagControl) != 0)) {
			button = 3;
		}
	}

	goTrayClicked(button);
}
@end

static NSStatusItem *trayItem = nil;
static PChatTrayTarget *trayTarget = nil;

static int trayRunLoopRunning(void)
{
	return (NSApp != nil && [NSApp isRunning]) ? 1 : 0;
}

static void trayCreateItem(void)
{
	dispatch_async(dispatch_get_main_queue(), ^{
		if (trayItem != nil) {
			return;
		}

		trayItem = [[NSStatusBar systemStatusBar]
			statusItemWithLength:NSVariableStatusItemLength];
		trayItem.autosaveName = @"pchat-tray";

		trayTarget = [[PChatTrayTarget alloc] init];
		trayItem.button.target = trayTarget;
		trayItem.button.action = @selector(clicked:);
		[trayItem.button sendActionOn:(NSEventMaskLeftMouseUp | NSEventMaskRightMouseUp)];
	});
}

static void traySetImage(const unsigned char *pix, int length, int w, int h)
{
	NSData *data = [NSData dataWithBytes:pix length:length];

	dispatch_async(dispatch_get_main_queue(), ^{
		if (trayItem == nil) {
			return;
		}

		NSBitmapImageRep *rep = [[NSBitmapImageRep alloc]
			initWithBitmapDataPlanes:NULL
			              pixelsWide:w
			              pixelsHigh:h
			           bitsPerSample:8
			         samplesPerPixel:4
			                hasAlpha:YES
			                isPlanar:NO
			          colorSpaceName:NSCalibratedRGBColorSpace
			             bytesPerRow:w * 4
			            bitsPerPixel:32];
		memcpy(rep.bitmapData, data.bytes, (size_t)data.length);

		NSImage *image = [[NSImage alloc] initWithSize:NSMakeSize(w, h)];
		[image addRepresentation:rep];

		// Template images are recolored by the shell for light and dark
		// menu bars.
		[image setTemplate:YES];

		trayItem.button.image = image;
		trayItem.button.title = @"";
	});
}

static void traySetFallbackGlyph(void)
{
	dispatch_async(dispatch_get_main_queue(), ^{
		if (trayItem == nil) {
			return;
		}

		trayItem.button.image = nil;
		trayItem.button.title = @"P";
	});
}

static void traySetTooltip(const char *tooltip)
{
	NSString *text = [NSString stringWithUTF8String:tooltip];

	dispatch_async(dispatch_get_main_queue(), ^{
		if (trayItem == nil) {
			return;
		}

		trayItem.button.toolTip = text;
	});
}

static void traySetVisible(int visible)
{
	dispatch_async(dispatch_get_main_queue(), ^{
		if (trayItem == nil) {
			return;
		}

		trayItem.visible = visible ? YES : NO;
	});
}

static void trayRemoveItem(void)
{
	dispatch_async(dispatch_get_main_queue(), ^{
		if (trayItem == nil) {
			return;
		}

		[[NSStatusBar systemStatusBar] removeStatusItem:trayItem];
		trayItem = nil;
		trayTarget = nil;
	});
}
*/
import "C"

import (
	"fmt"
	"sync"
	"time"
	"unsafe"
)

const backendName = "NSStatusItem"

type darwinState int

const (
	statePending darwinState = iota
	stateRealized
	stateFailed
	stateDestroyed
)

// darwinTray is the backend the native click target dispatches to. The
// status item and its target are process globals on the Cocoa side, so at
// most one backend exists at a time.
var (
	darwinTrayMu sync.Mutex
	darwinTray   *darwinBackend
)

// darwinBackend drives an NSStatusItem. Creation is deferred: Cocoa
// rejects status items before the application run loop is running, which
// is exactly when hosts tend to create their tray. The backend returns a
// provisionally valid handle immediately, polls for the run loop, and
// applies the captured icon, tooltip, and visibility once it realizes.
// Updates requested while still pending are queued on the record and
// applied at realization. If the poll budget runs out, the handle stays
// allocated but every operation becomes a no-op.
type darwinBackend struct {
	mu      sync.Mutex
	state   darwinState
	pending *pendingCreate

	icon    *Image
	tooltip string
	visible bool

	activateFn func()
	menuFn     MenuFunc
	embeddedFn func()
}

func newPlatformBackend(img *Image, tooltip string) (backend, error) {
	darwinTrayMu.Lock()
	defer darwinTrayMu.Unlock()

	if darwinTray != nil {
		return nil, fmt.Errorf("tray: status item already exists")
	}

	b := &darwinBackend{
		state:   statePending,
		icon:    img,
		tooltip: tooltip,
		visible: true,
	}

	b.pending = newPendingCreate(timerScheduler{}, runLoopRunning, b.realize, b.exhausted)
	darwinTray = b

	b.pending.start()

	return b, nil
}

func runLoopRunning() bool {
	return C.trayRunLoopRunning() != 0
}

// realize performs the actual native allocation once the run loop is
// confirmed running, then applies everything captured while pending.
func (b *darwinBackend) realize() {
	b.mu.Lock()

	if b.state != statePending {
		b.mu.Unlock()
		return
	}
	b.state = stateRealized

	icon := b.icon
	tooltip := b.tooltip
	visible := b.visible
	embedded := b.embeddedFn
	b.mu.Unlock()

	C.trayCreateItem()

	if icon != nil {
		applyGlyph(icon)
	}

	if tooltip != "" {
		applyTooltip(tooltip)
	}

	C.traySetVisible(boolToC(visible))

	// A status item is embedded the instant it exists.
	if embedded != nil {
		embedded()
	}
}

func (b *darwinBackend) exhausted() {
	b.mu.Lock()
	if b.state == statePending {
		b.state = stateFailed
	}
	b.mu.Unlock()

	logger.Warn().
		Int("attempts", pendingMaxAttempts).
		Msg("run loop never started, tray status item not created")
}

// applyGlyph converts img to the fixed menu-bar glyph size and installs it
// as a template image. Conversion failure falls back to a text glyph.
func applyGlyph(img *Image) {
	pix, err := scaleToGlyph(img)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to convert tray icon")
		C.traySetFallbackGlyph()
		return
	}

	C.traySetImage(
		(*C.uchar)(unsafe.Pointer(&pix[0])),
		C.int(len(pix)),
		C.int(glyphSize),
		C.int(glyphSize),
	)
}

func applyTooltip(text string) {
	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))

	C.traySetTooltip(ctext)
}

func boolToC(v bool) C.int {
	if v {
		return 1
	}
	return 0
}

func (b *darwinBackend) setIcon(img *Image) {
	if img == nil {
		return
	}

	b.mu.Lock()

	switch b.state {
	case stateFailed, stateDestroyed:
		b.mu.Unlock()
		return
	case statePending:
		// Queued; applied at realization.
		b.icon = img
		b.mu.Unlock()
		return
	}

	b.icon = img
	b.mu.Unlock()

	applyGlyph(img)
}

func (b *darwinBackend) setTooltip(text string) {
	b.mu.Lock()

	switch b.state {
	case stateFailed, stateDestroyed:
		b.mu.Unlock()
		return
	case statePending:
		b.tooltip = text
		b.mu.Unlock()
		return
	}

	b.tooltip = text
	b.mu.Unlock()

	applyTooltip(text)
}

func (b *darwinBackend) setVisible(visible bool) {
	b.mu.Lock()

	switch b.state {
	case stateFailed, stateDestroyed:
		b.mu.Unlock()
		return
	case statePending:
		b.visible = visible
		b.mu.Unlock()
		return
	}

	if visible == b.visible {
		b.mu.Unlock()
		return
	}

	b.visible = visible
	b.mu.Unlock()

	C.traySetVisible(boolToC(visible))
}

func (b *darwinBackend) isEmbedded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.state == stateRealized && b.visible
}

func (b *darwinBackend) setActivateCallback(fn func()) {
	b.mu.Lock()
	b.activateFn = fn
	b.mu.Unlock()
}

func (b *darwinBackend) setMenuCallback(fn MenuFunc) {
	b.mu.Lock()
	b.menuFn = fn
	b.mu.Unlock()
}

// setEmbeddedCallback fires fn immediately when the status item already
// exists, unlike the Windows backend which waits for the shell to accept
// the icon.
func (b *darwinBackend) setEmbeddedCallback(fn func()) {
	b.mu.Lock()
	b.embeddedFn = fn
	realized := b.state == stateRealized
	b.mu.Unlock()

	if realized && fn != nil {
		fn()
	}
}

// rebuildMenu is a no-op: this backend has no persistent menu, the host
// creates an ephemeral popup on each menu callback.
func (b *darwinBackend) rebuildMenu() {}

func (b *darwinBackend) destroy() {
	b.mu.Lock()

	if b.state == stateDestroyed {
		b.mu.Unlock()
		return
	}

	prev := b.state
	b.state = stateDestroyed
	b.icon = nil
	b.mu.Unlock()

	b.pending.cancel()

	if prev == stateRealized {
		C.trayRemoveItem()
	}

	darwinTrayMu.Lock()
	if darwinTray == b {
		darwinTray = nil
	}
	darwinTrayMu.Unlock()
}

//export goTrayClicked
func goTrayClicked(button C.int) {
	darwinTrayMu.Lock()
	b := darwinTray
	darwinTrayMu.Unlock()

	if b == nil {
		return
	}

	b.mu.Lock()
	activate := b.activateFn
	menu := b.menuFn
	realized := b.state == stateRealized
	b.mu.Unlock()

	if !realized {
		return
	}

	if int(button) == SecondaryButton {
		if menu != nil {
			menu(nil, SecondaryButton, uint32(time.Now().Unix()))
		}
		return
	}

	if activate != nil {
		activate()
	}
}
