package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"github.com/RaiAbdullah1800/AiMed/route"
)

// setupSystemTray installs the tray menu when the driver supports one.
// The driver appends its own Quit item.
func (a *App) setupSystemTray() {
	desk, ok := a.fyneApp.(desktop.App)
	if !ok {
		a.logger.Debug("System tray not supported by this driver")
		return
	}

	show := fyne.NewMenuItem("Show Window", func() {
		a.window.Show()
		a.window.RequestFocus()
	})
	newChat := fyne.NewMenuItem("New Chat", func() {
		a.window.Show()
		a.startNewChat()
	})
	logout := fyne.NewMenuItem("Log Out", func() {
		a.window.Show()
		a.logout()
	})

	desk.SetSystemTrayMenu(fyne.NewMenu("AiMed", show, newChat, fyne.NewMenuItemSeparator(), logout))
	desk.SetSystemTrayIcon(fyne.NewStaticResource("aimed.png", trayIconData))
	a.logger.Info("System tray initialized")
}

// enableMinimizeToTray hides the window instead of quitting on close
func (a *App) enableMinimizeToTray() {
	a.window.SetCloseIntercept(func() {
		a.logger.Info("Window close intercepted - minimizing to tray")
		a.window.Hide()
	})
}

// logout ends the session locally and returns to the login view
func (a *App) logout() {
	if a.store.Current() == nil {
		a.showInfo("You are not signed in.")
		return
	}
	a.store.Logout()
	a.nav.Navigate(string(route.Login))
}

// 16x16 PNG, flat blue square
var trayIconData = []byte{
	0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x10,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0xF3, 0xFF, 0x61, 0x00, 0x00, 0x00,
	0x3B, 0x49, 0x44, 0x41, 0x54, 0x38, 0x8D, 0x63, 0x64, 0xC0, 0x0F, 0xF0,
	0x0F, 0x62, 0x62, 0x60, 0x60, 0xF8, 0xCF, 0xC0, 0xC0, 0xC0, 0xF0, 0x9F,
	0x81, 0x81, 0x81, 0xE1, 0x3F, 0x03, 0x03, 0x03, 0xC3, 0x7F, 0x06, 0x06,
	0x06, 0x86, 0xFF, 0x0C, 0x0C, 0x0C, 0x0C, 0xFF, 0x19, 0x18, 0x18, 0x18,
	0xFE, 0x33, 0x30, 0x30, 0x30, 0xFC, 0x67, 0x60, 0x60, 0x60, 0x00, 0x00,
	0x1F, 0x84, 0x01, 0x0C, 0x7A, 0x7A, 0x7A, 0x7A, 0x00, 0x00, 0x00, 0x00,
	0x49, 0x45, 0x4E, 0x44, 0xAE, 0x42, 0x60, 0x82,
}
