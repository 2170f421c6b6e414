package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/RaiAbdullah1800/AiMed/route"
)

// mainLayout frames an authenticated view with the header and navigation
type mainLayout struct {
	app   *App
	inner view
}

func newMainLayout(app *App, inner view) *mainLayout {
	return &mainLayout{app: app, inner: inner}
}

func (l *mainLayout) Build() fyne.CanvasObject {
	a := l.app
	s := a.store.Current()

	title := widget.NewLabel("AiMed")
	title.TextStyle = fyne.TextStyle{Bold: true}

	nav := container.NewHBox()
	if s.IsAdmin() {
		nav.Add(widget.NewButtonWithIcon("Admin Panel", theme.AccountIcon(), func() {
			a.navigate(route.Admin)
		}))
	} else {
		nav.Add(widget.NewButtonWithIcon("New Chat", theme.ContentAddIcon(), a.startNewChat))
		nav.Add(widget.NewButtonWithIcon("Appointments", theme.HistoryIcon(), func() {
			a.navigate(route.Appointments)
		}))
		nav.Add(widget.NewButtonWithIcon("Text to Voice", theme.VolumeUpIcon(), func() {
			a.navigate(route.TextToVoice)
		}))
	}

	user := ""
	if s != nil {
		user = s.User.Name
		if user == "" {
			user = s.User.Email
		}
	}
	logout := widget.NewButtonWithIcon("Logout", theme.LogoutIcon(), a.logout)

	header := container.NewBorder(nil, nil,
		container.NewHBox(title, widget.NewSeparator(), nav),
		container.NewHBox(widget.NewLabel(user), logout),
	)

	return container.NewBorder(
		container.NewVBox(header, widget.NewSeparator()),
		nil, nil, nil,
		container.NewPadded(l.inner.Build()),
	)
}

func (l *mainLayout) Teardown() {
	l.inner.Teardown()
}
