package ui

import (
	"context"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/RaiAbdullah1800/AiMed/api"
	"github.com/RaiAbdullah1800/AiMed/chat"
	"github.com/RaiAbdullah1800/AiMed/db"
	"github.com/RaiAbdullah1800/AiMed/route"
	"github.com/RaiAbdullah1800/AiMed/session"
	"github.com/RaiAbdullah1800/AiMed/utils"
	"github.com/RaiAbdullah1800/AiMed/voice"
)

// view is one screen of the window
type view interface {
	Build() fyne.CanvasObject
	// Teardown releases everything the view started (requests, devices)
	Teardown()
}

// App represents the main application
type App struct {
	fyneApp    fyne.App
	window     fyne.Window
	config     *utils.Config
	configPath string
	db         *db.DB
	logger     *utils.Logger

	client *api.Client
	store  *session.Store
	nav    *route.Navigator
	conv   *chat.Conversation

	capture voice.CaptureDevice
	player  voice.Player

	root    *fyne.Container
	current view
	cleanup []func()
}

// NewApp creates a new application instance
func NewApp(config *utils.Config, configPath string, database *db.DB, client *api.Client, store *session.Store, logger *utils.Logger) *App {
	fyneApp := app.NewWithID("com.aimed.client")
	window := fyneApp.NewWindow("AiMed")

	window.Resize(fyne.NewSize(
		float32(config.UI.WindowWidth),
		float32(config.UI.WindowHeight),
	))

	a := &App{
		fyneApp:    fyneApp,
		window:     window,
		config:     config,
		configPath: configPath,
		db:         database,
		logger:     logger,
		client:     client,
		store:      store,
		conv:       chat.NewConversation(client.Chat, logger.WithPrefix("chat")),
		capture:    voice.NewFFmpegCapture(config.Audio),
		player:     &voice.FFplayPlayer{Path: config.Audio.FFplayPath},
		root:       container.NewStack(),
	}
	a.nav = route.NewNavigator(store, logger.WithPrefix("route"))

	window.SetOnClosed(func() {
		size := window.Canvas().Size()
		a.config.UI.WindowWidth = int(size.Width)
		a.config.UI.WindowHeight = int(size.Height)
		if err := utils.SaveConfig(a.configPath, a.config); err != nil {
			a.logger.Error("Failed to save window size: %v", err)
		}
	})

	a.applyThemeFromConfig()
	a.wire()

	window.SetContent(a.root)
	a.setupKeyboardShortcuts()
	a.setupSystemTray()
	if a.config.UI.MinimizeToTray {
		a.enableMinimizeToTray()
	}

	return a
}

// wire connects session changes, 401 handling and navigation to the window
func (a *App) wire() {
	a.nav.SetHandler(func(d route.Decision) {
		fyne.Do(func() { a.show(d) })
	})

	a.cleanup = append(a.cleanup,
		a.store.Subscribe(func(s *session.Session) {
			if s == nil {
				a.conv.Reset()
			}
		}),
		a.nav.Follow(a.store.Subscribe),
		route.NewCoordinator(a.store, a.nav, a.logger.WithPrefix("auth")).Attach(a.client),
	)
}

// show swaps the window content for the view d resolves to
func (a *App) show(d route.Decision) {
	var next view
	switch {
	case d.Suspended:
		next = &loadingView{}
	case d.Route == route.Login:
		next = newLoginView(a)
	case d.Route == route.Signup:
		next = newSignupView(a)
	case d.Route == route.Admin:
		next = newMainLayout(a, newAdminView(a))
	case d.Route == route.Chat:
		next = newMainLayout(a, newChatView(a))
	case d.Route == route.Appointments:
		next = newMainLayout(a, newAppointmentsView(a))
	case d.Route == route.TextToVoice:
		next = newMainLayout(a, newVoiceView(a))
	default:
		a.logger.Warn("No view for route %s", d.Route)
		return
	}

	if a.current != nil {
		a.current.Teardown()
	}
	a.current = next
	a.root.Objects = []fyne.CanvasObject{next.Build()}
	a.root.Refresh()
	a.logger.Debug("Showing %s", d.Route)
}

// navigate is the entry point for view buttons
func (a *App) navigate(r route.Route) {
	a.nav.Navigate(string(r))
}

// startNewChat clears the conversation and opens the chat view
func (a *App) startNewChat() {
	a.conv.Reset()
	a.navigate(route.Chat)
}

// setupKeyboardShortcuts sets up global keyboard shortcuts
func (a *App) setupKeyboardShortcuts() {
	// Ctrl+N: New chat
	a.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyne.KeyN,
		Modifier: fyne.KeyModifierShortcutDefault,
	}, func(fyne.Shortcut) {
		if s := a.store.Current(); s != nil && !s.IsAdmin() {
			a.startNewChat()
		}
	})
}

// Run validates any stored credential in the background and starts the
// event loop
func (a *App) Run() {
	a.navigate(route.Root)
	utils.SafeGo(a.logger, "startup validation", func() {
		if _, err := a.store.ValidateOnStartup(context.Background()); err != nil {
			a.logger.Warn("Stored session discarded: %s", utils.Redact(err.Error()))
		}
	})
	a.window.ShowAndRun()
}

// Cleanup releases subscriptions and the active view
func (a *App) Cleanup() {
	if a.current != nil {
		a.current.Teardown()
	}
	for _, fn := range a.cleanup {
		fn()
	}
	a.logger.Info("Application cleanup completed")
}

func (a *App) applyThemeFromConfig() {
	isDark := a.config.UI.Theme == "dark"
	fontSize := a.config.UI.FontSize
	if fontSize < 10 {
		fontSize = 14
	}
	a.fyneApp.Settings().SetTheme(newClinicTheme(fontSize, isDark))
	a.logger.Info("Applied %s theme with font size %d", a.config.UI.Theme, fontSize)
}

// showError shows an error dialog
func (a *App) showError(message string) {
	a.showModal("Error", message)
}

// showSuccess shows a success dialog
func (a *App) showSuccess(message string) {
	a.showModal("Success", message)
}

// showInfo shows an info dialog
func (a *App) showInfo(message string) {
	a.showModal("Info", message)
}

func (a *App) showModal(title, message string) {
	heading := widget.NewLabel(title)
	heading.TextStyle = fyne.TextStyle{Bold: true}
	body := widget.NewLabel(message)
	body.Wrapping = fyne.TextWrapWord

	var popup *widget.PopUp
	popup = widget.NewModalPopUp(
		container.NewVBox(
			heading,
			body,
			widget.NewButton("OK", func() {
				popup.Hide()
			}),
		),
		a.window.Canvas(),
	)
	popup.Resize(fyne.NewSize(360, 0))
	popup.Show()
}

// viewContext is the lifetime of one view: cancelled on Teardown
type viewContext struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func newViewContext() viewContext {
	ctx, cancel := context.WithCancel(context.Background())
	return viewContext{ctx: ctx, cancel: cancel}
}

// async runs fn off the UI goroutine and hands its result to done on the UI
// goroutine, unless the view was torn down meanwhile. Failures are logged.
func (a *App) async(vc viewContext, name string, fn func(ctx context.Context) error, done func(err error)) {
	deliver := func(err error) {
		if vc.ctx.Err() != nil {
			return
		}
		fyne.Do(func() { done(err) })
	}
	utils.SafeGoWithError(a.logger, name, func() error {
		err := fn(vc.ctx)
		if vc.ctx.Err() != nil {
			return nil
		}
		if err == nil {
			deliver(nil)
		}
		return err
	}, deliver)
}
