package ui

import (
	"context"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/RaiAbdullah1800/AiMed/api"
	"github.com/RaiAbdullah1800/AiMed/route"
	"github.com/RaiAbdullah1800/AiMed/session"
	"github.com/RaiAbdullah1800/AiMed/utils"
)

// loadingView is shown while a stored credential is being validated
type loadingView struct{}

func (v *loadingView) Build() fyne.CanvasObject {
	label := widget.NewLabel("Connecting…")
	label.Alignment = fyne.TextAlignCenter
	return container.NewCenter(container.NewVBox(label, widget.NewProgressBarInfinite()))
}

func (v *loadingView) Teardown() {}

// authCard centers a titled form the way both auth screens show it
func authCard(title string, body ...fyne.CanvasObject) fyne.CanvasObject {
	heading := widget.NewLabel(title)
	heading.TextStyle = fyne.TextStyle{Bold: true}
	heading.Alignment = fyne.TextAlignCenter

	objects := append([]fyne.CanvasObject{heading, widget.NewSeparator()}, body...)
	card := container.NewVBox(objects...)
	return container.NewCenter(container.New(&minWidthLayout{width: 380}, card))
}

// minWidthLayout stretches its single child to at least width
type minWidthLayout struct {
	width float32
}

func (l *minWidthLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	size := fyne.NewSize(l.width, 0)
	for _, o := range objects {
		size = size.Max(o.MinSize())
	}
	return size
}

func (l *minWidthLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	for _, o := range objects {
		o.Move(fyne.NewPos(0, 0))
		o.Resize(size)
	}
}

// keyLastEmail prefills the login form; it survives logout
const keyLastEmail = "ui.last_email"

// loginView signs an existing user in
type loginView struct {
	app *App
	vc  viewContext
}

func newLoginView(app *App) *loginView {
	return &loginView{app: app, vc: newViewContext()}
}

func (v *loginView) Build() fyne.CanvasObject {
	email := widget.NewEntry()
	email.SetPlaceHolder("Email")
	if last, err := v.app.db.Get(keyLastEmail); err == nil {
		email.SetText(last)
	}
	password := widget.NewPasswordEntry()
	password.SetPlaceHolder("Password")

	errLabel := widget.NewLabel("")
	errLabel.Wrapping = fyne.TextWrapWord
	errLabel.Importance = widget.DangerImportance
	errLabel.Hide()

	var submit *widget.Button
	submit = widget.NewButton("Login", func() {
		creds := session.Credentials{Email: email.Text, Password: password.Text}
		if err := utils.ValidateLogin(creds.Email, creds.Password); err != nil {
			errLabel.SetText(err.Error())
			errLabel.Show()
			return
		}
		errLabel.Hide()
		submit.Disable()
		submit.SetText("Logging in…")

		v.app.async(v.vc, "login", func(ctx context.Context) error {
			if _, err := v.app.store.Login(ctx, creds); err != nil {
				return err
			}
			if err := v.app.db.Set(keyLastEmail, strings.TrimSpace(creds.Email)); err != nil {
				v.app.logger.Warn("Failed to remember email: %v", err)
			}
			return nil
		}, func(err error) {
			submit.Enable()
			submit.SetText("Login")
			if err != nil {
				errLabel.SetText(api.UserMessage(err, "Failed to login"))
				errLabel.Show()
				return
			}
			// usually unreached: the session change routes away first
			v.app.navigate(route.Root)
		})
	})
	submit.Importance = widget.HighImportance
	password.OnSubmitted = func(string) { submit.OnTapped() }

	signup := widget.NewButton("Don't have an account? Sign up", func() {
		v.app.navigate(route.Signup)
	})
	signup.Importance = widget.LowImportance

	return authCard("AiMed Login",
		widget.NewForm(
			widget.NewFormItem("Email", email),
			widget.NewFormItem("Password", password),
		),
		errLabel,
		submit,
		signup,
	)
}

func (v *loginView) Teardown() { v.vc.cancel() }

// signupView registers a new account
type signupView struct {
	app *App
	vc  viewContext
}

func newSignupView(app *App) *signupView {
	return &signupView{app: app, vc: newViewContext()}
}

func (v *signupView) Build() fyne.CanvasObject {
	name := widget.NewEntry()
	name.SetPlaceHolder("Full name")
	email := widget.NewEntry()
	email.SetPlaceHolder("Email")
	password := widget.NewPasswordEntry()
	password.SetPlaceHolder("Password")

	strength := widget.NewLabel("")
	password.OnChanged = func(s string) {
		if grade := utils.PasswordStrength(s); grade != "" {
			strength.SetText("Password strength: " + grade)
		} else {
			strength.SetText("")
		}
	}

	role := widget.NewRadioGroup([]string{"Patient", "Admin"}, nil)
	role.Horizontal = true
	role.Required = true
	role.SetSelected("Patient")

	errLabel := widget.NewLabel("")
	errLabel.Wrapping = fyne.TextWrapWord
	errLabel.Importance = widget.DangerImportance
	errLabel.Hide()

	var submit *widget.Button
	submit = widget.NewButton("Sign Up", func() {
		reg := session.Registration{
			Name:     name.Text,
			Email:    email.Text,
			Password: password.Text,
			Role:     roleFromLabel(role.Selected),
		}
		if err := utils.ValidateRegistration(reg.Name, reg.Email, reg.Password); err != nil {
			errLabel.SetText(err.Error())
			errLabel.Show()
			return
		}
		errLabel.Hide()
		submit.Disable()

		v.app.async(v.vc, "register", func(ctx context.Context) error {
			return v.app.store.Register(ctx, reg)
		}, func(err error) {
			submit.Enable()
			if err != nil {
				errLabel.SetText(api.UserMessage(err, "Failed to register"))
				errLabel.Show()
				return
			}
			v.app.showSuccess("Registration successful! Please log in.")
			v.app.navigate(route.Login)
		})
	})
	submit.Importance = widget.HighImportance

	login := widget.NewButton("Already have an account? Login", func() {
		v.app.navigate(route.Login)
	})
	login.Importance = widget.LowImportance

	return authCard("Create an AiMed account",
		widget.NewForm(
			widget.NewFormItem("Name", name),
			widget.NewFormItem("Email", email),
			widget.NewFormItem("Password", password),
			widget.NewFormItem("", strength),
			widget.NewFormItem("Role", role),
		),
		errLabel,
		submit,
		login,
	)
}

func (v *signupView) Teardown() { v.vc.cancel() }

func roleFromLabel(label string) session.Role {
	if label == "Admin" {
		return session.RoleAdmin
	}
	return session.RolePatient
}
