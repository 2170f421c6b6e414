package ui

import (
	"context"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/RaiAbdullah1800/AiMed/api"
	"github.com/RaiAbdullah1800/AiMed/utils"
)

// appointmentLayout is how the date-time entry is read, in local time
const appointmentLayout = "2006-01-02 15:04"

// AppointmentsView books visits and lists the patient's appointments
type AppointmentsView struct {
	app *App
	vc  viewContext

	appointments []api.Appointment

	doctorSelect *widget.Select
	when         *widget.Entry
	bookButton   *widget.Button
	list         *fyne.Container
}

func newAppointmentsView(app *App) *AppointmentsView {
	return &AppointmentsView{app: app, vc: newViewContext()}
}

func (v *AppointmentsView) Build() fyne.CanvasObject {
	title := widget.NewLabel("Schedule an Appointment")
	title.TextStyle = fyne.TextStyle{Bold: true}

	v.doctorSelect = widget.NewSelect(nil, nil)
	v.doctorSelect.PlaceHolder = "Select Doctor"

	v.when = widget.NewEntry()
	v.when.SetPlaceHolder("YYYY-MM-DD HH:MM")

	v.bookButton = widget.NewButton("Schedule", v.schedule)
	v.bookButton.Importance = widget.HighImportance

	form := widget.NewForm(
		widget.NewFormItem("Doctor", v.doctorSelect),
		widget.NewFormItem("Date & time", v.when),
	)

	heading := widget.NewLabel("Your Appointments")
	heading.TextStyle = fyne.TextStyle{Bold: true}
	v.list = container.NewVBox()

	v.loadDoctors()
	v.loadAppointments()

	return container.NewBorder(
		container.NewVBox(title, form, v.bookButton, widget.NewSeparator(), heading),
		nil, nil, nil,
		container.NewVScroll(v.list),
	)
}

func (v *AppointmentsView) Teardown() { v.vc.cancel() }

func (v *AppointmentsView) loadDoctors() {
	var doctors []api.Doctor
	v.app.async(v.vc, "load doctors", func(ctx context.Context) error {
		var err error
		doctors, err = v.app.client.Appointments.AvailableDoctors(ctx)
		return err
	}, func(err error) {
		if err != nil {
			v.app.showError(api.UserMessage(err, "Failed to load doctors"))
			return
		}
		names := make([]string, 0, len(doctors))
		for _, d := range doctors {
			names = append(names, d.DoctorName)
		}
		v.doctorSelect.Options = names
		v.doctorSelect.Refresh()
	})
}

func (v *AppointmentsView) loadAppointments() {
	s := v.app.store.Current()
	if s == nil {
		return
	}
	userID := s.User.ID

	var appts []api.Appointment
	v.app.async(v.vc, "load appointments", func(ctx context.Context) error {
		var err error
		appts, err = v.app.client.Appointments.UserAppointments(ctx, userID)
		return err
	}, func(err error) {
		if err != nil {
			v.app.showError(api.UserMessage(err, "Failed to load appointments"))
			return
		}
		v.appointments = appts
		v.renderList()
	})
}

func (v *AppointmentsView) schedule() {
	doctor := v.doctorSelect.Selected
	at, err := parseAppointmentTime(doctor, v.when.Text, time.Local)
	if err != nil {
		v.app.showError(err.Error())
		return
	}

	v.bookButton.Disable()
	var created *api.Appointment
	v.app.async(v.vc, "schedule appointment", func(ctx context.Context) error {
		var err error
		created, err = v.app.client.Appointments.Schedule(ctx, doctor, at)
		return err
	}, func(err error) {
		v.bookButton.Enable()
		if err != nil {
			v.app.showError(api.UserMessage(err, "Failed to schedule"))
			return
		}
		v.appointments = append([]api.Appointment{*created}, v.appointments...)
		v.renderList()
		v.when.SetText("")
		v.doctorSelect.ClearSelected()
		v.app.showSuccess("Appointment scheduled!")
	})
}

func (v *AppointmentsView) renderList() {
	if len(v.appointments) == 0 {
		v.list.Objects = []fyne.CanvasObject{widget.NewLabel("No upcoming appointments.")}
		v.list.Refresh()
		return
	}
	objects := make([]fyne.CanvasObject, 0, len(v.appointments))
	for _, a := range v.appointments {
		doctor := widget.NewLabel("Dr. " + a.DoctorName)
		doctor.TextStyle = fyne.TextStyle{Bold: true}
		objects = append(objects, container.NewBorder(nil, nil,
			container.NewVBox(doctor, widget.NewLabel(formatAppointmentTime(a.ScheduledAt))),
			widget.NewLabel(statusLabel(a.Status)),
		), widget.NewSeparator())
	}
	v.list.Objects = objects
	v.list.Refresh()
}

// parseAppointmentTime checks the booking form and reads the entry in loc
func parseAppointmentTime(doctor, value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if doctor == "" || value == "" {
		return time.Time{}, &utils.ValidationError{Field: "appointment", Message: "Please select a doctor and date/time."}
	}
	at, err := time.ParseInLocation(appointmentLayout, value, loc)
	if err != nil {
		return time.Time{}, &utils.ValidationError{Field: "appointment_datetime", Message: "Date and time must look like YYYY-MM-DD HH:MM."}
	}
	return at, nil
}

func formatAppointmentTime(t api.Timestamp) string {
	if t.IsZero() {
		return "Time not set"
	}
	return t.Local().Format("Mon, 02 Jan 2006 15:04")
}

// statusLabel capitalizes the status as received
func statusLabel(s api.AppointmentStatus) string {
	status := string(s)
	if status == "" {
		return ""
	}
	return strings.ToUpper(status[:1]) + status[1:]
}
