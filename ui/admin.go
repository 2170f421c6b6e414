package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/RaiAbdullah1800/AiMed/api"
	"github.com/RaiAbdullah1800/AiMed/utils"
)

// AdminView lets an admin browse patients' stored chats
type AdminView struct {
	app *App
	vc  viewContext

	patients []api.Patient
	selected *api.Patient
	chats    []api.PatientChat
	// bumped on every selection; stale loads are dropped
	loadSeq int

	patientSelect *widget.Select
	status        *widget.Label
	chatList      *fyne.Container
	exportMD      *widget.Button
	exportJSON    *widget.Button
}

func newAdminView(app *App) *AdminView {
	return &AdminView{app: app, vc: newViewContext()}
}

func (v *AdminView) Build() fyne.CanvasObject {
	title := widget.NewLabel("Patient Chat Histories")
	title.TextStyle = fyne.TextStyle{Bold: true}

	v.patientSelect = widget.NewSelect(nil, v.onPatientSelected)
	v.patientSelect.PlaceHolder = "Select Patient"

	v.status = widget.NewLabel("Select a patient to view chat histories.")
	v.status.Wrapping = fyne.TextWrapWord
	v.chatList = container.NewVBox()

	v.exportMD = widget.NewButton("Export Markdown", func() { v.export(utils.FormatMarkdown) })
	v.exportJSON = widget.NewButton("Export JSON", func() { v.export(utils.FormatJSON) })
	v.exportMD.Disable()
	v.exportJSON.Disable()

	top := container.NewVBox(
		title,
		container.NewBorder(nil, nil, nil, container.NewHBox(v.exportMD, v.exportJSON), v.patientSelect),
		v.status,
	)

	v.loadPatients()
	return container.NewBorder(top, nil, nil, nil, container.NewVScroll(v.chatList))
}

func (v *AdminView) Teardown() { v.vc.cancel() }

func (v *AdminView) loadPatients() {
	v.status.SetText("Loading patients…")
	var patients []api.Patient
	v.app.async(v.vc, "load patients", func(ctx context.Context) error {
		var err error
		patients, err = v.app.client.Admin.ListPatients(ctx)
		return err
	}, func(err error) {
		if err != nil {
			v.status.SetText("")
			v.app.showError(api.UserMessage(err, "Failed to load patients"))
			return
		}
		v.patients = patients
		v.patientSelect.Options = patientOptions(patients)
		v.patientSelect.Refresh()
		if len(patients) == 0 {
			v.status.SetText("No patients found.")
		} else {
			v.status.SetText("Select a patient to view chat histories.")
		}
	})
}

func (v *AdminView) onPatientSelected(string) {
	idx := v.patientSelect.SelectedIndex()
	if idx < 0 || idx >= len(v.patients) {
		return
	}
	p := v.patients[idx]
	v.selected = &p
	v.chats = nil
	v.loadSeq++
	seq := v.loadSeq

	v.exportMD.Disable()
	v.exportJSON.Disable()
	v.chatList.Objects = nil
	v.chatList.Refresh()
	v.status.SetText("Loading chats…")

	var chats []api.PatientChat
	v.app.async(v.vc, "load chat histories", func(ctx context.Context) error {
		var err error
		chats, err = v.app.client.Admin.PatientChats(ctx, p.ID.String())
		return err
	}, func(err error) {
		if seq != v.loadSeq {
			return
		}
		if err != nil {
			v.status.SetText("")
			v.app.showError(api.UserMessage(err, "Failed to load chat histories"))
			return
		}
		v.chats = chats
		v.renderChats()
	})
}

func (v *AdminView) renderChats() {
	if len(v.chats) == 0 {
		v.status.SetText("No chat histories found for this patient.")
		v.chatList.Objects = nil
		v.chatList.Refresh()
		return
	}
	v.status.SetText(fmt.Sprintf("%d chats", len(v.chats)))
	v.exportMD.Enable()
	v.exportJSON.Enable()

	accordion := widget.NewAccordion()
	for _, c := range v.chats {
		body := container.NewVBox()
		for _, m := range c.Messages {
			header := widget.NewLabel(messageHeader(m))
			header.TextStyle = fyne.TextStyle{Bold: true}
			body.Add(header)
			body.Add(newSelectableText(m.Content))
		}
		if len(c.Messages) == 0 {
			body.Add(widget.NewLabel("No messages."))
		}
		accordion.Append(widget.NewAccordionItem(chatTitle(c), body))
	}
	v.chatList.Objects = []fyne.CanvasObject{accordion}
	v.chatList.Refresh()
}

func (v *AdminView) export(format utils.ExportFormat) {
	if v.selected == nil || len(v.chats) == 0 {
		return
	}
	export := buildPatientExport(*v.selected, v.chats)

	dir, err := utils.GetDefaultDownloadPath()
	if err != nil {
		v.app.showError(fmt.Sprintf("Failed to export: %v", err))
		return
	}
	path := filepath.Join(dir, utils.GenerateExportFilename(v.selected.Name, format))
	if err := utils.ExportPatientChats(path, export, format); err != nil {
		v.app.logger.Error("Export failed: %v", err)
		v.app.showError(fmt.Sprintf("Failed to export: %v", err))
		return
	}
	v.app.logger.Info("Exported %d chats", len(export.Chats))
	v.app.showSuccess("Exported to " + path)
}

// patientOptions renders the select entries as "name (email)"
func patientOptions(patients []api.Patient) []string {
	options := make([]string, len(patients))
	for i, p := range patients {
		options[i] = fmt.Sprintf("%s (%s)", p.Name, p.Email)
	}
	return options
}

func chatTitle(c api.PatientChat) string {
	title := "Chat ID: " + c.ChatID.String()
	if !c.CreatedAt.IsZero() {
		title += " • " + c.CreatedAt.Local().Format("2006-01-02 15:04")
	}
	return title
}

func messageHeader(m api.HistoryMessage) string {
	header := strings.ToUpper(m.Role)
	if !m.Timestamp.IsZero() {
		header += " @ " + m.Timestamp.Local().Format("2006-01-02 15:04:05")
	}
	return header
}

func buildPatientExport(p api.Patient, chats []api.PatientChat) utils.PatientExport {
	export := utils.PatientExport{
		PatientID: p.ID.String(),
		Name:      p.Name,
		Email:     p.Email,
		Chats:     make([]utils.ChatExport, 0, len(chats)),
	}
	for _, c := range chats {
		ce := utils.ChatExport{
			ChatID:    c.ChatID.String(),
			CreatedAt: c.CreatedAt.Time,
			Messages:  make([]utils.MessageExport, 0, len(c.Messages)),
		}
		for _, m := range c.Messages {
			ce.Messages = append(ce.Messages, utils.MessageExport{
				ID:        m.MessageID.String(),
				Role:      m.Role,
				Content:   m.Content,
				Timestamp: m.Timestamp.Time,
			})
		}
		export.Chats = append(export.Chats, ce)
	}
	return export
}
