package ui

import (
	"context"
	"errors"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/RaiAbdullah1800/AiMed/chat"
	"github.com/RaiAbdullah1800/AiMed/utils"
)

// customEntry extends Entry to send on Ctrl+Enter
type customEntry struct {
	widget.Entry
	onCtrlEnter func()
}

// TypedShortcut handles keyboard shortcuts
func (e *customEntry) TypedShortcut(shortcut fyne.Shortcut) {
	if ks, ok := shortcut.(*desktop.CustomShortcut); ok {
		if (ks.KeyName == fyne.KeyReturn || ks.KeyName == fyne.KeyEnter) &&
			ks.Modifier == desktop.ControlModifier && e.onCtrlEnter != nil {
			e.onCtrlEnter()
			return
		}
	}
	e.Entry.TypedShortcut(shortcut)
}

// TypedKey intercepts key events as a fallback
func (e *customEntry) TypedKey(key *fyne.KeyEvent) {
	if key.Name == fyne.KeyReturn || key.Name == fyne.KeyEnter {
		if drv, ok := fyne.CurrentApp().Driver().(desktop.Driver); ok {
			if drv.CurrentKeyModifiers()&fyne.KeyModifierControl != 0 && e.onCtrlEnter != nil {
				e.onCtrlEnter()
				return
			}
		}
	}
	e.Entry.TypedKey(key)
}

// ChatView is the patient's conversation with the assistant
type ChatView struct {
	app *App

	messagesContainer *fyne.Container
	scroll            *container.Scroll
	inputEntry        *customEntry
	sendButton        *widget.Button
	typing            *widget.Label
}

func newChatView(app *App) *ChatView {
	return &ChatView{app: app}
}

// Build builds the chat view UI
func (cv *ChatView) Build() fyne.CanvasObject {
	cv.messagesContainer = container.NewVBox()
	cv.scroll = container.NewScroll(cv.messagesContainer)
	cv.scroll.SetMinSize(fyne.NewSize(600, 400))

	cv.typing = widget.NewLabel("Assistant is typing…")
	cv.typing.TextStyle = fyne.TextStyle{Italic: true}
	cv.typing.Hide()

	cv.inputEntry = &customEntry{}
	cv.inputEntry.MultiLine = true
	cv.inputEntry.Wrapping = fyne.TextWrapBreak
	cv.inputEntry.SetPlaceHolder("Describe your symptoms or ask a question... (Ctrl+Enter to send)")
	cv.inputEntry.SetMinRowsVisible(3)
	cv.inputEntry.onCtrlEnter = cv.sendMessage
	cv.inputEntry.ExtendBaseWidget(cv.inputEntry)

	cv.sendButton = widget.NewButton("Send", cv.sendMessage)
	cv.sendButton.Importance = widget.HighImportance

	input := container.NewBorder(cv.typing, nil, nil, cv.sendButton, cv.inputEntry)

	cv.app.conv.OnChange(func() {
		fyne.Do(cv.refresh)
	})
	cv.refresh()

	return container.NewBorder(nil, input, nil, nil, cv.scroll)
}

// Teardown detaches from the conversation; it lives on for the next visit
func (cv *ChatView) Teardown() {
	cv.app.conv.OnChange(nil)
}

func (cv *ChatView) sendMessage() {
	text := cv.inputEntry.Text
	if strings.TrimSpace(text) == "" || cv.app.conv.Pending() {
		return
	}
	cv.inputEntry.SetText("")

	// The send outlives the view: the reply still lands in the conversation.
	conv := cv.app.conv
	logger := cv.app.logger
	utils.SafeGo(logger, "chat send", func() {
		if _, err := conv.Send(context.Background(), text); err != nil && !errors.Is(err, chat.ErrConversationReset) {
			logger.Warn("Chat message failed: %v", err)
		}
	})
}

// refresh rebuilds the message list from the conversation
func (cv *ChatView) refresh() {
	if cv.messagesContainer == nil {
		return
	}
	msgs := cv.app.conv.Messages()

	objects := make([]fyne.CanvasObject, 0, len(msgs)+1)
	if len(msgs) == 0 {
		hint := widget.NewLabel("Start a conversation with your AI health assistant.")
		hint.Alignment = fyne.TextAlignCenter
		objects = append(objects, hint)
	}
	for _, m := range msgs {
		objects = append(objects, cv.buildMessageUI(m))
	}
	cv.messagesContainer.Objects = objects
	cv.messagesContainer.Refresh()

	pending := cv.app.conv.Pending()
	if pending {
		cv.typing.Show()
		cv.sendButton.Disable()
	} else {
		cv.typing.Hide()
		cv.sendButton.Enable()
	}
	cv.scroll.ScrollToBottom()
}

func (cv *ChatView) buildMessageUI(m chat.Message) fyne.CanvasObject {
	who := "You"
	if m.Role == chat.RoleAssistant {
		who = "AiMed"
	}
	header := widget.NewLabel(who + " • " + m.Timestamp.Local().Format("15:04"))
	header.TextStyle = fyne.TextStyle{Bold: true}

	var body fyne.CanvasObject
	if m.Role == chat.RoleAssistant {
		body = cv.app.renderReply(m.Text)
	} else {
		body = newSelectableText(m.Text)
	}

	text := m.Text
	copyButton := widget.NewButton("Copy", func() {
		cv.app.fyneApp.Clipboard().SetContent(text)
	})
	copyButton.Importance = widget.LowImportance

	return container.NewVBox(
		container.NewBorder(nil, nil, header, copyButton),
		body,
		widget.NewSeparator(),
	)
}
