package ui

import (
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// markdownPart is a run of reply text, either prose or a fenced code block
type markdownPart struct {
	content  string
	isCode   bool
	language string
}

// splitCodeBlocks separates fenced code blocks from the surrounding text.
// An unterminated fence runs to the end of the text.
func splitCodeBlocks(markdown string) []markdownPart {
	var parts []markdownPart
	var current strings.Builder
	inCode := false
	language := ""

	flush := func(isCode bool) {
		if current.Len() == 0 && !isCode {
			return
		}
		parts = append(parts, markdownPart{
			content:  strings.TrimSuffix(current.String(), "\n"),
			isCode:   isCode,
			language: language,
		})
		current.Reset()
	}

	for _, line := range strings.Split(markdown, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			if inCode {
				flush(true)
				inCode = false
				language = ""
			} else {
				flush(false)
				inCode = true
				language = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "```"))
			}
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	flush(inCode)

	return parts
}

// newSelectableText creates a read-only, selectable text widget
func newSelectableText(text string) *widget.Label {
	label := widget.NewLabel(text)
	label.Wrapping = fyne.TextWrapBreak
	label.Selectable = true
	return label
}

// newSelectableCodeText is newSelectableText in a monospace font
func newSelectableCodeText(text string) *widget.Label {
	label := newSelectableText(text)
	label.TextStyle = fyne.TextStyle{Monospace: true}
	return label
}

// renderReply lays out an assistant reply, giving each code block a copy
// button
func (a *App) renderReply(content string) fyne.CanvasObject {
	if !strings.Contains(content, "```") {
		return newSelectableText(content)
	}

	box := container.NewVBox()
	for _, part := range splitCodeBlocks(content) {
		if !part.isCode {
			if strings.TrimSpace(part.content) != "" {
				box.Add(newSelectableText(part.content))
			}
			continue
		}

		code := part.content
		copyButton := widget.NewButton("Copy code", func() {
			a.fyneApp.Clipboard().SetContent(code)
			a.logger.Debug("Code copied to clipboard")
		})
		copyButton.Importance = widget.LowImportance

		var header fyne.CanvasObject = container.NewHBox(copyButton)
		if part.language != "" {
			lang := widget.NewLabel(part.language)
			lang.TextStyle = fyne.TextStyle{Bold: true, Italic: true}
			header = container.NewBorder(nil, nil, lang, copyButton)
		}
		box.Add(container.NewBorder(header, nil, nil, nil, newSelectableCodeText(code)))
	}
	return box
}
