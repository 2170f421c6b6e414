package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

var (
	colorPrimary = color.NRGBA{R: 0x19, G: 0x76, B: 0xD2, A: 0xFF}
	colorError   = color.NRGBA{R: 0xD3, G: 0x2F, B: 0x2F, A: 0xFF}
	colorSuccess = color.NRGBA{R: 0x38, G: 0x8E, B: 0x3C, A: 0xFF}
	colorWarning = color.NRGBA{R: 0xFF, G: 0xA0, B: 0x00, A: 0xFF}
	colorPaperBg = color.NRGBA{R: 0xF5, G: 0xF5, B: 0xF5, A: 0xFF}
)

// clinicTheme wraps the default theme with the clinic palette and the
// configured font size
type clinicTheme struct {
	baseFontSize float32
	baseTheme    fyne.Theme
	dark         bool
}

func newClinicTheme(baseFontSize int, isDark bool) fyne.Theme {
	base := theme.LightTheme()
	if isDark {
		base = theme.DarkTheme()
	}
	return &clinicTheme{
		baseFontSize: float32(baseFontSize),
		baseTheme:    base,
		dark:         isDark,
	}
}

func (t *clinicTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary, theme.ColorNameFocus:
		return colorPrimary
	case theme.ColorNameError:
		return colorError
	case theme.ColorNameSuccess:
		return colorSuccess
	case theme.ColorNameWarning:
		return colorWarning
	case theme.ColorNameBackground:
		if !t.dark {
			return colorPaperBg
		}
	}
	return t.baseTheme.Color(name, variant)
}

func (t *clinicTheme) Font(style fyne.TextStyle) fyne.Resource {
	return t.baseTheme.Font(style)
}

func (t *clinicTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return t.baseTheme.Icon(name)
}

func (t *clinicTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameText:
		return t.baseFontSize
	case theme.SizeNameHeadingText:
		return t.baseFontSize * 1.5
	case theme.SizeNameSubHeadingText:
		return t.baseFontSize * 1.2
	case theme.SizeNameCaptionText:
		return t.baseFontSize * 0.85
	default:
		return t.baseTheme.Size(name)
	}
}
