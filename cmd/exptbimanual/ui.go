package main

import (
	"fmt"
	"image/color"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

type setupTheme struct {
	base fyne.Theme
}

func newSetupTheme() fyne.Theme {
	return &setupTheme{base: theme.DarkTheme()}
}

func (t *setupTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNameBackground:
		return color.NRGBA{R: 0x10, G: 0x12, B: 0x16, A: 0xff}
	case theme.ColorNameButton:
		return color.NRGBA{R: 0x1d, G: 0x23, B: 0x2c, A: 0xff}
	case theme.ColorNameInputBackground:
		return color.NRGBA{R: 0x13, G: 0x18, B: 0x1f, A: 0xff}
	case theme.ColorNameInputBorder, theme.ColorNameSeparator:
		return color.NRGBA{R: 0x2b, G: 0x33, B: 0x40, A: 0xff}
	case theme.ColorNamePrimary, theme.ColorNameHyperlink:
		return color.NRGBA{R: 0x5a, G: 0xa9, B: 0xe6, A: 0xff}
	case theme.ColorNameFocus:
		return color.NRGBA{R: 0x5a, G: 0xa9, B: 0xe6, A: 0x66}
	case theme.ColorNameForeground:
		return color.NRGBA{R: 0xf2, G: 0xf4, B: 0xf8, A: 0xff}
	case theme.ColorNameError:
		return color.NRGBA{R: 0xff, G: 0x82, B: 0x82, A: 0xff}
	}
	return t.base.Color(name, variant)
}

func (t *setupTheme) Font(style fyne.TextStyle) fyne.Resource {
	return t.base.Font(style)
}

func (t *setupTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return t.base.Icon(name)
}

func (t *setupTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNamePadding, theme.SizeNameInnerPadding, theme.SizeNameInputRadius:
		return 8
	}
	return t.base.Size(name)
}

// positiveInt is the validator for every numeric field in the dialog.
func positiveInt(label string) func(string) error {
	return func(raw string) error {
		_, err := parsePositiveInt(label, raw)
		return err
	}
}

func parsePositiveInt(label, raw string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number", label)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s must be > 0", label)
	}
	return value, nil
}

// parseSetupFields turns the dialog's text fields into session info.
func parseSetupFields(subject, session, width, height string, fullscreen bool) (sessionInfo, error) {
	var (
		info sessionInfo
		err  error
	)
	if info.Subject, err = parsePositiveInt("Participant", subject); err != nil {
		return info, err
	}
	if info.Session, err = parsePositiveInt("Session", session); err != nil {
		return info, err
	}
	if info.Width, err = parsePositiveInt("Width", width); err != nil {
		return info, err
	}
	if info.Height, err = parsePositiveInt("Height", height); err != nil {
		return info, err
	}
	info.Fullscreen = fullscreen
	return info, nil
}

// runSetupDialog asks for participant and session before the task window
// opens. It reports false when the operator quits.
func runSetupDialog(defaults sessionInfo) (sessionInfo, bool, error) {
	fApp := app.New()
	fApp.Settings().SetTheme(newSetupTheme())

	window := fApp.NewWindow("Session Setup")
	window.Resize(fyne.NewSize(420, 320))
	window.SetFixedSize(true)
	window.CenterOnScreen()

	newNumberEntry := func(label string, value int) *widget.Entry {
		entry := widget.NewEntry()
		entry.SetText(strconv.Itoa(value))
		entry.Validator = positiveInt(label)
		return entry
	}
	subjectEntry := newNumberEntry("Participant", defaults.Subject)
	sessionEntry := newNumberEntry("Session", defaults.Session)
	widthEntry := newNumberEntry("Width", defaults.Width)
	heightEntry := newNumberEntry("Height", defaults.Height)
	fullscreenCheck := widget.NewCheck("", nil)
	fullscreenCheck.SetChecked(defaults.Fullscreen)

	errorText := canvas.NewText("", color.NRGBA{R: 0xff, G: 0x82, B: 0x82, A: 0xff})
	errorText.TextSize = 13

	var (
		resultMu sync.Mutex
		result   sessionInfo
		accepted bool
	)

	var quitOnce sync.Once
	quit := func() {
		quitOnce.Do(func() {
			if currentApp := fyne.CurrentApp(); currentApp != nil {
				currentApp.Quit()
				return
			}
			window.SetCloseIntercept(nil)
			window.Close()
		})
	}

	okBtn := widget.NewButton("Ok", func() {
		info, err := parseSetupFields(subjectEntry.Text, sessionEntry.Text, widthEntry.Text, heightEntry.Text, fullscreenCheck.Checked)
		if err != nil {
			errorText.Text = err.Error()
			errorText.Refresh()
			return
		}
		resultMu.Lock()
		result, accepted = info, true
		resultMu.Unlock()
		quit()
	})
	okBtn.Importance = widget.HighImportance
	quitBtn := widget.NewButton("Quit", quit)

	form := widget.NewForm(
		widget.NewFormItem("Participant", subjectEntry),
		widget.NewFormItem("Session", sessionEntry),
		widget.NewFormItem("Width", widthEntry),
		widget.NewFormItem("Height", heightEntry),
		widget.NewFormItem("Fullscreen", fullscreenCheck),
	)

	titleText := canvas.NewText("Bimanual Response Task", color.NRGBA{R: 0x5a, G: 0xa9, B: 0xe6, A: 0xff})
	titleText.TextStyle = fyne.TextStyle{Bold: true}
	titleText.TextSize = 22

	content := container.NewVBox(
		titleText,
		widget.NewCard("", "", form),
		errorText,
		container.NewGridWithColumns(2, quitBtn, okBtn),
	)
	window.SetContent(container.NewPadded(content))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-sigCh:
			fyne.Do(quit)
		case <-done:
		}
	}()

	window.SetCloseIntercept(quit)
	window.ShowAndRun()

	resultMu.Lock()
	defer resultMu.Unlock()
	return result, accepted, nil
}
