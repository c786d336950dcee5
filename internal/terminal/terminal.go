// Package terminal is the in-window console: a log view plus an input bar that
// runs "cmd ..." lines through the command registry.
package terminal

import (
	"unicode/utf8"

	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"

	"scenerender/internal/commands"
	"scenerender/internal/logger"
)

const (
	BarHeight = 40
	// When windowed, move bar up by this many pixels so it stays visible.
	WindowedBarOffset = 56
	prompt            = "> "
	fontSize          = 20
	padding           = 8
	maxLinesOnScreen  = 14
	lineHeight        = fontSize + 4
	maxLineLen        = 200
)

var (
	termBarColor    = rl.NewColor(40, 40, 40, 255)
	termLineColor   = rl.NewColor(80, 80, 80, 255)
	termChatBgColor = rl.NewColor(24, 24, 24, 240)
)

// Terminal is hidden until the toggle key (the backtick) is pressed. While it is
// open it owns the keyboard and the cursor is released.
type Terminal struct {
	log      *logger.Logger
	reg      *commands.Registry
	inputBuf string
	open     bool
}

func New(log *logger.Logger, reg *commands.Registry) *Terminal {
	return &Terminal{log: log, reg: reg}
}

func (t *Terminal) IsOpen() bool { return t.open }

// Submit echoes line into the log and runs it when it is a command. Anything
// else gets a hint, since there is nothing to talk to.
func (t *Terminal) Submit(line string) {
	if line == "" {
		return
	}
	t.log.Log(prompt + line)
	args, isCmd := commands.Parse(line)
	if !isCmd {
		t.log.Log("commands start with \"cmd\"; try \"cmd help\"")
		return
	}
	if err := t.reg.Execute(args); err != nil {
		t.log.Warn("command failed", zap.String("line", line), zap.Error(err))
	}
}

// Update handles the toggle key and, when open, typing, paste, backspace and enter.
func (t *Terminal) Update() {
	if rl.IsKeyPressed(rl.KeyGrave) {
		t.open = !t.open
		if t.open {
			rl.EnableCursor()
		} else {
			rl.DisableCursor()
		}
		return
	}
	if !t.open {
		return
	}
	if rl.IsKeyPressed(rl.KeyV) && (rl.IsKeyDown(rl.KeyLeftControl) || rl.IsKeyDown(rl.KeyRightControl) || rl.IsKeyDown(rl.KeyLeftSuper) || rl.IsKeyDown(rl.KeyRightSuper)) {
		if pasted := rl.GetClipboardText(); pasted != "" {
			t.inputBuf += pasted
		}
	} else {
		for c := rl.GetCharPressed(); c != 0; c = rl.GetCharPressed() {
			t.inputBuf += string(rune(c))
		}
	}
	if rl.IsKeyPressed(rl.KeyBackspace) && len(t.inputBuf) > 0 {
		_, size := utf8.DecodeLastRuneInString(t.inputBuf)
		t.inputBuf = t.inputBuf[:len(t.inputBuf)-size]
	}
	if rl.IsKeyPressed(rl.KeyEnter) || rl.IsKeyPressed(rl.KeyKpEnter) {
		line := t.inputBuf
		t.inputBuf = ""
		t.Submit(line)
	}
}

// Draw draws the recent log lines and the input bar at the bottom when open.
func (t *Terminal) Draw() {
	if !t.open {
		return
	}
	screenW := rl.GetScreenWidth()
	screenH := rl.GetScreenHeight()
	barY := screenH - BarHeight
	if !rl.IsWindowFullscreen() {
		barY -= WindowedBarOffset
	}

	chatHeight := maxLinesOnScreen * lineHeight
	chatY := barY - chatHeight
	if chatY < 0 {
		chatHeight = barY
		chatY = 0
	}
	if chatHeight > 0 {
		rl.DrawRectangle(0, int32(chatY), int32(screenW), int32(chatHeight), termChatBgColor)
	}
	lines := t.log.Lines()
	start := max(len(lines)-maxLinesOnScreen, 0)
	for i := start; i < len(lines); i++ {
		y := chatY + (i-start)*lineHeight + padding
		line := lines[i]
		if len(line) > maxLineLen {
			line = line[:maxLineLen-3] + "..."
		}
		rl.DrawText(line, padding, int32(y), fontSize, rl.LightGray)
	}

	rl.DrawRectangle(0, int32(barY), int32(screenW), BarHeight, termBarColor)
	rl.DrawRectangle(0, int32(barY), int32(screenW), 1, termLineColor)
	rl.DrawText(prompt+t.inputBuf+"|", padding, int32(barY+padding), fontSize, rl.White)
}
