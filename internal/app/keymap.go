package app

// Key binding constants used in handleKey.
const (
	KeyQuit      = "q"
	KeyQuitUpper = "Q"
	KeyCtrlC     = "ctrl+c"
	KeyTab       = "tab"
	KeyShiftTab  = "shift+tab"
	KeyEnter     = "enter"
	KeyEsc       = "esc"
	KeyBackspace = "backspace"
	KeySpace     = " "

	// Shared by the alarm, timer and reminder form.
	KeyRecord = "r"
	KeyPlay   = "p"

	// Timer tab.
	KeyTargetUp    = "+"
	KeyTargetUpAlt = "="
	KeyTargetDown  = "-"
	KeyReset       = "x"
	KeyCustom      = "c"
	KeyDelete      = "d"

	// Calendar tab.
	KeyLeft       = "left"
	KeyRight      = "right"
	KeyUp         = "up"
	KeyDown       = "down"
	KeyH          = "h"
	KeyJ          = "j"
	KeyK          = "k"
	KeyL          = "l"
	KeyPrevMonth  = "["
	KeyNextMonth  = "]"
	KeyNew        = "n"
	KeyListDown   = "J"
	KeyListUp     = "K"
	KeyFormRecord = "ctrl+r"
)
