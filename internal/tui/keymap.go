package tui

// Key binding constants used in handleKey.
const (
	KeyStart      = "s"
	KeyStop       = "x"
	KeyCopy       = "c"
	KeyQuit       = "q"
	KeyCtrlC      = "ctrl+c"
	KeyPrevDevice = "left"
	KeyNextDevice = "right"
	KeyFocus      = "tab"
	KeyEnter      = "enter"
	KeyEsc        = "esc"
)
