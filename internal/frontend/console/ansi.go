// Package console is the terminal frontend of the VNO client: a line-oriented
// command driver and a presenter that reveals in-character messages.
package console

import (
	"fmt"

	"github.com/cory-johannsen/vno/internal/vno/model"
)

// ANSI escape code constants for terminal styling.
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
	Orange  = "\033[38;5;208m"
	Pink    = "\033[95m"
	Blue    = "\033[94m"
)

var messageColors = map[model.MessageColor]string{
	model.ColorWhite:  White,
	model.ColorBlue:   Blue,
	model.ColorPink:   Pink,
	model.ColorYellow: Yellow,
	model.ColorGreen:  Green,
	model.ColorOrange: Orange,
	model.ColorRed:    Red,
}

// MessageColorCode returns the escape sequence for an in-character colour.
// Unknown colours render as White.
func MessageColorCode(c model.MessageColor) string {
	if code, ok := messageColors[c]; ok {
		return code
	}
	return White
}

// Colorize wraps text with the given ANSI color code and a reset suffix.
//
// Precondition: color must be a valid ANSI escape sequence.
// Postcondition: Returns text wrapped with the color code and Reset.
func Colorize(color, text string) string {
	return color + text + Reset
}

// Colorf wraps a formatted string with the given ANSI color code.
func Colorf(color, format string, args ...any) string {
	return color + fmt.Sprintf(format, args...) + Reset
}

// StripANSI removes all ANSI escape sequences from a string.
//
// Postcondition: Returns text with all \033[...m sequences removed.
func StripANSI(s string) string {
	result := make([]byte, 0, len(s))
	i := 0
	for i < len(s) {
		if s[i] == '\033' && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && s[j] != 'm' {
				j++
			}
			if j < len(s) {
				i = j + 1
				continue
			}
		}
		result = append(result, s[i])
		i++
	}
	return string(result)
}

// styler applies colour only when enabled.
type styler bool

func (s styler) paint(color, text string) string {
	if !s {
		return text
	}
	return Colorize(color, text)
}
