// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui renders the CLI's colorized terminal output: section
// headers, labeled fields, and info/success/warning lines. Built on
// github.com/fatih/color, with color auto-disabled on a non-tty via
// github.com/mattn/go-isatty, matching the teacher's own terminal
// detection convention.
package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var (
	Green  = color.New(color.FgGreen)
	Yellow = color.New(color.FgYellow)
	Red    = color.New(color.FgRed)
	Dim    = color.New(color.Faint)
	Bold   = color.New(color.Bold)
)

// InitColors disables color output when noColor is set or stdout is not
// a terminal, matching the teacher's main()-time InitColors(globals.NoColor)
// call.
func InitColors(noColor bool) {
	if noColor || !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
}

// Header prints a bold section title.
func Header(title string) {
	_, _ = Bold.Printf("== %s ==\n", title)
}

// SubHeader prints a bold section title without the "==" markers.
func SubHeader(title string) {
	_, _ = Bold.Printf("%s\n", title)
}

// Label renders a field label, dimmed, for "%s %s\n" two-column output.
func Label(text string) string {
	return Dim.Sprint(text)
}

// DimText renders arbitrary text dimmed, for secondary detail values.
func DimText(text string) string {
	return Dim.Sprint(text)
}

// CountText renders an integer count in bold, for summary lines.
func CountText(n any) string {
	return Bold.Sprintf("%v", n)
}

// Info prints an informational line as plain, uncolored text.
func Info(msg string) {
	fmt.Println(msg)
}

// Successf prints a green success line.
func Successf(format string, args ...any) {
	_, _ = Green.Printf(format+"\n", args...)
}

// Warningf prints a yellow warning line to stderr.
func Warningf(format string, args ...any) {
	_, _ = Yellow.Fprintf(os.Stderr, format+"\n", args...)
}

// Errorf prints a red error line to stderr.
func Errorf(format string, args ...any) {
	_, _ = Red.Fprintf(os.Stderr, format+"\n", args...)
}
