/*
	probelink
	Copyright (c) 2024 probelink contributors.

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package probe

import (
	"fmt"
	"strings"
)

// Script is an ordered, append-only sequence of tool commands. A script
// is built once per operation and consumed exactly once: tool state
// (e.g. an open connect context) does not persist between runs, so
// scripts are never reused.
type Script struct {
	commands []string
}

// Add appends a command to the script.
func (s *Script) Add(command string) {
	s.commands = append(s.commands, command)
}

// Addf appends a formatted command to the script.
func (s *Script) Addf(format string, args ...interface{}) {
	s.commands = append(s.commands, fmt.Sprintf(format, args...))
}

// Commands returns the commands in insertion order.
func (s *Script) Commands() []string {
	return s.commands
}

// Len returns the number of commands in the script.
func (s *Script) Len() int {
	return len(s.commands)
}

// String renders the script one command per line, the form expected by
// file-scripted tools.
func (s *Script) String() string {
	return strings.Join(s.commands, "\n") + "\n"
}
