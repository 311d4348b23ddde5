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

// Package cores holds the per-chip-family descriptors: which probe
// tools can program the chip, how to configure them, and which
// registers to read for the identification report. Families register
// themselves in an explicit registry at init time; there is no
// discovery magic.
package cores

import (
	"fmt"
	"io"
	"sort"

	"github.com/probelink/probelink/probe"
	"github.com/probelink/probelink/probe/runner"
	"golang.org/x/exp/slices"
)

// ToolOptions are the user-supplied settings for one external tool.
type ToolOptions struct {
	// Path overrides the executable name or path.
	Path string
	// ExtraArgs are appended to the tool's fixed invocation arguments.
	ExtraArgs []string
}

// Options carries everything a descriptor needs to construct a
// programmer: tool locations from flags/config, the chosen chip
// variant, and the process timeout.
type Options struct {
	Variant string
	JLink   ToolOptions
	OpenOCD ToolOptions
	Timeout runner.Timeout
}

// Core describes one chip family. Descriptors are immutable static
// data created at process start.
type Core struct {
	// Name identifies the family on the command line.
	Name string

	// Title is the one-line human description.
	Title string

	// Programmers lists the supported programmer identifiers.
	Programmers []string

	// Variants lists the selectable chip variants, empty for families
	// without variant selection.
	Variants []string

	// DefaultVariant is used when the caller does not pick one.
	DefaultVariant string

	// NewProgrammer builds the programmer for one of the names in
	// Programmers. Called through New, which validates the name.
	NewProgrammer func(programmer string, opts Options) (probe.Programmer, error)

	// Info reads the chip identification registers through p and
	// writes the human-readable report to w.
	Info func(p probe.Programmer, w io.Writer) error
}

// New validates the programmer name against the family's supported
// list and constructs the programmer.
func (c *Core) New(programmer string, opts Options) (probe.Programmer, error) {
	if !slices.Contains(c.Programmers, programmer) {
		return nil, fmt.Errorf("core %s does not support programmer %q, supported: %v", c.Name, programmer, c.Programmers)
	}
	if opts.Variant == "" {
		opts.Variant = c.DefaultVariant
	}
	if len(c.Variants) > 0 && !slices.Contains(c.Variants, opts.Variant) {
		return nil, fmt.Errorf("core %s has no variant %q, supported: %v", c.Name, opts.Variant, c.Variants)
	}
	return c.NewProgrammer(programmer, opts)
}

var registry = map[string]*Core{}

// Register adds a family to the registry. Called from the init
// function of each per-chip file; duplicate names are a programming
// error.
func Register(c *Core) {
	if _, ok := registry[c.Name]; ok {
		panic(fmt.Sprintf("core %q registered twice", c.Name))
	}
	registry[c.Name] = c
}

// Get returns the descriptor for name, or nil.
func Get(name string) *Core {
	return registry[name]
}

// Names returns the registered family names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// lookup returns table[key], or fallback when the decoded value is not
// a known part.
func lookup(table map[uint32]string, key uint32, fallback string) string {
	if name, ok := table[key]; ok {
		return name
	}
	return fallback
}
