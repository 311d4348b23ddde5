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

package arguments

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/probelink/probelink/cores"
	"github.com/probelink/probelink/probe"
	"github.com/probelink/probelink/probe/runner"
	"github.com/spf13/cobra"
)

// Flags contains the flags shared by every chip-family command.
// This is useful so all the commands stay consistent with each other.
type Flags struct {
	Programmer  string
	Variant     string
	Wipe        bool
	Info        bool
	ProgramHex  []string
	ProgramBin  []string
	ReadMem8    string
	ReadMem16   string
	ReadMem32   string
	JLinkPath   string
	JLinkArgs   []string
	OpenOCDPath string
	OpenOCDArgs []string
	Timeout     string
}

// AddToCommand adds the shared flag block to a chip-family command.
// The variant flag only appears for families that have variants.
func (f *Flags) AddToCommand(cmd *cobra.Command, core *cores.Core) {
	cmd.Flags().StringVarP(&f.Programmer, "programmer", "p", "", "Programmer to talk to the chip with, one of: "+strings.Join(core.Programmers, ", "))
	cmd.MarkFlagRequired("programmer")
	if len(core.Variants) > 0 {
		cmd.Flags().StringVarP(&f.Variant, "variant", "V", core.DefaultVariant, "Particular chip variant being used")
	}
	cmd.Flags().BoolVarP(&f.Wipe, "wipe", "w", false, "Wipe flash memory before any programming")
	cmd.Flags().BoolVarP(&f.Info, "info", "i", false, "Display chip information like serial number and device ID")
	cmd.Flags().StringArrayVar(&f.ProgramHex, "program-hex", nil, "Hex firmware file to program, repeatable")
	cmd.Flags().StringArrayVar(&f.ProgramBin, "program-bin", nil, "Raw binary file and load address to program, as <path>@<address>, repeatable")
	cmd.Flags().StringVar(&f.ReadMem8, "read-mem-8", "", "Read a 8-bit value from the given memory address")
	cmd.Flags().StringVar(&f.ReadMem16, "read-mem-16", "", "Read a 16-bit value from the given memory address")
	cmd.Flags().StringVar(&f.ReadMem32, "read-mem-32", "", "Read a 32-bit value from the given memory address")
	cmd.Flags().StringVar(&f.JLinkPath, "jlink-path", "", "Path of the J-Link Commander executable (default: JLinkExe in the system path)")
	cmd.Flags().StringArrayVar(&f.JLinkArgs, "jlink-arg", nil, "Extra argument passed to J-Link Commander, repeatable")
	cmd.Flags().StringVar(&f.OpenOCDPath, "openocd-path", "", "Path of the OpenOCD executable (default: openocd in the system path)")
	cmd.Flags().StringArrayVar(&f.OpenOCDArgs, "openocd-arg", nil, "Extra argument passed to OpenOCD, repeatable")
	cmd.Flags().StringVar(&f.Timeout, "timeout", "", `Tool execution timeout like "90s", or "none" to wait forever`)
}

// ProgramRequest builds the programming request from the image flags.
// Image files are checked for existence right here, before any tool is
// spawned.
func (f *Flags) ProgramRequest() (*probe.ProgramRequest, error) {
	req := &probe.ProgramRequest{}
	for _, hex := range f.ProgramHex {
		if err := req.AddHex(hex); err != nil {
			return nil, err
		}
	}
	for _, arg := range f.ProgramBin {
		path, addr, err := splitBinArg(arg)
		if err != nil {
			return nil, err
		}
		if err := req.AddBin(path, addr); err != nil {
			return nil, err
		}
	}
	return req, nil
}

func splitBinArg(arg string) (string, uint32, error) {
	i := strings.LastIndex(arg, "@")
	if i <= 0 || i == len(arg)-1 {
		return "", 0, fmt.Errorf("invalid --program-bin %q, expected <path>@<address>", arg)
	}
	addr, err := strconv.ParseUint(arg[i+1:], 0, 32)
	if err != nil {
		return "", 0, fmt.Errorf("invalid --program-bin address %q: %v", arg[i+1:], err)
	}
	return arg[:i], uint32(addr), nil
}

// ReadRequest returns the memory read requested by the read-mem flags,
// if any. Setting more than one width at a time is ambiguous: the
// order of the results would be unclear.
func (f *Flags) ReadRequest() (probe.Width, uint32, bool, error) {
	type read struct {
		width probe.Width
		arg   string
	}
	requested := []read{}
	for _, r := range []read{
		{probe.Width8, f.ReadMem8},
		{probe.Width16, f.ReadMem16},
		{probe.Width32, f.ReadMem32},
	} {
		if r.arg != "" {
			requested = append(requested, r)
		}
	}
	if len(requested) == 0 {
		return 0, 0, false, nil
	}
	if len(requested) > 1 {
		return 0, 0, false, fmt.Errorf("%w: only one memory read can be requested at a time", probe.ErrAmbiguousRequest)
	}
	addr, err := strconv.ParseUint(requested[0].arg, 0, 32)
	if err != nil {
		return 0, 0, false, fmt.Errorf("invalid memory address %q: %v", requested[0].arg, err)
	}
	return requested[0].width, uint32(addr), true, nil
}

// ResolveTimeout applies the --timeout flag on top of the fallback
// from the config file.
func (f *Flags) ResolveTimeout(fallback runner.Timeout) (runner.Timeout, error) {
	if f.Timeout == "" {
		return fallback, nil
	}
	if f.Timeout == "none" {
		return runner.NoTimeout, nil
	}
	d, err := time.ParseDuration(f.Timeout)
	if err != nil {
		return runner.NoTimeout, fmt.Errorf("invalid --timeout %q: %v", f.Timeout, err)
	}
	if d <= 0 {
		return runner.NoTimeout, fmt.Errorf(`invalid --timeout %q: must be positive, use "none" to wait forever`, f.Timeout)
	}
	return runner.After(d), nil
}
