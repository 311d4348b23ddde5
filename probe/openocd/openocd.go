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

// Package openocd drives debug adapters (ST-Link v2, Raspberry Pi
// native GPIO) through OpenOCD. Unlike J-Link Commander, OpenOCD takes
// its script inline: one -c argument per command, after the -f/-c
// arguments that select the adapter and target.
//
// OpenOCD 0.9.0 or later must be installed separately.
package openocd

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/arduino/go-paths-helper"
	"github.com/probelink/probelink/probe"
	"github.com/probelink/probelink/probe/output"
	"github.com/probelink/probelink/probe/runner"
	"github.com/sirupsen/logrus"
)

// verifiedMarker starts the line OpenOCD prints for every image that
// passed verify_image.
const verifiedMarker = "verified "

// Config carries the chip- and adapter-specific tokens for one
// OpenOCD-driven family. The scripting and parsing is shared.
type Config struct {
	// Exe overrides the OpenOCD executable name or path. When empty
	// "openocd" is resolved through the system path.
	Exe string

	// FixedArgs select the adapter and target, e.g.
	// -f interface/stlink-v2.cfg -f target/stm32f2x.cfg.
	FixedArgs []string

	// ConnectToken is the target name OpenOCD prints during init when
	// the expected chip answers, e.g. "stm32f2x.cpu".
	ConnectToken string

	// EraseScript is the per-chip erase sequence run between
	// "reset init" and "exit", e.g. {"halt", "stm32f2x mass_erase 0"}.
	EraseScript []string

	// ReportsVoltage is true for adapters that measure the target
	// voltage (ST-Link). Adapters that cannot (Raspberry Pi GPIO)
	// skip the power check instead of failing it.
	ReportsVoltage bool

	// ExtraArgs are appended to FixedArgs.
	ExtraArgs []string

	// Timeout bounds every tool run. runner.NoTimeout disables the
	// bound; callers with no preference pass runner.DefaultTimeout.
	Timeout runner.Timeout
}

// OpenOCD is a probe.Programmer backed by the OpenOCD tool.
type OpenOCD struct {
	exe            *paths.Path
	fixedArgs      []string
	connectToken   string
	erase          []string
	reportsVoltage bool
	timeout        runner.Timeout
}

// New builds an OpenOCD programmer from the given configuration.
func New(cfg Config) (*OpenOCD, error) {
	if len(cfg.EraseScript) == 0 {
		return nil, fmt.Errorf("openocd configuration lacks an erase command sequence")
	}
	exe := cfg.Exe
	if exe == "" {
		exe = "openocd"
	}
	args := append(append([]string{}, cfg.FixedArgs...), cfg.ExtraArgs...)
	logrus.Debugf("using OpenOCD: %s %s", exe, strings.Join(args, " "))
	return &OpenOCD{
		exe:            paths.New(exe),
		fixedArgs:      args,
		connectToken:   cfg.ConnectToken,
		erase:          cfg.EraseScript,
		reportsVoltage: cfg.ReportsVoltage,
		timeout:        cfg.Timeout,
	}, nil
}

// IsConnected initializes the adapter and reports whether the expected
// target answered.
func (o *OpenOCD) IsConnected() (bool, error) {
	script := &probe.Script{}
	script.Add("init")
	script.Add("exit")
	res, err := o.run(script)
	if err != nil {
		return false, err
	}
	return o.parseConnection(res.Output)
}

func (o *OpenOCD) parseConnection(out string) (bool, error) {
	if o.reportsVoltage {
		volts, found := output.TargetVoltage(out)
		if !found {
			return false, fmt.Errorf("%w: OpenOCD output lacks the target voltage reading", probe.ErrProtocol)
		}
		logrus.Infof("target voltage %gV", volts)
		if volts < output.MinVoltage {
			return false, fmt.Errorf("%w: target voltage is %gV, is the board powered?", probe.ErrLowVoltage, volts)
		}
	}
	return strings.Contains(out, o.connectToken), nil
}

// Wipe erases the target flash with the chip's erase sequence.
func (o *OpenOCD) Wipe() error {
	script := &probe.Script{}
	script.Add("init")
	script.Add("reset init")
	for _, command := range o.erase {
		script.Add(command)
	}
	script.Add("exit")
	_, err := o.run(script)
	return err
}

// Program loads every image in the request with load_image, verifies
// each one with verify_image, then resets and runs the target.
func (o *OpenOCD) Program(req *probe.ProgramRequest) error {
	script, err := o.programScript(req)
	if err != nil {
		return err
	}
	res, err := o.run(script)
	if err != nil {
		return err
	}
	return output.CheckVerified(res.Output, verifiedMarker, req.Count())
}

// programScript builds the fixed load-then-verify sequence. Loads come
// first, in request order, then the matching verifies in the same
// order, so a verification always covers exactly what this script
// loaded.
func (o *OpenOCD) programScript(req *probe.ProgramRequest) (*probe.Script, error) {
	script := &probe.Script{}
	script.Add("init")
	script.Add("reset init")
	for _, hex := range req.HexImages {
		quoted, err := quotePath(hex)
		if err != nil {
			return nil, err
		}
		script.Addf("load_image %s 0 ihex", quoted)
	}
	for _, bin := range req.BinImages {
		quoted, err := quotePath(bin.Path)
		if err != nil {
			return nil, err
		}
		script.Addf("load_image %s 0x%08X bin", quoted, bin.Addr)
	}
	for _, hex := range req.HexImages {
		quoted, err := quotePath(hex)
		if err != nil {
			return nil, err
		}
		script.Addf("verify_image %s 0 ihex", quoted)
	}
	for _, bin := range req.BinImages {
		quoted, err := quotePath(bin.Path)
		if err != nil {
			return nil, err
		}
		script.Addf("verify_image %s 0x%08X bin", quoted, bin.Addr)
	}
	script.Add("reset run")
	script.Add("exit")
	return script, nil
}

// ReadMem reads one memory cell with the mdb/mdh/mdw command.
func (o *OpenOCD) ReadMem(width probe.Width, address uint32) (probe.Value, error) {
	command, ok := map[probe.Width]string{
		probe.Width8:  "mdb",
		probe.Width16: "mdh",
		probe.Width32: "mdw",
	}[width]
	if !ok {
		return probe.Value{}, fmt.Errorf("unsupported read width: %d", int(width))
	}
	script := &probe.Script{}
	script.Add("init")
	script.Addf("%s 0x%08X", command, address)
	script.Add("exit")
	res, err := o.run(script)
	if err != nil {
		return probe.Value{}, err
	}
	return output.MemValue(res.Output, memLineRe(address), width)
}

func (o *OpenOCD) run(script *probe.Script) (*runner.Result, error) {
	args := append([]string{}, o.fixedArgs...)
	for _, command := range script.Commands() {
		args = append(args, "-c", command)
	}
	return runner.Run(o.exe, args, o.timeout)
}

// memLineRe matches the "0x<address>: <value>" line OpenOCD prints for
// a memory display command.
func memLineRe(address uint32) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`(?im)^0x%08x:\s+(\S+)`, address))
}

// quotePath embeds a path in a Tcl command. Brace quoting keeps every
// character literal, but cannot itself contain braces, so such paths
// are rejected rather than silently corrupting the command.
func quotePath(p *paths.Path) (string, error) {
	s := p.String()
	if strings.ContainsAny(s, "{}\n") {
		return "", fmt.Errorf("image path %q cannot be embedded in an OpenOCD command", s)
	}
	return "{" + s + "}", nil
}
