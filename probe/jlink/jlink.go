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

// Package jlink drives Segger J-Link probes through the J-Link
// Commander tool (JLinkExe). The tool is scripted through a temporary
// file holding one command per line; everything it prints on stdout
// and stderr is scanned back for the tokens we need.
//
// The J-Link software must be installed separately, see
// https://www.segger.com/jlink-software.html.
package jlink

import (
	"fmt"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"github.com/arduino/go-paths-helper"
	"github.com/probelink/probelink/probe"
	"github.com/probelink/probelink/probe/output"
	"github.com/probelink/probelink/probe/runner"
	"github.com/sirupsen/logrus"
)

// verifiedMarker starts the line J-Link Commander prints after a
// successful verifyfile/verifybin command.
const verifiedMarker = "Verify successful"

// Config carries the chip-specific tokens that tell one J-Link-driven
// chip family apart from another. Everything else (scripting, parsing,
// process handling) is shared.
type Config struct {
	// Exe overrides the J-Link Commander executable name or path.
	// When empty the platform default is used and resolved through
	// the system path.
	Exe string

	// Device is the Segger device name passed with -device.
	Device string

	// Interface is the target interface (default "swd").
	Interface string

	// Speed is the interface speed in kHz (default 1000).
	Speed int

	// Target is the core description J-Link Commander prints after
	// "Found " when the expected target answers, e.g.
	// "Cortex-M0 r0p1, Little endian".
	Target string

	// ExtraArgs are appended to the fixed invocation arguments.
	ExtraArgs []string

	// WipeScript overrides the default full-erase command sequence
	// for chips that need a custom one.
	WipeScript []string

	// Timeout bounds every tool run. runner.NoTimeout disables the
	// bound; callers with no preference pass runner.DefaultTimeout.
	Timeout runner.Timeout
}

// JLink is a probe.Programmer backed by J-Link Commander.
type JLink struct {
	exe       *paths.Path
	fixedArgs []string
	target    string
	wipe      []string
	timeout   runner.Timeout
}

// New builds a J-Link programmer from the given chip configuration.
func New(cfg Config) *JLink {
	exe := cfg.Exe
	if exe == "" {
		exe = defaultExe()
	}
	iface := cfg.Interface
	if iface == "" {
		iface = "swd"
	}
	speed := cfg.Speed
	if speed == 0 {
		speed = 1000
	}
	args := []string{"-NoGui", "1"}
	if cfg.Device != "" {
		args = append(args, "-device", cfg.Device, "-if", iface, "-speed", strconv.Itoa(speed))
	}
	args = append(args, cfg.ExtraArgs...)

	wipe := cfg.WipeScript
	if len(wipe) == 0 {
		wipe = []string{"r", "erase", "r", "q"}
	}
	logrus.Debugf("using J-Link Commander: %s %s", exe, strings.Join(args, " "))
	return &JLink{
		exe:       paths.New(exe),
		fixedArgs: args,
		target:    cfg.Target,
		wipe:      wipe,
		timeout:   cfg.Timeout,
	}
}

// defaultExe picks the J-Link Commander name Segger ships per platform.
func defaultExe() string {
	if runtime.GOOS == "windows" {
		return "JLink.exe"
	}
	return "JLinkExe"
}

// IsConnected asks the probe to connect and reports whether the
// expected target core was found.
func (j *JLink) IsConnected() (bool, error) {
	script := &probe.Script{}
	script.Add("connect")
	script.Add("q")
	res, err := j.run(script)
	if err != nil {
		return false, err
	}
	return j.parseConnection(res.Output)
}

// parseConnection classifies the output of a connect attempt. The
// probe being absent, the board being unpowered and the tool emitting
// garbage are three different failures and must stay distinguishable.
func (j *JLink) parseConnection(out string) (bool, error) {
	if strings.Contains(out, "FAILED") {
		return false, fmt.Errorf("%w: could not find a J-Link probe, is it plugged in?", probe.ErrNotConnected)
	}
	volts, found := output.VTref(out)
	if !found {
		return false, fmt.Errorf("%w: J-Link output lacks the VTref voltage reading", probe.ErrProtocol)
	}
	logrus.Infof("VTref=%gV", volts)
	if volts < output.MinVoltage {
		return false, fmt.Errorf("%w: reference voltage is %gV, is the board powered?", probe.ErrLowVoltage, volts)
	}
	return strings.Contains(out, "Found "+j.target), nil
}

// Wipe erases the target flash completely.
func (j *JLink) Wipe() error {
	script := &probe.Script{}
	for _, command := range j.wipe {
		script.Add(command)
	}
	_, err := j.run(script)
	return err
}

// Program loads every image in the request, verifies each one, then
// resets and runs the target.
func (j *JLink) Program(req *probe.ProgramRequest) error {
	script, err := j.programScript(req)
	if err != nil {
		return err
	}
	res, err := j.run(script)
	if err != nil {
		return err
	}
	return output.CheckVerified(res.Output, verifiedMarker, req.Count())
}

// programScript builds the fixed load-then-verify sequence. Every load
// command must precede every verify command so that a verification
// always covers exactly the images this script loaded.
func (j *JLink) programScript(req *probe.ProgramRequest) (*probe.Script, error) {
	script := &probe.Script{}
	script.Add("r")
	for _, hex := range req.HexImages {
		quoted, err := quotePath(hex)
		if err != nil {
			return nil, err
		}
		script.Addf("loadfile %s", quoted)
	}
	for _, bin := range req.BinImages {
		quoted, err := quotePath(bin.Path)
		if err != nil {
			return nil, err
		}
		script.Addf("loadbin %s 0x%08X", quoted, bin.Addr)
	}
	for _, hex := range req.HexImages {
		quoted, err := quotePath(hex)
		if err != nil {
			return nil, err
		}
		script.Addf("verifyfile %s", quoted)
	}
	for _, bin := range req.BinImages {
		quoted, err := quotePath(bin.Path)
		if err != nil {
			return nil, err
		}
		script.Addf("verifybin %s 0x%08X", quoted, bin.Addr)
	}
	script.Add("r")
	script.Add("g")
	script.Add("q")
	return script, nil
}

// ReadMem reads one memory cell with the mem8/mem16/mem32 command.
func (j *JLink) ReadMem(width probe.Width, address uint32) (probe.Value, error) {
	if !width.Valid() {
		return probe.Value{}, fmt.Errorf("unsupported read width: %d", int(width))
	}
	addr := formatAddress(address)
	script := &probe.Script{}
	script.Addf("mem%d %s 1", int(width), addr)
	script.Add("q")
	res, err := j.run(script)
	if err != nil {
		return probe.Value{}, err
	}
	return output.MemValue(res.Output, memLineRe(addr), width)
}

func (j *JLink) run(script *probe.Script) (*runner.Result, error) {
	return runner.RunScript(j.exe, j.fixedArgs, script, j.timeout)
}

// formatAddress renders an address the way J-Link Commander echoes it
// back: fixed-width uppercase hex with no 0x prefix.
func formatAddress(address uint32) string {
	return fmt.Sprintf("%08X", address)
}

// memLineRe matches the "<address> = <value>" line J-Link Commander
// prints for a memory read.
func memLineRe(addr string) *regexp.Regexp {
	return regexp.MustCompile(`(?im)^` + addr + ` = (\S+)`)
}

// quotePath embeds a path in a script command. The script grammar
// offers no escape for double quotes, so paths containing one are
// rejected rather than silently corrupting the script.
func quotePath(p *paths.Path) (string, error) {
	s := p.String()
	if strings.ContainsAny(s, "\"\n") {
		return "", fmt.Errorf("image path %q cannot be embedded in a J-Link script", s)
	}
	return `"` + s + `"`, nil
}
