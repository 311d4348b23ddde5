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

package openocd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/arduino/go-paths-helper"
	"github.com/probelink/probelink/probe"
	"github.com/probelink/probelink/probe/output"
	"github.com/probelink/probelink/probe/runner"
	"github.com/stretchr/testify/require"
)

func newTestOpenOCD(t *testing.T, cfg Config) *OpenOCD {
	t.Helper()
	if len(cfg.EraseScript) == 0 {
		cfg.EraseScript = []string{"at91samd chip-erase"}
	}
	o, err := New(cfg)
	require.NoError(t, err)
	return o
}

func writeImage(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte("image"), 0644))
	return p
}

func TestNewRequiresEraseScript(t *testing.T) {
	_, err := New(Config{ConnectToken: "stm32f2x.cpu"})
	require.Error(t, err)
}

func TestNewDefaultsAndExtraArgs(t *testing.T) {
	o := newTestOpenOCD(t, Config{
		FixedArgs: []string{"-f", "interface/stlink-v2.cfg", "-f", "target/stm32f2x.cfg"},
		ExtraArgs: []string{"-d2"},
	})
	require.Equal(t, "openocd", o.exe.String())
	require.Equal(t, []string{"-f", "interface/stlink-v2.cfg", "-f", "target/stm32f2x.cfg", "-d2"}, o.fixedArgs)
}

func TestParseConnectionWithVoltage(t *testing.T) {
	o := newTestOpenOCD(t, Config{ConnectToken: "stm32f2x.cpu", ReportsVoltage: true})

	out := "Info : Target voltage: 3.244110\nInfo : stm32f2x.cpu: hardware has 6 breakpoints\n"
	connected, err := o.parseConnection(out)
	require.NoError(t, err)
	require.True(t, connected)

	_, err = o.parseConnection("Info : Target voltage: 0.104372\nInfo : stm32f2x.cpu: hardware has 6 breakpoints\n")
	require.ErrorIs(t, err, probe.ErrLowVoltage)

	_, err = o.parseConnection("Info : stm32f2x.cpu: hardware has 6 breakpoints\n")
	require.ErrorIs(t, err, probe.ErrProtocol)
}

func TestParseConnectionWithoutVoltageSense(t *testing.T) {
	// Raspberry Pi GPIO adapters have no voltage readout; the power
	// check is skipped rather than failed.
	o := newTestOpenOCD(t, Config{ConnectToken: "at91samd21g18.cpu", ReportsVoltage: false})

	connected, err := o.parseConnection("Info : at91samd21g18.cpu: hardware has 4 breakpoints\n")
	require.NoError(t, err)
	require.True(t, connected)

	connected, err = o.parseConnection("Error: unable to open ftdi device\n")
	require.NoError(t, err)
	require.False(t, connected)
}

func TestProgramScriptOrder(t *testing.T) {
	hex := writeImage(t, "app.hex")
	bin := writeImage(t, "boot.bin")

	req := &probe.ProgramRequest{}
	require.NoError(t, req.AddHex(hex))
	require.NoError(t, req.AddBin(bin, 0x2000))

	o := newTestOpenOCD(t, Config{})
	script, err := o.programScript(req)
	require.NoError(t, err)

	require.Equal(t, []string{
		"init",
		"reset init",
		fmt.Sprintf("load_image {%s} 0 ihex", hex),
		fmt.Sprintf("load_image {%s} 0x00002000 bin", bin),
		fmt.Sprintf("verify_image {%s} 0 ihex", hex),
		fmt.Sprintf("verify_image {%s} 0x00002000 bin", bin),
		"reset run",
		"exit",
	}, script.Commands())
}

func TestProgramScriptRejectsBracedPath(t *testing.T) {
	o := newTestOpenOCD(t, Config{})
	req := &probe.ProgramRequest{
		HexImages: paths.NewPathList("/tmp/bad{name.hex"),
	}
	_, err := o.programScript(req)
	require.Error(t, err)
}

func TestInlineCommandArgs(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs the echo binary")
	}
	// Run echo in place of OpenOCD so the spawned argument list comes
	// back on stdout.
	o := newTestOpenOCD(t, Config{
		Exe:       "echo",
		FixedArgs: []string{"-f", "interface/raspberrypi2-native.cfg"},
		Timeout:   runner.DefaultTimeout,
	})
	script := &probe.Script{}
	script.Add("init")
	script.Add("reset init")
	script.Add("exit")

	res, err := o.run(script)
	require.NoError(t, err)
	require.Equal(t, "-f interface/raspberrypi2-native.cfg -c init -c reset init -c exit\n", res.Output)
}

func TestMemLineParsing(t *testing.T) {
	out := "0x0080a00e: 3f2a\n"
	v, err := output.MemValue(out, memLineRe(0x0080A00E), probe.Width16)
	require.NoError(t, err)
	require.Equal(t, uint32(0x3F2A), v.Raw)

	_, err = output.MemValue("Error: address not readable\n", memLineRe(0x0080A00E), probe.Width16)
	require.ErrorIs(t, err, probe.ErrParse)
}

func TestReadMemRejectsBadWidth(t *testing.T) {
	o := newTestOpenOCD(t, Config{})
	_, err := o.ReadMem(probe.Width(64), 0)
	require.Error(t, err)
}

func TestVerifiedCountMatchesImages(t *testing.T) {
	out := "verified 4096 bytes in 0.1s\nverified 512 bytes in 0.05s\n"
	require.NoError(t, output.CheckVerified(out, verifiedMarker, 2))

	err := output.CheckVerified("verified 4096 bytes in 0.1s\n", verifiedMarker, 2)
	var verr *probe.VerificationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, 2, verr.Expected)
	require.Equal(t, 1, verr.Verified)
}
