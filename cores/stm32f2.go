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

package cores

import (
	"fmt"
	"io"

	"github.com/probelink/probelink/probe"
	"github.com/probelink/probelink/probe/jlink"
	"github.com/probelink/probelink/probe/openocd"
)

// stm32f2IDCodeAddr is DBGMCU_IDCODE: revision in [31:16], device ID
// in [11:0]. See the STM32F205 reference manual.
const stm32f2IDCodeAddr = 0xE0042000

var stm32f2Parts = map[uint32]string{
	0x411: "STM32F2xx",
}

var stm32f2SeggerNames = map[uint32]string{
	0x411: "STM32F205RG",
}

var stm32f2Revisions = map[uint32]string{
	0x1000: "A (0x1000)",
	0x1001: "Z (0x1001)",
	0x2000: "B (0x2000)",
	0x2001: "Y (0x2001)",
	0x2003: "X (0x2003)",
	0x2007: "1 (0x2007)",
	0x200F: "V (0x200F)",
	0x201F: "2 (0x201F)",
}

func init() {
	Register(&Core{
		Name:          "stm32f2",
		Title:         "STMicro STM32F2 CPU",
		Programmers:   []string{"jlink", "stlink"},
		NewProgrammer: newSTM32F2Programmer,
		Info:          stm32f2Info,
	})
}

func newSTM32F2Programmer(programmer string, opts Options) (probe.Programmer, error) {
	switch programmer {
	case "jlink":
		return jlink.New(jlink.Config{
			Exe:       opts.JLink.Path,
			Device:    "STM32F205RG",
			Interface: "swd",
			Speed:     2000,
			Target:    "Cortex-M3 r2p0, Little endian",
			ExtraArgs: opts.JLink.ExtraArgs,
			Timeout:   opts.Timeout,
		}), nil
	case "stlink":
		return openocd.New(openocd.Config{
			Exe: opts.OpenOCD.Path,
			FixedArgs: []string{
				"-f", "interface/stlink-v2.cfg",
				"-f", "target/stm32f2x.cfg",
			},
			ConnectToken:   "stm32f2x.cpu",
			EraseScript:    []string{"halt", "stm32f2x mass_erase 0"},
			ReportsVoltage: true,
			ExtraArgs:      opts.OpenOCD.ExtraArgs,
			Timeout:        opts.Timeout,
		})
	}
	return nil, fmt.Errorf("unknown programmer %q", programmer)
}

func stm32f2Info(p probe.Programmer, w io.Writer) error {
	idcode, err := p.ReadMem(probe.Width32, stm32f2IDCodeAddr)
	if err != nil {
		return err
	}
	deviceID := idcode.Raw & 0xFFF
	revision := (idcode.Raw & 0xFFFF0000) >> 16
	fmt.Fprintf(w, "Device ID : %s\n", lookup(stm32f2Parts, deviceID, fmt.Sprintf("0x%03X", deviceID)))
	fmt.Fprintf(w, "Chip Rev  : %s\n", lookup(stm32f2Revisions, revision, fmt.Sprintf("0x%04X", revision)))

	// The Segger name is only meaningful when a J-Link is attached.
	if _, ok := p.(*jlink.JLink); ok {
		if name, known := stm32f2SeggerNames[deviceID]; known {
			fmt.Fprintf(w, "Segger ID : %s\n", name)
		}
	}
	return nil
}
