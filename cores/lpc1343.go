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
)

// LPC1343 SYSCON DEVICE_ID register. See NXP UM10375.
const lpc1343DeviceIDAddr = 0x400483F4

var lpc1343Parts = map[uint32]string{
	0x2C42502B: "LPC1311FHN33",
	0x2C40102B: "LPC1313FHN33 or LPC1313FBD48",
	0x3D01402B: "LPC1342FHN33 or LPC1342FBD48",
	0x3D00002B: "LPC1343FHN33 or LPC1343FBD48",
	0x1816902B: "LPC1311FHN33/01",
	0x1830102B: "LPC1313FHN33/01 or LPC1313FBD48/01",
}

var lpc1343SeggerNames = map[uint32]string{
	0x2C42502B: "LPC1311",
	0x2C40102B: "LPC1313",
	0x3D01402B: "LPC1342",
	0x3D00002B: "LPC1343",
	0x1816902B: "LPC1311",
	0x1830102B: "LPC1313",
}

func init() {
	Register(&Core{
		Name:          "lpc1343",
		Title:         "NXP LPC1343 CPU",
		Programmers:   []string{"jlink"},
		NewProgrammer: newLPC1343Programmer,
		Info:          lpc1343Info,
	})
}

func newLPC1343Programmer(programmer string, opts Options) (probe.Programmer, error) {
	if programmer != "jlink" {
		return nil, fmt.Errorf("unknown programmer %q", programmer)
	}
	return jlink.New(jlink.Config{
		Exe:       opts.JLink.Path,
		Device:    "LPC1343",
		Interface: "swd",
		Speed:     1000,
		Target:    "Cortex-M3 r2p0, Little endian",
		ExtraArgs: opts.JLink.ExtraArgs,
		Timeout:   opts.Timeout,
	}), nil
}

func lpc1343Info(p probe.Programmer, w io.Writer) error {
	deviceID, err := p.ReadMem(probe.Width32, lpc1343DeviceIDAddr)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Device ID : %s\n", lookup(lpc1343Parts, deviceID.Raw, fmt.Sprintf("0x%08X", deviceID.Raw)))

	if _, ok := p.(*jlink.JLink); ok {
		if name, known := lpc1343SeggerNames[deviceID.Raw]; known {
			fmt.Fprintf(w, "Segger ID : %s\n", name)
		}
	}
	return nil
}
