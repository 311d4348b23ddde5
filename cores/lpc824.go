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

// lpc824DeviceIDAddr is the SYSCON DEVICE_ID register. See NXP UM10800.
const lpc824DeviceIDAddr = 0x400483F8

var lpc824Parts = map[uint32]string{
	0x00008100: "LPC810M021FN8",
	0x00008110: "LPC811M001JDH16",
	0x00008120: "LPC812M101JDH16",
	0x00008121: "LPC812M101JD20",
	0x00008122: "LPC812M101JDH20 or LPC812M101JTB16",
	0x00008241: "LPC824M201JHI33",
	0x00008221: "LPC822M101JHI33",
	0x00008242: "LPC824M201JDH20",
	0x00008222: "LPC822M101JDH20",
}

var lpc824SeggerNames = map[uint32]string{
	0x00008100: "LPC810M021",
	0x00008110: "LPC811M001",
	0x00008120: "LPC812M101",
	0x00008121: "LPC812M101",
	0x00008122: "LPC812M101",
	0x00008241: "LPC824M201",
	0x00008221: "LPC822M101",
	0x00008242: "LPC824M201",
	0x00008222: "LPC822M101",
}

func init() {
	Register(&Core{
		Name:          "lpc824",
		Title:         "NXP LPC824 CPU",
		Programmers:   []string{"jlink"},
		NewProgrammer: newLPC824Programmer,
		Info:          lpc824Info,
	})
}

func newLPC824Programmer(programmer string, opts Options) (probe.Programmer, error) {
	if programmer != "jlink" {
		return nil, fmt.Errorf("unknown programmer %q", programmer)
	}
	return jlink.New(jlink.Config{
		Exe:       opts.JLink.Path,
		Device:    "LPC824M201",
		Interface: "swd",
		Speed:     1000,
		Target:    "Cortex-M0 r0p0, Little endian",
		ExtraArgs: opts.JLink.ExtraArgs,
		Timeout:   opts.Timeout,
	}), nil
}

func lpc824Info(p probe.Programmer, w io.Writer) error {
	deviceID, err := p.ReadMem(probe.Width32, lpc824DeviceIDAddr)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Device ID : %s\n", lookup(lpc824Parts, deviceID.Raw, fmt.Sprintf("0x%08X", deviceID.Raw)))

	if _, ok := p.(*jlink.JLink); ok {
		if name, known := lpc824SeggerNames[deviceID.Raw]; known {
			fmt.Fprintf(w, "Segger ID : %s\n", name)
		}
	}
	return nil
}
