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
	"sort"
	"strings"

	"github.com/probelink/probelink/probe"
	"github.com/probelink/probelink/probe/jlink"
	"github.com/probelink/probelink/probe/openocd"
)

// samd21Variant maps a variant name to the Segger -device name and the
// OpenOCD CHIPNAME for that part.
type samd21Variant struct {
	jlinkDevice string
	chipName    string
}

var samd21Variants = map[string]samd21Variant{
	"samd21e15": {"ATSAMD21E15", "at91samd21e15"},
	"samd21e16": {"ATSAMD21E16", "at91samd21e16"},
	"samd21e17": {"ATSAMD21E17", "at91samd21e17"},
	"samd21e18": {"ATSAMD21E18", "at91samd21e18"},

	"samd21g15": {"ATSAMD21G15", "at91samd21g15"},
	"samd21g16": {"ATSAMD21G16", "at91samd21g16"},
	"samd21g17": {"ATSAMD21G17", "at91samd21g17"},
	"samd21g18": {"ATSAMD21G18", "at91samd21g18"},

	"samd21j15": {"ATSAMD21J15", "at91samd21j15"},
	"samd21j16": {"ATSAMD21J16", "at91samd21j16"},
	"samd21j17": {"ATSAMD21J17", "at91samd21j17"},
	"samd21j18": {"ATSAMD21J18", "at91samd21j18"},
}

// samd21Parts decodes the DSU DID DEVSEL field into a part name.
// See the SAM D21 datasheet, DSU chapter.
var samd21Parts = map[uint32]string{
	0x0: "SAMD21J18A",
	0x1: "SAMD21J17A",
	0x2: "SAMD21J16A",
	0x3: "SAMD21J15A",

	0x5: "SAMD21G18A",
	0x6: "SAMD21G17A",
	0x7: "SAMD21G16A",
	0x8: "SAMD21G15A",

	0xA: "SAMD21E18A",
	0xB: "SAMD21E17A",
	0xC: "SAMD21E16A",
	0xD: "SAMD21E15A",
}

// samd21SerialWords are the NVM addresses of the eight 16-bit words
// that make up the factory serial number, in report order.
var samd21SerialWords = []uint32{
	0x0080A00E, 0x0080A00C,
	0x0080A042, 0x0080A040,
	0x0080A046, 0x0080A044,
	0x0080A04A, 0x0080A048,
}

// samd21DevselAddr is the DSU DID register; the low byte holds DEVSEL.
const samd21DevselAddr = 0x41002018

func init() {
	variants := make([]string, 0, len(samd21Variants))
	for name := range samd21Variants {
		variants = append(variants, name)
	}
	sort.Strings(variants)

	Register(&Core{
		Name:           "samd21",
		Title:          "Atmel SAMD21 CPU",
		Programmers:    []string{"jlink", "stlink", "raspi2"},
		Variants:       variants,
		DefaultVariant: "samd21g18",
		NewProgrammer:  newSAMD21Programmer,
		Info:           samd21Info,
	})
}

func newSAMD21Programmer(programmer string, opts Options) (probe.Programmer, error) {
	variant := samd21Variants[opts.Variant]
	switch programmer {
	case "jlink":
		return jlink.New(jlink.Config{
			Exe:       opts.JLink.Path,
			Device:    variant.jlinkDevice,
			Interface: "swd",
			Speed:     1000,
			Target:    "Cortex-M0 r0p1, Little endian",
			ExtraArgs: opts.JLink.ExtraArgs,
			Timeout:   opts.Timeout,
		}), nil
	case "stlink":
		return openocd.New(openocd.Config{
			Exe: opts.OpenOCD.Path,
			FixedArgs: []string{
				"-f", "interface/stlink-v2.cfg",
				"-c", fmt.Sprintf("set CHIPNAME %s; set ENDIAN little; set CPUTAPID 0x0bc11477; source [find target/at91samdXX.cfg]", variant.chipName),
			},
			ConnectToken:   variant.chipName + ".cpu",
			EraseScript:    []string{"at91samd chip-erase"},
			ReportsVoltage: true,
			ExtraArgs:      opts.OpenOCD.ExtraArgs,
			Timeout:        opts.Timeout,
		})
	case "raspi2":
		return openocd.New(openocd.Config{
			Exe: opts.OpenOCD.Path,
			FixedArgs: []string{
				"-f", "interface/raspberrypi2-native.cfg",
				"-c", fmt.Sprintf("transport select swd; set CHIPNAME %s; adapter_nsrst_delay 100; adapter_nsrst_assert_width 100; source [find target/at91samdXX.cfg]", variant.chipName),
			},
			ConnectToken: variant.chipName + ".cpu",
			EraseScript:  []string{"at91samd chip-erase"},
			// The Pi GPIO adapter has no voltage sense line.
			ReportsVoltage: false,
			ExtraArgs:      opts.OpenOCD.ExtraArgs,
			Timeout:        opts.Timeout,
		})
	}
	return nil, fmt.Errorf("unknown programmer %q", programmer)
}

func samd21Info(p probe.Programmer, w io.Writer) error {
	fields := make([]string, 0, len(samd21SerialWords))
	for _, addr := range samd21SerialWords {
		v, err := p.ReadMem(probe.Width16, addr)
		if err != nil {
			return err
		}
		fields = append(fields, fmt.Sprintf("%04X", v.Raw))
	}
	fmt.Fprintf(w, "Serial No.: %s\n", strings.Join(fields, ":"))

	devsel, err := p.ReadMem(probe.Width8, samd21DevselAddr)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Device ID : %s\n", lookup(samd21Parts, devsel.Raw, "Reserved"))
	return nil
}
