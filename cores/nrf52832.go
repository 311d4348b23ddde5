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

// FICR/UICR registers used for the identification report. See the
// nRF52832 product specification, FICR chapter.
const (
	nrf52HWIDAddr     = 0x10000100
	nrf52VariantAddr  = 0x10000104
	nrf52PackageAddr  = 0x10000108
	nrf52SRAMAddr     = 0x1000010C
	nrf52FlashAddr    = 0x10000110
	nrf52DevAddrHigh  = 0x100000A8
	nrf52DevAddrLow   = 0x100000A4
	nrf52DevIDHigh    = 0x10000060
	nrf52DevIDLow     = 0x10000064
	nrf52NFCPinsAddr  = 0x1000120C
	nrf52NFCPinsAsNFC = 0xFFFFFFFF
)

var nrf52Variants = map[uint32]string{
	0x41414141: "AAAA",
	0x41414142: "AAAB",
	0x41414241: "AABA",
	0x41414242: "AABB",
	0xFFFFFFFF: "Unspecified",
}

var nrf52Packages = map[uint32]string{
	0x2000: "QFxx - 48-pin QFN",
	0x2001: "CIxx - 7x8 WLCSP 56 balls",
}

var nrf52SRAM = map[uint32]string{
	0x10: "16 KB SRAM",
	0x20: "32 KB SRAM",
	0x40: "64 KB SRAM",
}

var nrf52Flash = map[uint32]string{
	0x80:  "128 KB Flash",
	0x100: "256 KB Flash",
	0x200: "512 KB Flash",
}

func init() {
	Register(&Core{
		Name:          "nrf52832",
		Title:         "Nordic nRF52832 CPU",
		Programmers:   []string{"jlink"},
		NewProgrammer: newNRF52832Programmer,
		Info:          nrf52832Info,
	})
}

func newNRF52832Programmer(programmer string, opts Options) (probe.Programmer, error) {
	if programmer != "jlink" {
		return nil, fmt.Errorf("unknown programmer %q", programmer)
	}
	return jlink.New(jlink.Config{
		Exe:       opts.JLink.Path,
		Device:    "nrf52832_xxaa",
		Interface: "swd",
		Speed:     1000,
		Target:    "Cortex-M4 r0p1, Little endian",
		ExtraArgs: append([]string{"-autoconnect", "1"}, opts.JLink.ExtraArgs...),
		// The nRF52 needs a settle delay between the mass erase and
		// the reset.
		WipeScript: []string{"erase", "sleep 100", "r", "q"},
		Timeout:    opts.Timeout,
	}), nil
}

func nrf52832Info(p probe.Programmer, w io.Writer) error {
	hwid, err := p.ReadMem(probe.Width32, nrf52HWIDAddr)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Hardware ID : 0x%05X\n", hwid.Raw)

	variant, err := p.ReadMem(probe.Width32, nrf52VariantAddr)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Variant     : %s\n", lookup(nrf52Variants, variant.Raw, fmt.Sprintf("0x%05X", variant.Raw)))

	pkg, err := p.ReadMem(probe.Width16, nrf52PackageAddr)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Package     : %s\n", lookup(nrf52Packages, pkg.Raw, fmt.Sprintf("0x%04X", pkg.Raw)))

	sram, err := p.ReadMem(probe.Width8, nrf52SRAMAddr)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "SRAM        : %s\n", lookup(nrf52SRAM, sram.Raw, fmt.Sprintf("0x%02X", sram.Raw)))

	flash, err := p.ReadMem(probe.Width16, nrf52FlashAddr)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Flash       : %s\n", lookup(nrf52Flash, flash.Raw, fmt.Sprintf("0x%04X", flash.Raw)))

	high, err := p.ReadMem(probe.Width32, nrf52DevAddrHigh)
	if err != nil {
		return err
	}
	low, err := p.ReadMem(probe.Width32, nrf52DevAddrLow)
	if err != nil {
		return err
	}
	// Random static BLE addresses have the two topmost bits set.
	addrHigh := (high.Raw & 0x0000FFFF) | 0x0000C000
	fmt.Fprintf(w, "Device Addr : %02X:%02X:%02X:%02X:%02X:%02X\n",
		(addrHigh>>8)&0xFF, addrHigh&0xFF,
		(low.Raw>>24)&0xFF, (low.Raw>>16)&0xFF, (low.Raw>>8)&0xFF, low.Raw&0xFF)

	idHigh, err := p.ReadMem(probe.Width32, nrf52DevIDHigh)
	if err != nil {
		return err
	}
	idLow, err := p.ReadMem(probe.Width32, nrf52DevIDLow)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Device ID   : %08X%08X\n", idHigh.Raw, idLow.Raw)

	nfc, err := p.ReadMem(probe.Width32, nrf52NFCPinsAddr)
	if err != nil {
		return err
	}
	if nfc.Raw == nrf52NFCPinsAsNFC {
		fmt.Fprintf(w, "NFC Pins    : NFC\n")
	} else {
		fmt.Fprintf(w, "NFC Pins    : GPIO\n")
	}
	return nil
}
