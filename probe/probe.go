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

// Package probe defines the programmer abstraction shared by all
// debug-probe tool backends: the capability set exposed to the CLI,
// the program request, and the width-tagged memory read result.
package probe

import (
	"fmt"

	"github.com/arduino/go-paths-helper"
)

// Width is the size of a memory read.
type Width int

const (
	Width8  Width = 8
	Width16 Width = 16
	Width32 Width = 32
)

// Valid reports whether w is one of the supported read widths.
func (w Width) Valid() bool {
	return w == Width8 || w == Width16 || w == Width32
}

// Max returns the largest value representable in w bits.
func (w Width) Max() uint32 {
	switch w {
	case Width8:
		return 0xFF
	case Width16:
		return 0xFFFF
	default:
		return 0xFFFFFFFF
	}
}

func (w Width) String() string {
	return fmt.Sprintf("%d-bit", int(w))
}

// Value is a memory value read from the target, tagged with the width
// it was read and parsed with. Callers that need a narrower field than
// the one read must re-read with the proper width instead of truncating.
type Value struct {
	Width Width
	Raw   uint32
}

func (v Value) String() string {
	return fmt.Sprintf("0x%X", v.Raw)
}

// BinImage is a raw binary firmware image plus the absolute address it
// must be loaded at. Raw images carry no addressing of their own.
type BinImage struct {
	Path *paths.Path
	Addr uint32
}

// ProgramRequest is an ordered set of firmware images to load and
// verify in a single programming operation. Hex images carry their own
// addressing; bin images are loaded at an explicit address. Requests
// are built once per invocation and not reused.
type ProgramRequest struct {
	HexImages []*paths.Path
	BinImages []BinImage
}

// AddHex appends a self-addressed hex image. The file must exist and be
// a regular file when the request is built.
func (r *ProgramRequest) AddHex(file string) error {
	p, err := checkImage(file)
	if err != nil {
		return err
	}
	r.HexImages = append(r.HexImages, p)
	return nil
}

// AddBin appends a raw binary image to be loaded at addr.
func (r *ProgramRequest) AddBin(file string, addr uint32) error {
	p, err := checkImage(file)
	if err != nil {
		return err
	}
	r.BinImages = append(r.BinImages, BinImage{Path: p, Addr: addr})
	return nil
}

// Count returns the total number of images in the request.
func (r *ProgramRequest) Count() int {
	return len(r.HexImages) + len(r.BinImages)
}

func checkImage(file string) (*paths.Path, error) {
	p := paths.New(file)
	info, err := p.Stat()
	if err != nil {
		return nil, fmt.Errorf("image %s: %w", file, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("image %s is a directory, not a file", file)
	}
	if err := p.ToAbs(); err != nil {
		return nil, fmt.Errorf("image %s: %w", file, err)
	}
	return p, nil
}

// Programmer is the capability a debug-probe backend exposes. Backends
// differ only in how they build tool command sequences and parse the
// tool output; the calling order (connect check before any destructive
// operation, wipe before program) is the caller's responsibility.
type Programmer interface {
	// IsConnected reports whether the probe sees the expected target.
	// A false return means the probe answered but did not find the
	// chip; hardware-level problems are reported as errors.
	IsConnected() (bool, error)

	// Wipe erases the target flash completely.
	Wipe() error

	// Program loads and verifies every image in the request. There is
	// no partial success: any verification shortfall fails the whole
	// operation.
	Program(req *ProgramRequest) error

	// ReadMem reads a single memory cell of the given width.
	ReadMem(width Width, address uint32) (Value, error)
}
