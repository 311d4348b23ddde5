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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/probelink/probelink/probe"
	"github.com/probelink/probelink/probe/runner"
	"github.com/stretchr/testify/require"
)

func TestSplitBinArg(t *testing.T) {
	path, addr, err := splitBinArg("firmware.bin@0x2000")
	require.NoError(t, err)
	require.Equal(t, "firmware.bin", path)
	require.Equal(t, uint32(0x2000), addr)

	path, addr, err = splitBinArg("bootloader.bin@0")
	require.NoError(t, err)
	require.Equal(t, "bootloader.bin", path)
	require.Equal(t, uint32(0), addr)

	// The last @ splits, so paths containing @ still work.
	path, addr, err = splitBinArg("builds@v2/app.bin@8192")
	require.NoError(t, err)
	require.Equal(t, "builds@v2/app.bin", path)
	require.Equal(t, uint32(8192), addr)
}

func TestSplitBinArgRejectsMalformed(t *testing.T) {
	for _, arg := range []string{"firmware.bin", "@0x2000", "firmware.bin@", "firmware.bin@xyz", "firmware.bin@0x1FFFFFFFF"} {
		_, _, err := splitBinArg(arg)
		require.Error(t, err, "arg %q", arg)
	}
}

func TestProgramRequest(t *testing.T) {
	dir := t.TempDir()
	hexFile := filepath.Join(dir, "app.hex")
	binFile := filepath.Join(dir, "boot.bin")
	require.NoError(t, os.WriteFile(hexFile, []byte(":00000001FF\n"), 0644))
	require.NoError(t, os.WriteFile(binFile, []byte{0x00}, 0644))

	flags := &Flags{
		ProgramHex: []string{hexFile},
		ProgramBin: []string{binFile + "@0x2000"},
	}
	req, err := flags.ProgramRequest()
	require.NoError(t, err)
	require.Equal(t, 2, req.Count())
	require.Equal(t, uint32(0x2000), req.BinImages[0].Addr)
}

func TestProgramRequestRejectsMissingImage(t *testing.T) {
	flags := &Flags{ProgramHex: []string{filepath.Join(t.TempDir(), "nope.hex")}}
	_, err := flags.ProgramRequest()
	require.Error(t, err)
}

func TestReadRequest(t *testing.T) {
	flags := &Flags{ReadMem16: "0x0080A00E"}
	width, addr, requested, err := flags.ReadRequest()
	require.NoError(t, err)
	require.True(t, requested)
	require.Equal(t, probe.Width16, width)
	require.Equal(t, uint32(0x0080A00E), addr)
}

func TestReadRequestNoneRequested(t *testing.T) {
	_, _, requested, err := (&Flags{}).ReadRequest()
	require.NoError(t, err)
	require.False(t, requested)
}

func TestReadRequestAmbiguous(t *testing.T) {
	flags := &Flags{ReadMem8: "0x0", ReadMem32: "0x0"}
	_, _, _, err := flags.ReadRequest()
	require.ErrorIs(t, err, probe.ErrAmbiguousRequest)
}

func TestReadRequestBadAddress(t *testing.T) {
	flags := &Flags{ReadMem32: "not-an-address"}
	_, _, _, err := flags.ReadRequest()
	require.Error(t, err)
}

func TestResolveTimeout(t *testing.T) {
	fallback := runner.After(60 * time.Second)

	timeout, err := (&Flags{}).ResolveTimeout(fallback)
	require.NoError(t, err)
	require.Equal(t, fallback, timeout)

	timeout, err = (&Flags{Timeout: "90s"}).ResolveTimeout(fallback)
	require.NoError(t, err)
	require.Equal(t, runner.After(90*time.Second), timeout)

	timeout, err = (&Flags{Timeout: "none"}).ResolveTimeout(fallback)
	require.NoError(t, err)
	require.Equal(t, runner.NoTimeout, timeout)

	_, err = (&Flags{Timeout: "-5s"}).ResolveTimeout(fallback)
	require.Error(t, err)

	_, err = (&Flags{Timeout: "soon"}).ResolveTimeout(fallback)
	require.Error(t, err)
}
