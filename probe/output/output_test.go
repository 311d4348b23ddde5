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

package output

import (
	"regexp"
	"testing"

	"github.com/probelink/probelink/probe"
	"github.com/stretchr/testify/require"
)

func TestVTref(t *testing.T) {
	v, found := VTref("Connecting to target via SWD\nVTref=3.300V\n")
	require.True(t, found)
	require.Equal(t, 3.3, v)

	v, found = VTref("VTref=0.012V")
	require.True(t, found)
	require.Equal(t, 0.012, v)

	_, found = VTref("Connecting to target via SWD\n")
	require.False(t, found)
}

func TestTargetVoltage(t *testing.T) {
	v, found := TargetVoltage("Info : Target voltage: 3.244110\n")
	require.True(t, found)
	require.Equal(t, 3.244110, v)

	_, found = TargetVoltage("Info : clock speed 400 kHz\n")
	require.False(t, found)
}

func TestMemValue(t *testing.T) {
	re := regexp.MustCompile(`(?im)^0080A00E = (\S+)`)
	out := "J-Link>mem16 0080A00E 1\n0080A00E = 3F2A\nJ-Link>q\n"
	v, err := MemValue(out, re, probe.Width16)
	require.NoError(t, err)
	require.Equal(t, probe.Value{Width: probe.Width16, Raw: 0x3F2A}, v)
	require.Equal(t, "0x3F2A", v.String())
}

func TestMemValueLowercasePrefixed(t *testing.T) {
	re := regexp.MustCompile(`(?im)^0x0080a00e:\s+(\S+)`)
	out := "0x0080a00e: 0x3f2a\n"
	v, err := MemValue(out, re, probe.Width16)
	require.NoError(t, err)
	require.Equal(t, uint32(0x3F2A), v.Raw)
}

func TestMemValueNeverZeroOnMissingLine(t *testing.T) {
	re := regexp.MustCompile(`(?im)^0080A00E = (\S+)`)
	out := "Cannot connect to target.\n"
	_, err := MemValue(out, re, probe.Width16)
	require.ErrorIs(t, err, probe.ErrParse)
}

func TestMemValueMalformed(t *testing.T) {
	re := regexp.MustCompile(`(?im)^0080A00E = (\S+)`)
	_, err := MemValue("0080A00E = ZZZZ\n", re, probe.Width16)
	require.ErrorIs(t, err, probe.ErrParse)
}

func TestMemValueWidthOverflow(t *testing.T) {
	re := regexp.MustCompile(`(?im)^0080A00E = (\S+)`)
	_, err := MemValue("0080A00E = 1FFFF\n", re, probe.Width16)
	require.ErrorIs(t, err, probe.ErrParse)

	v, err := MemValue("0080A00E = 1FFFF\n", re, probe.Width32)
	require.NoError(t, err)
	require.Equal(t, uint32(0x1FFFF), v.Raw)
}

func TestMemValueInvalidWidth(t *testing.T) {
	re := regexp.MustCompile(`(?im)^0080A00E = (\S+)`)
	_, err := MemValue("0080A00E = 3F2A\n", re, probe.Width(64))
	require.ErrorIs(t, err, probe.ErrParse)
}

func TestCountVerified(t *testing.T) {
	out := "" +
		"verified 1024 bytes in 0.1s\n" +
		"some chatter\n" +
		"verified 2048 bytes in 0.2s\n" +
		"a line that mentions verified elsewhere\n"
	require.Equal(t, 2, CountVerified(out, "verified "))
	require.Equal(t, 0, CountVerified("", "verified "))
}

func TestCheckVerified(t *testing.T) {
	out := "Verify successful.\nVerify successful.\n"
	require.NoError(t, CheckVerified(out, "Verify successful", 2))

	err := CheckVerified(out, "Verify successful", 3)
	require.Error(t, err)
	var verr *probe.VerificationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, 3, verr.Expected)
	require.Equal(t, 2, verr.Verified)
}
