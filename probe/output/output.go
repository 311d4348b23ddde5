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

// Package output scans the free-form text the probe tools print for
// the few tokens the programmers care about: reference voltage,
// register values and verification confirmations.
package output

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/probelink/probelink/probe"
)

// MinVoltage is the reference voltage (in volts) below which the
// target is considered unpowered.
const MinVoltage = 1.0

var (
	vtrefRe         = regexp.MustCompile(`VTref=([0-9.]+)V`)
	targetVoltageRe = regexp.MustCompile(`Target voltage: ([0-9.]+)`)
)

// VTref extracts the J-Link reference voltage reading. The second
// return is false when the token is structurally absent.
func VTref(out string) (float64, bool) {
	return voltage(vtrefRe, out)
}

// TargetVoltage extracts the OpenOCD target voltage reading. The
// second return is false when the token is structurally absent.
func TargetVoltage(out string) (float64, bool) {
	return voltage(targetVoltageRe, out)
}

func voltage(re *regexp.Regexp, out string) (float64, bool) {
	match := re.FindStringSubmatch(out)
	if match == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// MemValue scans out for a line matching re, which must carry exactly
// one capture group holding a hexadecimal value, and parses that value
// into the requested width. A missing line or a value that does not
// fit the width is probe.ErrParse: this must never fall back to zero,
// a silent zero is indistinguishable from a real read of zero.
func MemValue(out string, re *regexp.Regexp, width probe.Width) (probe.Value, error) {
	if !width.Valid() {
		return probe.Value{}, fmt.Errorf("%w: unsupported read width %d", probe.ErrParse, int(width))
	}
	match := re.FindStringSubmatch(out)
	if match == nil {
		return probe.Value{}, fmt.Errorf("%w: no memory value in tool output, are the probe and board connected?", probe.ErrParse)
	}
	raw := strings.TrimPrefix(strings.ToLower(match[1]), "0x")
	v, err := strconv.ParseUint(raw, 16, 32)
	if err != nil {
		return probe.Value{}, fmt.Errorf("%w: malformed memory value %q", probe.ErrParse, match[1])
	}
	if uint32(v) > width.Max() {
		return probe.Value{}, fmt.Errorf("%w: value %#x does not fit a %s read", probe.ErrParse, v, width)
	}
	return probe.Value{Width: width, Raw: uint32(v)}, nil
}

// CountVerified counts the output lines that begin with the tool's
// verification marker.
func CountVerified(out, marker string) int {
	count := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, marker) {
			count++
		}
	}
	return count
}

// CheckVerified compares the number of verification confirmations in
// out against the number of images the operation loaded. The check is
// all-or-nothing; the tools do not attribute a failed verification to
// a specific file, so neither do we.
func CheckVerified(out, marker string, expected int) error {
	verified := CountVerified(out, marker)
	if verified != expected {
		return &probe.VerificationError{Expected: expected, Verified: verified}
	}
	return nil
}
