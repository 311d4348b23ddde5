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

package probe

import (
	"errors"
	"fmt"
)

// Classified failure kinds. Backends wrap these with context using
// fmt.Errorf and %w; callers test with errors.Is. All of them are
// terminal for the current operation, nothing is retried.
var (
	// ErrExecutableNotFound means the external tool could not be
	// resolved on this host.
	ErrExecutableNotFound = errors.New("executable not found")

	// ErrTimeout means the external tool exceeded its wall-clock bound
	// and was killed.
	ErrTimeout = errors.New("tool execution timed out")

	// ErrNotConnected means the probe answered but did not find the
	// expected target chip.
	ErrNotConnected = errors.New("target not connected")

	// ErrLowVoltage means the probe reported a reference voltage below
	// the minimum, i.e. the board is probably not powered.
	ErrLowVoltage = errors.New("target reference voltage too low")

	// ErrProtocol means the tool output did not match any expected
	// shape, e.g. the voltage diagnostic was missing entirely. This is
	// a malformed tool response, not a hardware-absence signal.
	ErrProtocol = errors.New("unexpected tool output")

	// ErrParse means an expected numeric token was missing or
	// malformed. A memory read must fail with this rather than return
	// zero: a silent zero is indistinguishable from a real read.
	ErrParse = errors.New("could not parse tool output")

	// ErrAmbiguousRequest means the caller asked for more than one
	// conflicting operation where exactly one is allowed.
	ErrAmbiguousRequest = errors.New("ambiguous request")
)

// VerificationError reports that the tool confirmed fewer (or more)
// image verifications than the programming request contained. The
// failure is structural: there is no per-file attribution because the
// tool output does not reliably provide one.
type VerificationError struct {
	Expected int
	Verified int
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("flash verification failed: %d of %d images verified", e.Verified, e.Expected)
}
