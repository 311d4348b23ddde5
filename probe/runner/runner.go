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

// Package runner spawns the external probe tools and captures their
// output. All backends funnel through here so that timeouts, missing
// executables and temp script files are handled in one place.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	"github.com/arduino/arduino-cli/executils"
	"github.com/arduino/go-paths-helper"
	"github.com/probelink/probelink/probe"
	"github.com/sirupsen/logrus"
)

// Timeout is the wall-clock bound applied to one tool run. The zero
// value means unbounded; an unbounded run must be requested explicitly
// through NoTimeout rather than with a zero or negative duration.
type Timeout struct {
	d       time.Duration
	bounded bool
}

// NoTimeout lets the tool run to completion with no wall-clock bound.
var NoTimeout = Timeout{}

// DefaultTimeout bounds a tool run when the caller has no opinion.
// Probe tools normally answer in a few seconds; a minute covers slow
// mass erases.
var DefaultTimeout = After(60 * time.Second)

// After returns a Timeout that expires after d.
func After(d time.Duration) Timeout {
	return Timeout{d: d, bounded: true}
}

// Bounded reports whether the timeout actually bounds the run.
func (t Timeout) Bounded() bool {
	return t.bounded
}

// Duration returns the bound. Only meaningful when Bounded.
func (t Timeout) Duration() time.Duration {
	return t.d
}

func (t Timeout) String() string {
	if !t.bounded {
		return "none"
	}
	return t.d.String()
}

// Result is the outcome of one tool run. It is consumed by an output
// parser right after the run and then discarded, never retained.
type Result struct {
	// Output holds stdout and stderr merged in the order produced.
	Output   string
	Duration time.Duration
	TimedOut bool
}

// Run spawns the tool with the given arguments and waits for it to
// exit, capturing stdout and stderr into one stream. A missing
// executable maps to probe.ErrExecutableNotFound and an expired
// timeout kills the process and maps to probe.ErrTimeout. A non-zero
// exit status is not an error by itself: the probe tools routinely
// exit non-zero on paths the output parsers classify better.
func Run(exe *paths.Path, args []string, timeout Timeout) (*Result, error) {
	proc, err := executils.NewProcessFromPath(nil, exe, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s (%v)", probe.ErrExecutableNotFound, exe, err)
	}
	output := &bytes.Buffer{}
	proc.RedirectStdoutTo(output)
	proc.RedirectStderrTo(output)

	ctx := context.Background()
	cancel := func() {}
	if timeout.Bounded() {
		ctx, cancel = context.WithTimeout(ctx, timeout.Duration())
	}
	defer cancel()

	logrus.Debugf("running: %s %s", exe, strings.Join(args, " "))
	start := time.Now()
	runErr := proc.RunWithinContext(ctx)
	res := &Result{
		Output:   output.String(),
		Duration: time.Since(start),
	}
	logrus.Debugf("tool output:\n%s", res.Output)

	if ctx.Err() == context.DeadlineExceeded {
		res.TimedOut = true
		return res, fmt.Errorf("%w: %s exceeded %s", probe.ErrTimeout, exe.Base(), timeout)
	}
	if runErr != nil {
		var execErr *exec.Error
		if errors.As(runErr, &execErr) || errors.Is(runErr, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (%v)", probe.ErrExecutableNotFound, exe, runErr)
		}
		logrus.WithError(runErr).Debugf("%s exited with error", exe.Base())
	}
	return res, nil
}

// RunScript writes the script to a uniquely-named temporary file, runs
// the tool with the file path appended to fixedArgs, and removes the
// file afterwards. Removal is best effort: a leftover script file must
// never mask the result of the run that used it.
func RunScript(exe *paths.Path, fixedArgs []string, script *probe.Script, timeout Timeout) (*Result, error) {
	file, err := paths.WriteToTempFile([]byte(script.String()), nil, "probelink-script")
	if err != nil {
		return nil, fmt.Errorf("writing tool script: %w", err)
	}
	defer func() {
		if err := file.Remove(); err != nil {
			logrus.WithError(err).Debugf("could not remove tool script %s", file)
		}
	}()
	logrus.Debugf("tool script %s:\n%s", file, script)

	args := append(append([]string{}, fixedArgs...), file.String())
	return Run(exe, args, timeout)
}
