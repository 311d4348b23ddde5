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

package runner

import (
	"runtime"
	"testing"
	"time"

	"github.com/arduino/go-paths-helper"
	"github.com/probelink/probelink/probe"
	"github.com/stretchr/testify/require"
)

func requirePosixShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
}

func TestTimeoutValues(t *testing.T) {
	require.False(t, NoTimeout.Bounded())
	require.Equal(t, "none", NoTimeout.String())

	bounded := After(90 * time.Second)
	require.True(t, bounded.Bounded())
	require.Equal(t, 90*time.Second, bounded.Duration())
	require.Equal(t, "1m30s", bounded.String())

	require.True(t, DefaultTimeout.Bounded())
}

func TestRunMissingExecutable(t *testing.T) {
	_, err := Run(paths.New("/nonexistent/probe-tool"), nil, DefaultTimeout)
	require.ErrorIs(t, err, probe.ErrExecutableNotFound)
}

func TestRunMergesStdoutAndStderr(t *testing.T) {
	requirePosixShell(t)
	res, err := Run(paths.New("/bin/sh"), []string{"-c", "echo to-stdout; echo to-stderr 1>&2"}, DefaultTimeout)
	require.NoError(t, err)
	require.Contains(t, res.Output, "to-stdout")
	require.Contains(t, res.Output, "to-stderr")
	require.False(t, res.TimedOut)
}

func TestRunNonZeroExitIsNotAnError(t *testing.T) {
	requirePosixShell(t)
	res, err := Run(paths.New("/bin/sh"), []string{"-c", "echo oops; exit 3"}, DefaultTimeout)
	require.NoError(t, err)
	require.Contains(t, res.Output, "oops")
}

func TestRunTimeout(t *testing.T) {
	requirePosixShell(t)
	res, err := Run(paths.New("/bin/sh"), []string{"-c", "sleep 10"}, After(200*time.Millisecond))
	require.ErrorIs(t, err, probe.ErrTimeout)
	require.NotNil(t, res)
	require.True(t, res.TimedOut)
}

func TestRunScript(t *testing.T) {
	requirePosixShell(t)
	script := &probe.Script{}
	script.Add("connect")
	script.Add("q")

	// cat echoes the script file back, proving the file was fully
	// written before the tool started.
	res, err := RunScript(paths.New("/bin/cat"), nil, script, DefaultTimeout)
	require.NoError(t, err)
	require.Equal(t, "connect\nq\n", res.Output)
}

func TestRunScriptRemovesTempFile(t *testing.T) {
	requirePosixShell(t)
	script := &probe.Script{}
	script.Add("q")

	// Print the script file's own path so we can check it afterwards.
	res, err := RunScript(paths.New("/bin/sh"), []string{"-c", `echo "$0"`}, script, DefaultTimeout)
	require.NoError(t, err)
	file := paths.New(res.Output[:len(res.Output)-1])
	require.False(t, file.Exist())
}
