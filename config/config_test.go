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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/probelink/probelink/probe/runner"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))
	return file
}

func TestLoad(t *testing.T) {
	file := writeConfig(t, `
jlink:
  path: /opt/SEGGER/JLink/JLinkExe
  args: ["-autoconnect", "1"]
openocd:
  path: /usr/local/bin/openocd
timeout_seconds: 90
`)
	cfg, err := Load(file)
	require.NoError(t, err)
	require.Equal(t, "/opt/SEGGER/JLink/JLinkExe", cfg.JLink.Path)
	require.Equal(t, []string{"-autoconnect", "1"}, cfg.JLink.Args)
	require.Equal(t, "/usr/local/bin/openocd", cfg.OpenOCD.Path)
	require.Equal(t, 90, cfg.TimeoutSeconds)
	require.Equal(t, runner.After(90*time.Second), cfg.Timeout())
}

func TestLoadExplicitFileMustExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadMalformed(t *testing.T) {
	file := writeConfig(t, "jlink: [not, a, mapping\n")
	_, err := Load(file)
	require.Error(t, err)
}

func TestLoadRejectsNegativeTimeout(t *testing.T) {
	file := writeConfig(t, "timeout_seconds: -5\n")
	_, err := Load(file)
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be negative")
}

func TestLoadRejectsConflictingTimeouts(t *testing.T) {
	file := writeConfig(t, "timeout_seconds: 30\nno_timeout: true\n")
	_, err := Load(file)
	require.Error(t, err)
	require.Contains(t, err.Error(), "mutually exclusive")
}

func TestTimeoutResolution(t *testing.T) {
	require.Equal(t, runner.DefaultTimeout, (&Config{}).Timeout())
	require.Equal(t, runner.After(5*time.Second), (&Config{TimeoutSeconds: 5}).Timeout())
	require.Equal(t, runner.NoTimeout, (&Config{NoTimeout: true}).Timeout())
}
