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

// Package chip implements the per-chip-family commands: one command
// per registered core, all sharing the same flag block and the same
// fixed operation order.
package chip

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/probelink/probelink/cli/arguments"
	"github.com/probelink/probelink/cli/feedback"
	"github.com/probelink/probelink/cli/globals"
	"github.com/probelink/probelink/config"
	"github.com/probelink/probelink/cores"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewCommand creates the command for one chip family.
func NewCommand(core *cores.Core) *cobra.Command {
	flags := &arguments.Flags{}
	command := &cobra.Command{
		Use:   core.Name,
		Short: core.Title + ".",
		Long:  fmt.Sprintf("Check, wipe, program and inspect a %s through a debug probe.", core.Title),
		Example: "" +
			"  " + os.Args[0] + " " + core.Name + " -p " + core.Programmers[0] + " --wipe --program-hex firmware.hex\n" +
			"  " + os.Args[0] + " " + core.Name + " -p " + core.Programmers[0] + " --program-bin bootloader.bin@0x0 --info\n" +
			"  " + os.Args[0] + " " + core.Name + " -p " + core.Programmers[0] + " --read-mem-32 0xE0042000\n",
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			runChip(core, flags)
		},
	}
	flags.AddToCommand(command, core)
	return command
}

// runChip drives one invocation in the fixed order: connect check,
// wipe, program, info, memory read. The connect check gates every
// destructive step.
func runChip(core *cores.Core, flags *arguments.Flags) {
	cfg, err := config.Load(globals.ConfigFile)
	if err != nil {
		feedback.FatalError(err, feedback.ErrBadArgument)
	}
	timeout, err := flags.ResolveTimeout(cfg.Timeout())
	if err != nil {
		feedback.FatalError(err, feedback.ErrBadArgument)
	}

	// Validate the whole request before spawning any tool.
	req, err := flags.ProgramRequest()
	if err != nil {
		feedback.FatalError(err, feedback.ErrBadArgument)
	}
	readWidth, readAddr, readRequested, err := flags.ReadRequest()
	if err != nil {
		feedback.FatalError(err, feedback.ErrBadArgument)
	}

	opts := cores.Options{
		Variant: flags.Variant,
		JLink: cores.ToolOptions{
			Path:      firstNonEmpty(flags.JLinkPath, cfg.JLink.Path),
			ExtraArgs: append(append([]string{}, cfg.JLink.Args...), flags.JLinkArgs...),
		},
		OpenOCD: cores.ToolOptions{
			Path:      firstNonEmpty(flags.OpenOCDPath, cfg.OpenOCD.Path),
			ExtraArgs: append(append([]string{}, cfg.OpenOCD.Args...), flags.OpenOCDArgs...),
		},
		Timeout: timeout,
	}
	programmer, err := core.New(flags.Programmer, opts)
	if err != nil {
		feedback.FatalError(err, feedback.ErrBadArgument)
	}

	logrus.Infof("checking for a connected %s", core.Name)
	connected, err := programmer.IsConnected()
	if err != nil {
		feedback.Fatal(fmt.Sprintf("Connection check failed: %s", err), feedback.ErrGeneric)
	}
	if !connected {
		feedback.Fatal(fmt.Sprintf("Could not find %s, is it connected?", core.Name), feedback.ErrGeneric)
	}

	if flags.Wipe {
		logrus.Info("wiping flash memory")
		if err := programmer.Wipe(); err != nil {
			feedback.Fatal(fmt.Sprintf("Wipe failed: %s", err), feedback.ErrGeneric)
		}
	}

	if req.Count() > 0 {
		logrus.Infof("programming %d image(s)", req.Count())
		if err := programmer.Program(req); err != nil {
			feedback.Fatal(fmt.Sprintf("Programming failed: %s", err), feedback.ErrGeneric)
		}
		logrus.Info("programming completed and verified")
	}

	if flags.Info {
		report := &bytes.Buffer{}
		if err := core.Info(programmer, report); err != nil {
			feedback.Fatal(fmt.Sprintf("Could not read chip information: %s", err), feedback.ErrGeneric)
		}
		feedback.PrintResult(&infoResult{Core: core.Name, Report: report.String()})
	}

	if readRequested {
		value, err := programmer.ReadMem(readWidth, readAddr)
		if err != nil {
			feedback.Fatal(fmt.Sprintf("Memory read failed: %s", err), feedback.ErrGeneric)
		}
		feedback.PrintResult(&readResult{
			Address: fmt.Sprintf("0x%08X", readAddr),
			Width:   int(readWidth),
			Value:   value.String(),
		})
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

type infoResult struct {
	Core   string `json:"core"`
	Report string `json:"report"`
}

func (r *infoResult) Data() interface{} {
	return r
}

func (r *infoResult) String() string {
	return strings.TrimRight(r.Report, "\n")
}

type readResult struct {
	Address string `json:"address"`
	Width   int    `json:"width"`
	Value   string `json:"value"`
}

func (r *readResult) Data() interface{} {
	return r
}

func (r *readResult) String() string {
	return r.Value
}
