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

package cli

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-colorable"
	"github.com/probelink/probelink/cli/chip"
	"github.com/probelink/probelink/cli/feedback"
	"github.com/probelink/probelink/cli/globals"
	"github.com/probelink/probelink/cli/version"
	"github.com/probelink/probelink/cores"
	v "github.com/probelink/probelink/version"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	outputFormat string
	logFile      string
	logFormat    string
)

// NewCommand creates the probelink root command with one subcommand
// per registered chip family.
func NewCommand() *cobra.Command {
	probelinkCli := &cobra.Command{
		Use:   "probelink",
		Short: "probelink.",
		Long:  "probelink - flash and inspect microcontrollers through J-Link and OpenOCD debug probes.",
		Example: "" +
			"  " + os.Args[0] + " samd21 -p jlink --wipe --program-hex firmware.hex\n" +
			"  " + os.Args[0] + " nrf52832 -p jlink --info\n",
		Args:             cobra.NoArgs,
		PersistentPreRun: preRun,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
			os.Exit(int(feedback.ErrBadArgument))
		},
	}

	probelinkCli.AddCommand(version.NewCommand())
	probelinkCli.AddCommand(chip.NewListCommand())
	for _, name := range cores.Names() {
		probelinkCli.AddCommand(chip.NewCommand(cores.Get(name)))
	}

	probelinkCli.PersistentFlags().StringVar(&outputFormat, "format", "text", "The output format, can be {text|json}.")
	probelinkCli.PersistentFlags().StringVar(&globals.ConfigFile, "config", "", "Path of the probelink configuration file")
	probelinkCli.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to the file where logs will be written")
	probelinkCli.PersistentFlags().StringVar(&logFormat, "log-format", "", "The output format for the logs, can be {text|json}.")
	probelinkCli.PersistentFlags().StringVar(&globals.LogLevel, "log-level", "info", "Messages with this level and above will be logged. Valid levels are: trace, debug, info, warn, error, fatal, panic")
	probelinkCli.PersistentFlags().BoolVarP(&globals.Verbose, "verbose", "v", false, "Print the logs on the standard output.")

	return probelinkCli
}

// Convert the string passed to the `--log-level` option to the corresponding
// logrus formal level.
func toLogLevel(s string) (t logrus.Level, found bool) {
	t, found = map[string]logrus.Level{
		"trace": logrus.TraceLevel,
		"debug": logrus.DebugLevel,
		"info":  logrus.InfoLevel,
		"warn":  logrus.WarnLevel,
		"error": logrus.ErrorLevel,
		"fatal": logrus.FatalLevel,
		"panic": logrus.PanicLevel,
	}[s]

	return
}

func preRun(cmd *cobra.Command, args []string) {
	// Prepare logging
	if globals.Verbose {
		// if we print on stdout, do it in full colors
		logrus.SetOutput(colorable.NewColorableStdout())
		logrus.SetFormatter(&logrus.TextFormatter{
			ForceColors: true,
		})
	} else {
		logrus.SetOutput(io.Discard)
	}

	// Normalize the format strings
	logFormat = strings.ToLower(logFormat)
	if logFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			feedback.Fatal("Unable to open file for logging: "+logFile, feedback.ErrGeneric)
		}

		// Use a hook so we don't get color codes in the log file
		if logFormat == "json" {
			logrus.AddHook(lfshook.NewHook(file, &logrus.JSONFormatter{}))
		} else {
			logrus.AddHook(lfshook.NewHook(file, &logrus.TextFormatter{}))
		}
	}

	// Configure logging filter
	if lvl, found := toLogLevel(globals.LogLevel); !found {
		feedback.Fatal("Invalid option for --log-level: "+globals.LogLevel, feedback.ErrBadArgument)
	} else {
		logrus.SetLevel(lvl)
	}

	//
	// Prepare the Feedback system
	//

	// normalize the format strings
	outputFormat = strings.ToLower(outputFormat)
	// check the right output format was passed
	format, found := feedback.ParseOutputFormat(outputFormat)
	if !found {
		feedback.Fatal("Invalid output format: "+outputFormat, feedback.ErrBadArgument)
	}

	// use the output format to configure the Feedback
	feedback.SetFormat(format)

	logrus.Info(v.VersionInfo)

	if outputFormat != "text" {
		cmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
			logrus.Warn("Calling help on JSON format")
			feedback.Fatal("Invalid Call : should show Help, but it is available only in TEXT mode.", feedback.ErrBadArgument)
		})
	}
}
