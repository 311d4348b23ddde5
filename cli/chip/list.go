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

package chip

import (
	"fmt"
	"os"
	"strings"

	"github.com/probelink/probelink/cli/feedback"
	"github.com/probelink/probelink/cores"
	"github.com/spf13/cobra"
)

// NewListCommand creates the `cores` command listing the supported
// chip families.
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "cores",
		Short:   "List the supported chip families.",
		Long:    "List the supported chip families with their programmers and variants.",
		Example: "  " + os.Args[0] + " cores",
		Args:    cobra.NoArgs,
		Run:     runList,
	}
}

func runList(cmd *cobra.Command, args []string) {
	res := &listResult{}
	for _, name := range cores.Names() {
		core := cores.Get(name)
		res.Cores = append(res.Cores, listedCore{
			Name:        core.Name,
			Title:       core.Title,
			Programmers: core.Programmers,
			Variants:    core.Variants,
		})
	}
	feedback.PrintResult(res)
}

type listedCore struct {
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	Programmers []string `json:"programmers"`
	Variants    []string `json:"variants,omitempty"`
}

type listResult struct {
	Cores []listedCore `json:"cores"`
}

func (r *listResult) Data() interface{} {
	return r
}

func (r *listResult) String() string {
	lines := []string{}
	for _, core := range r.Cores {
		line := fmt.Sprintf("%-10s %s (programmers: %s)", core.Name, core.Title, strings.Join(core.Programmers, ", "))
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
