// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/mochi/mochi-cli/cmd/mochi"

func main() {
	cmd.Execute()
}
