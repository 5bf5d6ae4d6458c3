// Copyright (c) 2025 The Dartlift Contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.
package main

import (
	"dartlift/dartvm"
	"dartlift/disasm"
	"dartlift/lift"
	"fmt"
	"os"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Println("Usage: dartlift func.asm")
		os.Exit(1)
	}
	f, err := os.Open(os.Args[1])
	if err != nil {
		fmt.Printf("dartlift: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	insns, err := disasm.ParseListing(f)
	if err != nil {
		fmt.Printf("dartlift: %v\n", err)
		os.Exit(1)
	}
	env := dartvm.NewEnv()
	seq := lift.LiftFunction(env, insns)
	fmt.Print(lift.Dump(seq))
}
