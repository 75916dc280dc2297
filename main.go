// main.go - stm32sim entry point: manual argv parsing, no flag package

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
)

func usage() string {
	return `usage: stm32sim [binary] [--gdb [port]]

  binary       raw firmware image loaded into Flash at startup
  --gdb [port] serve the GDB Remote Serial Protocol on TCP (default 3333)
               instead of the interactive prompt
  -h, --help   print this message and exit`
}

func main() {
	var binaryPath string
	var gdbMode bool
	var gdbPort int

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "-h" || a == "--help":
			fmt.Println(usage())
			os.Exit(0)
		case a == "--gdb":
			gdbMode = true
			if i+1 < len(args) {
				if port, ok := parseNumber(args[i+1]); ok {
					gdbPort = int(port)
					i++
				}
			}
		case strings.HasPrefix(a, "-"):
			fmt.Fprintln(os.Stderr, usage())
			os.Exit(1)
		default:
			if binaryPath != "" {
				fmt.Fprintln(os.Stderr, usage())
				os.Exit(1)
			}
			binaryPath = a
		}
	}

	sim := NewSimulator()

	if binaryPath != "" {
		if err := LoadFirmware(sim, binaryPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	if gdbMode {
		stub := NewGDBStub(sim)
		if err := stub.ListenAndServe(context.Background(), gdbPort); err != nil {
			log.Fatal(err)
		}
		return
	}

	NewCLI(sim).Run()
	os.Exit(0)
}
