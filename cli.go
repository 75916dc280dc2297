// cli.go - line-oriented interactive driver

package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.design/x/clipboard"
	"golang.org/x/term"
)

const (
	defaultMemCount = 64
	maxMemCount     = 1024
)

// CLI is the interactive `stm32> ` prompt loop: read a line, dispatch a
// command against the simulator, repeat until `quit` or EOF.
type CLI struct {
	sim            *Simulator
	out            *bufio.Writer
	clipboardReady bool
	lastDump       string
}

// NewCLI returns a CLI writing to stdout, wrapping sim.
func NewCLI(sim *Simulator) *CLI {
	c := &CLI{sim: sim, out: bufio.NewWriter(os.Stdout)}
	if err := clipboard.Init(); err == nil {
		c.clipboardReady = true
	}
	return c
}

// Run reads commands from stdin until `quit` or EOF.
func (c *CLI) Run() {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(c.out, "stm32> ")
		c.out.Flush()
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if c.dispatch(line) {
			return
		}
	}
}

// dispatch executes one line; it returns true when the session should
// end (a `quit`).
func (c *CLI) dispatch(line string) bool {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		c.help()
	case "load":
		c.load(args)
	case "run":
		c.run()
	case "stop":
		c.sim.Halt()
	case "step":
		c.step(args)
	case "reset":
		c.sim.Reset()
		fmt.Fprintln(c.out, "reset")
	case "reg":
		c.reg(args)
	case "mem":
		c.mem(args)
	case "break":
		c.breakCmd(args)
	case "delete":
		c.delete(args)
	case "uart":
		c.uart(args)
	case "script":
		c.script(args)
	case "quit":
		return true
	default:
		fmt.Fprintf(c.out, "unknown command: %s\n", cmd)
	}
	c.out.Flush()
	return false
}

func (c *CLI) help() {
	fmt.Fprintln(c.out, `commands:
  help                      this text
  load <path>               load a firmware image into Flash
  run                       run until halted, a breakpoint, or a fault
  stop                      halt a running program
  step [N]                  retire N instructions (default 1)
  reset                     reset the core, NVIC and peripherals
  reg                       print r0..r15 and xpsr
  mem <addr> [count]        hex-dump count bytes (default 64, cap 1024)
  break [addr]              list breakpoints, or set one
  delete <addr>             clear a breakpoint
  uart <char>               deliver one byte to USART1 RX
  script <path>             run a Lua automation script against the simulator
  quit                      exit`)
}

func parseNumber(s string) (uint32, bool) {
	s = strings.TrimSpace(s)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	v, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

func (c *CLI) diagnostic(err error) {
	fmt.Fprintf(os.Stderr, "error: %v (pc=0x%08X)\n", err, c.sim.Core.PC())
}

func (c *CLI) load(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "usage: load <path>")
		return
	}
	if err := LoadFirmware(c.sim, args[0]); err != nil {
		c.diagnostic(err)
		return
	}
	fmt.Fprintf(c.out, "loaded %s\n", args[0])
}

func (c *CLI) run() {
	c.sim.Resume()
	st := c.sim.Run()
	fmt.Fprintf(c.out, "%s (pc=0x%08X)\n", st, c.sim.Core.PC())
}

func (c *CLI) step(args []string) {
	n := 1
	if len(args) == 1 {
		v, ok := parseNumber(args[0])
		if !ok {
			fmt.Fprintln(c.out, "usage: step [N]")
			return
		}
		n = int(v)
	}
	c.sim.Resume()
	for i := 0; i < n; i++ {
		if st := c.sim.Step(); st != StatusOk {
			fmt.Fprintf(c.out, "%s (pc=0x%08X)\n", st, c.sim.Core.PC())
			return
		}
	}
	fmt.Fprintf(c.out, "pc=0x%08X\n", c.sim.Core.PC())
}

var regNames = []string{"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7",
	"r8", "r9", "r10", "r11", "r12", "sp", "lr", "pc"}

func (c *CLI) reg(args []string) {
	perLine := c.columnsFor(16)
	var b strings.Builder
	for i := 0; i < 16; i++ {
		fmt.Fprintf(&b, "%-4s=0x%08X  ", regNames[i], c.sim.Core.GetReg(i))
		if (i+1)%perLine == 0 {
			b.WriteByte('\n')
		}
	}
	fmt.Fprintf(&b, "xpsr=0x%08X\n", c.sim.Core.GetXPSR())
	c.lastDump = b.String()
	fmt.Fprint(c.out, c.lastDump)
	c.maybeCopy(args)
}

func (c *CLI) mem(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.out, "usage: mem <addr> [count]")
		return
	}
	addr, ok := parseNumber(args[0])
	if !ok {
		fmt.Fprintln(c.out, "usage: mem <addr> [count]")
		return
	}
	count := defaultMemCount
	if len(args) >= 2 {
		if v, ok := parseNumber(args[1]); ok {
			count = int(v)
		}
	}
	if count > maxMemCount {
		count = maxMemCount
	}

	var b strings.Builder
	for i := 0; i < count; i += 16 {
		fmt.Fprintf(&b, "0x%08X: ", addr+uint32(i))
		for j := 0; j < 16 && i+j < count; j++ {
			v, _ := c.sim.Bus.Read(addr+uint32(i+j), 1)
			fmt.Fprintf(&b, "%02X ", v)
		}
		b.WriteByte('\n')
	}
	c.lastDump = b.String()
	fmt.Fprint(c.out, c.lastDump)
	c.maybeCopy(args[1:])
}

func (c *CLI) breakCmd(args []string) {
	if len(args) == 0 {
		for _, a := range c.sim.Debugger.List() {
			fmt.Fprintf(c.out, "0x%08X\n", a)
		}
		return
	}
	addr, ok := parseNumber(args[0])
	if !ok {
		fmt.Fprintln(c.out, "usage: break [addr]")
		return
	}
	if st := c.sim.Debugger.Add(addr); st != StatusOk {
		fmt.Fprintf(c.out, "%s\n", st)
		return
	}
	fmt.Fprintf(c.out, "breakpoint set at 0x%08X\n", addr)
}

func (c *CLI) delete(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "usage: delete <addr>")
		return
	}
	addr, ok := parseNumber(args[0])
	if !ok {
		fmt.Fprintln(c.out, "usage: delete <addr>")
		return
	}
	if st := c.sim.Debugger.Remove(addr); st != StatusOk {
		fmt.Fprintf(c.out, "%s\n", st)
		return
	}
	fmt.Fprintf(c.out, "breakpoint cleared at 0x%08X\n", addr)
}

func (c *CLI) uart(args []string) {
	if len(args) != 1 || len(args[0]) == 0 {
		fmt.Fprintln(c.out, "usage: uart <char>")
		return
	}
	c.sim.UART.IncomingChar(args[0][0])
}

func (c *CLI) script(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "usage: script <path>")
		return
	}
	if err := RunScript(c.sim, args[0]); err != nil {
		c.diagnostic(err)
		return
	}
	fmt.Fprintf(c.out, "ran %s\n", args[0])
}

// columnsFor returns how many register columns fit the controlling
// terminal's width, falling back to 80 columns when stdout isn't a TTY.
func (c *CLI) columnsFor(total int) int {
	width := 80
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			width = w
		}
	}
	perReg := 16
	cols := width / perReg
	if cols < 1 {
		cols = 1
	}
	if cols > total {
		cols = total
	}
	return cols
}

// maybeCopy copies the last formatted dump to the system clipboard when
// invoked as `... -copy`. It does nothing when the clipboard could not be
// initialised; neither that nor a failed write is reported.
func (c *CLI) maybeCopy(args []string) {
	copyRequested := false
	for _, a := range args {
		if a == "-copy" {
			copyRequested = true
		}
	}
	if !copyRequested || !c.clipboardReady {
		return
	}
	clipboard.Write(clipboard.FmtText, []byte(c.lastDump))
}
