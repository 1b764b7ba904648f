// Package interactive provides the interactive command-line interface
// for exploring compiled device type tables.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/chzyer/readline"

	"github.com/raftcore/i2cdevtypes/pkg/addrspec"
	"github.com/raftcore/i2cdevtypes/pkg/devtable"
	"github.com/raftcore/i2cdevtypes/pkg/devtype"
)

// Query answers questions about a compiled table set.
type Query struct {
	tables *devtable.Tables
	rl     *readline.Instance
}

// New creates a query shell reading commands from the terminal.
func New(tables *devtable.Tables) (*Query, error) {
	return newQuery(tables, &readline.Config{})
}

func newQuery(tables *devtable.Tables, cfg *readline.Config) (*Query, error) {
	cfg.Prompt = "i2c> "
	cfg.InterruptPrompt = "^C"
	cfg.EOFPrompt = "exit"
	rl, err := readline.NewEx(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Query{tables: tables, rl: rl}, nil
}

// NewBatch creates a query without a terminal. Only Exec may be used.
func NewBatch(tables *devtable.Tables) *Query {
	return &Query{tables: tables}
}

// Run starts the interactive command loop. It returns when the user quits,
// input ends or ctx is cancelled.
func (q *Query) Run(ctx context.Context) {
	var closeOnce sync.Once
	closeRL := func() { closeOnce.Do(func() { q.rl.Close() }) }
	defer closeRL()

	// Closing the instance wakes a Readline blocked on input.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			closeRL()
		case <-done:
		}
	}()

	out := q.rl.Stdout()
	printHelp(out)

	for {
		line, err := q.rl.Readline()
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(out, "Exiting...")
			return
		}

		if !q.Exec(out, line) {
			fmt.Fprintln(out, "Exiting...")
			return
		}
	}
}

// Exec runs a single command line, writing its output to w. It returns
// false when the command asks to quit.
func (q *Query) Exec(w io.Writer, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return true
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		printHelp(w)

	case "addr", "a":
		q.cmdAddr(w, args)

	case "type", "t":
		q.cmdType(w, args)

	case "tier":
		q.cmdTier(w, args)

	case "scan":
		q.cmdScan(w)

	case "stats", "s":
		q.cmdStats(w)

	case "quit", "exit", "q":
		return false

	default:
		fmt.Fprintf(w, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return true
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, `
Device Table Commands:
  addr <0xHH>        - Show the device types and scan tier of an address
  type <name>        - Show a device type record
  tier <0-2|name>    - List the addresses of a scan tier
  scan               - Show the full scan order
  stats              - Show table statistics

  General:
    help               - Show this help
    quit               - Exit`)
}

func (q *Query) cmdAddr(w io.Writer, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(w, "Usage: addr <0xHH>")
		return
	}
	set, err := addrspec.Parse(args[0])
	if err != nil || len(set) != 1 {
		fmt.Fprintf(w, "Invalid address: %s\n", args[0])
		return
	}
	a := set.First()

	if tier, ok := q.tables.TierOf(a); ok {
		fmt.Fprintf(w, "%s: scan tier %d (%s)\n", a, tier, tier)
	} else {
		fmt.Fprintf(w, "%s: not scanned\n", a)
	}

	entries := q.tables.TypesForAddr(a)
	if len(entries) == 0 {
		fmt.Fprintln(w, "  no device types")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "  [%d] %s\n", e.Index, e.Record.Name)
	}
}

func (q *Query) cmdType(w io.Writer, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(w, "Usage: type <name>")
		return
	}
	e, ok := q.tables.Catalog.Lookup(args[0])
	if !ok {
		fmt.Fprintf(w, "Unknown device type: %s\n", args[0])
		return
	}

	r := e.Record
	fmt.Fprintf(w, "[%d] %s\n", e.Index, r.Name)
	fmt.Fprintf(w, "  addresses:       %s\n", e.Addresses)
	fmt.Fprintf(w, "  scanPriority:    %s\n", r.ScanPriority)
	if r.DetectionValues != "" {
		fmt.Fprintf(w, "  detectionValues: %s\n", r.DetectionValues)
	}
	if r.InitValues != "" {
		fmt.Fprintf(w, "  initValues:      %s\n", r.InitValues)
	}
	if e.PollingConfigJSON != "" {
		fmt.Fprintf(w, "  pollingConfig:   %s\n", e.PollingConfigJSON)
	}
	if e.DeviceInfoJSON != "" {
		fmt.Fprintf(w, "  devInfo:         %s\n", e.DeviceInfoJSON)
	}
	if e.HasDecodeLength {
		fmt.Fprintf(w, "  pollResultLen:   %d\n", e.DecodeLength)
	}
}

func (q *Query) cmdTier(w io.Writer, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(w, "Usage: tier <0-2|high|medium|low>")
		return
	}
	tier, ok := parseTier(args[0])
	if !ok {
		fmt.Fprintf(w, "Invalid tier: %s\n", args[0])
		return
	}
	list := q.tables.Priorities.Lists[tier]
	fmt.Fprintf(w, "Tier %d (%s): %d addresses\n", tier, tier, len(list))
	if len(list) > 0 {
		fmt.Fprintf(w, "  %s\n", addrspec.Set(list))
	}
}

func (q *Query) cmdScan(w io.Writer) {
	n := 0
	for tier, list := range q.tables.Priorities.Lists {
		for _, a := range list {
			n++
			names := make([]string, 0, 2)
			for _, e := range q.tables.TypesForAddr(a) {
				names = append(names, e.Record.Name)
			}
			if len(names) == 0 {
				continue
			}
			fmt.Fprintf(w, "%3d  %s  tier %d  %s\n", n, a, tier, strings.Join(names, ", "))
		}
	}
	fmt.Fprintf(w, "%d addresses scanned\n", n)
}

func (q *Query) cmdStats(w io.Writer) {
	t := q.tables
	fmt.Fprintf(w, "Table set:            %s\n", t.ID)
	fmt.Fprintf(w, "Device types:         %d\n", t.Catalog.Len())
	fmt.Fprintf(w, "Addresses in use:     %d\n", t.Index.UsedAddrs())
	fmt.Fprintf(w, "Max types at address: %d\n", t.Index.MaxPerAddress)
	for tier := devtype.TierHigh; tier <= devtype.TierLow; tier++ {
		fmt.Fprintf(w, "Tier %d (%s): %d addresses\n", tier, tier, t.Priorities.Len(tier))
	}
}

func parseTier(s string) (devtype.Tier, bool) {
	if tier, ok := devtype.ParseNamedPriority(strings.ToLower(s)); ok {
		return tier, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n >= devtype.NumTiers {
		return 0, false
	}
	return devtype.Tier(n), true
}
