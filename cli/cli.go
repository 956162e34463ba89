// SPDX-License-Identifier: GPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/netdata/hostprobe/pkg/executable"
)

// Commands lists the commands and the number of arguments each takes (min, max).
var Commands = map[string][2]int{
	"run":           {0, 0},
	"apps":          {0, 0},
	"resources":     {0, 1},
	"reset":         {1, 2},
	"lookup":        {1, 2},
	"check-updates": {1, 1},
	"filters":       {1, 1},
	"params":        {1, 1},
	"stats":         {0, 1},
}

// Option defines command line options.
type Option struct {
	Config  string        `short:"c" long:"config" description:"config file to read"`
	Dump    bool          `long:"dump" description:"run: print a stats snapshot when an instance stops"`
	Ping    bool          `long:"ping" description:"lookup: open the data source and ping it"`
	Rounds  int           `long:"rounds" description:"stats: collection rounds" default:"2"`
	Every   time.Duration `long:"every" description:"stats: pause between rounds" default:"1s"`
	Top     int           `long:"top" description:"stats: only the top series of the family by last value"`
	Debug   bool          `short:"d" long:"debug" description:"debug mode"`
	Version bool          `short:"v" long:"version" description:"display the version and exit"`

	Command string
	Args    []string
}

// Parse returns parsed command-line flags in Option struct. args[0] is the program name.
func Parse(args []string) (*Option, error) {
	opt := &Option{}
	parser := flags.NewParser(opt, flags.Default)
	parser.Name = executable.Name
	parser.Usage = "[OPTIONS] [run | apps | resources [app] | reset <name> [app] | lookup <name> [app] | check-updates <app> | filters <app> | params <app> | stats [prefix]]"

	rest, err := parser.ParseArgs(args)
	if err != nil {
		return nil, err
	}
	if opt.Version {
		return opt, nil
	}

	if len(rest) > 0 {
		rest = rest[1:]
	}
	opt.Command = "run"
	if len(rest) > 0 {
		opt.Command = rest[0]
	}
	if len(rest) > 1 {
		opt.Args = rest[1:]
	}

	bounds, ok := Commands[opt.Command]
	if !ok {
		names := make([]string, 0, len(Commands))
		for name := range Commands {
			names = append(names, name)
		}
		slices.Sort(names)
		return nil, fmt.Errorf("unknown command '%s' (one of %v)", opt.Command, names)
	}
	if n := len(opt.Args); n < bounds[0] || n > bounds[1] {
		return nil, fmt.Errorf("command '%s' takes %d to %d arguments, got %d", opt.Command, bounds[0], bounds[1], n)
	}
	if opt.Rounds < 1 {
		return nil, fmt.Errorf("--rounds must be positive, got %d", opt.Rounds)
	}
	return opt, nil
}

func IsHelp(err error) bool {
	return flags.WroteHelp(err)
}

// Reported tells whether the flags parser already printed err.
func Reported(err error) bool {
	var fe *flags.Error
	return errors.As(err, &fe)
}
