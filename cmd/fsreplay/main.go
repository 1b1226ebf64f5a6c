// Command fsreplay replays a page-access trace from standard input
// through one of eleven replacement policies and reports the resulting
// hit ratio. It is intentionally thin: flag parsing and wiring only, no
// subcommands, no help text beyond -h.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/nikitadanilov/fs-repalg/internal/config"
	"github.com/nikitadanilov/fs-repalg/internal/driver"
	"github.com/nikitadanilov/fs-repalg/internal/simulator"
	"github.com/nikitadanilov/fs-repalg/internal/trace"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, in io.Reader, out, errOut io.Writer) int {
	cfg, err := parseFlags(args, errOut)
	if err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		fmt.Fprintln(errOut, err)
		return 2
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}

	policy, err := simulator.ByName(cfg.Algorithm)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}

	params := cfg.Params()
	params.Logger = log.New(errOut, "", log.LstdFlags)

	mm, err := simulator.New(params, policy)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}

	r := trace.NewReader(in)
	mm.AttachTrace(r)
	if err := mm.Init(); err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer mm.Finalize()

	report, err := driver.Run(mm, r, out)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}

	fmt.Fprintf(out, "%12d %12d %f\n", report.Hits, report.Misses, report.HitRatio())
	return 0
}

// parseFlags loads the config file named by -config, if any, then
// overlays any flag explicitly given on the command line on top of it.
// A flag left at its zero value never overrides the config file or
// Default(), matching the original's "later wins" getopt semantics
// closely enough for a batch tool that's never invoked twice with
// conflicting settings.
func parseFlags(args []string, errOut io.Writer) (config.Config, error) {
	fs := flag.NewFlagSet("fsreplay", flag.ContinueOnError)
	fs.SetOutput(errOut)

	configPath := fs.String("config", "", "path to a YAML configuration file")
	algorithm := fs.String("algorithm", "", "replacement algorithm: "+algorithmList())
	frames := fs.Uint64("frames", 0, "number of physical frames")
	vpages := fs.Uint64("vpages", 0, "size of the virtual page universe")
	objects := fs.Uint64("objects", 0, "size of the object universe")
	radix := fs.Int("radix", -1, "numeric base recorded in the configuration (0 = auto); not applied to the percentage flags below")
	sfifoTail := fs.Int("sfifo-tail", -1, "SFIFO tail-segment percentage")
	twoQKin := fs.Int("2q-kin", -1, "2Q A1in cap as a percentage of frames")
	twoQKout := fs.Int("2q-kout", -1, "2Q A1out cap as a percentage of frames")
	verbose := fs.Int("v", -1, "verbose bitmask: 1=trace 2=table 4=log 8=progress")

	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return config.Config{}, err
	}

	if *algorithm != "" {
		cfg.Algorithm = *algorithm
	}
	if *frames != 0 {
		cfg.Frames = *frames
	}
	if *vpages != 0 {
		cfg.VPages = *vpages
	}
	if *objects != 0 {
		cfg.Objects = *objects
	}
	if *radix >= 0 {
		cfg.Radix = *radix
	}
	if *sfifoTail >= 0 {
		cfg.SFIFOTailPercent = uint16(*sfifoTail)
	}
	if *twoQKin >= 0 {
		cfg.TwoQKinPercent = uint16(*twoQKin)
	}
	if *twoQKout >= 0 {
		cfg.TwoQKoutPercent = uint16(*twoQKout)
	}
	if *verbose >= 0 {
		cfg.Verbose = config.VerboseConfig{
			Trace:    *verbose&1 != 0,
			Table:    *verbose&2 != 0,
			Log:      *verbose&4 != 0,
			Progress: *verbose&8 != 0,
		}
	}
	return cfg, nil
}

func algorithmList() string {
	s := ""
	for i, name := range simulator.Names {
		if i > 0 {
			s += ", "
		}
		s += name
	}
	return s
}
