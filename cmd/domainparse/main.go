// Command domainparse parses URLs given as arguments, or one per stdin line,
// and prints one JSON document per input.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"domain-parser/internal/parser"
	"domain-parser/internal/suffix"
)

type output struct {
	Input  string              `json:"input"`
	Result *parser.Result      `json:"result,omitempty"`
	Suffix *parser.SuffixMatch `json:"suffix,omitempty"`
	Error  string              `json:"error,omitempty"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("domainparse", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		allowUnknown = fs.Bool("allow-unknown", false, "Accept the last label when no suffix matches")
		allowPrivate = fs.Bool("allow-private", true, "Include privately delegated suffixes")
		allowIP      = fs.Bool("allow-ip", true, "Give dotted-quad hosts an empty suffix instead of an error")
		suffixOnly   = fs.Bool("suffix", false, "Only detect the suffix of each input")
		listPath     = fs.String("list", "", "Alternate public suffix list file")
		pretty       = fs.Bool("pretty", false, "Indent JSON output")
		extended     multiFlag
	)
	fs.Var(&extended, "extended", "Extra suffix treated like an ICANN one (repeatable, comma separated)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	p := parser.Default()
	if *listPath != "" {
		f, err := os.Open(*listPath)
		if err != nil {
			logrus.Errorf("open suffix list: %v", err)
			return 2
		}
		db, err := suffix.Load(f)
		f.Close()
		if err != nil {
			logrus.Errorf("load suffix list: %v", err)
			return 2
		}
		p = parser.New(db)
	}

	opts := parser.DefaultOptions()
	opts.AllowUnknown = *allowUnknown
	opts.AllowPrivate = *allowPrivate
	opts.AllowIP = *allowIP
	for _, value := range extended {
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				opts.ExtendedSuffixes = append(opts.ExtendedSuffixes, item)
			}
		}
	}

	enc := json.NewEncoder(stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}

	failed := 0
	handle := func(input string) error {
		out := output{Input: input}
		if *suffixOnly {
			m, err := p.ParseSuffix(input, &opts)
			if err != nil {
				out.Error = err.Error()
			} else {
				out.Suffix = &m
			}
		} else {
			res, err := p.Parse(input, &opts)
			if err != nil {
				out.Error = err.Error()
			} else {
				out.Result = res
			}
		}
		if out.Error != "" {
			failed++
		}
		return enc.Encode(out)
	}

	if fs.NArg() > 0 {
		for _, input := range fs.Args() {
			if err := handle(input); err != nil {
				logrus.Errorf("write output: %v", err)
				return 2
			}
		}
	} else {
		scanner := bufio.NewScanner(stdin)
		for scanner.Scan() {
			input := strings.TrimSpace(scanner.Text())
			if input == "" || strings.HasPrefix(input, "#") {
				continue
			}
			if err := handle(input); err != nil {
				logrus.Errorf("write output: %v", err)
				return 2
			}
		}
		if err := scanner.Err(); err != nil {
			logrus.Errorf("read input: %v", err)
			return 2
		}
	}

	if failed > 0 {
		fmt.Fprintf(stderr, "%d input(s) failed\n", failed)
		return 1
	}
	return 0
}

type multiFlag []string

func (m *multiFlag) String() string {
	return strings.Join(*m, ",")
}

func (m *multiFlag) Set(value string) error {
	*m = append(*m, value)
	return nil
}
