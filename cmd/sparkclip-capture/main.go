// The sparkclip-capture command stores clipboard data in capture files, and
// extracts it back out.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sparkclip/sparkclip/capture"
)

const usage = `usage: sparkclip-capture [-x] [-raw] [INPUT] [OUTPUT]

Reads clipboard data from INPUT, and writes to OUTPUT a capture file containing
the data. With -x, reads a capture file from INPUT instead, and writes to
OUTPUT the data it contains.

INPUT and OUTPUT are paths to files. If INPUT is "-" or unspecified, then stdin
is used. If OUTPUT is "-" or unspecified, then stdout is used. Warnings and
errors are written to stderr.

Options:
`

func main() {
	var input io.Reader = os.Stdin
	var output io.Writer = os.Stdout

	extract := flag.Bool("x", false, "extract the data of a capture")
	raw := flag.Bool("raw", false, "store the data without compression")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	args := flag.Args()
	if len(args) >= 1 && args[0] != "-" {
		in, err := os.Open(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, fmt.Errorf("open input: %w", err))
			return
		}
		input = in
		defer in.Close()
	}
	if len(args) >= 2 && args[1] != "-" {
		out, err := os.Create(args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, fmt.Errorf("create output: %w", err))
			return
		}
		defer out.Close()
		defer func() {
			err := out.Sync()
			if err != nil {
				fmt.Fprintln(os.Stderr, fmt.Errorf("sync output: %w", err))
				return
			}
		}()
		output = out
	}

	if *extract {
		c, err := capture.Read(input)
		if err != nil {
			fmt.Fprintln(os.Stderr, fmt.Errorf("read capture: %w", err))
			return
		}
		if _, err := output.Write(c.Payload); err != nil {
			fmt.Fprintln(os.Stderr, fmt.Errorf("write error: %w", err))
		}
		return
	}

	b, err := io.ReadAll(input)
	if err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("read input: %w", err))
		return
	}
	c := capture.New(b)
	c.Compressed = !*raw
	if _, err := capture.Write(output, c); err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("write error: %w", err))
	}
}
