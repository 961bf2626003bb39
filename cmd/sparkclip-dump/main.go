// The sparkclip-dump command displays the chunk structure of Spark clipboard
// data or a Spark model.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sparkclip/sparkclip/capture"
	"github.com/sparkclip/sparkclip/spark"
)

const usage = `usage: sparkclip-dump [-strict] [INPUT] [OUTPUT]

Reads clipboard data, a capture file, or a model file from INPUT, and writes to
OUTPUT a readable dump of its chunks.

INPUT and OUTPUT are paths to files. If INPUT is "-" or unspecified, then stdin
is used. If OUTPUT is "-" or unspecified, then stdout is used. Warnings and
errors are written to stderr.
`

func main() {
	var input io.Reader = os.Stdin
	var output io.Writer = os.Stdout

	strict := flag.Bool("strict", false, "fail on unknown chunks")
	flag.Usage = func() { fmt.Fprintf(flag.CommandLine.Output(), usage) }
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

	b, err := io.ReadAll(input)
	if err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("read input: %w", err))
		return
	}
	if bytes.HasPrefix(b, []byte(capture.Magic)) {
		c, err := capture.Read(bytes.NewReader(b))
		if err != nil {
			fmt.Fprintln(os.Stderr, fmt.Errorf("read capture: %w", err))
			return
		}
		fmt.Fprintf(output, "Capture %s\n", c.ID)
		b = c.Payload
	}

	warn, err := spark.Decoder{Strict: *strict}.Dump(output, b)
	if warn != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("warning: %w", warn))
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("error: %w", err))
	}
}
