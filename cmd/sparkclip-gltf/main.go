// The sparkclip-gltf command converts Spark clipboard data to glTF.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sparkclip/sparkclip"
	"github.com/sparkclip/sparkclip/capture"
	"github.com/sparkclip/sparkclip/gltfexport"
	"github.com/sparkclip/sparkclip/mesh"
	"github.com/sparkclip/sparkclip/spark"
)

const usage = `usage: sparkclip-gltf [-glb] [-models DIRS] [INPUT] [OUTPUT]

Reads clipboard data or a capture file from INPUT, and writes to OUTPUT a glTF
document of the geometry and static props.

INPUT and OUTPUT are paths to files. If INPUT is "-" or unspecified, then stdin
is used. If OUTPUT is "-" or unspecified, then stdout is used. Warnings and
errors are written to stderr.

Options:
`

func main() {
	var input io.Reader = os.Stdin
	var output io.Writer = os.Stdout

	glb := flag.Bool("glb", false, "write binary glTF")
	models := flag.String("models", "", "comma-separated directories to search for prop models")
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
		b = c.Payload
	}

	l, warn, err := spark.DecodeLevel(b)
	if warn != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("warning: %w", warn))
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("error: %w", err))
		return
	}

	var conv gltfexport.Converter
	if *models != "" {
		conv.Models = loadModels(l.Props, mesh.NewSearchPaths(strings.Split(*models, ",")...))
	}
	doc, warn, err := conv.Convert(l)
	if warn != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("warning: %w", warn))
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("error: %w", err))
		return
	}
	if err := gltfexport.Encode(output, doc, *glb); err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("encode error: %w", err))
		return
	}
}

// loadModels loads the model of each distinct prop path. Models that fail to
// load are reported and left out.
func loadModels(props []sparkclip.StaticProp, paths mesh.SearchPaths) map[string]*sparkclip.Model {
	var loader mesh.DirModelLoader
	models := map[string]*sparkclip.Model{}
	tried := map[string]bool{}
	for _, prop := range props {
		if tried[prop.Model] {
			continue
		}
		tried[prop.Model] = true
		b, err := loader.LoadModel(prop.Model, paths)
		if err != nil {
			fmt.Fprintln(os.Stderr, fmt.Errorf("warning: %w", err))
			continue
		}
		m, warn, err := spark.DecodeModel(b)
		if warn != nil {
			fmt.Fprintln(os.Stderr, fmt.Errorf("warning: %s: %w", prop.Model, warn))
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, fmt.Errorf("warning: %s: %w", prop.Model, err))
			continue
		}
		models[prop.Model] = m
	}
	return models
}
