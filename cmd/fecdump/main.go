// Command fecdump parses a FEC export and dumps its records as Go
// values. Debugging aid for inspecting what an export actually
// contains.
package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/alecthomas/repr"

	"github.com/fecgen/fecgen/fec"
)

var (
	cli struct {
		File string `help:"FEC export to parse." arg:"" type:"existingfile"`
	}
)

func main() {
	ctx := kong.Parse(&cli)

	f, err := os.Open(cli.File)
	ctx.FatalIfErrorf(err)
	defer f.Close()

	records, err := fec.Read(f)
	ctx.FatalIfErrorf(err)

	repr.Println(records)
}
