// Command ev-decode converts a raw ev-logger data file into CSV.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/sweeney/ev-logger/internal/sample"
)

func main() {
	in := flag.String("in", "data.log", "Raw data file (- for stdin)")
	out := flag.String("out", "-", "CSV output file (- for stdout)")
	flag.Parse()

	if err := run(*in, *out); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(inPath, outPath string) error {
	var r io.Reader = os.Stdin
	if inPath != "-" {
		f, err := os.Open(inPath)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	var w io.Writer = os.Stdout
	if outPath != "-" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	st, err := decode(w, r)
	if err != nil {
		return err
	}
	log.Printf("decoded %d records", st.Records)
	if st.Trailing > 0 {
		log.Printf("skipped %d trailing bytes of a partial record", st.Trailing)
	}
	return nil
}

func decode(w io.Writer, r io.Reader) (sample.DecodeStats, error) {
	st, err := sample.WriteCSV(w, r)
	if err != nil {
		return st, fmt.Errorf("decode: %w", err)
	}
	return st, nil
}
