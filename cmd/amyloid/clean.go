package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/hazyhaar/amyloid-notes/pkg/textnorm"
)

func cmdClean(args []string) {
	fs := flag.NewFlagSet("clean", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	file := fs.String("file", "", "report file to clean (default: stdin)")
	mode := fs.String("mode", string(textnorm.ModeCardiacPath), "cleaner: cardiac_path, pyp or none")
	trace := fs.Bool("trace", false, "print the text after every stage (cardiac_path only)")
	fs.Parse(args)

	_, logger := setup(*cfgPath)

	var in io.Reader = os.Stdin
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			fatal(logger, "open report", err)
		}
		defer f.Close()
		in = f
	}
	raw, err := io.ReadAll(in)
	if err != nil {
		fatal(logger, "read report", err)
	}

	norm, err := textnorm.NewEnglish()
	if err != nil {
		fatal(logger, "sentence tokenizer", err)
	}

	if *trace {
		for i, st := range norm.Trace(string(raw)) {
			fmt.Printf("%2d %-20s %q\n", i+1, st.Stage, st.Output)
		}
		return
	}

	clean, err := norm.Func(textnorm.Mode(*mode))
	if err != nil {
		fatal(logger, "mode", err)
	}
	fmt.Println(clean(string(raw)))
}
