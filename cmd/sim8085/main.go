// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/ezrec/i8085/emulator"
	"github.com/ezrec/i8085/monitor"
	"github.com/ezrec/i8085/translate"
	"github.com/ezrec/i8085/webui"
)

func main() {
	var compile string
	var breaks string
	var dump string
	var listen string
	var lang string
	var run bool
	var fast bool
	var interactive bool
	var listing bool
	var protect bool
	var verbose bool

	flag.StringVar(&compile, "c", "", ".asm file to assemble")
	flag.StringVar(&breaks, "b", "", "Comma separated breakpoint addresses")
	flag.StringVar(&dump, "dump", "", "Memory range to dump after running, START[:END]")
	flag.StringVar(&listen, "listen", "", "Serve the websocket display bridge on this address")
	flag.StringVar(&lang, "lang", "", "Message language, as a BCP 47 tag")
	flag.BoolVar(&run, "run", false, "Run, logging every instruction")
	flag.BoolVar(&fast, "fast", false, "Run, logging only halts, breakpoints and faults")
	flag.BoolVar(&interactive, "i", false, "Interactive monitor")
	flag.BoolVar(&listing, "l", false, "Print the assembler listing")
	flag.BoolVar(&protect, "p", false, "Protect program code from memory writes")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if len(lang) != 0 {
		translate.Use(lang)
	}

	engine := emulator.NewEngine()
	engine.Verbose = verbose
	engine.ProtectCode = protect

	// Assemble the program.
	if len(compile) != 0 {
		source, err := os.ReadFile(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}

		prog, err := engine.Assemble(string(source))
		if err != nil {
			log.Fatalf("%v:\n%v", compile, err)
		}

		for _, warning := range prog.Warnings {
			log.Printf("%v: %v", compile, warning)
		}
	}

	// Batch mode is a monitor script built from the flags.
	var script []string
	if listing {
		script = append(script, "list")
	}
	for _, addr := range strings.Split(breaks, ",") {
		addr = strings.TrimSpace(addr)
		if len(addr) != 0 {
			script = append(script, "break "+addr)
		}
	}
	switch {
	case fast:
		script = append(script, "fast", "wait", "regs")
	case run:
		script = append(script, "run", "wait", "regs")
	}
	if len(dump) != 0 {
		start, end, _ := strings.Cut(dump, ":")
		script = append(script, strings.TrimSpace("dump "+start+" "+end))
	}

	mon := monitor.NewMonitor(engine)
	mon.Verbose = verbose

	err := mon.Serve(strings.NewReader(strings.Join(script, "\n")), os.Stdout, false)
	if err != nil {
		log.Fatal(err)
	}

	if len(listen) != 0 {
		server := webui.NewServer(engine)
		server.Verbose = verbose
		if !interactive {
			log.Fatal(server.ListenAndServe(listen))
		}
		go func() {
			log.Fatal(server.ListenAndServe(listen))
		}()
	}

	if interactive {
		err = mon.Terminal(os.Stdin, os.Stdout)
		if err != nil {
			log.Fatal(err)
		}
	}

	if fault := engine.Snapshot().Fault; fault != nil {
		log.Fatal(fault)
	}
}
