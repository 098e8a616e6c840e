// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/beevik/term"

	"github.com/mfc-lang/mfc/host"
)

var (
	image    string
	labels   string
	platName string
)

func init() {
	flag.StringVar(&image, "b", "", "binary image to load at startup")
	flag.StringVar(&labels, "l", "", "label file to load at startup")
	flag.StringVar(&platName, "t", "", "platform name or descriptor file")
	flag.CommandLine.Usage = func() {
		fmt.Println("Usage: mfc-mon [options] [script] ..\nOptions:")
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()

	h := host.New()

	// Apply startup options as monitor commands.
	var boot []string
	if platName != "" {
		boot = append(boot, "platform "+platName)
	}
	if image != "" {
		boot = append(boot, "load "+image)
	}
	if labels != "" {
		boot = append(boot, "labels load "+labels)
	}
	if len(boot) > 0 {
		h.RunCommands(strings.NewReader(strings.Join(boot, "\n")), os.Stdout, false)
	}

	// Run commands contained in command-line script files.
	for _, filename := range flag.Args() {
		file, err := os.Open(filename)
		if err != nil {
			exitOnError(err)
		}
		h.RunCommands(file, os.Stdout, false)
		file.Close()
	}

	// Break on ctrl-C.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go handleInterrupt(h, c)

	// Run commands interactively when attached to a terminal.
	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	h.RunCommands(os.Stdin, os.Stdout, interactive)
}

func handleInterrupt(h *host.Host, c chan os.Signal) {
	for {
		<-c
		h.Break()
	}
}

func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	os.Exit(1)
}
