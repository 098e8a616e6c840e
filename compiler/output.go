// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mfc-lang/mfc/asm"
	"github.com/mfc-lang/mfc/options"
	"github.com/mfc-lang/mfc/platform"
)

// WriteFiles writes the job's artifacts next to the output stem: the
// program image (or one image per bank), plus the optional assembly
// listing, label file, and BBC Micro .inf sidecar.
func WriteFiles(res *Result, s *options.Settings, p *platform.Platform) error {
	switch p.OutputStyle {
	case platform.PerBank:
		for _, b := range p.Banks {
			path := imagePath(s.Output+"."+b.Name, p.OutputExt)
			if err := os.WriteFile(path, res.Output.Code[b.Name], 0644); err != nil {
				return err
			}
		}
	default:
		var image []byte
		for _, b := range p.Banks {
			image = append(image, res.Output.Code[b.Name]...)
		}
		if err := os.WriteFile(imagePath(s.Output, p.OutputExt), image, 0644); err != nil {
			return err
		}
	}

	if s.EmitAsm {
		listing := strings.Join(res.Output.Asm, "\n") + "\n"
		if err := os.WriteFile(s.Output+".asm", []byte(listing), 0644); err != nil {
			return err
		}
	}
	if s.EmitLabels {
		f, err := os.Create(s.Output + ".lbl")
		if err != nil {
			return err
		}
		err = asm.WriteLabels(f, res.Output.Labels)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}
	if p.GenerateInf {
		if err := writeInf(s.Output, p, res); err != nil {
			return err
		}
	}
	return nil
}

func imagePath(stem, ext string) string {
	if ext == "" {
		return stem
	}
	return stem + "." + ext
}

// writeInf emits the BBC Micro catalogue sidecar: filename, load address,
// and execution address in the DFS host-address form.
func writeInf(stem string, p *platform.Platform, res *Result) error {
	origin := res.Output.Origin[p.Banks[0].Name]
	name := strings.ToUpper(filepath.Base(stem))
	line := fmt.Sprintf("$.%s FF%04X FF%04X\n", name, origin, origin)
	return os.WriteFile(imagePath(stem, p.OutputExt)+".inf", []byte(line), 0644)
}
