package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/justyntemme/polysynth/pkg/patch"
)

type setting struct {
	id, value string
}

func cmdParams(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var asJSON bool
	var outPath string
	var sets []setting

	cfg, err := parseFlags("params", args, stderr, func(fs *flag.FlagSet, cfg *Config) {
		fs.BoolVar(&asJSON, "json", false, "print the patch as JSON")
		fs.StringVar(&outPath, "o", "", "save the patch to this file")
		fs.Func("set", "id=value to change before printing, repeatable", func(s string) error {
			id, value, ok := strings.Cut(s, "=")
			if !ok || id == "" {
				return fmt.Errorf("want id=value, got %q", s)
			}
			sets = append(sets, setting{strings.TrimSpace(id), strings.TrimSpace(value)})
			return nil
		})
	})
	if err != nil {
		return err
	}

	p := patch.New()
	if cfg.PatchFile != "" {
		if err := loadPatch(p, cfg.PatchFile); err != nil {
			return err
		}
	}
	for _, s := range sets {
		if err := p.SetString(s.id, s.value); err != nil {
			return fmt.Errorf("set %s: %w", s.id, err)
		}
	}

	if outPath != "" {
		if err := savePatch(p, outPath); err != nil {
			return err
		}
	}

	if asJSON {
		return p.Save(stdout)
	}
	printParams(stdout, p)
	return nil
}

func savePatch(p *patch.Patch, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := p.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printParams(w io.Writer, p *patch.Patch) {
	for _, prm := range p.Registry().All() {
		value := prm.Format()
		if prm.Unit != "" && !strings.HasSuffix(value, prm.Unit) {
			value += " " + prm.Unit
		}

		extra := ""
		if prm.IsList() {
			extra = "  [" + strings.Join(prm.Options, " ") + "]"
		}
		fmt.Fprintf(w, "%-16s %-28s %s%s\n", prm.ID, prm.Name, value, extra)
	}
}
