//go:build !tinygo

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"rtshell/rtos/romfs"
)

const defaultImagePath = "romfs.img"

type permFlags []romfs.BuildOption

func (p *permFlags) String() string { return "" }

func (p *permFlags) Set(v string) error {
	name, mode, ok := strings.Cut(v, "=")
	if !ok || name == "" {
		return errors.New("want path=mode, e.g. etc/passwd=0600")
	}
	perm, err := strconv.ParseUint(mode, 8, 32)
	if err != nil || perm > 0o777 {
		return fmt.Errorf("bad mode %q", mode)
	}
	*p = append(*p, romfs.WithPerm(name, uint32(perm)))
	return nil
}

func main() {
	var srcDir string
	var outPath string
	var sourcePerms bool
	var perms permFlags
	flag.StringVar(&srcDir, "src", "", "Source directory to pack.")
	flag.StringVar(&outPath, "out", defaultImagePath, "Output image path.")
	flag.BoolVar(&sourcePerms, "source-perms", false, "Keep the permission bits of the source files.")
	flag.Var(&perms, "chmod", "Override one entry's permissions, path=mode (repeatable).")
	flag.Parse()

	if srcDir == "" {
		fmt.Fprintln(os.Stderr, "error: -src is required")
		os.Exit(2)
	}
	if outPath == "" {
		fmt.Fprintln(os.Stderr, "error: -out is required")
		os.Exit(2)
	}

	opts := []romfs.BuildOption(perms)
	if sourcePerms {
		opts = append([]romfs.BuildOption{romfs.WithSourcePerms()}, opts...)
	}
	if err := run(os.Stdout, srcDir, outPath, opts...); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(w io.Writer, srcDir, outPath string, opts ...romfs.BuildOption) error {
	srcDir = filepath.Clean(srcDir)
	st, err := os.Stat(srcDir)
	if err != nil {
		return fmt.Errorf("stat src %q: %w", srcDir, err)
	}
	if !st.IsDir() {
		return fmt.Errorf("src %q is not a directory", srcDir)
	}

	data, err := romfs.Build(os.DirFS(srcDir), opts...)
	if err != nil {
		return fmt.Errorf("pack %q: %w", srcDir, err)
	}
	img, err := romfs.Parse(data)
	if err != nil {
		return fmt.Errorf("verify image: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write %q: %w", outPath, err)
	}

	fmt.Fprintf(w, "%s: %d entries, %s content, %s image, blake3 %x\n",
		outPath, img.Len(),
		humanize.IBytes(uint64(img.TotalSize())),
		humanize.IBytes(uint64(len(data))),
		img.Digest())
	return nil
}
