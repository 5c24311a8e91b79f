// Package tests locates, and downloads on first use, the external test
// vectors used by the CPU tests.
package tests

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"golang.org/x/sync/errgroup"
)

// SingleStepTests 65816 vectors, one file per opcode and per mode: e for
// emulation, n for native.
const singleStepURL = `https://raw.githubusercontent.com/SingleStepTests/65816/main/v1/%s.json`

// SingleStepName returns the base name of the vector file for opcode in the
// given mode.
func SingleStepName(opcode uint8, emulation bool) string {
	mode := "n"
	if emulation {
		mode = "e"
	}
	return fmt.Sprintf("%02x.%s", opcode, mode)
}

func download(url, path string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %s", url, resp.Status)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// download all 512 single step test files into dest dir.
func downloadSingleStepTests(tb testing.TB, dest string) {
	tempdir, err := os.MkdirTemp("", "singlestep.65816.*")
	if err != nil {
		tb.Fatal(err)
	}

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())

	for opcode := range 256 {
		for _, emu := range []bool{true, false} {
			name := SingleStepName(uint8(opcode), emu)
			url := fmt.Sprintf(singleStepURL, name)

			g.Go(func() error {
				if err := download(url, filepath.Join(tempdir, name+".json")); err != nil {
					return err
				}
				tb.Log("downloaded", url)
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		os.RemoveAll(tempdir)
		tb.Fatalf("failed to download all files: %s", err)
	}

	tb.Log("renaming", tempdir, "to", dest)
	if err := os.Rename(tempdir, dest); err != nil {
		tb.Fatal(err)
	}
}

var singleStepOnce sync.Once

// SingleStepTestsPath returns the directory holding the 65816 single step
// test vectors, downloading them if needed.
func SingleStepTestsPath(tb testing.TB) string {
	_, b, _, _ := runtime.Caller(0)
	testsDir := filepath.Join(filepath.Dir(b), "singlestep.65816")

	singleStepOnce.Do(func() {
		if _, err := os.Stat(testsDir); errors.Is(err, fs.ErrNotExist) {
			tb.Log("singlestep.65816 directory not found, downloading it...")
			downloadSingleStepTests(tb, testsDir)
			tb.Log("single step tests downloaded in", testsDir)
		}
	})
	return testsDir
}
