package modfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ScannedMod is a packed mod container found in a directory.
type ScannedMod struct {
	Path string
	File string // Base name
	Mod  *ModFile
}

// ScanDir lists the packed mod containers directly inside dir, in lexical
// order. Raw game packages and unreadable files are skipped, as are
// subdirectories.
func ScanDir(dir string) ([]ScannedMod, error) {
	var mods []ScannedMod

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), Extension) {
			return nil
		}

		packed, err := hasFooter(path)
		if err != nil || !packed {
			return nil
		}

		m, err := ReadFile(path)
		if err != nil {
			return nil
		}
		mods = append(mods, ScannedMod{Path: path, File: info.Name(), Mod: m})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	return mods, nil
}

// hasFooter reports whether the file at path ends with the mod footer magic.
func hasFooter(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	end, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return false, err
	}
	if end < FooterSize {
		return false, nil
	}
	magic, err := readUint32At(f, end-4)
	if err != nil {
		return false, err
	}
	return magic == Magic, nil
}
