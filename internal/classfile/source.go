package classfile

import (
	"archive/zip"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// RawClass is the undecoded bytes of one class file.
type RawClass struct {
	Path string // file path, or jar path and entry joined by "!/"
	Data []byte
}

// Load reads every class file reachable from path. A path may be a
// single .class file, a jar, or a directory walked recursively; jars found
// inside a directory are read too.
func Load(ctx context.Context, path string) ([]RawClass, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	switch {
	case info.IsDir():
		return loadDir(ctx, path)
	case isArchive(path):
		return loadJar(ctx, path)
	case strings.HasSuffix(path, ".class"):
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return []RawClass{{Path: path, Data: data}}, nil
	}
	return nil, fmt.Errorf("%s: %w", path, ErrNotClassFile)
}

func loadDir(ctx context.Context, root string) ([]RawClass, error) {
	var out []RawClass
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch {
		case strings.HasSuffix(path, ".class"):
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			out = append(out, RawClass{Path: path, Data: data})
		case isArchive(path):
			classes, err := loadJar(ctx, path)
			if err != nil {
				return err
			}
			out = append(out, classes...)
		}
		return nil
	})
	return out, err
}

func loadJar(ctx context.Context, path string) ([]RawClass, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open jar %s: %w", path, err)
	}
	defer zr.Close()

	var out []RawClass
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.FileInfo().IsDir() || !strings.HasSuffix(f.Name, ".class") {
			continue
		}
		data, err := readZipFile(f)
		if err != nil {
			return nil, fmt.Errorf("%s!/%s: %w", path, f.Name, err)
		}
		out = append(out, RawClass{Path: path + "!/" + f.Name, Data: data})
	}
	return out, nil
}
