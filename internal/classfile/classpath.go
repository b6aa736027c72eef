package classfile

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"nanopatterns/internal/analysis"
)

// DefaultCacheSize is the number of decoded classes a Classpath keeps.
const DefaultCacheSize = 1024

// location is one classpath entry: a directory tree or a jar.
type location interface {
	read(name string) ([]byte, error)
	close() error
	String() string
}

type dirLocation string

func (d dirLocation) read(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(string(d), filepath.FromSlash(name)+".class"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrClassNotFound
	}
	return data, err
}

func (d dirLocation) close() error   { return nil }
func (d dirLocation) String() string { return string(d) }

type jarLocation struct {
	path  string
	zr    *zip.ReadCloser
	files map[string]*zip.File
}

func openJar(path string) (*jarLocation, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open jar %s: %w", path, err)
	}
	j := &jarLocation{path: path, zr: zr, files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, ".class") {
			j.files[f.Name] = f
		}
	}
	return j, nil
}

func (j *jarLocation) read(name string) ([]byte, error) {
	f, ok := j.files[name+".class"]
	if !ok {
		return nil, ErrClassNotFound
	}
	return readZipFile(f)
}

func (j *jarLocation) close() error   { return j.zr.Close() }
func (j *jarLocation) String() string { return j.path }

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// ClasspathOption configures a Classpath.
type ClasspathOption func(*Classpath)

// WithCacheSize bounds the decoded-class cache.
func WithCacheSize(n int) ClasspathOption {
	return func(cp *Classpath) {
		if n > 0 {
			cp.cacheSize = n
		}
	}
}

// WithClasspathLogger sets the logger for lookup diagnostics.
func WithClasspathLogger(logger *slog.Logger) ClasspathOption {
	return func(cp *Classpath) {
		if logger != nil {
			cp.logger = logger
		}
	}
}

// Classpath finds and decodes classes by internal name from an ordered
// list of directories and jars. It is safe for concurrent use.
//
// Classpath implements analysis.AbstractMethodResolver. Decoded classes
// are cached; answers are always recomputed from the cached class.
type Classpath struct {
	locations []location
	cache     *lru.Cache[string, *Class]
	cacheSize int
	logger    *slog.Logger
}

var _ analysis.AbstractMethodResolver = (*Classpath)(nil)

// SplitClasspath splits a classpath string on the OS list separator,
// dropping empty elements.
func SplitClasspath(s string) []string {
	var out []string
	for _, p := range filepath.SplitList(s) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NewClasspath opens every entry of paths. Entries ending in .jar or .zip
// are opened as archives, everything else must be a directory.
func NewClasspath(paths []string, opts ...ClasspathOption) (*Classpath, error) {
	cp := &Classpath{cacheSize: DefaultCacheSize, logger: slog.Default()}
	for _, opt := range opts {
		opt(cp)
	}
	cache, err := lru.New[string, *Class](cp.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("class cache: %w", err)
	}
	cp.cache = cache

	for _, p := range paths {
		if err := cp.add(p); err != nil {
			cp.Close()
			return nil, err
		}
	}
	return cp, nil
}

func (cp *Classpath) add(path string) error {
	if isArchive(path) {
		j, err := openJar(path)
		if err != nil {
			return err
		}
		cp.locations = append(cp.locations, j)
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("classpath entry: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("classpath entry %s: not a directory or jar", path)
	}
	cp.locations = append(cp.locations, dirLocation(path))
	return nil
}

// Len returns the number of classpath entries.
func (cp *Classpath) Len() int { return len(cp.locations) }

// Lookup returns the decoded class with the given internal or dotted name.
func (cp *Classpath) Lookup(name string) (*Class, error) {
	name = strings.ReplaceAll(name, ".", "/")
	if c, ok := cp.cache.Get(name); ok {
		return c, nil
	}
	for _, loc := range cp.locations {
		data, err := loc.read(name)
		if errors.Is(err, ErrClassNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s from %s: %w", name, loc, err)
		}
		c, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s from %s: %w", name, loc, err)
		}
		cp.cache.Add(name, c)
		cp.logger.Debug("loaded class", "class", name, "from", loc.String(), "methods", len(c.Methods))
		return c, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrClassNotFound, name)
}

// IsAbstract reports whether class declares name/desc as abstract. Only the
// named class is consulted; a method it does not declare is not abstract.
// Classes that cannot be found or decoded yield analysis.ErrUnresolvable.
func (cp *Classpath) IsAbstract(class, name, desc string) (bool, error) {
	c, err := cp.Lookup(class)
	if err != nil {
		return false, fmt.Errorf("%w: %w", analysis.ErrUnresolvable, err)
	}
	m, ok := c.Method(name, desc)
	if !ok {
		return false, nil
	}
	return m.IsAbstract(), nil
}

// Close releases open archives.
func (cp *Classpath) Close() error {
	var errs []error
	for _, loc := range cp.locations {
		if err := loc.close(); err != nil {
			errs = append(errs, err)
		}
	}
	cp.locations = nil
	return errors.Join(errs...)
}

func isArchive(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".jar" || ext == ".zip"
}
