package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"appimagefinder/internal/core/appimage"
	perr "appimagefinder/internal/platform/errors"
	"appimagefinder/internal/services/finder/domain"
)

// Options control where and how records land on disk
type Options struct {
	// Prefix is the path prefix of every file, e.g. out/appimages
	Prefix string
	Format Format
	// Target is the requested architecture; all splits the files per architecture
	Target appimage.Arch
}

// FileName returns <prefix>-<arch>.<ext>
func FileName(prefix, arch string, f Format) string {
	return fmt.Sprintf("%s-%s.%s", prefix, arch, f.Ext())
}

// Write serializes records and returns the files written, in the order the
// architectures first appear. With a single target every record goes to one
// file named after the target
func Write(records []domain.Record, opts Options) ([]string, error) {
	if opts.Format == "" {
		opts.Format = JSON
	}
	if opts.Target == "" {
		opts.Target = appimage.ArchAll
	}

	if opts.Target != appimage.ArchAll {
		name := FileName(opts.Prefix, string(opts.Target), opts.Format)
		if err := writeFile(name, opts.Format, records); err != nil {
			return nil, err
		}
		return []string{name}, nil
	}

	archs, groups := domain.Result{Records: records}.ByArch()
	files := make([]string, 0, len(archs))
	for _, a := range archs {
		name := FileName(opts.Prefix, a, opts.Format)
		if err := writeFile(name, opts.Format, groups[a]); err != nil {
			return files, err
		}
		files = append(files, name)
	}
	return files, nil
}

// writeFile encodes into a temp file next to name and renames it into place
func writeFile(name string, f Format, records []domain.Record) error {
	dir := filepath.Dir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return perr.Storage(err, dir, "output: create directory")
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(name)+".*")
	if err != nil {
		return perr.Storage(err, name, "output: create temp file")
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := encode(tmp, f, records); err != nil {
		_ = tmp.Close()
		return perr.Storage(err, name, "output: encode "+string(f))
	}
	if err := tmp.Close(); err != nil {
		return perr.Storage(err, name, "output: close")
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return perr.Storage(err, name, "output: chmod")
	}
	if err := os.Rename(tmpName, name); err != nil {
		return perr.Storage(err, name, "output: rename into place")
	}
	return nil
}

func encode(w io.Writer, f Format, records []domain.Record) error {
	switch f {
	case JSON:
		return encodeJSON(w, records)
	case CSV:
		return encodeCSV(w, records)
	case Parquet:
		return encodeParquet(w, records)
	default:
		return perr.InvalidArgf("unknown output format %q", f)
	}
}

// encodeJSON writes a pretty printed array; no records is []
func encodeJSON(w io.Writer, records []domain.Record) error {
	if records == nil {
		records = []domain.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(records)
}

func encodeCSV(w io.Writer, records []domain.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(domain.Columns); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(r.Values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func encodeParquet(w io.Writer, records []domain.Record) error {
	pw := parquet.NewGenericWriter[domain.Record](w)
	if _, err := pw.Write(records); err != nil {
		_ = pw.Close()
		return err
	}
	return pw.Close()
}
