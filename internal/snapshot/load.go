package snapshot

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	semerrors "semcheck/internal/errors"
)

// Format is a snapshot serialization.
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatMsgpack Format = "msgpack"
)

// FormatForPath infers the format and compression from a file name:
// .json, .yaml/.yml or .msgpack, optionally followed by .zst.
func FormatForPath(path string) (format Format, compressed bool, err error) {
	name := strings.ToLower(filepath.Base(path))
	if strings.HasSuffix(name, ".zst") {
		compressed = true
		name = strings.TrimSuffix(name, ".zst")
	}
	switch filepath.Ext(name) {
	case ".json":
		return FormatJSON, compressed, nil
	case ".yaml", ".yml":
		return FormatYAML, compressed, nil
	case ".msgpack":
		return FormatMsgpack, compressed, nil
	default:
		return "", false, fmt.Errorf("cannot infer snapshot format from %q", path)
	}
}

// Load reads, decodes and indexes a snapshot file. Failures are terminal
// errors carrying the offending path.
func Load(path string) (*Snapshot, error) {
	format, compressed, err := FormatForPath(path)
	if err != nil {
		return nil, semerrors.New(semerrors.SnapshotInvalid, "unsupported snapshot file", err).
			WithDetails(map[string]string{"path": path})
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, semerrors.New(semerrors.SnapshotUnreadable, "cannot open snapshot", err).
			WithDetails(map[string]string{"path": path})
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if compressed {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, semerrors.New(semerrors.SnapshotUnreadable, "cannot open zstd stream", err).
				WithDetails(map[string]string{"path": path})
		}
		defer dec.Close()
		r = dec
	}

	snap, err := Decode(r, format)
	if err != nil {
		return nil, semerrors.New(semerrors.SnapshotInvalid, "cannot decode snapshot", err).
			WithDetails(map[string]string{"path": path})
	}
	return snap, nil
}

// Decode decodes and indexes a snapshot from r.
func Decode(r io.Reader, format Format) (*Snapshot, error) {
	var snap Snapshot
	var err error
	switch format {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&snap)
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&snap)
	case FormatMsgpack:
		err = msgpack.NewDecoder(r).Decode(&snap)
	default:
		err = fmt.Errorf("unknown snapshot format %q", format)
	}
	if err != nil {
		return nil, err
	}
	if err := snap.Index(); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}
	return &snap, nil
}

// Encode writes a snapshot in the given format.
func Encode(w io.Writer, snap *Snapshot, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(snap); err != nil {
			return err
		}
		return enc.Close()
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(snap)
	default:
		return fmt.Errorf("unknown snapshot format %q", format)
	}
}

// Save writes a snapshot to path, choosing format and compression from the
// file name like Load does.
func Save(path string, snap *Snapshot) error {
	format, compressed, err := FormatForPath(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeSnapshot(f, snap, format, compressed); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeSnapshot encodes snap to w, through a zstd stream when compressed.
// The stream is closed on every path.
func writeSnapshot(w io.Writer, snap *Snapshot, format Format, compressed bool) (err error) {
	if !compressed {
		return Encode(w, snap, format)
	}
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := zw.Close(); err == nil {
			err = cerr
		}
	}()
	return Encode(zw, snap, format)
}

// LoadPair loads and indexes both snapshots of a run.
func LoadPair(baselinePath, currentPath string) (*Pair, error) {
	baseline, err := Load(baselinePath)
	if err != nil {
		return nil, err
	}
	current, err := Load(currentPath)
	if err != nil {
		return nil, err
	}
	return &Pair{Baseline: baseline, Current: current}, nil
}
