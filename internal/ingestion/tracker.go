package ingestion

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"docklog/internal/classify"
)

// Source is one named logical log stream: a glob pattern plus its
// matching, normalization, and notification rules.
type Source struct {
	Name       string
	Pattern    string
	Classifier *classify.Classifier
	Notify     bool
	Triggers   classify.SeveritySet
}

// DiagLogger receives per-path diagnostics in the console line format.
type DiagLogger interface {
	Diag(severity classify.Severity, source, format string, args ...interface{})
}

// LineHandler consumes each complete line read from a source this tick.
type LineHandler func(src *Source, line string)

// TrackedFileStatus is a read-only view of one tracked file.
type TrackedFileStatus struct {
	Path   string `json:"path"`
	Offset int64  `json:"offset"`
	Dev    uint64 `json:"dev"`
	Ino    uint64 `json:"ino"`
}

type trackedFile struct {
	path   string
	offset int64
}

// Tracker maintains per-physical-file read positions across ticks.
//
// Offsets are keyed globally by file identity, not by (source, identity):
// if two sources' globs match the same physical file they share one read
// cursor, and whichever source is processed first in a tick consumes the
// new bytes.
type Tracker struct {
	files   map[FileIdentity]*trackedFile
	touched map[FileIdentity]struct{}
	diag    DiagLogger
}

// NewTracker creates an empty tracker. State lives only in memory; on
// restart every file is rediscovered at its current size.
func NewTracker(diag DiagLogger) *Tracker {
	return &Tracker{
		files:   make(map[FileIdentity]*trackedFile),
		touched: make(map[FileIdentity]struct{}),
		diag:    diag,
	}
}

// BeginTick clears the touched set for a new tick.
func (t *Tracker) BeginTick() {
	t.touched = make(map[FileIdentity]struct{})
}

// ProcessSource expands the source's glob and reads newly appended bytes
// from every matched file, handing complete lines to handler.
//
// A file newly seen this tick is registered at its current size and emits
// nothing. A size below the stored offset means rotation or truncation and
// resets the cursor to 0 for a full re-read. A file that vanishes between
// stat and open is skipped silently; any other I/O failure is logged and
// leaves the offset unchanged for retry next tick.
func (t *Tracker) ProcessSource(src *Source, handler LineHandler) {
	paths, err := filepath.Glob(src.Pattern)
	if err != nil {
		t.diag.Diag(classify.SeverityError, src.Name, "invalid glob pattern %q: %v", src.Pattern, err)
		return
	}
	sort.Strings(paths)

	for _, path := range paths {
		t.processPath(src, path, handler)
	}
}

func (t *Tracker) processPath(src *Source, path string, handler LineHandler) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		t.diag.Diag(classify.SeverityError, src.Name, "failed to stat %s: %v", path, err)
		return
	}

	id, ok := identityOf(info)
	if !ok {
		id = pathIdentity(path)
	}
	t.touched[id] = struct{}{}

	cur, seen := t.files[id]
	if !seen {
		// First sighting: baseline at the current size so historical
		// content is never replayed.
		t.files[id] = &trackedFile{path: path, offset: info.Size()}
		return
	}
	cur.path = path

	// Rotation or truncation: re-read the whole current content. The
	// stored offset is only moved once the read succeeds, so a failed
	// open leaves the state as it was.
	readFrom := cur.offset
	if info.Size() < readFrom {
		readFrom = 0
	}

	lines, consumed, err := readCompleteLines(path, readFrom)
	if err != nil {
		if os.IsNotExist(err) {
			// Vanished between stat and open.
			return
		}
		if os.IsPermission(err) {
			t.diag.Diag(classify.SeverityError, src.Name, "permission denied for %s: %v", path, err)
		} else {
			t.diag.Diag(classify.SeverityError, src.Name, "failed reading %s: %v", path, err)
		}
		return
	}

	for _, line := range lines {
		handler(src, line)
	}
	cur.offset = readFrom + consumed
}

// Prune discards state for every identity not touched this tick and
// returns how many were removed. This is how rotated-out or deleted files
// are garbage-collected.
func (t *Tracker) Prune() int {
	pruned := 0
	for id := range t.files {
		if _, ok := t.touched[id]; !ok {
			delete(t.files, id)
			pruned++
		}
	}
	return pruned
}

// Snapshot returns the tracked files sorted by path.
func (t *Tracker) Snapshot() []TrackedFileStatus {
	out := make([]TrackedFileStatus, 0, len(t.files))
	for id, f := range t.files {
		out = append(out, TrackedFileStatus{Path: f.path, Offset: f.offset, Dev: id.Dev, Ino: id.Ino})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// readCompleteLines reads from offset to EOF and splits the data into
// newline-terminated lines. A trailing fragment without a terminator is
// left unconsumed so a later tick can complete it; consumed counts only
// the raw bytes of complete lines. Invalid byte sequences are substituted
// rather than aborting the read, and never affect the byte count.
func readCompleteLines(path string, offset int64) (lines []string, consumed int64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, err
	}

	reader := bufio.NewReader(f)
	for {
		raw, err := reader.ReadBytes('\n')
		if len(raw) > 0 && raw[len(raw)-1] == '\n' {
			consumed += int64(len(raw))
			line := strings.TrimSuffix(string(raw), "\n")
			lines = append(lines, strings.ToValidUTF8(line, "�"))
		}
		if err == io.EOF {
			return lines, consumed, nil
		}
		if err != nil {
			return nil, 0, err
		}
	}
}
