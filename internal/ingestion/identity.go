package ingestion

import (
	"hash/fnv"
	"os"
	"reflect"
)

// FileIdentity identifies a physical file independent of its path, so that
// renames preserve read continuity and a new inode at a reused path is
// treated as a distinct file.
type FileIdentity struct {
	Dev uint64
	Ino uint64
}

// identityOf derives the (device, inode) pair from a stat result using
// reflection on the platform-specific Sys() value. This works on
// Unix/Linux/macOS (Dev/Ino on *syscall.Stat_t) and on Windows via the
// file index fields, without build tags.
func identityOf(info os.FileInfo) (FileIdentity, bool) {
	sys := info.Sys()
	if sys == nil {
		return FileIdentity{}, false
	}

	v := reflect.ValueOf(sys)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return FileIdentity{}, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return FileIdentity{}, false
	}

	if ino := v.FieldByName("Ino"); ino.IsValid() && ino.CanUint() {
		id := FileIdentity{Ino: ino.Uint()}
		if dev := v.FieldByName("Dev"); dev.IsValid() && dev.CanUint() {
			id.Dev = dev.Uint()
		} else if dev.IsValid() && dev.CanInt() {
			id.Dev = uint64(dev.Int())
		}
		return id, true
	}

	// Windows: combine volume serial and file index when present.
	if high := v.FieldByName("FileIndexHigh"); high.IsValid() && high.CanUint() {
		id := FileIdentity{Ino: high.Uint() << 32}
		if low := v.FieldByName("FileIndexLow"); low.IsValid() && low.CanUint() {
			id.Ino |= low.Uint()
		}
		if vol := v.FieldByName("VolumeSerialNumber"); vol.IsValid() && vol.CanUint() {
			id.Dev = vol.Uint()
		}
		return id, true
	}

	return FileIdentity{}, false
}

// pathIdentity is the fallback when the platform exposes no stable file id:
// the path itself stands in for the inode. Rename continuity is lost but
// size-based truncation detection still works.
func pathIdentity(path string) FileIdentity {
	h := fnv.New64a()
	h.Write([]byte(path))
	return FileIdentity{Ino: h.Sum64()}
}
