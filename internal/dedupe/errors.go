package dedupe

import "fmt"

// VolumeIdentityError reports that no stable identity could be established
// for the device backing a mount point. No synthetic identity is ever
// substituted: a scan aborts on this before any index write.
type VolumeIdentityError struct {
	MountPoint string
	Err        error
}

func (e *VolumeIdentityError) Error() string {
	return fmt.Sprintf("identifying volume at %s: %v", e.MountPoint, e.Err)
}

func (e *VolumeIdentityError) Unwrap() error { return e.Err }

// FileReadError reports a failure to read or decode a single file during
// a scan. It is recorded in the session failure log and never aborts
// the scan.
type FileReadError struct {
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Path, e.Err)
}

func (e *FileReadError) Unwrap() error { return e.Err }

// StoreWriteError reports a failed batch commit to the fingerprint store.
// The batch is retried once; a second failure aborts the scan with the
// session left resumable.
type StoreWriteError struct {
	Err error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("writing to store: %v", e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }

// MoveConflictError reports that a move target path is already occupied
// by a different file. The move of that one file is rejected; the rest
// of the batch proceeds.
type MoveConflictError struct {
	Source string
	Target string
}

func (e *MoveConflictError) Error() string {
	return fmt.Sprintf("moving %s: target %s already exists", e.Source, e.Target)
}
