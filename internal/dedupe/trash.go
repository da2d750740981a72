package dedupe

// TrashService relocates files into the system trash instead of
// unlinking them, so advisory delete suggestions stay recoverable.
type TrashService interface {
	MoveToTrash(path string) error
}
