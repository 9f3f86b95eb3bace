package filetree

// CheckPendingSlot decides whether a new pending version may be appended
// after latest (nil when the record has no versions).
//
// The pending check runs first: a pending latest version always blocks, even
// when the new signature differs. Only then is the signature compared, which
// also rejects replays of an already finished upload.
func CheckPendingSlot(latest *FileVersion, signature string) error {
	if latest == nil {
		return nil
	}
	if latest.Status == StatusPending {
		return NewError(ErrPathLocked, "", "an upload is already in progress")
	}
	if latest.Signature == signature {
		return NewError(ErrSignatureConsumed, "", "signature already used by version %s", latest.ID)
	}
	return nil
}

// MarkDeleted sets the soft-delete flag of a record.
func (o *Object) MarkDeleted() error {
	if o.IsDeleted {
		return NewError(ErrDelete, o.Path, "file is already deleted")
	}
	o.IsDeleted = true
	return nil
}

// MarkRestored clears the soft-delete flag of a record.
func (o *Object) MarkRestored() error {
	if !o.IsDeleted {
		return NewError(ErrUndelete, o.Path, "file is not deleted")
	}
	o.IsDeleted = false
	return nil
}

// VersionWindow computes a newest-first page over total versions.
//
// Pages are 1-indexed. The page covers 1-based positions start down to
// stop+1 where start = total-(page-1)*size and stop = max(0, start-size);
// more reports whether older versions remain. A page past the end is empty.
//
// With total=10 and size=3, page 1 is [10 9 8] (more) and page 4 is [1].
// Pages are bounds-checked before (page-1)*size is computed, so huge page or
// size values yield an empty page instead of overflowing.
func VersionWindow(total, page, size int) (positions []int, more bool, err error) {
	if page < 1 {
		return nil, false, NewError(ErrInvalidArgument, "", "page must be >= 1, got %d", page)
	}
	if size < 1 {
		return nil, false, NewError(ErrInvalidArgument, "", "page size must be >= 1, got %d", size)
	}

	if total <= 0 || page-1 > (total-1)/size {
		return []int{}, false, nil
	}

	start := min(total, total-(page-1)*size)
	stop := max(0, start-size)

	positions = make([]int, 0, start-stop)
	for pos := start; pos > stop; pos-- {
		positions = append(positions, pos)
	}
	return positions, stop > 0, nil
}
