package note

// Text fields and the pinned flag merge differently: an empty string means
// "keep", while an explicit false for isPinned is a real value.

func mergeTruthy(current string, incoming *string) string {
	if incoming == nil || *incoming == "" {
		return current
	}
	return *incoming
}

func mergeDefined[T any](current T, incoming *T) T {
	if incoming == nil {
		return current
	}
	return *incoming
}

// Apply returns n with the patch merged in. ID, owner and timestamps are left
// alone; the store refreshes UpdatedAt.
func (req UpdateNoteRequest) Apply(n Note) Note {
	n.Title = mergeTruthy(n.Title, req.Title)
	n.Content = mergeTruthy(n.Content, req.Content)
	n.Category = mergeTruthy(n.Category, req.Category)
	n.IsPinned = mergeDefined(n.IsPinned, req.IsPinned)

	return n
}
