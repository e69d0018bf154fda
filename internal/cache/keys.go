package cache

import "strconv"

// NotesVersionKey holds the per-user counter bumped on every note write.
func NotesVersionKey(userID string) string {
	return "notes:version:user=" + userID
}

// NotesListKey names one user's list at one version. A write bumps the
// version, so a list read that raced the write lands under a dead key.
func NotesListKey(userID string, version int64) string {
	return "notes:list:v2:user=" + userID + ":ver=" + strconv.FormatInt(version, 10)
}
