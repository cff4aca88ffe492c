package common

// DateLayout is the calendar-day format used to group chat messages and
// diary entries (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// StoragePrefix namespaces every credential key so locally persisted values
// cannot collide with unrelated data in the same store.
const StoragePrefix = "catus_"
