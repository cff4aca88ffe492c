package models

// Diary is a per-day diary entry derived from a conversation (or written
// manually). Date is YYYY-MM-DD and is the lookup key.
type Diary struct {
	ID         int64  `json:"id,omitempty"`
	Date       string `json:"date"`
	Emotion    string `json:"emotion"`
	Summary    string `json:"summary"`
	PictureURL string `json:"pictureUrl,omitempty"`
	CreatedAt  string `json:"createdAt,omitempty"`
}

// Settings mirrors the backend's per-user settings document.
type Settings struct {
	DiaryTime              string `json:"diaryTime,omitempty"`
	AnonymousNotifications bool   `json:"anonymousNotifications"`
	DarkMode               bool   `json:"darkMode"`
}
