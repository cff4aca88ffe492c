// Package api is the typed REST client for the Catus backend. Every call
// goes through the transport pipeline, which owns auth headers, retries and
// error classification; this package only knows paths and payload shapes.
package api

import (
	"context"

	"github.com/catusdev/catus-client/internal/client/models"
)

// AuthResult is the token pair plus user returned by login and refresh.
type AuthResult struct {
	AccessToken  string             `json:"accessToken"`
	RefreshToken string             `json:"refreshToken"`
	User         models.UserProfile `json:"user"`
}

// Client describes the backend operations the client depends on.
type Client interface {
	// Auth
	KakaoLogin(ctx context.Context, code string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*models.UserProfile, error)

	// Chat
	SendMessage(ctx context.Context, content string) (*models.ChatMessage, error)
	ChatHistory(ctx context.Context, diaryID int64) ([]models.ChatMessage, error)
	EndConversation(ctx context.Context, date string, messages []models.ChatMessage) (*models.ChatAnalysis, error)

	// Diary
	DiaryList(ctx context.Context, year, month int) ([]models.Diary, error)
	DiaryByDate(ctx context.Context, date string) (*models.Diary, error)
	CreateDiary(ctx context.Context, diary models.Diary) (*models.Diary, error)
	UpdateDiary(ctx context.Context, date string, diary models.Diary) (*models.Diary, error)
	DeleteDiary(ctx context.Context, date string) error
	RandomDiary(ctx context.Context) (*models.Diary, error)

	// Settings
	Settings(ctx context.Context) (*models.Settings, error)
	UpdateProfile(ctx context.Context, nickname string) (*models.UserProfile, error)
}
