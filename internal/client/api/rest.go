package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/catusdev/catus-client/internal/client/models"
	"github.com/catusdev/catus-client/internal/client/transport"
)

// RESTClient implements Client over a transport pipeline.
type RESTClient struct {
	pipe *transport.Pipeline
}

var _ Client = (*RESTClient)(nil)

// NewRESTClient wraps the pipeline into the typed client surface.
func NewRESTClient(pipe *transport.Pipeline) *RESTClient {
	return &RESTClient{pipe: pipe}
}

func (c *RESTClient) KakaoLogin(ctx context.Context, code string) (*AuthResult, error) {
	var out AuthResult
	err := c.pipe.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/auth/kakao",
		Body:   map[string]string{"code": code},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *RESTClient) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	var out AuthResult
	err := c.pipe.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/auth/refresh",
		Body:   map[string]string{"refreshToken": refreshToken},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *RESTClient) Logout(ctx context.Context) error {
	return c.pipe.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/auth/logout",
	}, nil)
}

func (c *RESTClient) Me(ctx context.Context) (*models.UserProfile, error) {
	var out models.UserProfile
	err := c.pipe.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/auth/me",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *RESTClient) SendMessage(ctx context.Context, content string) (*models.ChatMessage, error) {
	var out models.ChatMessage
	err := c.pipe.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/chat/send",
		Body:   map[string]string{"content": content},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ChatHistory returns the saved conversation attached to a diary entry.
func (c *RESTClient) ChatHistory(ctx context.Context, diaryID int64) ([]models.ChatMessage, error) {
	var out struct {
		Messages []models.ChatMessage `json:"messages"`
	}
	err := c.pipe.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/chat/history/%d", diaryID),
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// EndConversation submits the day's transcript and receives the analysis
// the backend derived from it.
func (c *RESTClient) EndConversation(ctx context.Context, date string, messages []models.ChatMessage) (*models.ChatAnalysis, error) {
	var out models.ChatAnalysis
	err := c.pipe.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/chat/end",
		Body: map[string]any{
			"date":     date,
			"messages": messages,
		},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *RESTClient) DiaryList(ctx context.Context, year, month int) ([]models.Diary, error) {
	q := url.Values{}
	q.Set("year", strconv.Itoa(year))
	q.Set("month", strconv.Itoa(month))
	var out struct {
		Diaries []models.Diary `json:"diaries"`
	}
	err := c.pipe.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/diaries",
		Query:  q,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Diaries, nil
}

func (c *RESTClient) DiaryByDate(ctx context.Context, date string) (*models.Diary, error) {
	var out models.Diary
	err := c.pipe.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/diaries/" + date,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *RESTClient) CreateDiary(ctx context.Context, diary models.Diary) (*models.Diary, error) {
	var out models.Diary
	err := c.pipe.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/diaries",
		Body:   diary,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *RESTClient) UpdateDiary(ctx context.Context, date string, diary models.Diary) (*models.Diary, error) {
	var out models.Diary
	err := c.pipe.Do(ctx, transport.Request{
		Method: http.MethodPut,
		Path:   "/diaries/" + date,
		Body:   diary,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *RESTClient) DeleteDiary(ctx context.Context, date string) error {
	return c.pipe.Do(ctx, transport.Request{
		Method: http.MethodDelete,
		Path:   "/diaries/" + date,
	}, nil)
}

func (c *RESTClient) RandomDiary(ctx context.Context) (*models.Diary, error) {
	var out models.Diary
	err := c.pipe.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/diaries/random",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *RESTClient) Settings(ctx context.Context) (*models.Settings, error) {
	var out models.Settings
	err := c.pipe.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/settings",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *RESTClient) UpdateProfile(ctx context.Context, nickname string) (*models.UserProfile, error) {
	var out models.UserProfile
	err := c.pipe.Do(ctx, transport.Request{
		Method: http.MethodPut,
		Path:   "/settings/profile",
		Body:   map[string]string{"nickname": nickname},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
