package discordapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/ratelimit"

	"github.com/dreschagin/guild-insights/internal/application/dto"
	"github.com/dreschagin/guild-insights/internal/application/port"
)

// UserClient получает пользователя Discord по OAuth токену через REST API
type UserClient struct {
	http    *resty.Client
	limiter ratelimit.Limiter
}

// NewUserClient создает клиента с общим лимитом запросов в секунду
func NewUserClient(baseURL string, ratePerSecond int, timeout time.Duration) *UserClient {
	if ratePerSecond <= 0 {
		ratePerSecond = 5
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})

	return &UserClient{
		http:    httpClient,
		limiter: ratelimit.New(ratePerSecond),
	}
}

// CurrentUser вызывает GET /users/@me
func (c *UserClient) CurrentUser(ctx context.Context, accessToken string) (*dto.DiscordUserDTO, error) {
	c.limiter.Take()

	var user dto.DiscordUserDTO
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&user).
		Get("/users/@me")
	if err != nil {
		return nil, fmt.Errorf("discord user request failed: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden:
		return nil, port.ErrUnauthorized
	case resp.IsError():
		return nil, fmt.Errorf("discord user fetch failed: %d", resp.StatusCode())
	}

	if user.ID == "" {
		return nil, fmt.Errorf("discord user response has no id")
	}

	return &user, nil
}
