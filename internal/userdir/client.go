package userdir

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fractionlab/ordercore/internal/domain"
	"github.com/google/uuid"
	"resty.dev/v3"
)

// Client resolves users against the external user directory service.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL string) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(5 * time.Second)

	return &Client{http: client}
}

func (c *Client) Close() error {
	return c.http.Close()
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (c *Client) FindUserByID(ctx context.Context, userID uuid.UUID) (domain.User, error) {
	var u domain.User

	var body userResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&body).
		Get("/users/" + userID.String())
	if err != nil {
		return u, fmt.Errorf("user directory request: %w", err)
	}

	return mapUserResponse(resp, body)
}

func (c *Client) FindUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var u domain.User

	var body userResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&body).
		SetQueryParam("email", email).
		Get("/users")
	if err != nil {
		return u, fmt.Errorf("user directory request: %w", err)
	}

	return mapUserResponse(resp, body)
}

func mapUserResponse(resp *resty.Response, body userResponse) (domain.User, error) {
	var u domain.User

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusNotFound:
		return u, domain.ErrUserNotFound
	default:
		return u, fmt.Errorf("user directory returned unexpected status: %d", resp.StatusCode())
	}

	userID, err := uuid.Parse(body.ID)
	if err != nil {
		return u, fmt.Errorf("user directory returned invalid id[%s]: %w", body.ID, err)
	}

	return domain.User{ID: userID, Email: body.Email}, nil
}
