package imgur

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// DefaultBaseURL is the public Imgur API root.
const DefaultBaseURL = "https://api.imgur.com"

// ErrNotConfigured is returned when no client id was provided.
var ErrNotConfigured = errors.New("imgur client id is not configured")

// UploadedImage is the subset of Imgur's image object the service keeps.
type UploadedImage struct {
	ID         string `json:"id"`
	Link       string `json:"link"`
	DeleteHash string `json:"deletehash"`
}

type envelope struct {
	Data    UploadedImage `json:"data"`
	Success bool          `json:"success"`
	Status  int           `json:"status"`
}

// Client talks to the Imgur v3 API with anonymous (Client-ID) auth.
type Client struct {
	baseURL  string
	clientID string
	timeout  time.Duration
}

// NewClient creates a new Client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL, clientID string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		clientID: clientID,
		timeout:  timeout,
	}
}

// Upload posts content as a multipart "image" field.
func (c *Client) Upload(ctx context.Context, filename string, content []byte) (*UploadedImage, error) {
	if c.clientID == "" {
		return nil, ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	agent := fiber.Post(c.baseURL+"/3/image").
		Set(fiber.HeaderAuthorization, "Client-ID "+c.clientID).
		Timeout(c.timeout).
		FileData(&fiber.FormFile{Fieldname: "image", Name: filename, Content: content}).
		MultipartForm(nil)

	var resp envelope
	code, body, errs := agent.Struct(&resp)
	if len(errs) > 0 {
		return nil, fmt.Errorf("imgur upload failed: %w", errors.Join(errs...))
	}
	if code != fiber.StatusOK || !resp.Success {
		return nil, fmt.Errorf("imgur upload returned status %d: %s", code, truncate(body))
	}
	if resp.Data.DeleteHash == "" {
		return nil, errors.New("imgur upload response missing deletehash")
	}
	return &resp.Data, nil
}

// Delete removes an anonymously uploaded image by its delete hash.
func (c *Client) Delete(ctx context.Context, deleteHash string) error {
	if c.clientID == "" {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	agent := fiber.Delete(c.baseURL+"/3/image/"+url.PathEscape(deleteHash)).
		Set(fiber.HeaderAuthorization, "Client-ID "+c.clientID).
		Timeout(c.timeout)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("imgur delete failed: %w", errors.Join(errs...))
	}
	if code != fiber.StatusOK {
		return fmt.Errorf("imgur delete returned status %d: %s", code, truncate(body))
	}
	return nil
}

func truncate(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
