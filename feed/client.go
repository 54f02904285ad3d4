package feed

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var ErrUnexpectedStatus = errors.New("unexpected feed status")

const maxErrorBody = 512

type Client struct {
	url  string
	http *http.Client
	log  *zap.Logger
}

func NewClient(url string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		url:  url,
		http: &http.Client{Timeout: timeout},
		log:  log.With(zap.String("component", "feed")),
	}
}

// Fetch downloads and decodes the whole feed.
func (c *Client) Fetch(ctx context.Context) ([]Record, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "unable to build feed request")
	}
	response, err := c.http.Do(request)
	if err != nil {
		return nil, errors.Wrap(err, "unable to get feed")
	}
	defer func() {
		err := response.Body.Close()
		if err != nil {
			c.log.Warn("error during closing feed body", zap.Error(err))
		}
	}()
	code := response.StatusCode
	if code < 200 || code > 299 {
		body, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBody))
		return nil, errors.Wrapf(ErrUnexpectedStatus, "status %v; body: %v", code, string(body))
	}
	var records []Record
	err = json.NewDecoder(response.Body).Decode(&records)
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode feed")
	}
	return records, nil
}
