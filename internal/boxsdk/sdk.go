// Package boxsdk is a client for the box-style file API and its remote.Store
// adapter.
package boxsdk

import (
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/gadget1999/gobox/internal/version"
	"github.com/google/uuid"
	"github.com/imroc/req/v3"
)

const (
	HeaderRequestID = "X-Request-Id"
	HeaderVersion   = "X-Gobox-Version"
)

var UserAgent = fmt.Sprintf("gobox/%s (%s; %s; %s)", version.Version, version.Revision, runtime.GOOS, runtime.GOARCH)

type Config struct {
	APIURL      string // APIURL is required
	UploadURL   string // UploadURL defaults to APIURL
	AccessToken string // AccessToken is required
	Logger      *slog.Logger
}

func (c *Config) Validate() error {
	if c.APIURL == "" {
		return ErrNoAPIURL
	}
	if c.AccessToken == "" {
		return ErrNoAccessToken
	}
	if c.UploadURL == "" {
		c.UploadURL = c.APIURL
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")
	c.UploadURL = strings.TrimRight(c.UploadURL, "/")
	return nil
}

// Client is the API client. Each resource has its own API value.
type Client struct {
	client  *req.Client
	logger  *slog.Logger
	Users   *UsersAPI
	Folders *FoldersAPI
	Files   *FilesAPI
}

func New(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "boxsdk")

	client := req.C().
		SetBaseURL(cfg.APIURL).
		SetCommonBearerAuthToken(cfg.AccessToken).
		SetUserAgent(UserAgent).
		SetCommonHeader(HeaderVersion, version.Version).
		SetCommonRetryCount(3).
		SetCommonRetryFixedInterval(1 * time.Second).
		SetCommonErrorResult(&APIError{}).
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUnmarshal)

	client.OnBeforeRequest(func(_ *req.Client, r *req.Request) error {
		r.SetHeader(HeaderRequestID, uuid.NewString())
		return nil
	})
	client.OnAfterResponse(func(_ *req.Client, resp *req.Response) error {
		if resp.Response == nil || resp.Request == nil {
			return nil
		}
		logger.Debug("api call",
			"method", resp.Request.Method,
			"url", resp.Request.RawURL,
			"status", resp.GetStatusCode(),
			"request_id", resp.Request.Headers.Get(HeaderRequestID),
			"duration", resp.TotalTime(),
		)
		return nil
	})

	return &Client{
		client:  client,
		logger:  logger,
		Users:   newUsersAPI(client),
		Folders: newFoldersAPI(client),
		Files:   newFilesAPI(client, cfg.UploadURL),
	}, nil
}
