// Package casesapi is the HTTP client for the case backend used by the stage
// tracker: it lists referral candidates, posts ProgressEvents and reloads a
// case's stage data.
package casesapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/suashub/suashub/internal/app/system/metroline"
	"go.uber.org/zap"
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 4 << 10

// StatusError is returned for non-2xx responses. Its body is what the user
// sees inline.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("casesapi: status %d: %s", e.Code, e.Body)
}

// UserMessage returns the response body, or the status text when empty.
func (e *StatusError) UserMessage() string {
	if b := strings.TrimSpace(e.Body); b != "" {
		return b
	}
	return http.StatusText(e.Code)
}

// Client talks to {base}/encaminhamentos and {base}/casos.
type Client struct {
	base    string
	http    *http.Client
	log     *zap.Logger
	cookies []*http.Cookie
}

// New builds a client for base (e.g. http://localhost:8080/api). A nil
// httpClient gets a 10s timeout client.
func New(base string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: httpClient,
		log:  logger,
	}
}

// ForRequest returns a copy that forwards r's cookies so backend calls run
// as the signed-in user.
func (c *Client) ForRequest(r *http.Request) *Client {
	cp := *c
	cp.cookies = r.Cookies()
	return &cp
}

// Referrals lists the referrals of a case.
// GET {base}/encaminhamentos/?caso_id={id}
func (c *Client) Referrals(ctx context.Context, casoID int64) ([]metroline.Referral, error) {
	q := url.Values{"caso_id": {strconv.FormatInt(casoID, 10)}}
	var out []metroline.Referral
	if err := c.do(ctx, http.MethodGet, "/encaminhamentos/?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []metroline.Referral{}
	}
	return out, nil
}

// Register posts a ProgressEvent.
// POST {base}/casos/{casoId}/linha-metro/registrar
func (c *Client) Register(ctx context.Context, casoID int64, p metroline.Payload) error {
	if p.EncaminhamentosIDs == nil {
		p.EncaminhamentosIDs = []int64{}
	}
	path := "/casos/" + strconv.FormatInt(casoID, 10) + "/linha-metro/registrar"
	return c.do(ctx, http.MethodPost, path, p, nil)
}

// LinhaMetro reloads the stage data of a case.
// GET {base}/casos/{casoId}/linha-metro
func (c *Client) LinhaMetro(ctx context.Context, casoID int64) (metroline.LinhaMetro, error) {
	var out metroline.LinhaMetro
	path := "/casos/" + strconv.FormatInt(casoID, 10) + "/linha-metro"
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// SetEtapa moves the current-stage pointer of a case.
// POST {base}/casos/{casoId}/linha-metro/etapa
func (c *Client) SetEtapa(ctx context.Context, casoID int64, etapa string) error {
	path := "/casos/" + strconv.FormatInt(casoID, 10) + "/linha-metro/etapa"
	return c.do(ctx, http.MethodPost, path, map[string]string{"etapa": etapa}, nil)
}

// Registrar binds Register to one case as a metroline.Submitter.
func (c *Client) Registrar(casoID int64) metroline.Submitter {
	return metroline.SubmitFunc(func(ctx context.Context, p metroline.Payload) error {
		return c.Register(ctx, casoID, p)
	})
}

// ReferralSource binds Referrals to one case.
func (c *Client) ReferralSource(casoID int64) metroline.ReferralSource {
	return metroline.ReferralSourceFunc(func(ctx context.Context) ([]metroline.Referral, error) {
		return c.Referrals(ctx, casoID)
	})
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("casesapi: encode body: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return fmt.Errorf("casesapi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("casesapi request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return fmt.Errorf("casesapi: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.log.Warn("casesapi non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("casesapi: decode %s: %w", path, err)
	}
	return nil
}
