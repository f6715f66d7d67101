// Package airtable es un cliente mínimo de la REST API de Airtable para una
// única tabla: listar todos los registros (paginado) y borrarlos en lotes.
package airtable

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dropDatabas3/viajes/internal/observability/devlog"
	"github.com/dropDatabas3/viajes/internal/rate"
)

// DefaultBaseURL es la raíz de la API v0.
const DefaultBaseURL = "https://api.airtable.com/v0"

// maxBackoff acota la espera entre reintentos.
const maxBackoff = 60 * time.Second

// Observer recibe eventos de requests para métricas.
type Observer interface {
	ObserveRequest(method string, status int)
	ObserveRetry()
}

// Options configura el cliente.
type Options struct {
	BaseURL    string
	Token      string
	BaseID     string
	Table      string
	HTTPClient *http.Client
	// MaxRetries por request ante errores de red, 429 o 5xx.
	MaxRetries int
	Limiter    rate.Limiter
	Observer   Observer
	Log        devlog.Logger
	// Sleep permite a los tests evitar esperas reales.
	Sleep func(ctx context.Context, d time.Duration) error
}

type Client struct {
	endpoint   string
	token      string
	baseID     string
	http       *http.Client
	maxRetries int
	limiter    rate.Limiter
	obs        Observer
	log        devlog.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

func New(opts Options) (*Client, error) {
	if opts.Token == "" {
		return nil, errors.New("airtable: falta token")
	}
	if opts.BaseID == "" || opts.Table == "" {
		return nil, errors.New("airtable: base id y tabla son requeridos")
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	c := &Client{
		// La tabla puede tener espacios o caracteres especiales.
		endpoint:   base + "/" + url.PathEscape(opts.BaseID) + "/" + url.PathEscape(opts.Table),
		token:      opts.Token,
		baseID:     opts.BaseID,
		http:       opts.HTTPClient,
		maxRetries: opts.MaxRetries,
		limiter:    opts.Limiter,
		obs:        opts.Observer,
		log:        opts.Log,
		sleep:      opts.Sleep,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	if c.maxRetries <= 0 {
		c.maxRetries = 5
	}
	if c.log == nil {
		c.log = devlog.New(false, devlog.Discard)
	}
	if c.sleep == nil {
		c.sleep = sleepCtx
	}
	return c, nil
}

// URL retorna el endpoint resuelto de la tabla.
func (c *Client) URL() string { return c.endpoint }

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// backoff: min(2^attempt, 60) segundos.
func backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 6 {
		return maxBackoff
	}
	if d := time.Duration(1<<attempt) * time.Second; d < maxBackoff {
		return d
	}
	return maxBackoff
}

// retryAfter respeta el header Retry-After (segundos) si viene y es entero.
func retryAfter(h http.Header, attempt int) time.Duration {
	if v := strings.TrimSpace(h.Get("Retry-After")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return time.Duration(n) * time.Second
		}
	}
	return backoff(attempt)
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || (code >= 500 && code < 600)
}

// do ejecuta el request con rate limit y reintentos. Devuelve el status y
// body de la última respuesta no reintentable.
func (c *Client) do(ctx context.Context, method string, q url.Values) (int, []byte, error) {
	u := c.endpoint
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	attempt := 0
	for {
		if err := rate.Wait(ctx, c.limiter, "airtable:"+c.baseID); err != nil {
			return 0, nil, err
		}

		req, err := http.NewRequestWithContext(ctx, method, u, nil)
		if err != nil {
			return 0, nil, fmt.Errorf("airtable: request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return 0, nil, ctx.Err()
			}
			if c.obs != nil {
				c.obs.ObserveRequest(method, 0)
			}
			attempt++
			if attempt > c.maxRetries {
				return 0, nil, fmt.Errorf("airtable: network error after %d attempts: %w", c.maxRetries, err)
			}
			c.retrying(method, 0, attempt, err)
			if err := c.sleep(ctx, backoff(attempt)); err != nil {
				return 0, nil, err
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if c.obs != nil {
			c.obs.ObserveRequest(method, resp.StatusCode)
		}

		if retryableStatus(resp.StatusCode) {
			attempt++
			if attempt > c.maxRetries {
				return resp.StatusCode, body, fmt.Errorf("airtable: status %d after %d retries", resp.StatusCode, c.maxRetries)
			}
			c.retrying(method, resp.StatusCode, attempt, nil)
			if err := c.sleep(ctx, retryAfter(resp.Header, attempt)); err != nil {
				return 0, nil, err
			}
			continue
		}
		if readErr != nil {
			return resp.StatusCode, nil, fmt.Errorf("airtable: read body: %w", readErr)
		}
		return resp.StatusCode, body, nil
	}
}

func (c *Client) retrying(method string, status, attempt int, err error) {
	if c.obs != nil {
		c.obs.ObserveRetry()
	}
	if err != nil {
		c.log.Warn("airtable_retry", method, "attempt", attempt, "error", err.Error())
		return
	}
	c.log.Warn("airtable_retry", method, "attempt", attempt, "status", status)
}
