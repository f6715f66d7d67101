package airtable

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/remeh/sizedwaitgroup"
)

// DeleteBatchSize es el máximo de ids por DELETE que acepta Airtable.
const DeleteBatchSize = 10

// Record es un registro crudo de la tabla.
type Record struct {
	ID          string         `json:"id"`
	CreatedTime string         `json:"createdTime,omitempty"`
	Fields      map[string]any `json:"fields"`
}

// ErrNotFound: base o tabla inexistente (404).
var ErrNotFound = errors.New("airtable: not found")

// APIError es una respuesta de error de la API.
type APIError struct {
	Status  int
	Message string
	// Body es el JSON decodificado o el texto crudo de la respuesta.
	Body any
	Hint string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("airtable: API error (status %d)", e.Status)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Hint != "" {
		msg += ". " + e.Hint
	}
	return msg
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

type pageBody struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset"`
}

// List trae todos los registros siguiendo "offset" hasta la última página.
func (c *Client) List(ctx context.Context) ([]Record, error) {
	var all []Record
	offset := ""
	for {
		q := url.Values{}
		if offset != "" {
			q.Set("offset", offset)
		}
		page, err := c.page(ctx, q)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Records...)
		c.log.Trace("airtable_page", "records", len(page.Records), "total", len(all))
		if page.Offset == "" {
			return all, nil
		}
		offset = page.Offset
	}
}

// Ping pide un único registro para validar token, base y tabla.
func (c *Client) Ping(ctx context.Context) error {
	q := url.Values{}
	q.Set("pageSize", "1")
	q.Set("maxRecords", "1")
	_, err := c.page(ctx, q)
	return err
}

func (c *Client) page(ctx context.Context, q url.Values) (pageBody, error) {
	status, body, err := c.do(ctx, http.MethodGet, q)
	if err != nil {
		return pageBody{}, err
	}

	var data any
	if err := sonic.Unmarshal(body, &data); err != nil {
		return pageBody{}, fmt.Errorf("airtable: non-JSON response (status %d): %s", status, string(body))
	}
	obj, ok := data.(map[string]any)
	if !ok {
		return pageBody{}, fmt.Errorf("airtable: unexpected response shape (status %d): %s", status, string(body))
	}
	if raw, ok := obj["error"]; ok {
		apiErr := &APIError{Status: status, Message: errorMessage(raw), Body: data}
		if status == http.StatusNotFound {
			apiErr.Hint = "Check AIRTABLE_BASE_ID and AIRTABLE_TABLE_NAME. Resolved URL: " + c.endpoint
		}
		return pageBody{}, apiErr
	}
	if _, ok := obj["records"]; !ok {
		return pageBody{}, fmt.Errorf("airtable: unexpected response shape (status %d): %s", status, string(body))
	}

	var page pageBody
	if err := sonic.Unmarshal(body, &page); err != nil {
		return pageBody{}, fmt.Errorf("airtable: decode page: %w", err)
	}
	return page, nil
}

// errorMessage soporta {"error": "NOT_FOUND"} y {"error": {"type": ..., "message": ...}}.
func errorMessage(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case map[string]any:
		if m, ok := v["message"].(string); ok && m != "" {
			return m
		}
		if t, ok := v["type"].(string); ok && t != "" {
			return t
		}
		return fmt.Sprint(v)
	default:
		return fmt.Sprint(v)
	}
}

// Delete borra hasta DeleteBatchSize registros en un request.
func (c *Client) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) > DeleteBatchSize {
		return fmt.Errorf("airtable: delete acepta hasta %d ids, recibió %d", DeleteBatchSize, len(ids))
	}
	q := url.Values{}
	for _, id := range ids {
		q.Add("records[]", id)
	}
	status, body, err := c.do(ctx, http.MethodDelete, q)
	if err != nil {
		return err
	}
	switch status {
	case http.StatusOK, http.StatusAccepted, http.StatusNoContent:
		return nil
	}

	apiErr := &APIError{Status: status}
	var decoded any
	if err := sonic.Unmarshal(body, &decoded); err == nil {
		apiErr.Body = decoded
		if obj, ok := decoded.(map[string]any); ok {
			if raw, ok := obj["error"]; ok {
				apiErr.Message = errorMessage(raw)
			}
		}
	} else {
		apiErr.Body = strings.TrimSpace(string(body))
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		apiErr.Hint = "Check AIRTABLE_TOKEN permissions (needs data.records:delete) and that the token has access to the base."
	}
	return apiErr
}

// DeleteResult es el resultado de borrar un registro.
type DeleteResult struct {
	ID  string
	Err error
}

// DeleteAll borra ids en lotes de DeleteBatchSize con hasta workers lotes en
// paralelo. Devuelve un resultado por id en el orden recibido.
func (c *Client) DeleteAll(ctx context.Context, ids []string, workers int) []DeleteResult {
	if workers <= 0 {
		workers = 1
	}
	results := make([]DeleteResult, len(ids))
	for i, id := range ids {
		results[i].ID = id
	}

	// Cada goroutine escribe solo su rango de results.
	swg := sizedwaitgroup.New(workers)
	for start := 0; start < len(ids); start += DeleteBatchSize {
		end := start + DeleteBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		if err := swg.AddWithContext(ctx); err != nil {
			for i := start; i < len(ids); i++ {
				results[i].Err = err
			}
			break
		}
		go func(start, end int) {
			defer swg.Done()
			err := c.Delete(ctx, ids[start:end])
			for i := start; i < end; i++ {
				results[i].Err = err
			}
		}(start, end)
	}
	swg.Wait()
	return results
}
