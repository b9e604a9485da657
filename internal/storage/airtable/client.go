package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/magabrotheeeer/subbers/internal/storage"
)

// maxPageSize максимальный размер страницы списка записей Airtable.
const maxPageSize = 100

// record запись таблицы Airtable.
type record[F any] struct {
	ID          string `json:"id,omitempty"`
	CreatedTime string `json:"createdTime,omitempty"`
	Fields      F      `json:"fields"`
}

type listResponse[F any] struct {
	Records []record[F] `json:"records"`
	Offset  string      `json:"offset"`
}

type createRequest[F any] struct {
	Records  []record[F] `json:"records"`
	Typecast bool        `json:"typecast"`
}

type updateRequest struct {
	Fields   map[string]any `json:"fields"`
	Typecast bool           `json:"typecast"`
}

// APIError ошибка, возвращённая Airtable.
type APIError struct {
	Status  int
	Type    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("airtable: %d %s", e.Status, e.Type)
	}
	return fmt.Sprintf("airtable: %d %s: %s", e.Status, e.Type, e.Message)
}

// client REST-клиент одной базы Airtable.
type client struct {
	baseURL    string
	baseID     string
	apiKey     string
	httpClient *http.Client
}

func newClient(baseURL, baseID, apiKey string) *client {
	return &client{
		baseURL:    baseURL,
		baseID:     baseID,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *client) tableURL(table string, id string) string {
	u := c.baseURL + "/" + url.PathEscape(c.baseID) + "/" + url.PathEscape(table)
	if id != "" {
		u += "/" + url.PathEscape(id)
	}
	return u
}

func (c *client) newRequest(ctx context.Context, method, rawURL string, body any) (*http.Request, error) {
	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		buf = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// decodeError разбирает оба формата ошибок Airtable: {"error":"NOT_FOUND"} и
// {"error":{"type":"...","message":"..."}}. 404 оборачивает storage.ErrNotFound.
func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var payload struct {
		Error json.RawMessage `json:"error"`
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(body, &payload) == nil && len(payload.Error) > 0 {
		var s string
		var obj struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		}
		if json.Unmarshal(payload.Error, &s) == nil {
			apiErr.Type = s
		} else if json.Unmarshal(payload.Error, &obj) == nil {
			apiErr.Type, apiErr.Message = obj.Type, obj.Message
		}
	}
	if apiErr.Type == "" {
		apiErr.Type = http.StatusText(resp.StatusCode)
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %w", storage.ErrNotFound, apiErr)
	}
	return apiErr
}

// list читает все записи таблицы, удовлетворяющие formula, следуя offset.
// maxRecords > 0 ограничивает выборку.
func list[F any](ctx context.Context, c *client, table, formula string, maxRecords int) ([]record[F], error) {
	var all []record[F]
	offset := ""
	for {
		q := url.Values{}
		if formula != "" {
			q.Set("filterByFormula", formula)
		}
		q.Set("pageSize", strconv.Itoa(maxPageSize))
		if maxRecords > 0 {
			q.Set("maxRecords", strconv.Itoa(maxRecords))
		}
		if offset != "" {
			q.Set("offset", offset)
		}
		req, err := c.newRequest(ctx, http.MethodGet, c.tableURL(table, "")+"?"+q.Encode(), nil)
		if err != nil {
			return nil, err
		}
		var resp listResponse[F]
		if err := c.do(req, &resp); err != nil {
			return nil, err
		}
		all = append(all, resp.Records...)
		if resp.Offset == "" || (maxRecords > 0 && len(all) >= maxRecords) {
			return all, nil
		}
		offset = resp.Offset
	}
}

func get[F any](ctx context.Context, c *client, table, id string) (*record[F], error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.tableURL(table, id), nil)
	if err != nil {
		return nil, err
	}
	var rec record[F]
	if err := c.do(req, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func create[F any](ctx context.Context, c *client, table string, fields F) (*record[F], error) {
	body := createRequest[F]{Records: []record[F]{{Fields: fields}}, Typecast: true}
	req, err := c.newRequest(ctx, http.MethodPost, c.tableURL(table, ""), body)
	if err != nil {
		return nil, err
	}
	var resp listResponse[F]
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Records) == 0 {
		return nil, fmt.Errorf("airtable: create returned no records")
	}
	return &resp.Records[0], nil
}

// patch частично обновляет поля записи. Значение nil очищает поле.
func (c *client) patch(ctx context.Context, table, id string, fields map[string]any) error {
	req, err := c.newRequest(ctx, http.MethodPatch, c.tableURL(table, id), updateRequest{Fields: fields, Typecast: true})
	if err != nil {
		return err
	}
	return c.do(req, nil)
}
