// Package remote talks to the back-office REST API that owns invoice lines.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/fiberdesk/internal/invoiceline/domain"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Config holds the remote API location and credentials.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client implements domain.LineStore over HTTP.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *zap.Logger
}

func New(cfg Config, log *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return NewWithHTTPClient(cfg, &http.Client{Timeout: timeout}, log)
}

func NewWithHTTPClient(cfg Config, httpClient *http.Client, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   strings.TrimSpace(cfg.Token),
		http:    httpClient,
		log:     log.Named("remote.lines"),
	}
}

type lineResponse struct {
	ID          *int64          `json:"id"`
	Product     *int64          `json:"product"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
}

func (r lineResponse) toLine() domain.Line {
	l := domain.Line{
		ID:              r.ID,
		Product:         r.Product,
		Description:     r.Description,
		Quantity:        r.Quantity,
		UnitPrice:       r.UnitPrice,
		DiscountPercent: r.Discount,
	}
	l.Recompute()
	return l
}

type pagedLines struct {
	Results []lineResponse `json:"results"`
}

func (c *Client) ListLines(ctx context.Context, invoiceID int64) ([]domain.Line, error) {
	body, err := c.do(ctx, http.MethodGet, linesPath(invoiceID), nil)
	if err != nil {
		return nil, err
	}

	var items []lineResponse
	if err := json.Unmarshal(body, &items); err != nil {
		var paged pagedLines
		if pagedErr := json.Unmarshal(body, &paged); pagedErr != nil {
			return nil, fmt.Errorf("decode lines of invoice %d: %w", invoiceID, err)
		}
		items = paged.Results
	}

	lines := make([]domain.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, item.toLine())
	}
	return lines, nil
}

func (c *Client) CreateLine(ctx context.Context, invoiceID int64, line domain.Line) (domain.Line, error) {
	payload := map[string]any{
		"quantity":   line.Quantity,
		"unit_price": line.UnitPrice,
	}
	if line.Product != nil {
		payload["product"] = *line.Product
	}
	if strings.TrimSpace(line.Description) != "" {
		payload["description"] = line.Description
	}
	if !line.DiscountPercent.IsZero() {
		payload["discount"] = line.DiscountPercent
	}

	body, err := c.do(ctx, http.MethodPost, linesPath(invoiceID), payload)
	if err != nil {
		return domain.Line{}, err
	}
	return decodeLine(body)
}

func (c *Client) UpdateLine(ctx context.Context, invoiceID, lineID int64, line domain.Line, fields []domain.Field) (domain.Line, error) {
	payload := make(map[string]any, len(fields))
	for _, f := range fields {
		switch f {
		case domain.FieldProduct:
			if line.Product == nil {
				payload[string(f)] = nil
			} else {
				payload[string(f)] = *line.Product
			}
		case domain.FieldDescription:
			payload[string(f)] = line.Description
		case domain.FieldQuantity:
			payload[string(f)] = line.Quantity
		case domain.FieldUnitPrice:
			payload[string(f)] = line.UnitPrice
		case domain.FieldDiscount:
			payload[string(f)] = line.DiscountPercent
		}
	}

	body, err := c.do(ctx, http.MethodPatch, linePath(invoiceID, lineID), payload)
	if err != nil {
		return domain.Line{}, err
	}
	return decodeLine(body)
}

func (c *Client) DeleteLine(ctx context.Context, invoiceID, lineID int64) error {
	_, err := c.do(ctx, http.MethodDelete, linePath(invoiceID, lineID), nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}

	c.log.Debug("remote request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &Error{Method: method, Path: path, StatusCode: resp.StatusCode, Body: respBody}
	}
	return respBody, nil
}

func decodeLine(body []byte) (domain.Line, error) {
	var item lineResponse
	if err := json.Unmarshal(body, &item); err != nil {
		return domain.Line{}, fmt.Errorf("decode line: %w", err)
	}
	return item.toLine(), nil
}

func linesPath(invoiceID int64) string {
	return fmt.Sprintf("/invoices/%d/lines/", invoiceID)
}

func linePath(invoiceID, lineID int64) string {
	return fmt.Sprintf("/invoices/%d/lines/%d/", invoiceID, lineID)
}
