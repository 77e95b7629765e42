package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	apperrors "github.com/shtamir/family-tv-dashboard/internal/errors"
)

// Sheet names of the family spreadsheet
const (
	SheetMessages = "Messages"
	SheetTodo     = "ToDo"
)

// Client reads ranges of a published spreadsheet through the visualization export
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient, baseURL: strings.TrimRight(baseURL, "/")}
}

type gvizResponse struct {
	Table struct {
		Rows []struct {
			C []*struct {
				V any `json:"v"`
			} `json:"c"`
		} `json:"rows"`
	} `json:"table"`
}

// Rows returns the cells of sheetName as strings. Empty cells are "".
func (c *Client) Rows(ctx context.Context, sheetID, sheetName string) ([][]string, error) {
	if sheetID == "" {
		return nil, apperrors.Missing("sheet id")
	}

	q := url.Values{}
	q.Set("tqx", "out:json")
	q.Set("sheet", sheetName)
	endpoint := fmt.Sprintf("%s/spreadsheets/d/%s/gviz/tq?%s", c.baseURL, url.PathEscape(sheetID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("[Rows] %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("[Rows] %s: %w", sheetName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("[Rows] %s: unexpected status %d", sheetName, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("[Rows] %s: %w", sheetName, err)
	}
	return parse(body)
}

// parse strips the JSONP wrapper "google.visualization.Query.setResponse(...);"
func parse(body []byte) ([][]string, error) {
	text := string(body)
	start := strings.Index(text, "(")
	end := strings.LastIndex(text, ")")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("[Rows] unexpected response format")
	}

	var payload gvizResponse
	if err := json.Unmarshal([]byte(text[start+1:end]), &payload); err != nil {
		return nil, fmt.Errorf("[Rows] decode: %w", err)
	}

	rows := make([][]string, 0, len(payload.Table.Rows))
	for _, row := range payload.Table.Rows {
		cells := make([]string, len(row.C))
		for i, cell := range row.C {
			if cell != nil {
				cells[i] = cellString(cell.V)
			}
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func cellString(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		if !value {
			return ""
		}
		return "true"
	default:
		return fmt.Sprint(value)
	}
}

// FirstColumn keeps the first cell of each row, skipping blank rows
func FirstColumn(rows [][]string) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) > 0 && strings.TrimSpace(row[0]) != "" {
			out = append(out, row[0])
		}
	}
	return out
}
