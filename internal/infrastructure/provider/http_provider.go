package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"travel-search/internal/domain/search"
	"travel-search/internal/usecase"

	"github.com/rs/zerolog"
)

// HTTPProvider queries an upstream fare service at {baseURL}/{type}.
// The upstream may answer with a bare JSON array or {"data": [...]}.
type HTTPProvider struct {
	baseURL string
	kind    search.Type
	client  *http.Client
	logger  zerolog.Logger
}

type envelope struct {
	Data []json.RawMessage `json:"data"`
}

// NewHTTPProvider returns nil when baseURL is empty.
func NewHTTPProvider(baseURL string, kind search.Type, timeout time.Duration, logger zerolog.Logger) *HTTPProvider {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		kind:    kind,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (p *HTTPProvider) Search(ctx context.Context, q usecase.ProviderQuery) ([]search.Item, error) {
	if p == nil || p.client == nil {
		return nil, errors.New("nil provider client")
	}

	endpoint := p.baseURL + "/" + p.kind.String() + "?" + queryValues(q).Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > 512 {
			snippet = snippet[:512]
		}
		p.logger.Warn().Str("endpoint", endpoint).Int("status", resp.StatusCode).Str("body", snippet).Msg("[Provider] Upstream error")
		return nil, fmt.Errorf("%s provider failed: status=%d", p.kind, resp.StatusCode)
	}

	return decodeItems(body)
}

func decodeItems(body []byte) ([]search.Item, error) {
	body = bytes.TrimSpace(body)
	var raw []json.RawMessage
	if len(body) > 0 && body[0] == '[' {
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, err
		}
	} else {
		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, err
		}
		raw = env.Data
	}

	out := make([]search.Item, 0, len(raw))
	for _, r := range raw {
		out = append(out, search.Item(r))
	}
	return out, nil
}

func queryValues(q usecase.ProviderQuery) url.Values {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set("origin", q.Origin)
	set("destination", q.Destination)
	set("cityCode", q.City)
	set("departureDate", q.DepartureDate)
	set("returnDate", q.ReturnDate)
	set("checkInDate", q.CheckInDate)
	set("checkOutDate", q.CheckOutDate)
	if q.Adults > 0 {
		v.Set("adults", strconv.Itoa(q.Adults))
	}
	return v
}
