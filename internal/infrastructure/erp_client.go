package infrastructure

import (
	"chatbot_erp/internal/entities"
	"chatbot_erp/internal/interfaces"
	"chatbot_erp/internal/logger"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// statusFallbackFields are tried when the configured status key is absent.
var statusFallbackFields = []string{"situacao", "descricao"}

// ERPClient queries a tenant's ERP for the status of a sale.
type ERPClient struct {
	client        *resty.Client
	routingHeader string
	statusField   string
	log           *logger.Logger
}

var _ interfaces.OrderStatusClient = (*ERPClient)(nil)

func NewERPClient(timeout time.Duration, routingHeader, statusField string, log *logger.Logger) *ERPClient {
	if statusField == "" {
		statusField = "status"
	}
	return &ERPClient{
		client:        resty.New().SetTimeout(timeout),
		routingHeader: routingHeader,
		statusField:   statusField,
		log:           log.WithModule("erp_client"),
	}
}

type saleResponse struct {
	Venda []map[string]any `json:"venda"`
}

// LookupOrder calls GET {base}/venda/{code}. An empty venda list yields
// interfaces.ErrOrderNotFound. The request is never retried.
func (c *ERPClient) LookupOrder(ctx context.Context, cfg entities.ERPConfig, code string) (*entities.OrderStatus, error) {
	endpoint := strings.TrimRight(cfg.BaseURL, "/") + "/venda/" + url.PathEscape(code)

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("X-Token", cfg.Token).
		SetHeader("Banco", c.routingHeader).
		SetHeader("Accept", "application/json").
		Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("request sale %s: %w", code, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("erp responded %d for sale %s", resp.StatusCode(), code)
	}

	var body saleResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("decode sale %s: %w", code, err)
	}
	if len(body.Venda) == 0 {
		return nil, interfaces.ErrOrderNotFound
	}

	status, ok := c.statusOf(body.Venda[0])
	if !ok {
		return nil, fmt.Errorf("sale %s has no status field", code)
	}
	c.log.Debug("Order status fetched", "code", code, "status", status)
	return &entities.OrderStatus{Code: code, Status: status}, nil
}

func (c *ERPClient) statusOf(sale map[string]any) (string, bool) {
	for _, key := range append([]string{c.statusField}, statusFallbackFields...) {
		v, ok := sale[key]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString {
			if s = strings.TrimSpace(s); s != "" {
				return s, true
			}
			continue
		}
		return fmt.Sprint(v), true
	}
	return "", false
}
