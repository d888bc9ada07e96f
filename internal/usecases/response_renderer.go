package usecases

import (
	"chatbot_erp/internal/entities"
	"chatbot_erp/internal/interfaces"
	"chatbot_erp/internal/logger"
	"chatbot_erp/internal/metrics"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// Reply is a rendered bot answer. Images are file names, not URLs.
type Reply struct {
	Text         string
	Images       []string
	QuickReplies []entities.QuickReply
}

type ResponseRenderer struct {
	orders  interfaces.OrderStatusClient
	log     *logger.Logger
	metrics *metrics.Metrics
	pick    func(n int) int
}

func NewResponseRenderer(orders interfaces.OrderStatusClient, log *logger.Logger, m *metrics.Metrics) *ResponseRenderer {
	return &ResponseRenderer{
		orders:  orders,
		log:     log.WithModule("renderer"),
		metrics: m,
		pick:    rand.Intn,
	}
}

// Render never fails: lookup and decoding problems become reply text.
func (r *ResponseRenderer) Render(ctx context.Context, tenant *entities.Tenant, res Resolution, question string) Reply {
	if !res.Matched() {
		return Reply{Text: FallbackResponse}
	}

	tmpl := res.Intent.Template
	if tmpl == nil {
		tmpl, _ = DecodeLegacyTemplate(res.Intent.Response)
	}

	if res.Intent.Kind == entities.IntentOrderStatus {
		return Reply{Text: r.orderStatus(ctx, tenant, tmpl, question)}
	}
	return r.generic(tmpl)
}

func (r *ResponseRenderer) generic(tmpl *entities.ResponseTemplate) Reply {
	reply := Reply{
		Images:       tmpl.Images,
		QuickReplies: tmpl.QuickReplies,
	}

	var variants []string
	for _, v := range tmpl.Variants {
		if v = strings.TrimSpace(v); v != "" {
			variants = append(variants, v)
		}
	}

	switch {
	case len(variants) > 0:
		reply.Text = variants[r.pick(len(variants))]
	case len(reply.Images) > 0 || len(reply.QuickReplies) > 0:
		reply.Text = ""
	default:
		reply.Text = tmpl.Raw
	}
	return reply
}

func (r *ResponseRenderer) orderStatus(ctx context.Context, tenant *entities.Tenant, tmpl *entities.ResponseTemplate, question string) string {
	code, ok := ExtractOrderCode(question)
	if !ok {
		r.metrics.OrderLookupsTotal.WithLabelValues("missing_code").Inc()
		if tmpl.OrderStatus != nil && tmpl.OrderStatus.CodeNotFound != "" {
			return tmpl.OrderStatus.CodeNotFound
		}
		return msgOrderCodeMissing
	}

	if !tenant.HasOrderAPI() {
		r.metrics.OrderLookupsTotal.WithLabelValues("not_configured").Inc()
		r.log.Info("Order lookup skipped, tenant has no ERP settings", "client_id", tenant.ID)
		return msgOrderAPINotConfigured
	}

	start := time.Now()
	status, err := r.orders.LookupOrder(ctx, tenant.ERP, code)
	r.metrics.OrderLookupDuration.Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, interfaces.ErrOrderNotFound):
		r.metrics.OrderLookupsTotal.WithLabelValues("not_found").Inc()
		return fmt.Sprintf(msgOrderNotFound, code)
	case err != nil:
		r.metrics.OrderLookupsTotal.WithLabelValues("failure").Inc()
		r.log.WithError(err).Warn("Order lookup failed", "client_id", tenant.ID, "code", code)
		return msgOrderLookupFailed
	}

	r.metrics.OrderLookupsTotal.WithLabelValues("found").Inc()
	return fmt.Sprintf(msgOrderStatus, code, status.Status)
}
