package webhook

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/simaogato/herdledger-backend/internal/domain"
	"github.com/simaogato/herdledger-backend/internal/usecase/reconciliation"
)

// SaleNotifier posts every recorded sale, with its settlement split, to a webhook.
type SaleNotifier struct {
	httpClient     *resty.Client
	url            string
	currencyPlaces int32
}

// NewSaleNotifier builds a resty-backed notifier for the given endpoint.
func NewSaleNotifier(url string, timeout time.Duration, currencyPlaces int32) *SaleNotifier {
	restyClient := resty.New()
	restyClient.
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	return &SaleNotifier{
		httpClient:     restyClient,
		url:            url,
		currencyPlaces: currencyPlaces,
	}
}

// SalePayload is the JSON body sent for a recorded sale.
type SalePayload struct {
	Event       string `json:"event"`
	SaleID      string `json:"sale_id"`
	PartnerID   string `json:"partner_id"`
	Date        string `json:"date"`
	UnitPrice   string `json:"unit_price"`
	TotalWeight string `json:"total_weight"`
	TotalValue  string `json:"total_value"`
	Split60     string `json:"split_60"`
	Split40     string `json:"split_40"`
}

// SaleRecorded implements sale.Notifier.
func (n *SaleNotifier) SaleRecorded(ctx context.Context, sale domain.SaleRecord) error {
	split60, split40 := reconciliation.SplitRevenue(sale.TotalValue, n.currencyPlaces)

	payload := SalePayload{
		Event:       "sale.recorded",
		SaleID:      sale.ID.String(),
		PartnerID:   sale.PartnerID,
		Date:        sale.Date.Format(domain.DateLayout),
		UnitPrice:   sale.UnitPrice.String(),
		TotalWeight: sale.TotalWeight.String(),
		TotalValue:  sale.TotalValue.String(),
		Split60:     split60.String(),
		Split40:     split40.String(),
	}

	resp, err := n.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("post sale webhook: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("sale webhook error: status=%d, body=%s", resp.StatusCode(), resp.String())
	}

	return nil
}
