package platform

import (
	"context"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"itch-rewards/internal/model"
)

// maxHistoryPages bounds pagination against a misbehaving server.
const maxHistoryPages = 10000

// purchaseRow is a history row as sent by the storefront. Prices and
// tips may arrive as numbers or as text.
type purchaseRow struct {
	ObjectName   string `json:"object_name"`
	ProductPrice any    `json:"product_price"`
	Tip          any    `json:"tip"`
}

type purchasesResponse struct {
	Purchases []purchaseRow `json:"purchases"`
	NextPage  int           `json:"next_page"`
}

// Purchases walks every page of the purchase history.
func (c *Client) Purchases(ctx context.Context) ([]model.TransactionRecord, error) {
	var records []model.TransactionRecord

	page := 1
	for i := 0; i < maxHistoryPages && page > 0; i++ {
		var resp purchasesResponse
		path := "/api/purchases?page=" + strconv.Itoa(page)
		if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
			return nil, err
		}

		for _, row := range resp.Purchases {
			records = append(records, row.record())
		}

		if resp.NextPage <= page {
			break
		}
		page = resp.NextPage
	}

	return records, nil
}

// record converts a row the way the storefront's own reports do:
// unparsable prices count as zero and unparsable tips as no tip.
func (row purchaseRow) record() model.TransactionRecord {
	rec := model.TransactionRecord{
		ProductName: row.ObjectName,
		PriceCents:  cast.ToInt64(row.ProductPrice),
		TipAmount:   decimal.Zero,
	}

	if amount, err := decimal.NewFromString(cast.ToString(row.Tip)); err == nil {
		rec.TipAmount = amount
	}
	return rec
}
