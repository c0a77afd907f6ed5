package api

import (
	"context"

	"github.com/cbmooners/dashboard/internal/model"
)

// Movers fetches a component endpoint returning {data: [...]} and
// normalizes the rows. limit <= 0 keeps every row.
func (c *Client) Movers(ctx context.Context, endpointURL string, window model.Window, limit int) ([]model.Mover, error) {
	var resp model.MoversResponse
	if err := c.FetchInto(ctx, endpointURL, &resp); err != nil {
		return nil, err
	}
	return model.Normalize(resp.Data, window, limit), nil
}
