package solscan

import (
	"github.com/wnt/stakewatch/internal/models"
)

// PageMetadata is the optional pagination envelope on stake listing
// responses. The upstream does not always send it.
type PageMetadata struct {
	HasNextPage bool `json:"hasNextPage"`
	TotalItems  int  `json:"totalItems"`
}

// StakeAccountPage is one page of the stake account listing
type StakeAccountPage struct {
	Data       []models.StakeAccount `json:"data"`
	Metadata   *PageMetadata         `json:"metadata"`
	PageNumber int                   `json:"-"`
}

// HasNext reports whether another page should be requested. The upstream
// signals continuation inconsistently: when metadata is present its
// hasNextPage flag is authoritative; when it is absent, a full page
// implies more data and a partial or empty page means stop.
func (p *StakeAccountPage) HasNext(pageSize int) bool {
	if p.Metadata != nil {
		return p.Metadata.HasNextPage
	}
	return pageSize > 0 && len(p.Data) == pageSize
}

// portfolioResponse is the wallet portfolio payload; only the native
// balance is consumed.
type portfolioResponse struct {
	Data struct {
		NativeBalance struct {
			Amount uint64 `json:"amount"`
		} `json:"native_balance"`
	} `json:"data"`
}
