package service

import (
	"context"

	"techmart/internal/apperr"
	"techmart/internal/constants"
	"techmart/internal/model"
)

// ListingStore 挂牌存储
type ListingStore interface {
	GetByID(ctx context.Context, id string) (*model.Listing, error)
	MarkSold(ctx context.Context, id string) error
}

// GetTradableListing 获取可下单的挂牌。
// 不存在返回NOT_FOUND；审核未通过或已下架/已成交返回VALIDATION。
func GetTradableListing(ctx context.Context, store ListingStore, listingID string) (*model.Listing, error) {
	listing, err := store.GetByID(ctx, listingID)
	if err != nil {
		return nil, apperr.Wrap(err, "查询挂牌失败")
	}
	if listing == nil {
		return nil, apperr.New(apperr.NotFound, constants.ErrListingNotFound)
	}
	if !listing.Tradable() {
		return nil, apperr.New(apperr.Validation, constants.ErrListingNotTradable)
	}
	return listing, nil
}
