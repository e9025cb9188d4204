package service

import (
	"errors"
	"testing"
	"time"

	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/app/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPhoneInput() CreateUsedItemInput {
	return CreateUsedItemInput{
		ItemType:      model.UsedItemPhone,
		Title:         "갤럭시 S24 울트라",
		Price:         1_100_000,
		AcceptOffers:  true,
		MinOfferPrice: int64Ptr(900_000),
		Description:   "자급제 모델입니다. 케이스 끼고 사용했어요.",
		Region:        "경기 성남시",
		MeetingPlace:  "서현역",
		Images:        []string{"https://cdn.example.com/a.jpg"},
		Phone: &PhoneDetailInput{
			Brand:     "Samsung",
			Model:     "Galaxy S24 Ultra",
			Storage:   512,
			Condition: model.ConditionS,
		},
	}
}

func TestUsedService_CreateValidation(t *testing.T) {
	f := setupUsedFixture(t)

	tests := []struct {
		name   string
		mutate func(in *CreateUsedItemInput)
		field  string
	}{
		{name: "phone price over max", mutate: func(in *CreateUsedItemInput) { in.Price = 9_900_001 }, field: "price"},
		{name: "zero price", mutate: func(in *CreateUsedItemInput) { in.Price = 0 }, field: "price"},
		{name: "short description", mutate: func(in *CreateUsedItemInput) { in.Description = "짧아요" }, field: "description"},
		{name: "missing meeting place", mutate: func(in *CreateUsedItemInput) { in.MeetingPlace = " " }, field: "meeting_place"},
		{name: "min offer not below price", mutate: func(in *CreateUsedItemInput) { in.MinOfferPrice = int64Ptr(1_100_000) }, field: "min_offer_price"},
		{name: "bad condition", mutate: func(in *CreateUsedItemInput) { in.Phone.Condition = "Z" }, field: "condition"},
		{name: "missing detail", mutate: func(in *CreateUsedItemInput) { in.Phone = nil }, field: "phone_detail"},
		{name: "bad type", mutate: func(in *CreateUsedItemInput) { in.ItemType = "car" }, field: "item_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validPhoneInput()
			tt.mutate(&input)

			_, err := f.used.Create(f.seller.ID, input)
			require.Error(t, err)
			var verr *UsedValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestUsedService_CreateElectronicsPriceRange(t *testing.T) {
	f := setupUsedFixture(t)

	input := CreateUsedItemInput{
		ItemType:     model.UsedItemElectronics,
		Title:        "맥북 에어 M2",
		Price:        500,
		Description:  "배터리 사이클 120회, 풀박스",
		MeetingPlace: "판교역",
		Electronics: &ElectronicsDetailInput{
			Subcategory: "laptop",
			Brand:       "Apple",
			ModelName:   "MacBook Air M2",
			Condition:   model.ConditionA,
			ExtraSpecs:  map[string]interface{}{"ram": "16GB"},
		},
	}
	_, err := f.used.Create(f.seller.ID, input)
	var verr *UsedValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "price", verr.Field)

	input.Price = 1_200_000
	item, err := f.used.Create(f.seller.ID, input)
	require.NoError(t, err)
	require.NotNil(t, item.ElectronicsDetail)
	assert.Equal(t, "apple", item.ElectronicsDetail.Brand)
	assert.Nil(t, item.MinOfferPrice)
}

func TestUsedService_ListingLimit(t *testing.T) {
	f := setupUsedFixture(t)

	// fixture 상품 1개 + 4개 = 5개
	for i := 0; i < 4; i++ {
		_, err := f.used.Create(f.seller.ID, validPhoneInput())
		require.NoError(t, err)
	}

	limit, err := f.used.CheckLimit(f.seller.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), limit.ActiveCount)
	assert.Equal(t, 5, limit.Limit)
	assert.False(t, limit.CanRegister)

	_, err = f.used.Create(f.seller.ID, validPhoneInput())
	assert.ErrorIs(t, err, ErrUsedListingLimit)

	// 판매완료는 한도에서 빠진다
	require.NoError(t, f.db.Model(&model.UsedItem{}).Where("id = ?", f.item.ID).Update("status", model.UsedStatusSold).Error)
	_, err = f.used.Create(f.seller.ID, validPhoneInput())
	assert.NoError(t, err)
}

func TestUsedService_DestroyWithOffersAppliesPenalty(t *testing.T) {
	f := setupUsedFixture(t)

	made, err := f.offers.MakeOffer(f.item.ID, f.buyer.ID, int64Ptr(800_000), "")
	require.NoError(t, err)

	_, err = f.used.Destroy(f.item.ID, f.buyer.ID)
	assert.ErrorIs(t, err, ErrUsedNotOwner)

	result, err := f.used.Destroy(f.item.ID, f.seller.ID)
	require.NoError(t, err)
	assert.True(t, result.PenaltyApplied)
	require.NotNil(t, result.PenaltyEnd)
	assert.WithinDuration(t, time.Now().Add(6*time.Hour), *result.PenaltyEnd, time.Minute)
	assert.Contains(t, result.Message, "6시간")

	assert.Equal(t, model.UsedStatusDeleted, f.reloadItem(t).Status)

	var offer model.UsedOffer
	require.NoError(t, f.db.First(&offer, made.Offer.ID).Error)
	assert.Equal(t, model.OfferCancelled, offer.Status)

	limit, err := f.used.CheckLimit(f.seller.ID)
	require.NoError(t, err)
	assert.False(t, limit.CanRegister)
	assert.NotNil(t, limit.PenaltyEnd)

	_, err = f.used.Create(f.seller.ID, validPhoneInput())
	assert.ErrorIs(t, err, ErrUsedPenaltyActive)

	_, err = f.used.Get(f.item.ID)
	assert.ErrorIs(t, err, ErrUsedItemNotFound)
}

func TestUsedService_DestroyWithoutOffers(t *testing.T) {
	f := setupUsedFixture(t)

	result, err := f.used.Destroy(f.item.ID, f.seller.ID)
	require.NoError(t, err)
	assert.False(t, result.PenaltyApplied)

	limit, err := f.used.CheckLimit(f.seller.ID)
	require.NoError(t, err)
	assert.True(t, limit.CanRegister)
	assert.Nil(t, limit.PenaltyEnd)
}

func TestUsedService_DestroyWhileTrading(t *testing.T) {
	f := setupUsedFixture(t)
	startTrade(t, f)

	_, err := f.used.Destroy(f.item.ID, f.seller.ID)
	assert.ErrorIs(t, err, ErrUsedTradingDelete)

	_, err = f.used.Update(f.item.ID, f.seller.ID, UpdateUsedItemInput{Title: stringPtrForTest("새 제목")})
	assert.ErrorIs(t, err, ErrUsedNotEditable)
}

func TestUsedService_GetAndUpdate(t *testing.T) {
	f := setupUsedFixture(t)

	item, err := f.used.Get(f.item.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, item.ViewCount)

	_, err = f.used.Update(f.item.ID, f.buyer.ID, UpdateUsedItemInput{Price: int64Ptr(900_000)})
	assert.ErrorIs(t, err, ErrUsedNotOwner)

	updated, err := f.used.Update(f.item.ID, f.seller.ID, UpdateUsedItemInput{
		Price:         int64Ptr(950_000),
		MinOfferPrice: int64Ptr(800_000),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(950_000), updated.Price)

	reloaded := f.reloadItem(t)
	assert.Equal(t, int64(950_000), reloaded.Price)
	require.NotNil(t, reloaded.MinOfferPrice)
	assert.Equal(t, int64(800_000), *reloaded.MinOfferPrice)
}

func TestUsedService_ListAndMyList(t *testing.T) {
	f := setupUsedFixture(t)
	_, err := f.used.Create(f.seller.ID, validPhoneInput())
	require.NoError(t, err)

	items, total, err := f.used.List(repository.UsedItemFilter{Brand: "samsung"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "갤럭시 S24 울트라", items[0].Title)

	items, total, err = f.used.List(repository.UsedItemFilter{SortBy: repository.UsedSortPriceLow})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, int64(1_000_000), items[0].Price)

	mine, total, err := f.used.MyList(f.seller.ID, model.UsedStatusActive, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, mine, 2)
}

func TestUsedService_ToggleFavorite(t *testing.T) {
	f := setupUsedFixture(t)

	favorited, err := f.used.ToggleFavorite(f.buyer.ID, f.item.ID)
	require.NoError(t, err)
	assert.True(t, favorited)
	assert.Equal(t, 1, f.reloadItem(t).FavoriteCount)

	favs, err := f.used.MyFavorites(f.buyer.ID)
	require.NoError(t, err)
	require.Len(t, favs, 1)
	require.NotNil(t, favs[0].Item)
	assert.Equal(t, f.item.ID, favs[0].Item.ID)

	favorited, err = f.used.ToggleFavorite(f.buyer.ID, f.item.ID)
	require.NoError(t, err)
	assert.False(t, favorited)
	assert.Equal(t, 0, f.reloadItem(t).FavoriteCount)

	_, err = f.used.ToggleFavorite(f.buyer.ID, 9999)
	assert.ErrorIs(t, err, ErrUsedItemNotFound)
}

func TestUsedService_SuggestModels(t *testing.T) {
	f := setupUsedFixture(t)
	_, err := f.used.Create(f.seller.ID, validPhoneInput())
	require.NoError(t, err)

	suggestions, err := f.used.SuggestModels(model.UsedItemPhone, "iph15", 5)
	require.NoError(t, err)
	require.NotEmpty(t, suggestions)
	assert.Equal(t, "iPhone 15 Pro", suggestions[0])

	suggestions, err = f.used.SuggestModels(model.UsedItemPhone, "s24", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Galaxy S24 Ultra"}, suggestions)

	all, err := f.used.SuggestModels(model.UsedItemPhone, "", 5)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	none, err := f.used.SuggestModels(model.UsedItemElectronics, "mac", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func stringPtrForTest(v string) *string { return &v }
