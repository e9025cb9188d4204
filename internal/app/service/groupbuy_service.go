package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dungji/dungji-market-backend/config"
	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/app/repository"
	"github.com/dungji/dungji-market-backend/pkg/logger"
	lru "github.com/hashicorp/golang-lru"
	"gorm.io/gorm"
)

var (
	ErrCategoryNotFound            = errors.New("카테고리를 찾을 수 없습니다")
	ErrProductNotFound             = errors.New("상품을 찾을 수 없습니다")
	ErrGroupBuyNotFound            = errors.New("공구를 찾을 수 없습니다")
	ErrGroupBuyBuyerOnly           = errors.New("구매회원만 공구를 만들 수 있습니다")
	ErrGroupBuyInvalidPeriod       = errors.New("공구 기간이 올바르지 않습니다")
	ErrGroupBuyInvalidParticipants = errors.New("참여 인원 설정이 올바르지 않습니다")
	ErrGroupBuyClosed              = errors.New("참여할 수 없는 공구입니다")
	ErrGroupBuyFull                = errors.New("참여 인원이 가득 찼습니다")
	ErrGroupBuyAlreadyJoined       = errors.New("이미 참여한 공구입니다")
	ErrGroupBuyNotJoined           = errors.New("참여하지 않은 공구입니다")
	ErrGroupBuyLeaderCannotLeave   = errors.New("공구 개설자는 참여를 취소할 수 없습니다")
	ErrGroupBuyAlreadyFinished     = errors.New("이미 종료된 공구입니다")
	ErrBidSellerOnly               = errors.New("판매회원만 견적을 제안할 수 있습니다")
	ErrBidClosed                   = errors.New("견적을 제안할 수 없는 공구입니다")
	ErrBidInvalid                  = errors.New("견적 금액 또는 유형이 올바르지 않습니다")
	ErrVoteClosed                  = errors.New("투표 기간이 아닙니다")
	ErrVoteNotParticipant          = errors.New("공구 참여자만 투표할 수 있습니다")
	ErrVoteAlreadyCast             = errors.New("이미 투표했습니다")
	ErrVoteInvalidChoice           = errors.New("올바르지 않은 선택입니다")
)

const (
	catalogCacheSize   = 64
	categoriesCacheKey = "categories"
)

// RoomBroadcaster 공구 구독자에게 상태 변경 전송 (websocket.Hub)
type RoomBroadcaster interface {
	SendToRoom(roomID uint, message interface{}, senderID uint) error
}

// GroupBuyEvent websocket으로 보내는 공구 상태 변경
type GroupBuyEvent struct {
	Type                string               `json:"type"`
	GroupBuyID          uint                 `json:"groupbuy_id"`
	Status              model.GroupBuyStatus `json:"status"`
	CurrentParticipants int                  `json:"current_participants"`
}

type CreateGroupBuyInput struct {
	ProductID       uint       `json:"product_id" binding:"required"`
	Title           string     `json:"title" binding:"required"`
	Description     string     `json:"description"`
	Region          string     `json:"region"`
	RegionType      string     `json:"region_type"`
	MinParticipants int        `json:"min_participants"`
	MaxParticipants int        `json:"max_participants"`
	TargetPrice     *int64     `json:"target_price"`
	StartTime       *time.Time `json:"start_time"`
	EndTime         time.Time  `json:"end_time" binding:"required"`
}

type PlaceBidInput struct {
	BidType        model.BidType `json:"bid_type" binding:"required"`
	Amount         int64         `json:"amount" binding:"required"`
	ContractPeriod int           `json:"contract_period"`
	Message        string        `json:"message"`
}

// BidView 견적 목록. 관리자와 본인 외에는 가격 견적 금액을 가린다.
type BidView struct {
	ID             uint          `json:"id"`
	BidType        model.BidType `json:"bid_type"`
	Amount         *int64        `json:"amount,omitempty"`
	MaskedAmount   string        `json:"masked_amount,omitempty"`
	ContractPeriod int           `json:"contract_period,omitempty"`
	Message        string        `json:"message,omitempty"`
	IsSelected     bool          `json:"is_selected"`
	IsMine         bool          `json:"is_mine"`
	CreatedAt      time.Time     `json:"created_at"`
}

type GroupBuyDetail struct {
	*model.GroupBuy
	IsParticipant bool  `json:"is_participant"`
	BidCount      int   `json:"bid_count"`
	MyBidID       *uint `json:"my_bid_id,omitempty"`
}

// CatalogRow cmd/seed 엑셀 한 줄
type CatalogRow struct {
	Category     string
	CategoryType model.CategoryType
	Product      string
	ProductType  model.ProductType
	BasePrice    int64
	ImageURL     string
	Description  string
}

type AdvanceResult struct {
	Bidding            int `json:"bidding"`
	Voting             int `json:"voting"`
	SellerConfirmation int `json:"seller_confirmation"`
	Completed          int `json:"completed"`
	Cancelled          int `json:"cancelled"`
}

func (r AdvanceResult) Total() int {
	return r.Bidding + r.Voting + r.SellerConfirmation + r.Completed + r.Cancelled
}

type GroupBuyService interface {
	Categories() ([]model.Category, error)
	Products(categoryID *uint) ([]model.Product, error)
	ImportCatalog(rows []CatalogRow) (int, error)
	EnsureDefaultCategories() error

	Create(userID uint, input CreateGroupBuyInput) (*model.GroupBuy, error)
	List(filter repository.GroupBuyFilter) ([]model.GroupBuy, int64, error)
	Get(id uint, viewerID *uint) (*GroupBuyDetail, error)
	Join(userID, groupBuyID uint) (*model.GroupBuy, error)
	Leave(userID, groupBuyID uint) (*model.GroupBuy, error)

	PlaceBid(sellerID, groupBuyID uint, input PlaceBidInput) (*model.Bid, error)
	ListBids(groupBuyID, viewerID uint, viewerRole model.UserRole) ([]BidView, error)
	Vote(userID, groupBuyID uint, choice model.VoteChoice) (*model.Vote, error)

	AdvanceStatuses() (*AdvanceResult, error)
	ForceComplete(groupBuyID, adminID uint) (*model.GroupBuy, error)
}

type groupBuyService struct {
	db       *gorm.DB
	repo     repository.GroupBuyRepository
	userRepo repository.UserRepository
	tokens   BidTokenService
	notifier Notifier
	rooms    RoomBroadcaster
	policy   config.GroupBuyPolicy
	cache    *lru.Cache
	now      func() time.Time
}

// NewGroupBuyService notifier, rooms는 nil 허용
func NewGroupBuyService(
	db *gorm.DB,
	repo repository.GroupBuyRepository,
	userRepo repository.UserRepository,
	tokens BidTokenService,
	notifier Notifier,
	rooms RoomBroadcaster,
	policy config.GroupBuyPolicy,
) GroupBuyService {
	cache, _ := lru.New(catalogCacheSize)
	return &groupBuyService{
		db:       db,
		repo:     repo,
		userRepo: userRepo,
		tokens:   tokens,
		notifier: notifier,
		rooms:    rooms,
		policy:   policy,
		cache:    cache,
		now:      time.Now,
	}
}

var defaultCategories = []model.Category{
	{Name: "휴대폰", Slug: "phone", CategoryType: model.CategoryTelecom},
	{Name: "인터넷", Slug: "internet", CategoryType: model.CategoryTelecom, IsService: true},
	{Name: "인터넷+TV", Slug: "internet-tv", CategoryType: model.CategoryTelecom, IsService: true},
	{Name: "가전", Slug: "electronics", CategoryType: model.CategoryElectronics},
	{Name: "렌탈", Slug: "rental", CategoryType: model.CategoryRental, IsService: true},
	{Name: "구독", Slug: "subscription", CategoryType: model.CategorySubscription, IsService: true},
}

// Categories 카탈로그는 자주 바뀌지 않아 LRU에 둔다
func (s *groupBuyService) Categories() ([]model.Category, error) {
	if cached, ok := s.cache.Get(categoriesCacheKey); ok {
		return cached.([]model.Category), nil
	}
	categories, err := s.repo.FindCategories()
	if err != nil {
		return nil, err
	}
	s.cache.Add(categoriesCacheKey, categories)
	return categories, nil
}

func productsCacheKey(categoryID *uint) string {
	if categoryID == nil {
		return "products:all"
	}
	return fmt.Sprintf("products:%d", *categoryID)
}

func (s *groupBuyService) Products(categoryID *uint) ([]model.Product, error) {
	key := productsCacheKey(categoryID)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]model.Product), nil
	}
	products, err := s.repo.FindProducts(categoryID)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, products)
	return products, nil
}

func (s *groupBuyService) EnsureDefaultCategories() error {
	for _, c := range defaultCategories {
		if _, err := s.repo.FindCategoryByName(c.Name); err == nil {
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		category := c
		if err := s.repo.CreateCategory(&category); err != nil {
			return fmt.Errorf("create category %s: %w", c.Name, err)
		}
	}
	s.cache.Purge()
	return nil
}

// ImportCatalog 카테고리/상품 upsert. 반영된 상품 수를 돌려준다.
func (s *groupBuyService) ImportCatalog(rows []CatalogRow) (int, error) {
	count := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		categories := make(map[string]*model.Category)

		for i, row := range rows {
			categoryName := strings.TrimSpace(row.Category)
			productName := strings.TrimSpace(row.Product)
			if categoryName == "" || productName == "" {
				logger.Warn("Skipping catalog row without category or product", map[string]interface{}{
					"row": i + 1,
				})
				continue
			}

			category, ok := categories[categoryName]
			if !ok {
				found, err := repo.FindCategoryByName(categoryName)
				if errors.Is(err, gorm.ErrRecordNotFound) {
					categoryType := row.CategoryType
					if categoryType == "" {
						categoryType = model.CategoryNone
					}
					found = &model.Category{Name: categoryName, CategoryType: categoryType}
					err = repo.CreateCategory(found)
				}
				if err != nil {
					return fmt.Errorf("row %d: %w", i+1, err)
				}
				category = found
				categories[categoryName] = found
			}

			product, err := repo.FindProductByName(category.ID, productName)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				product = &model.Product{CategoryID: category.ID, Name: productName, IsAvailable: true}
			} else if err != nil {
				return fmt.Errorf("row %d: %w", i+1, err)
			}

			product.ProductType = row.ProductType
			if product.ProductType == "" {
				product.ProductType = model.ProductDevice
			}
			product.BasePrice = row.BasePrice
			if row.ImageURL != "" {
				product.ImageURL = row.ImageURL
			}
			if row.Description != "" {
				product.Description = row.Description
			}
			if err := repo.SaveProduct(product); err != nil {
				return fmt.Errorf("row %d: %w", i+1, err)
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.cache.Purge()
	logger.Info("Catalog imported", map[string]interface{}{
		"products": count,
	})
	return count, nil
}

func (s *groupBuyService) Create(userID uint, input CreateGroupBuyInput) (*model.GroupBuy, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if user.Role != model.RoleBuyer && user.Role != model.RoleAdmin {
		return nil, ErrGroupBuyBuyerOnly
	}

	product, err := s.repo.FindProductByID(input.ProductID)
	if err != nil || !product.IsAvailable {
		return nil, ErrProductNotFound
	}

	now := s.now()
	start := now
	if input.StartTime != nil && input.StartTime.After(now) {
		start = *input.StartTime
	}
	maxDuration := time.Duration(s.policy.MaxDurationHours) * time.Hour
	if !input.EndTime.After(start) || input.EndTime.Sub(start) > maxDuration {
		return nil, fmt.Errorf("%w: 최대 %d시간까지 설정할 수 있습니다", ErrGroupBuyInvalidPeriod, s.policy.MaxDurationHours)
	}

	minP, maxP := input.MinParticipants, input.MaxParticipants
	if minP <= 0 {
		minP = 1
	}
	if maxP <= 0 {
		maxP = 100
	}
	if maxP < minP {
		return nil, ErrGroupBuyInvalidParticipants
	}

	regionType := input.RegionType
	if regionType != "nationwide" {
		regionType = "local"
	}

	groupBuy := &model.GroupBuy{
		Title:               strings.TrimSpace(input.Title),
		Description:         input.Description,
		ProductID:           product.ID,
		CreatorID:           userID,
		Region:              strings.TrimSpace(input.Region),
		RegionType:          regionType,
		MinParticipants:     minP,
		MaxParticipants:     maxP,
		CurrentParticipants: 1,
		TargetPrice:         input.TargetPrice,
		Status:              model.GroupBuyRecruiting,
		StartTime:           start,
		EndTime:             input.EndTime,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(groupBuy); err != nil {
			return err
		}
		return repo.CreateParticipation(&model.Participation{
			UserID:     userID,
			GroupBuyID: groupBuy.ID,
			IsLeader:   true,
			JoinedAt:   now,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create group buy: %w", err)
	}

	logger.Info("Group buy created", map[string]interface{}{
		"groupbuy_id": groupBuy.ID,
		"creator_id":  userID,
		"product_id":  product.ID,
		"end_time":    groupBuy.EndTime,
	})
	groupBuy.Product = product
	return groupBuy, nil
}

func (s *groupBuyService) List(filter repository.GroupBuyFilter) ([]model.GroupBuy, int64, error) {
	return s.repo.FindAll(filter)
}

func (s *groupBuyService) Get(id uint, viewerID *uint) (*GroupBuyDetail, error) {
	groupBuy, err := s.repo.FindByID(id)
	if err != nil {
		return nil, ErrGroupBuyNotFound
	}
	bids, err := s.repo.FindBids(id)
	if err != nil {
		return nil, err
	}

	detail := &GroupBuyDetail{GroupBuy: groupBuy, BidCount: len(bids)}
	if viewerID != nil {
		if _, err := s.repo.FindParticipation(*viewerID, id); err == nil {
			detail.IsParticipant = true
		}
		for _, b := range bids {
			if b.SellerID == *viewerID {
				bidID := b.ID
				detail.MyBidID = &bidID
			}
		}
	}
	return detail, nil
}

// openForEntry 모집/견적 단계이면서 마감 전
func (s *groupBuyService) openForEntry(g *model.GroupBuy) bool {
	if g.Status != model.GroupBuyRecruiting && g.Status != model.GroupBuyBidding {
		return false
	}
	return s.now().Before(g.EndTime)
}

func (s *groupBuyService) Join(userID, groupBuyID uint) (*model.GroupBuy, error) {
	var groupBuy *model.GroupBuy
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		g, err := repo.FindByIDForUpdate(groupBuyID)
		if err != nil {
			return ErrGroupBuyNotFound
		}
		if !s.openForEntry(g) {
			return ErrGroupBuyClosed
		}
		if _, err := repo.FindParticipation(userID, groupBuyID); err == nil {
			return ErrGroupBuyAlreadyJoined
		}
		if g.CurrentParticipants >= g.MaxParticipants {
			return ErrGroupBuyFull
		}

		if err := repo.CreateParticipation(&model.Participation{
			UserID:     userID,
			GroupBuyID: groupBuyID,
			JoinedAt:   s.now(),
		}); err != nil {
			return err
		}
		g.CurrentParticipants++
		groupBuy = g
		return repo.AdjustParticipants(groupBuyID, 1)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Group buy joined", map[string]interface{}{
		"groupbuy_id":  groupBuyID,
		"user_id":      userID,
		"participants": groupBuy.CurrentParticipants,
	})
	s.broadcast(groupBuy)
	return groupBuy, nil
}

func (s *groupBuyService) Leave(userID, groupBuyID uint) (*model.GroupBuy, error) {
	var groupBuy *model.GroupBuy
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		g, err := repo.FindByIDForUpdate(groupBuyID)
		if err != nil {
			return ErrGroupBuyNotFound
		}
		if !s.openForEntry(g) {
			return ErrGroupBuyClosed
		}
		p, err := repo.FindParticipation(userID, groupBuyID)
		if err != nil {
			return ErrGroupBuyNotJoined
		}
		if p.IsLeader {
			return ErrGroupBuyLeaderCannotLeave
		}

		if err := repo.DeleteParticipation(p.ID); err != nil {
			return err
		}
		g.CurrentParticipants--
		groupBuy = g
		return repo.AdjustParticipants(groupBuyID, -1)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Group buy left", map[string]interface{}{
		"groupbuy_id": groupBuyID,
		"user_id":     userID,
	})
	s.broadcast(groupBuy)
	return groupBuy, nil
}

// PlaceBid 첫 견적에만 이용권을 차감하고, 이후에는 금액만 수정한다
func (s *groupBuyService) PlaceBid(sellerID, groupBuyID uint, input PlaceBidInput) (*model.Bid, error) {
	seller, err := s.userRepo.FindByID(sellerID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if seller.Role != model.RoleSeller {
		return nil, ErrBidSellerOnly
	}
	if input.Amount <= 0 || (input.BidType != model.BidTypePrice && input.BidType != model.BidTypeSupport) {
		return nil, ErrBidInvalid
	}

	var (
		bid     *model.Bid
		created bool
	)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		g, err := repo.FindByIDForUpdate(groupBuyID)
		if err != nil {
			return ErrGroupBuyNotFound
		}
		if !s.openForEntry(g) {
			return ErrBidClosed
		}

		existing, err := repo.FindBid(sellerID, groupBuyID)
		if err == nil {
			existing.BidType = input.BidType
			existing.Amount = input.Amount
			existing.ContractPeriod = input.ContractPeriod
			existing.Message = input.Message
			bid = existing
			return tx.Model(existing).Updates(map[string]interface{}{
				"bid_type":        input.BidType,
				"amount":          input.Amount,
				"contract_period": input.ContractPeriod,
				"message":         input.Message,
			}).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		bid = &model.Bid{
			SellerID:       sellerID,
			GroupBuyID:     groupBuyID,
			BidType:        input.BidType,
			Amount:         input.Amount,
			ContractPeriod: input.ContractPeriod,
			Message:        input.Message,
		}
		if err := repo.CreateBid(bid); err != nil {
			return err
		}
		token, err := s.tokens.Consume(tx, sellerID, bid.ID)
		if err != nil {
			return err
		}
		bid.BidTokenID = &token.ID
		created = true
		return tx.Model(bid).Update("bid_token_id", token.ID).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Bid placed", map[string]interface{}{
		"groupbuy_id": groupBuyID,
		"seller_id":   sellerID,
		"bid_id":      bid.ID,
		"created":     created,
	})
	return bid, nil
}

// maskAmount 첫 자리만 남긴다. 1,234,000 -> 1,***,***
func maskAmount(amount int64) string {
	formatted := formatWon(amount)
	var b strings.Builder
	seenDigit := false
	for _, r := range formatted {
		if r >= '0' && r <= '9' {
			if seenDigit {
				b.WriteRune('*')
				continue
			}
			seenDigit = true
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *groupBuyService) ListBids(groupBuyID, viewerID uint, viewerRole model.UserRole) ([]BidView, error) {
	if _, err := s.repo.FindByID(groupBuyID); err != nil {
		return nil, ErrGroupBuyNotFound
	}
	bids, err := s.repo.FindBids(groupBuyID)
	if err != nil {
		return nil, err
	}

	views := make([]BidView, 0, len(bids))
	for _, b := range bids {
		view := BidView{
			ID:             b.ID,
			BidType:        b.BidType,
			ContractPeriod: b.ContractPeriod,
			IsSelected:     b.IsSelected,
			IsMine:         b.SellerID == viewerID,
			CreatedAt:      b.CreatedAt,
		}
		visible := viewerRole == model.RoleAdmin || view.IsMine || b.BidType == model.BidTypeSupport || b.IsSelected
		if visible {
			amount := b.Amount
			view.Amount = &amount
			view.Message = b.Message
		} else {
			view.MaskedAmount = maskAmount(b.Amount)
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *groupBuyService) Vote(userID, groupBuyID uint, choice model.VoteChoice) (*model.Vote, error) {
	if choice != model.VoteConfirm && choice != model.VoteCancel {
		return nil, ErrVoteInvalidChoice
	}

	var vote *model.Vote
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		g, err := repo.FindByIDForUpdate(groupBuyID)
		if err != nil {
			return ErrGroupBuyNotFound
		}
		if g.Status != model.GroupBuyVoting || g.VotingEnd == nil || !s.now().Before(*g.VotingEnd) {
			return ErrVoteClosed
		}
		if _, err := repo.FindParticipation(userID, groupBuyID); err != nil {
			return ErrVoteNotParticipant
		}
		if _, err := repo.FindVote(userID, groupBuyID); err == nil {
			return ErrVoteAlreadyCast
		}

		vote = &model.Vote{ParticipantID: userID, GroupBuyID: groupBuyID, Choice: choice}
		return repo.CreateVote(vote)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Group buy vote cast", map[string]interface{}{
		"groupbuy_id": groupBuyID,
		"user_id":     userID,
		"choice":      choice,
	})
	return vote, nil
}

// bestBid 가격 견적은 최저가, 지원금 견적은 최고액. 가격 견적이 있으면 우선한다. 동률이면 먼저 낸 견적.
func bestBid(bids []model.Bid) *model.Bid {
	if len(bids) == 0 {
		return nil
	}
	sorted := make([]model.Bid, len(bids))
	copy(sorted, bids)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.BidType != b.BidType {
			return a.BidType == model.BidTypePrice
		}
		if a.BidType == model.BidTypePrice {
			return a.Amount < b.Amount
		}
		return a.Amount > b.Amount
	})
	return &sorted[0]
}

// transition 잠금 후 상태를 다시 확인하고 바꾼다. 상태가 이미 바뀌었으면 false.
func (s *groupBuyService) transition(id uint, from model.GroupBuyStatus, apply func(repo repository.GroupBuyRepository, g *model.GroupBuy) error) (*model.GroupBuy, bool, error) {
	var (
		groupBuy *model.GroupBuy
		changed  bool
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		g, err := repo.FindByIDForUpdate(id)
		if err != nil {
			return err
		}
		if g.Status != from {
			return nil
		}
		if err := apply(repo, g); err != nil {
			return err
		}
		if err := repo.Save(g); err != nil {
			return err
		}
		groupBuy = g
		changed = true
		return nil
	})
	return groupBuy, changed, err
}

// AdvanceStatuses 스케줄러가 주기적으로 호출한다
func (s *groupBuyService) AdvanceStatuses() (*AdvanceResult, error) {
	now := s.now()
	result := &AdvanceResult{}
	var changed []*model.GroupBuy

	record := func(g *model.GroupBuy, ok bool) {
		if !ok {
			return
		}
		changed = append(changed, g)
		switch g.Status {
		case model.GroupBuyBidding:
			result.Bidding++
		case model.GroupBuyVoting:
			result.Voting++
		case model.GroupBuySellerConfirmation:
			result.SellerConfirmation++
		case model.GroupBuyCompleted:
			result.Completed++
		case model.GroupBuyCancelled:
			result.Cancelled++
		}
	}

	// 1. 모집 -> 견적 (시작 시각 도래)
	due, err := s.repo.FindDue(model.GroupBuyRecruiting, "start_time", now)
	if err != nil {
		return nil, err
	}
	for _, d := range due {
		if !d.EndTime.After(now) {
			continue
		}
		g, ok, err := s.transition(d.ID, model.GroupBuyRecruiting, func(_ repository.GroupBuyRepository, g *model.GroupBuy) error {
			g.Status = model.GroupBuyBidding
			return nil
		})
		if err != nil {
			return nil, err
		}
		record(g, ok)
	}

	// 2. 모집/견적 마감 -> 투표 (최적 견적 선정), 견적이 없으면 취소
	for _, status := range []model.GroupBuyStatus{model.GroupBuyRecruiting, model.GroupBuyBidding} {
		due, err := s.repo.FindDue(status, "end_time", now)
		if err != nil {
			return nil, err
		}
		for _, d := range due {
			g, ok, err := s.transition(d.ID, status, func(repo repository.GroupBuyRepository, g *model.GroupBuy) error {
				bids, err := repo.FindBids(g.ID)
				if err != nil {
					return err
				}
				best := bestBid(bids)
				if best == nil {
					g.Status = model.GroupBuyCancelled
					return nil
				}
				if err := repo.MarkBidSelected(best.ID); err != nil {
					return err
				}
				votingEnd := g.EndTime.Add(time.Duration(s.policy.VotingHours) * time.Hour)
				g.Status = model.GroupBuyVoting
				g.WinningBidID = &best.ID
				g.VotingEnd = &votingEnd
				return nil
			})
			if err != nil {
				return nil, err
			}
			record(g, ok)
		}
	}

	// 3. 투표 마감 -> 확정 1표 이상이면 판매자 확정 대기, 아니면 취소
	due, err = s.repo.FindDue(model.GroupBuyVoting, "voting_end", now)
	if err != nil {
		return nil, err
	}
	for _, d := range due {
		g, ok, err := s.transition(d.ID, model.GroupBuyVoting, func(repo repository.GroupBuyRepository, g *model.GroupBuy) error {
			confirm, _, err := repo.CountVotes(g.ID)
			if err != nil {
				return err
			}
			if confirm > 0 {
				g.Status = model.GroupBuySellerConfirmation
			} else {
				g.Status = model.GroupBuyCancelled
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		record(g, ok)
	}

	// 4. 판매자 확정 대기 만료 -> 완료
	confirmWindow := time.Duration(s.policy.SellerConfirmationHours) * time.Hour
	due, err = s.repo.FindDue(model.GroupBuySellerConfirmation, "voting_end", now.Add(-confirmWindow))
	if err != nil {
		return nil, err
	}
	for _, d := range due {
		g, ok, err := s.transition(d.ID, model.GroupBuySellerConfirmation, func(_ repository.GroupBuyRepository, g *model.GroupBuy) error {
			g.Status = model.GroupBuyCompleted
			g.CompletedAt = &now
			return nil
		})
		if err != nil {
			return nil, err
		}
		record(g, ok)
	}

	for _, g := range changed {
		s.announce(g)
	}
	if result.Total() > 0 {
		logger.Info("Group buy statuses advanced", map[string]interface{}{
			"bidding":             result.Bidding,
			"voting":              result.Voting,
			"seller_confirmation": result.SellerConfirmation,
			"completed":           result.Completed,
			"cancelled":           result.Cancelled,
		})
	}
	return result, nil
}

func (s *groupBuyService) ForceComplete(groupBuyID, adminID uint) (*model.GroupBuy, error) {
	var groupBuy *model.GroupBuy
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		g, err := repo.FindByIDForUpdate(groupBuyID)
		if err != nil {
			return ErrGroupBuyNotFound
		}
		if g.Status == model.GroupBuyCompleted || g.Status == model.GroupBuyCancelled {
			return ErrGroupBuyAlreadyFinished
		}
		now := s.now()
		g.Status = model.GroupBuyCompleted
		g.CompletedAt = &now
		groupBuy = g
		return repo.Save(g)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Group buy force completed", map[string]interface{}{
		"groupbuy_id": groupBuyID,
		"admin_id":    adminID,
	})
	s.announce(groupBuy)
	return groupBuy, nil
}

func (s *groupBuyService) broadcast(g *model.GroupBuy) {
	if s.rooms == nil || g == nil {
		return
	}
	_ = s.rooms.SendToRoom(g.ID, GroupBuyEvent{
		Type:                string(model.NotificationGroupBuyStatus),
		GroupBuyID:          g.ID,
		Status:              g.Status,
		CurrentParticipants: g.CurrentParticipants,
	}, 0)
}

var groupBuyStatusLabels = map[model.GroupBuyStatus]string{
	model.GroupBuyBidding:            "견적 진행중",
	model.GroupBuyVoting:             "최종 선택(투표) 단계",
	model.GroupBuySellerConfirmation: "판매자 확정 대기",
	model.GroupBuyCompleted:          "완료",
	model.GroupBuyCancelled:          "취소",
}

// announce 상태 변경을 구독자에게 방송하고 참여자에게 알림을 남긴다
func (s *groupBuyService) announce(g *model.GroupBuy) {
	s.broadcast(g)
	if s.notifier == nil {
		return
	}
	label, ok := groupBuyStatusLabels[g.Status]
	if !ok {
		return
	}
	userIDs, err := s.repo.ParticipantIDs(g.ID)
	if err != nil {
		logger.Error("Failed to load group buy participants", err, map[string]interface{}{
			"groupbuy_id": g.ID,
		})
		return
	}
	groupBuyID := g.ID
	for _, userID := range userIDs {
		s.notifier.Notify(&model.Notification{
			UserID:            userID,
			Type:              model.NotificationGroupBuyStatus,
			Title:             "공구 상태 변경",
			Content:           fmt.Sprintf("'%s' 공구가 %s 상태가 되었습니다.", g.Title, label),
			Link:              fmt.Sprintf("/groupbuys/%d", g.ID),
			RelatedGroupBuyID: &groupBuyID,
		})
	}
}
