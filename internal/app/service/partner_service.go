package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dungji/dungji-market-backend/config"
	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/app/repository"
	"github.com/dungji/dungji-market-backend/pkg/kftc"
	"github.com/dungji/dungji-market-backend/pkg/logger"
	"github.com/dungji/dungji-market-backend/pkg/util"
	"github.com/skip2/go-qrcode"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

var (
	ErrPartnerNotFound         = errors.New("파트너 정보를 찾을 수 없습니다.")
	ErrPartnerInactive         = errors.New("비활성화된 파트너 계정입니다.")
	ErrPartnerAlreadyExists    = errors.New("이미 파트너로 등록된 회원입니다.")
	ErrPartnerBankInfoRequired = errors.New("정산을 위해서는 계좌 정보 등록이 필요합니다.")
	ErrSettlementInProgress    = errors.New("이미 처리중인 정산 요청이 있습니다.")
	ErrSettlementBelowMinimum  = errors.New("정산 가능 금액이 최소 정산 금액보다 적습니다.")
	ErrSettlementNotFound      = errors.New("정산 요청을 찾을 수 없습니다.")
	ErrSettlementNotOpen       = errors.New("처리할 수 없는 정산 상태입니다.")
	ErrBankFieldsRequired      = errors.New("필수 정보를 모두 입력해주세요.")
	ErrBankHolderInfoRequired  = errors.New("생년월일(YYMMDD) 또는 사업자등록번호를 입력해주세요.")
	ErrBankVerificationFailed  = errors.New("계좌 실명인증에 실패했습니다.")
	ErrInvalidExportFormat     = errors.New("지원하지 않는 내보내기 형식입니다.")
)

const (
	ExportFormatExcel = "excel"
	ExportFormatCSV   = "csv"

	exportSheetName = "추천회원데이터"
	statsMonths     = 12
)

// BankVerifier 금융결제원 실명조회 (*kftc.Client)
type BankVerifier interface {
	DevMode() bool
	VerifyHolder(ctx context.Context, bankCode, accountNum, holderName, holderInfo string) (*kftc.RealNameResult, error)
}

type PartnerDashboard struct {
	MonthlySignup       int64 `json:"monthly_signup"`
	ActiveSubscribers   int64 `json:"active_subscribers"`
	MonthlyRevenue      int64 `json:"monthly_revenue"`
	AvailableSettlement int64 `json:"available_settlement"`
}

type ReferralLink struct {
	PartnerCode string `json:"partner_code"`
	FullURL     string `json:"full_url"`
	ShortURL    string `json:"short_url"`
	QRCodeURL   string `json:"qr_code_url"`
}

type PeriodStat struct {
	Period            string `json:"period"`
	SignupCount       int64  `json:"signup_count"`
	Revenue           int64  `json:"revenue"`
	SubscriptionCount int64  `json:"subscription_count"`
}

type SettlementRequestInput struct {
	TaxInvoiceRequested bool   `json:"tax_invoice_requested"`
	Memo                string `json:"memo"`
}

type BankAccountInput struct {
	BankCode   string `json:"bank_code" binding:"required"`
	AccountNum string `json:"account_num" binding:"required"`
	HolderName string `json:"account_holder_name"`
	HolderInfo string `json:"account_holder_info"`
}

type ExportInput struct {
	Format string
	From   *time.Time
	To     *time.Time
	Status model.SubscriptionStatus
}

// ExportFile 다운로드 응답
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type PartnerService interface {
	PaymentRecorder
	CreatePartner(userID uint, partnerName string, commissionRate model.CommissionRate) (*model.Partner, error)
	GetPartner(userID uint) (*model.Partner, error)
	Dashboard(userID uint) (*PartnerDashboard, error)
	Referrals(userID uint, filter repository.ReferralFilter) ([]model.ReferralRecord, int64, error)
	ReferralLink(userID uint) (*ReferralLink, error)
	QRCode(partnerCode string, size int) ([]byte, error)
	Statistics(userID uint, period string) ([]PeriodStat, error)
	Export(userID uint, input ExportInput) (*ExportFile, error)

	RequestSettlement(userID uint, input SettlementRequestInput) (*model.PartnerSettlement, error)
	Settlements(userID uint, page, pageSize int) ([]model.PartnerSettlement, int64, error)
	AdminSettlements(status model.SettlementStatus, page, pageSize int) ([]model.PartnerSettlement, int64, error)
	CompleteSettlement(settlementID, adminID uint) (*model.PartnerSettlement, error)
	FailSettlement(settlementID, adminID uint, memo string) (*model.PartnerSettlement, error)

	RegisterBankAccount(ctx context.Context, userID uint, input BankAccountInput) (*model.PartnerBankAccount, error)
	VerifyBankAccount(ctx context.Context, userID uint, input BankAccountInput) (*kftc.RealNameResult, error)
	BankAccount(userID uint) (*model.PartnerBankAccount, error)
}

type partnerService struct {
	db          *gorm.DB
	partnerRepo repository.PartnerRepository
	userRepo    repository.UserRepository
	bank        BankVerifier
	notifier    Notifier
	policy      config.PartnerPolicy
	now         func() time.Time
}

func NewPartnerService(
	db *gorm.DB,
	partnerRepo repository.PartnerRepository,
	userRepo repository.UserRepository,
	bank BankVerifier,
	notifier Notifier,
	policy config.PartnerPolicy,
) PartnerService {
	return &partnerService{
		db:          db,
		partnerRepo: partnerRepo,
		userRepo:    userRepo,
		bank:        bank,
		notifier:    notifier,
		policy:      policy,
		now:         time.Now,
	}
}

func (s *partnerService) partnerOf(userID uint) (*model.Partner, error) {
	partner, err := s.partnerRepo.FindByUserID(userID)
	if err != nil {
		return nil, ErrPartnerNotFound
	}
	if !partner.IsActive {
		return nil, ErrPartnerInactive
	}
	return partner, nil
}

func (s *partnerService) newPartnerCode() (string, error) {
	for i := 0; i < 10; i++ {
		code := "PARTNER_" + util.GenerateCode(6)
		exists, err := s.partnerRepo.ExistsByCode(code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", errors.New("failed to generate unique partner code")
}

// CreatePartner 관리자가 회원을 파트너로 등록한다
func (s *partnerService) CreatePartner(userID uint, partnerName string, commissionRate model.CommissionRate) (*model.Partner, error) {
	if !commissionRate.Valid() {
		return nil, model.ErrInvalidCommissionRate
	}
	if _, err := s.userRepo.FindByID(userID); err != nil {
		return nil, ErrUserNotFound
	}
	if _, err := s.partnerRepo.FindByUserID(userID); err == nil {
		return nil, ErrPartnerAlreadyExists
	}

	code, err := s.newPartnerCode()
	if err != nil {
		return nil, err
	}
	if commissionRate == 0 {
		commissionRate = model.PercentRate(s.policy.DefaultCommissionRate)
	}

	partner := &model.Partner{
		UserID:                  userID,
		PartnerName:             strings.TrimSpace(partnerName),
		PartnerCode:             code,
		CommissionRate:          commissionRate,
		IsActive:                true,
		MinimumSettlementAmount: s.policy.MinimumSettlementAmount,
	}
	if err := s.partnerRepo.Create(partner); err != nil {
		return nil, err
	}

	logger.Info("Partner created", map[string]interface{}{
		"partner_id":   partner.ID,
		"user_id":      userID,
		"partner_code": code,
	})
	return partner, nil
}

func (s *partnerService) GetPartner(userID uint) (*model.Partner, error) {
	return s.partnerOf(userID)
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func (s *partnerService) Dashboard(userID uint) (*PartnerDashboard, error) {
	partner, err := s.partnerOf(userID)
	if err != nil {
		return nil, err
	}
	since := monthStart(s.now())

	signups, err := s.partnerRepo.CountReferralsSince(partner.ID, since)
	if err != nil {
		return nil, err
	}
	active, err := s.partnerRepo.CountActiveSubscribers(partner.ID)
	if err != nil {
		return nil, err
	}
	_, commission, err := s.partnerRepo.SumAmountsSince(partner.ID, since)
	if err != nil {
		return nil, err
	}
	available, err := s.partnerRepo.SumPendingCommission(partner.ID)
	if err != nil {
		return nil, err
	}

	return &PartnerDashboard{
		MonthlySignup:       signups,
		ActiveSubscribers:   active,
		MonthlyRevenue:      commission,
		AvailableSettlement: available,
	}, nil
}

func (s *partnerService) Referrals(userID uint, filter repository.ReferralFilter) ([]model.ReferralRecord, int64, error) {
	partner, err := s.partnerOf(userID)
	if err != nil {
		return nil, 0, err
	}
	return s.partnerRepo.FindReferrals(partner.ID, filter)
}

func (s *partnerService) referralURL(code string) string {
	return s.policy.ReferralBaseURL + "?ref=" + code
}

func (s *partnerService) ReferralLink(userID uint) (*ReferralLink, error) {
	partner, err := s.partnerOf(userID)
	if err != nil {
		return nil, err
	}
	return &ReferralLink{
		PartnerCode: partner.PartnerCode,
		FullURL:     s.referralURL(partner.PartnerCode),
		ShortURL:    "https://dng.kr/" + strings.ToLower(partner.PartnerCode),
		QRCodeURL:   "/api/v1/partners/qr-code/" + partner.PartnerCode,
	}, nil
}

// QRCode 추천 링크 PNG
func (s *partnerService) QRCode(partnerCode string, size int) ([]byte, error) {
	partner, err := s.partnerRepo.FindByCode(partnerCode)
	if err != nil {
		return nil, ErrPartnerNotFound
	}
	if size < 128 || size > 1024 {
		size = 256
	}
	png, err := qrcode.Encode(s.referralURL(partner.PartnerCode), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return png, nil
}

// Statistics 최근 12개월 월별 가입/수수료/구독 집계
func (s *partnerService) Statistics(userID uint, period string) ([]PeriodStat, error) {
	partner, err := s.partnerOf(userID)
	if err != nil {
		return nil, err
	}
	if period != "" && period != "month" {
		return []PeriodStat{}, nil
	}

	first := monthStart(s.now()).AddDate(0, -(statsMonths - 1), 0)
	records, err := s.partnerRepo.MonthlyStats(partner.ID, first)
	if err != nil {
		return nil, err
	}

	stats := make([]PeriodStat, statsMonths)
	index := make(map[string]int, statsMonths)
	for i := 0; i < statsMonths; i++ {
		key := first.AddDate(0, i, 0).Format("2006-01")
		stats[i] = PeriodStat{Period: key}
		index[key] = i
	}

	seen := make(map[string]map[uint]bool)
	for _, r := range records {
		key := r.JoinedDate.In(first.Location()).Format("2006-01")
		i, ok := index[key]
		if !ok {
			continue
		}
		if seen[key] == nil {
			seen[key] = make(map[uint]bool)
		}
		if !seen[key][r.ReferredUserID] {
			seen[key][r.ReferredUserID] = true
			stats[i].SignupCount++
			if r.SubscriptionStatus == model.SubscriptionActive {
				stats[i].SubscriptionCount++
			}
		}
		stats[i].Revenue += r.CommissionAmount
	}
	return stats, nil
}

func maskName(name string) string {
	runes := []rune(name)
	switch {
	case len(runes) <= 1:
		return name
	case len(runes) == 2:
		return string(runes[0]) + "○"
	default:
		return string(runes[0]) + strings.Repeat("○", len(runes)-2) + string(runes[len(runes)-1])
	}
}

func maskPhone(phone string) string {
	if len(phone) >= 11 {
		return phone[:3] + "-****-" + phone[len(phone)-4:]
	}
	return phone
}

func wonOrDash(v int64) string {
	if v == 0 {
		return "-"
	}
	return formatWon(v) + "원"
}

var exportHeaders = []string{"가입일자", "회원정보", "전화번호", "구독권", "구독금액", "견적티켓", "티켓금액", "총 결제", "예정수수료", "상태"}

var subscriptionLabels = map[model.SubscriptionStatus]string{
	model.SubscriptionActive:    "활성",
	model.SubscriptionCancelled: "해지",
	model.SubscriptionPaused:    "휴면",
}

func exportRow(r model.ReferralRecord) []string {
	name, phone := "", ""
	if r.ReferredUser != nil {
		name = firstNonEmpty(r.ReferredUser.Name, r.ReferredUser.Nickname)
		phone = r.ReferredUser.Phone
	}
	subscribed := "✗"
	if r.SubscriptionStatus == model.SubscriptionActive {
		subscribed = "✓"
	}
	tickets := "-"
	if r.TicketCount > 0 {
		tickets = fmt.Sprintf("%d개", r.TicketCount)
	}
	status, ok := subscriptionLabels[r.SubscriptionStatus]
	if !ok {
		status = string(r.SubscriptionStatus)
	}
	return []string{
		r.JoinedDate.Format("2006.01.02"),
		maskName(name),
		maskPhone(phone),
		subscribed,
		wonOrDash(r.SubscriptionAmount),
		tickets,
		wonOrDash(r.TicketAmount),
		formatWon(r.TotalAmount) + "원",
		formatWon(r.CommissionAmount) + "원",
		status,
	}
}

// Export 개인정보를 마스킹한 추천 회원 목록 (xlsx 또는 csv)
func (s *partnerService) Export(userID uint, input ExportInput) (*ExportFile, error) {
	format := input.Format
	if format == "" || format == "xlsx" {
		format = ExportFormatExcel
	}
	if format != ExportFormatExcel && format != ExportFormatCSV {
		return nil, ErrInvalidExportFormat
	}

	partner, err := s.partnerOf(userID)
	if err != nil {
		return nil, err
	}

	records, _, err := s.partnerRepo.FindReferrals(partner.ID, repository.ReferralFilter{
		SubscriptionStatus: input.Status,
		From:               input.From,
		To:                 input.To,
		PageSize:           -1,
	})
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, exportRow(r))
	}

	if format == ExportFormatCSV {
		data, err := writeCSV(rows)
		if err != nil {
			return nil, err
		}
		return &ExportFile{
			Filename:    partner.PartnerName + "_referral_data.csv",
			ContentType: "text/csv; charset=utf-8",
			Data:        data,
		}, nil
	}

	data, err := writeXLSX(rows)
	if err != nil {
		return nil, err
	}
	return &ExportFile{
		Filename:    partner.PartnerName + "_referral_data.xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        data,
	}, nil
}

func writeCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	// 엑셀에서 한글이 깨지지 않도록 BOM
	buf.WriteString("\ufeff")
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeaders); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeXLSX(rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheetName); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D7E4BD"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}

	for col, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(exportSheetName, cell, header); err != nil {
			return nil, err
		}
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	if err := f.SetCellStyle(exportSheetName, "A1", lastHeader, headerStyle); err != nil {
		return nil, err
	}

	for i, row := range rows {
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(exportSheetName, cell, value); err != nil {
				return nil, err
			}
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(exportHeaders))
	if err := f.SetColWidth(exportSheetName, "A", lastCol, 15); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// RequestSettlement 미정산 수수료 전액을 정산 요청한다
func (s *partnerService) RequestSettlement(userID uint, input SettlementRequestInput) (*model.PartnerSettlement, error) {
	partner, err := s.partnerOf(userID)
	if err != nil {
		return nil, err
	}
	if !partner.HasBankInfo() {
		return nil, ErrPartnerBankInfoRequired
	}

	var settlement *model.PartnerSettlement
	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.partnerRepo.WithTx(tx)

		open, err := repo.HasOpenSettlement(partner.ID)
		if err != nil {
			return err
		}
		if open {
			return ErrSettlementInProgress
		}

		available, err := repo.SumPendingCommission(partner.ID)
		if err != nil {
			return err
		}
		minimum := partner.MinimumSettlementAmount
		if minimum <= 0 {
			minimum = s.policy.MinimumSettlementAmount
		}
		if available < minimum {
			return fmt.Errorf("%w (최소 %s원, 가능 %s원)", ErrSettlementBelowMinimum, formatWon(minimum), formatWon(available))
		}

		settlement = &model.PartnerSettlement{
			PartnerID:           partner.ID,
			SettlementAmount:    available,
			TaxInvoiceRequested: input.TaxInvoiceRequested,
			Status:              model.SettlementPending,
			BankName:            partner.BankName,
			BankAccount:         partner.BankAccount,
			AccountHolder:       partner.AccountHolder,
			Memo:                strings.TrimSpace(input.Memo),
			RequestedAt:         s.now(),
		}
		if err := repo.CreateSettlement(settlement); err != nil {
			return err
		}
		_, err = repo.MarkPendingRequested(partner.ID, settlement.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Settlement requested", map[string]interface{}{
		"partner_id":    partner.ID,
		"settlement_id": settlement.ID,
		"amount":        settlement.SettlementAmount,
	})
	if s.notifier != nil {
		s.notifier.NotifyAdmins(model.NotificationSettlement,
			"새 정산 요청",
			fmt.Sprintf("%s 파트너가 %s원 정산을 요청했습니다.", partner.PartnerName, formatWon(settlement.SettlementAmount)),
			"/admin/settlements")
	}
	return settlement, nil
}

func (s *partnerService) Settlements(userID uint, page, pageSize int) ([]model.PartnerSettlement, int64, error) {
	partner, err := s.partnerOf(userID)
	if err != nil {
		return nil, 0, err
	}
	return s.partnerRepo.FindSettlements(&partner.ID, "", page, pageSize)
}

func (s *partnerService) AdminSettlements(status model.SettlementStatus, page, pageSize int) ([]model.PartnerSettlement, int64, error) {
	return s.partnerRepo.FindSettlements(nil, status, page, pageSize)
}

// closeSettlement 정산 행을 잠그고 상태와 연결된 추천 기록을 함께 바꾼다
func (s *partnerService) closeSettlement(settlementID, adminID uint, status model.SettlementStatus, records map[string]interface{}, memo string) (*model.PartnerSettlement, error) {
	var settlement *model.PartnerSettlement
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.partnerRepo.WithTx(tx)

		st, err := repo.FindSettlementForUpdate(settlementID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSettlementNotFound
			}
			return err
		}
		if st.Status != model.SettlementPending && st.Status != model.SettlementProcessing {
			return ErrSettlementNotOpen
		}

		now := s.now()
		st.Status = status
		st.ProcessedAt = &now
		st.ProcessedByID = &adminID
		if memo != "" {
			st.Memo = strings.TrimSpace(st.Memo + "\n" + memo)
		}
		if err := repo.SaveSettlement(st); err != nil {
			return err
		}
		if _, err := repo.UpdateReferralsBySettlement(st.ID, records); err != nil {
			return err
		}
		settlement = st
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Settlement processed", map[string]interface{}{
		"settlement_id": settlementID,
		"status":        status,
		"admin_id":      adminID,
	})
	s.notifySettlement(settlement)
	return settlement, nil
}

func (s *partnerService) CompleteSettlement(settlementID, adminID uint) (*model.PartnerSettlement, error) {
	return s.closeSettlement(settlementID, adminID, model.SettlementCompleted, map[string]interface{}{
		"settlement_status": model.ReferralSettlementCompleted,
		"settlement_date":   s.now(),
	}, "")
}

// FailSettlement 추천 기록을 다시 정산 대기로 돌린다
func (s *partnerService) FailSettlement(settlementID, adminID uint, memo string) (*model.PartnerSettlement, error) {
	return s.closeSettlement(settlementID, adminID, model.SettlementFailed, map[string]interface{}{
		"settlement_status": model.ReferralSettlementPending,
		"settlement_id":     nil,
	}, memo)
}

func (s *partnerService) notifySettlement(settlement *model.PartnerSettlement) {
	if s.notifier == nil {
		return
	}
	partner, err := s.partnerRepo.FindByID(settlement.PartnerID)
	if err != nil {
		return
	}
	title, content := "정산이 완료되었습니다", fmt.Sprintf("%s원이 등록된 계좌로 지급되었습니다.", formatWon(settlement.SettlementAmount))
	if settlement.Status == model.SettlementFailed {
		title, content = "정산이 실패했습니다", "계좌 정보를 확인한 뒤 다시 요청해주세요."
	}
	s.notifier.Notify(&model.Notification{
		UserID:  partner.UserID,
		Type:    model.NotificationSettlement,
		Title:   title,
		Content: content,
		Link:    "/partner/settlements",
	})
}

func (in BankAccountInput) normalized() BankAccountInput {
	in.BankCode = strings.TrimSpace(in.BankCode)
	in.AccountNum = strings.ReplaceAll(strings.TrimSpace(in.AccountNum), "-", "")
	in.HolderName = strings.TrimSpace(in.HolderName)
	in.HolderInfo = util.OnlyDigits(in.HolderInfo)
	return in
}

func (s *partnerService) verifyHolder(ctx context.Context, in BankAccountInput) (*kftc.RealNameResult, error) {
	if s.bank == nil || s.bank.DevMode() {
		logger.Warn("KFTC credentials missing, skipping real name inquiry", map[string]interface{}{
			"bank_code": in.BankCode,
		})
		return &kftc.RealNameResult{
			RspCode:           kftc.SuccessRspCode,
			BankCodeStd:       in.BankCode,
			AccountNum:        in.AccountNum,
			AccountHolderName: in.HolderName,
		}, nil
	}
	return s.bank.VerifyHolder(ctx, in.BankCode, in.AccountNum, in.HolderName, in.HolderInfo)
}

// RegisterBankAccount 실명인증 결과와 상관없이 계좌를 저장하고, 성공하면 정산 계좌로 반영한다
func (s *partnerService) RegisterBankAccount(ctx context.Context, userID uint, input BankAccountInput) (*model.PartnerBankAccount, error) {
	partner, err := s.partnerOf(userID)
	if err != nil {
		return nil, err
	}
	in := input.normalized()
	if in.BankCode == "" || in.AccountNum == "" || in.HolderName == "" {
		return nil, ErrBankFieldsRequired
	}
	if in.HolderInfo == "" {
		return nil, ErrBankHolderInfoRequired
	}

	bankName, ok := kftc.BankName(in.BankCode)
	if !ok {
		bankName = "기타"
	}

	account, err := s.partnerRepo.FindBankAccount(partner.ID)
	if err != nil {
		account = &model.PartnerBankAccount{PartnerID: partner.ID}
	}
	account.BankCode = in.BankCode
	account.BankName = bankName
	account.AccountNum = in.AccountNum
	account.AccountHolder = in.HolderName
	account.HolderInfo = in.HolderInfo
	account.VerifiedHolderName = ""
	account.FailureReason = ""

	result, verifyErr := s.verifyHolder(ctx, in)
	now := s.now()
	if verifyErr != nil {
		account.VerificationStatus = model.BankVerificationFailed
		account.VerifiedAt = nil
		account.FailureReason = verifyErr.Error()
		if result != nil {
			account.VerifiedHolderName = result.AccountHolderName
		}
	} else {
		account.VerificationStatus = model.BankVerificationVerified
		account.VerifiedAt = &now
		account.VerifiedHolderName = result.AccountHolderName
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.partnerRepo.WithTx(tx)
		if err := repo.SaveBankAccount(account); err != nil {
			return err
		}
		if verifyErr != nil {
			return nil
		}
		partner.BankName = bankName
		partner.BankAccount = in.AccountNum
		partner.AccountHolder = in.HolderName
		return repo.Save(partner)
	})
	if err != nil {
		return nil, err
	}

	if verifyErr != nil {
		logger.Warn("Bank account verification failed", map[string]interface{}{
			"partner_id": partner.ID,
			"bank_code":  in.BankCode,
			"error":      verifyErr.Error(),
		})
		return account, fmt.Errorf("%w: %v", ErrBankVerificationFailed, verifyErr)
	}

	logger.Info("Bank account verified", map[string]interface{}{
		"partner_id": partner.ID,
		"bank_code":  in.BankCode,
	})
	return account, nil
}

// VerifyBankAccount 저장 없이 실명인증만
func (s *partnerService) VerifyBankAccount(ctx context.Context, userID uint, input BankAccountInput) (*kftc.RealNameResult, error) {
	if _, err := s.partnerOf(userID); err != nil {
		return nil, err
	}
	in := input.normalized()
	if in.BankCode == "" || in.AccountNum == "" || in.HolderInfo == "" {
		return nil, ErrBankFieldsRequired
	}
	result, err := s.verifyHolder(ctx, in)
	if err != nil {
		return result, fmt.Errorf("%w: %v", ErrBankVerificationFailed, err)
	}
	return result, nil
}

func (s *partnerService) BankAccount(userID uint) (*model.PartnerBankAccount, error) {
	partner, err := s.partnerOf(userID)
	if err != nil {
		return nil, err
	}
	account, err := s.partnerRepo.FindBankAccount(partner.ID)
	if err != nil {
		return nil, ErrPartnerNotFound
	}
	return account, nil
}

// RecordPayment 추천으로 가입한 회원의 결제를 파트너 매출에 더한다.
// 이미 정산 요청/완료된 기록에는 더하지 않고 새 대기 기록을 만든다.
func (s *partnerService) RecordPayment(tx *gorm.DB, payment *model.Payment, grant *GrantResult) error {
	repo := s.partnerRepo.WithTx(tx)

	latest, err := repo.FindReferralByReferredUser(payment.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	partner, err := repo.FindByID(latest.PartnerID)
	if err != nil {
		return err
	}
	if !partner.IsActive {
		return nil
	}

	record := latest
	if latest.SettlementStatus != model.ReferralSettlementPending {
		record = &model.ReferralRecord{
			PartnerID:          latest.PartnerID,
			ReferredUserID:     latest.ReferredUserID,
			JoinedDate:         latest.JoinedDate,
			SubscriptionStatus: latest.SubscriptionStatus,
			SettlementStatus:   model.ReferralSettlementPending,
		}
	}

	if grant != nil && grant.TokenType == model.BidTokenUnlimited {
		now := s.now()
		record.SubscriptionAmount += payment.Amount
		record.SubscriptionStatus = model.SubscriptionActive
		if record.SubscriptionStartDate == nil {
			record.SubscriptionStartDate = &now
		}
		record.SubscriptionEndDate = grant.ExpiresAt
	} else {
		if grant != nil {
			record.TicketCount += grant.Quantity
		}
		record.TicketAmount += payment.Amount
	}

	record.CommissionAmount = 0
	record.ApplyDerived(partner.CommissionRate)

	if record.ID == 0 {
		err = repo.CreateReferral(record)
	} else {
		err = repo.SaveReferral(record)
	}
	if err != nil {
		return err
	}

	logger.Info("Referral payment recorded", map[string]interface{}{
		"partner_id": partner.ID,
		"user_id":    payment.UserID,
		"payment_id": payment.ID,
		"commission": record.CommissionAmount,
	})
	return nil
}
