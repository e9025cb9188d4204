package kftc

import "errors"

const (
	TestBaseURL = "https://testapi.openbanking.or.kr"
	ProdBaseURL = "https://openapi.openbanking.or.kr"

	SuccessRspCode = "A0000"
)

var (
	ErrTokenFailed   = errors.New("kftc: failed to issue access token")
	ErrInquiryFailed = errors.New("kftc: real name inquiry failed")
	ErrNameMismatch  = errors.New("kftc: account holder name mismatch")
)

// bankNames 주요 은행 표준코드
var bankNames = map[string]string{
	"002": "산업은행",
	"003": "기업은행",
	"004": "국민은행",
	"007": "수협은행",
	"011": "농협은행",
	"020": "우리은행",
	"023": "SC제일은행",
	"027": "한국씨티은행",
	"031": "대구은행",
	"032": "부산은행",
	"034": "광주은행",
	"035": "제주은행",
	"037": "전북은행",
	"039": "경남은행",
	"045": "새마을금고",
	"048": "신협",
	"071": "우체국",
	"081": "하나은행",
	"088": "신한은행",
	"089": "케이뱅크",
	"090": "카카오뱅크",
	"092": "토스뱅크",
}

// BankName returns the display name of a standard bank code
func BankName(code string) (string, bool) {
	name, ok := bankNames[code]
	return name, ok
}

type tokenResponse struct {
	AccessToken   string `json:"access_token"`
	TokenType     string `json:"token_type"`
	ExpiresIn     int64  `json:"expires_in"`
	Scope         string `json:"scope"`
	ClientUseCode string `json:"client_use_code"`
}

type realNameRequest struct {
	BankTranID        string `json:"bank_tran_id"`
	BankCodeStd       string `json:"bank_code_std"`
	AccountNum        string `json:"account_num"`
	AccountHolderInfo string `json:"account_holder_info"`
	TranDtime         string `json:"tran_dtime"`
}

// RealNameResult 계좌 실명 조회 결과
type RealNameResult struct {
	APITranID         string `json:"api_tran_id"`
	RspCode           string `json:"rsp_code"`
	RspMessage        string `json:"rsp_message"`
	BankTranID        string `json:"bank_tran_id"`
	BankCodeStd       string `json:"bank_code_std"`
	BankName          string `json:"bank_name"`
	AccountNum        string `json:"account_num"`
	AccountHolderName string `json:"account_holder_name"`
}
