package inicis

// SuccessResultCode INIAPI 성공 코드
const (
	SuccessResultCode = "00"
	AuthSuccessCode   = "0000" // 결제창 인증 성공
)

// PaymentSignature is returned to the frontend to open the payment window
type PaymentSignature struct {
	MID          string `json:"mid"`
	OrderID      string `json:"orderId"`
	Price        int64  `json:"price"`
	Timestamp    string `json:"timestamp"`
	Signature    string `json:"signature"`
	MKey         string `json:"mkey"`
	Verification string `json:"verification"`
}

// RefundRequest represents the request parameters for the refund API
type RefundRequest struct {
	Type      string `json:"type"`
	PayMethod string `json:"paymethod"`
	Timestamp string `json:"timestamp"`
	ClientIP  string `json:"clientIp"`
	MID       string `json:"mid"`
	TID       string `json:"tid"`
	Msg       string `json:"msg"`
	Price     *int64 `json:"price,omitempty"`
	HashData  string `json:"hashData"`
}

// RefundResponse represents the response from the refund API
type RefundResponse struct {
	ResultCode string `json:"resultCode"`
	ResultMsg  string `json:"resultMsg"`
	CancelDate string `json:"cancelDate,omitempty"`
	CancelTime string `json:"cancelTime,omitempty"`
	TID        string `json:"tid,omitempty"`
	PrtcTid    string `json:"prtcTid,omitempty"`
	PrtcPrice  string `json:"prtcPrice,omitempty"`
	PrtcRemain string `json:"prtcRemains,omitempty"`
}

// Success reports whether Inicis accepted the refund
func (r *RefundResponse) Success() bool {
	return r.ResultCode == SuccessResultCode
}

// ToMap flattens the response for storing next to the refund request
func (r *RefundResponse) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"resultCode": r.ResultCode,
		"resultMsg":  r.ResultMsg,
		"cancelDate": r.CancelDate,
		"cancelTime": r.CancelTime,
		"tid":        r.TID,
		"prtcTid":    r.PrtcTid,
		"prtcPrice":  r.PrtcPrice,
	}
}
