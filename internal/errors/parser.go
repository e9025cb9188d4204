package errors

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo 에러 정보 구조
type ErrorInfo struct {
	Code    string // 에러 코드 (codes.go 참조)
	Message string // 사용자 친화적 메시지
	Status  int
}

type keywordRule struct {
	keywords []string
	info     ErrorInfo
}

// 중복 키 위반 시 컬럼/인덱스 이름으로 메시지를 고른다. 위에서부터 먼저 매칭된 규칙 사용.
var duplicateRules = []keywordRule{
	{[]string{"email"}, ErrorInfo{Code: AuthEmailAlreadyExists, Message: "이미 사용 중인 이메일입니다"}},
	{[]string{"nickname"}, ErrorInfo{Code: AuthNicknameExists, Message: "이미 사용 중인 닉네임입니다"}},
	{[]string{"username"}, ErrorInfo{Code: ResourceAlreadyExists, Message: "이미 사용 중인 아이디입니다"}},
	{[]string{"order_id"}, ErrorInfo{Code: ResourceAlreadyExists, Message: "이미 처리된 주문번호입니다"}},
	{[]string{"partner_code"}, ErrorInfo{Code: ResourceAlreadyExists, Message: "이미 사용 중인 파트너 코드입니다"}},
	{[]string{"used_reviews", "transaction_id"}, ErrorInfo{Code: UsedAlreadyReviewed, Message: "이미 리뷰를 작성하셨습니다"}},
	{[]string{"used_favorites"}, ErrorInfo{Code: ResourceAlreadyExists, Message: "이미 찜한 상품입니다"}},
	{[]string{"participations"}, ErrorInfo{Code: ResourceAlreadyExists, Message: "이미 참여한 공구입니다"}},
	{[]string{"bids"}, ErrorInfo{Code: ResourceAlreadyExists, Message: "이미 견적을 제출한 공구입니다"}},
	{[]string{"votes"}, ErrorInfo{Code: ResourceAlreadyExists, Message: "이미 투표하셨습니다"}},
}

var notFoundRules = []keywordRule{
	{[]string{"user", "사용자"}, ErrorInfo{Message: "사용자를 찾을 수 없습니다"}},
	{[]string{"offer", "제안"}, ErrorInfo{Message: "가격 제안을 찾을 수 없습니다"}},
	{[]string{"transaction", "거래"}, ErrorInfo{Message: "거래 정보를 찾을 수 없습니다"}},
	{[]string{"used", "item", "상품"}, ErrorInfo{Message: "상품을 찾을 수 없습니다"}},
	{[]string{"payment", "결제"}, ErrorInfo{Message: "결제 정보를 찾을 수 없습니다"}},
	{[]string{"refund", "환불"}, ErrorInfo{Message: "환불 요청을 찾을 수 없습니다"}},
	{[]string{"partner", "파트너"}, ErrorInfo{Message: "파트너 정보를 찾을 수 없습니다"}},
	{[]string{"groupbuy", "공구"}, ErrorInfo{Message: "공구를 찾을 수 없습니다"}},
	{[]string{"notice", "popup", "banner", "event", "공지"}, ErrorInfo{Message: "게시물을 찾을 수 없습니다"}},
	{[]string{"notification", "알림"}, ErrorInfo{Message: "알림을 찾을 수 없습니다"}},
}

func matchRule(rules []keywordRule, s string) (ErrorInfo, bool) {
	for _, r := range rules {
		for _, k := range r.keywords {
			if strings.Contains(s, k) {
				return r.info, true
			}
		}
	}
	return ErrorInfo{}, false
}

// ParseError 에러를 파싱하여 사용자 친화적인 메시지와 코드로 변환
// 보안상 민감한 정보는 숨기되, 사용자가 문제를 해결할 수 있는 정보 제공
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: "서버 오류가 발생했습니다", Status: http.StatusInternalServerError}
	}

	errLower := strings.ToLower(err.Error())
	ctxLower := strings.ToLower(context)

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		info, ok := matchRule(notFoundRules, ctxLower)
		if !ok {
			info.Message = "요청한 데이터를 찾을 수 없습니다"
		}
		info.Code = ResourceNotFound
		info.Status = http.StatusNotFound
		return info

	// postgres 23505 / sqlite UNIQUE constraint failed
	case strings.Contains(errLower, "duplicate key"), strings.Contains(errLower, "unique constraint"):
		info, ok := matchRule(duplicateRules, errLower)
		if !ok {
			info = ErrorInfo{Code: ResourceAlreadyExists, Message: "이미 존재하는 데이터입니다"}
		}
		info.Status = http.StatusConflict
		return info

	case strings.Contains(errLower, "foreign key constraint"):
		if strings.Contains(errLower, "still referenced") {
			return ErrorInfo{Code: ResourceConflict, Message: "연결된 데이터가 있어 삭제할 수 없습니다", Status: http.StatusConflict}
		}
		return ErrorInfo{Code: ResourceNotFound, Message: "참조하는 데이터를 찾을 수 없습니다", Status: http.StatusBadRequest}

	case strings.Contains(errLower, "not-null constraint"), strings.Contains(errLower, "not null constraint"):
		return ErrorInfo{Code: ValidationInvalidInput, Message: "필수 항목이 누락되었습니다", Status: http.StatusBadRequest}

	case strings.Contains(errLower, "check constraint"):
		return ErrorInfo{Code: ValidationInvalidInput, Message: "입력값이 유효하지 않습니다", Status: http.StatusBadRequest}

	case strings.Contains(errLower, "connection refused"),
		strings.Contains(errLower, "no such host"),
		strings.Contains(errLower, "timeout"):
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "외부 서비스 연결에 실패했습니다. 잠시 후 다시 시도해주세요",
			Status:  http.StatusBadGateway,
		}
	}

	return ErrorInfo{
		Code:    InternalServerError,
		Message: getDefaultErrorMessage(ctxLower),
		Status:  http.StatusInternalServerError,
	}
}

// getDefaultErrorMessage context에 따른 기본 에러 메시지
func getDefaultErrorMessage(context string) string {
	switch {
	case strings.Contains(context, "create"), strings.Contains(context, "등록"):
		return "등록 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
	case strings.Contains(context, "update"), strings.Contains(context, "수정"):
		return "수정 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
	case strings.Contains(context, "delete"), strings.Contains(context, "삭제"):
		return "삭제 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
	case strings.Contains(context, "payment"), strings.Contains(context, "결제"):
		return "결제 처리 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
	}
	return "서버 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
}

// ParseAndRespond 파싱 결과의 상태 코드로 바로 응답한다.
func ParseAndRespond(c interface{ JSON(int, interface{}) }, err error, context string) {
	info := ParseError(err, context)
	c.JSON(info.Status, ErrorResponse{
		Error:   info.Code,
		Message: info.Message,
	})
}
