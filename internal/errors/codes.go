package errors

// 에러 코드 상수 정의
// 형식: CATEGORY_SPECIFIC_DETAIL
// 프론트엔드에서 이 코드를 기반으로 메시지를 매핑함

const (
	// ==================== 인증 (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // 로그인 필요
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // 잘못된 이메일/비밀번호
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"       // 토큰 만료
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"       // 잘못된 토큰
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"       // 토큰 폐기됨
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"        // 이메일 중복
	AuthNicknameExists     = "AUTH_NICKNAME_EXISTS"     // 닉네임 중복
	AuthAccountInactive    = "AUTH_ACCOUNT_INACTIVE"    // 비활성 계정
	AuthKakaoFailed        = "AUTH_KAKAO_FAILED"        // 카카오 로그인 실패

	// ==================== 인가/권한 (AUTHZ_) ====================
	AuthzForbidden    = "AUTHZ_FORBIDDEN"      // 접근 권한 없음
	AuthzRoleNotFound = "AUTHZ_ROLE_NOT_FOUND" // 권한 정보 없음
	AuthzSellerOnly   = "AUTHZ_SELLER_ONLY"    // 판매회원만 가능
	AuthzOwnerOnly    = "AUTHZ_OWNER_ONLY"     // 소유자만 가능

	// ==================== 검증 (VALIDATION_) ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"  // 잘못된 입력
	ValidationInvalidID     = "VALIDATION_INVALID_ID"     // 잘못된 ID
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT" // 잘못된 형식
	ValidationInvalidRange  = "VALIDATION_INVALID_RANGE"  // 범위 초과

	// ==================== 리소스 (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"      // 리소스 없음
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS" // 이미 존재
	ResourceConflict      = "RESOURCE_CONFLICT"       // 충돌

	// ==================== 인증번호/사업자 (VERIFY_) ====================
	VerifyCodeInvalid       = "VERIFY_CODE_INVALID"        // 잘못된 인증번호
	VerifyCodeExpired       = "VERIFY_CODE_EXPIRED"        // 인증번호 만료
	VerifyTooManyRequests   = "VERIFY_TOO_MANY_REQUESTS"   // 발송 횟수 초과
	VerifyPhoneInUse        = "VERIFY_PHONE_IN_USE"        // 다른 계정에서 인증된 번호
	VerifyBusinessInvalid   = "VERIFY_BUSINESS_INVALID"    // 유효하지 않은 사업자
	VerifyBankAccountFailed = "VERIFY_BANK_ACCOUNT_FAILED" // 계좌 실명 불일치

	// ==================== 중고거래 (USED_) ====================
	UsedListingLimit    = "USED_LISTING_LIMIT"    // 등록 한도 초과
	UsedPenaltyActive   = "USED_PENALTY_ACTIVE"   // 삭제 패널티 적용 중
	UsedItemTrading     = "USED_ITEM_TRADING"     // 거래중 상품
	UsedInvalidStatus   = "USED_INVALID_STATUS"   // 변경 불가 상태
	UsedAlreadyReviewed = "USED_ALREADY_REVIEWED" // 이미 리뷰 작성

	// ==================== 제안 (OFFER_) ====================
	OfferSelf        = "OFFER_SELF"         // 본인 상품 제안 불가
	OfferLimit       = "OFFER_LIMIT"        // 제안 횟수 초과
	OfferBelowMin    = "OFFER_BELOW_MIN"    // 최소 제안가 미만
	OfferAboveAsking = "OFFER_ABOVE_ASKING" // 판매가 초과
	OfferNotPending  = "OFFER_NOT_PENDING"  // 대기중 제안 아님

	// ==================== 거래 (TRADE_) ====================
	TradeInProgress       = "TRADE_IN_PROGRESS"     // 이미 진행중인 거래
	TradeAlreadyCompleted = "already_completed"     // 이미 완료된 거래
	TradeNotInProgress    = "TRADE_NOT_IN_PROGRESS" // 진행중 거래 아님

	// ==================== 견적 이용권 (TOKEN_) ====================
	TokenInsufficient = "TOKEN_INSUFFICIENT" // 이용권 부족
	TokenAlreadyUsed  = "TOKEN_ALREADY_USED" // 사용된 이용권 존재

	// ==================== 결제/환불 (PAYMENT_) ====================
	PaymentFailed         = "PAYMENT_FAILED"          // 결제 실패
	PaymentInvalidStatus  = "PAYMENT_INVALID_STATUS"  // 처리 불가 상태
	PaymentNotRefundable  = "PAYMENT_NOT_REFUNDABLE"  // 환불 불가
	PaymentRefundExists   = "PAYMENT_REFUND_EXISTS"   // 환불 요청 중복
	PaymentGatewayFailure = "PAYMENT_GATEWAY_FAILURE" // PG사 오류

	// ==================== 파트너 (PARTNER_) ====================
	PartnerNotFound       = "PARTNER_NOT_FOUND"       // 파트너 아님
	PartnerBankRequired   = "PARTNER_BANK_REQUIRED"   // 계좌 정보 필요
	PartnerSettlementOpen = "PARTNER_SETTLEMENT_OPEN" // 진행중 정산 존재
	PartnerBelowMinimum   = "PARTNER_BELOW_MINIMUM"   // 최소 정산금액 미달

	// ==================== 공구 (GROUPBUY_) ====================
	GroupBuyInvalidStatus = "GROUPBUY_INVALID_STATUS" // 단계 불일치
	GroupBuyFull          = "GROUPBUY_FULL"           // 인원 마감
	GroupBuyDuration      = "GROUPBUY_DURATION"       // 기간 초과

	// ==================== 알림/업로드 ====================
	NotificationNotFound  = "NOTIFICATION_NOT_FOUND"   // 알림 없음
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE" // 잘못된 파일 형식
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"    // 파일 너무 큼
	UploadFailed          = "UPLOAD_FAILED"            // 업로드 실패

	// ==================== 내부 오류 (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"   // 서버 오류
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR" // DB 오류
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"   // 외부 API 오류
	InternalConfigError   = "INTERNAL_CONFIG_ERROR"   // 설정 오류
	RateLimitExceeded     = "RATE_LIMIT_EXCEEDED"     // 요청 과다
)
