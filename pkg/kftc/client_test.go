package kftc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeOpenBanking(t *testing.T, tokenCalls *int32) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc(tokenPath, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(tokenCalls, 1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		assert.Equal(t, "oob", r.Form.Get("scope"))
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":7776000,"scope":"oob"}`))
	})
	mux.HandleFunc(realNamePath, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var req realNameRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.BankTranID, 20)
		assert.NotContains(t, req.AccountNum, "-")

		if req.AccountNum == "0000" {
			_, _ = w.Write([]byte(`{"rsp_code":"A0004","rsp_message":"계좌 없음"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(RealNameResult{
			RspCode:           SuccessRspCode,
			BankCodeStd:       req.BankCodeStd,
			AccountNum:        req.AccountNum,
			AccountHolderName: "홍길동",
		})
	})
	return httptest.NewServer(mux)
}

func TestClient_InquireRealName(t *testing.T) {
	var tokenCalls int32
	server := newFakeOpenBanking(t, &tokenCalls)
	defer server.Close()

	client := NewClient(server.URL, "id", "secret", "T991666190")
	assert.False(t, client.DevMode())

	result, err := client.InquireRealName(context.Background(), "088", "110-123-456789", "900101")
	require.NoError(t, err)
	assert.Equal(t, "홍길동", result.AccountHolderName)
	assert.Equal(t, "110123456789", result.AccountNum)

	// 토큰 재사용
	_, err = client.InquireRealName(context.Background(), "088", "110-123-456789", "900101")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls))

	_, err = client.InquireRealName(context.Background(), "088", "0000", "900101")
	assert.ErrorIs(t, err, ErrInquiryFailed)
}

func TestClient_VerifyHolder(t *testing.T) {
	var tokenCalls int32
	server := newFakeOpenBanking(t, &tokenCalls)
	defer server.Close()

	client := NewClient(server.URL, "id", "secret", "T991666190")

	_, err := client.VerifyHolder(context.Background(), "088", "110123456789", "홍 길동", "900101")
	assert.NoError(t, err)

	_, err = client.VerifyHolder(context.Background(), "088", "110123456789", "김철수", "900101")
	assert.ErrorIs(t, err, ErrNameMismatch)
}

func TestBankName(t *testing.T) {
	name, ok := BankName("090")
	assert.True(t, ok)
	assert.Equal(t, "카카오뱅크", name)

	_, ok = BankName("999")
	assert.False(t, ok)
}

func TestDevMode(t *testing.T) {
	assert.True(t, NewClient(TestBaseURL, "", "", "T991666190").DevMode())
}
