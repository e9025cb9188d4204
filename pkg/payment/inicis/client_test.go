package inicis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	client, err := NewClient(Config{
		MID:     TestMID,
		SignKey: TestSignKey,
		BaseURL: baseURL,
	})
	require.NoError(t, err)
	client.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return client
}

func TestNewClient_InvalidConfig(t *testing.T) {
	_, err := NewClient(Config{MID: TestMID})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestSignatures(t *testing.T) {
	ts := "1700000000000"

	assert.Equal(t, sha256Hex("oid=ORDER_1&price=59000&timestamp="+ts), Signature("ORDER_1", 59000, ts))
	assert.Equal(t, sha256Hex(TestSignKey), MKey(TestSignKey))
	assert.Equal(t,
		sha256Hex("oid=ORDER_1&price=59000&signKey="+TestSignKey+"&timestamp="+ts),
		Verification("ORDER_1", 59000, TestSignKey, ts),
	)
	assert.Len(t, Signature("ORDER_1", 59000, ts), 64)
}

func TestRefundHash(t *testing.T) {
	full := RefundHash("INIpayTest", "TID1", nil, "단순 변심")
	assert.Equal(t, sha512Hex("INIpayTestTID1단순 변심"), full)
	assert.Len(t, full, 128)

	price := int64(1990)
	partial := RefundHash("INIpayTest", "TID1", &price, "단순 변심")
	assert.Equal(t, sha512Hex("INIpayTestTID11990단순 변심"), partial)
	assert.NotEqual(t, full, partial)
}

func TestClient_Sign(t *testing.T) {
	client := newTestClient(t, "http://localhost")
	sig := client.Sign("ORDER_1", 1990)

	assert.Equal(t, TestMID, sig.MID)
	assert.Equal(t, "1700000000000", sig.Timestamp)
	assert.Equal(t, Signature("ORDER_1", 1990, "1700000000000"), sig.Signature)
	assert.Equal(t, MKey(TestSignKey), sig.MKey)
}

func TestClient_Refund(t *testing.T) {
	var gotPath string
	var gotReq RefundRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		if gotReq.TID == "BAD" {
			_, _ = w.Write([]byte(`{"resultCode":"01","resultMsg":"취소 불가 거래"}`))
			return
		}
		_, _ = w.Write([]byte(`{"resultCode":"00","resultMsg":"정상처리","tid":"` + gotReq.TID + `"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	t.Run("Full refund", func(t *testing.T) {
		resp, err := client.Refund(context.Background(), "TID1", "환불 요청", nil, "127.0.0.1")
		require.NoError(t, err)
		assert.True(t, resp.Success())
		assert.Equal(t, "/v2/pg/refund", gotPath)
		assert.Nil(t, gotReq.Price)
		assert.Equal(t, RefundHash(TestMID, "TID1", nil, "환불 요청"), gotReq.HashData)
	})

	t.Run("Partial refund", func(t *testing.T) {
		amount := int64(1990)
		_, err := client.Refund(context.Background(), "TID2", "부분 환불", &amount, "127.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, "/v2/pg/partialRefund", gotPath)
		require.NotNil(t, gotReq.Price)
		assert.Equal(t, amount, *gotReq.Price)
	})

	t.Run("Rejected by gateway", func(t *testing.T) {
		resp, err := client.Refund(context.Background(), "BAD", "환불", nil, "127.0.0.1")
		assert.ErrorIs(t, err, ErrRefundFailed)
		require.NotNil(t, resp)
		assert.Equal(t, "01", resp.ResultCode)
	})

	t.Run("Long message is truncated", func(t *testing.T) {
		_, err := client.Refund(context.Background(), "TID3", strings.Repeat("가", 150), nil, "")
		require.NoError(t, err)
		assert.Equal(t, 100, len([]rune(gotReq.Msg)))
	})

	t.Run("Missing tid", func(t *testing.T) {
		_, err := client.Refund(context.Background(), "", "환불", nil, "")
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})
}
