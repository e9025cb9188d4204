package main

import (
	"strings"
	"testing"

	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func catalogFile(t *testing.T, rows [][]interface{}) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { f.Close() })

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cellName, &row))
	}
	return f
}

func TestReadCatalog(t *testing.T) {
	f := catalogFile(t, [][]interface{}{
		{"카테고리", "카테고리 유형", "상품명", "상품유형", "출고가"},
		{"휴대폰", "telecom", "갤럭시 S24", "device", "1,155,000"},
		{"인터넷", "Telecom", "KT 기가 인터넷", "service", ""},
		{"", "", "이름 없는 카테고리", "", ""},
		{"가전", "", "LG 냉장고", "", "가격문의"},
	})

	rows, skipped, err := readCatalog(f, "")
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	require.Len(t, rows, 2)

	assert.Equal(t, "갤럭시 S24", rows[0].Product)
	assert.Equal(t, model.CategoryTelecom, rows[0].CategoryType)
	assert.Equal(t, int64(1_155_000), rows[0].BasePrice)
	assert.Equal(t, model.ProductService, rows[1].ProductType)
	assert.Equal(t, model.CategoryTelecom, rows[1].CategoryType)
	assert.Zero(t, rows[1].BasePrice)
}

func TestReadCatalog_MissingColumn(t *testing.T) {
	f := catalogFile(t, [][]interface{}{
		{"상품명", "출고가"},
		{"갤럭시 S24", "1155000"},
	})

	_, _, err := readCatalog(f, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "category")
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{"1155000", 1_155_000, false},
		{"1,155,000원", 1_155_000, false},
		{"", 0, false},
		{"-100", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parsePrice(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfirm(t *testing.T) {
	assert.True(t, confirm(strings.NewReader("yes\n")))
	assert.True(t, confirm(strings.NewReader("Y\n")))
	assert.False(t, confirm(strings.NewReader("no\n")))
}
