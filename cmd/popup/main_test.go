package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-title", "추석 이벤트", "-image", "https://cdn.dungjimarket.com/popups/a.png", "-days", "3", "-priority", "10"})
	require.NoError(t, err)

	now := time.Date(2025, 9, 1, 9, 0, 0, 0, time.Local)
	in := opts.input(now)

	assert.Equal(t, "추석 이벤트", in.Title)
	assert.Equal(t, 10, in.Priority)
	assert.True(t, in.IsActive)
	assert.True(t, in.ShowOnMobile)
	require.NotNil(t, in.EndDate)
	assert.Equal(t, now.AddDate(0, 0, 3), *in.EndDate)
}

func TestParseFlags_NoEndDate(t *testing.T) {
	opts, err := parseFlags([]string{"-title", "상시 공지", "-days", "0", "-inactive"})
	require.NoError(t, err)

	in := opts.input(time.Now())
	assert.Nil(t, in.EndDate)
	assert.False(t, in.IsActive)
}

func TestParseFlags_Errors(t *testing.T) {
	_, err := parseFlags([]string{"-content", "제목 없음"})
	assert.Error(t, err)

	_, err = parseFlags([]string{"-title", "x", "-days", "-1"})
	assert.Error(t, err)
}
