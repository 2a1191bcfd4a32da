package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectRows(t *testing.T, input string) []Row {
	t.Helper()
	var rows []Row
	for row := range StreamRows(context.Background(), strings.NewReader(input)) {
		rows = append(rows, row)
	}
	return rows
}

func TestStreamRowsStripsBOMAndTrimsHeaders(t *testing.T) {
	input := "\uFEFF返礼品ID, 返礼品名 \nG-001,みかん\n"

	rows := collectRows(t, input)
	require.Len(t, rows, 1)
	require.NoError(t, rows[0].Err)

	assert.Equal(t, "G-001", rows[0].Values["返礼品ID"])
	assert.Equal(t, "みかん", rows[0].Values["返礼品名"])
}

func TestStreamRowsSkipsBlankLines(t *testing.T) {
	input := "id,name\n\na,foo\n  , \nb,bar\n"

	rows := collectRows(t, input)
	require.Len(t, rows, 2)
	assert.Equal(t, "foo", rows[0].Values["name"])
	assert.Equal(t, "bar", rows[1].Values["name"])
}

func TestStreamRowsContinuesPastMalformedRecord(t *testing.T) {
	input := "id,name\na,\"good\"\nb,\"bad\"x,oops\nc,fine\n"

	rows := collectRows(t, input)
	require.Len(t, rows, 3)

	require.NoError(t, rows[0].Err)
	assert.Error(t, rows[1].Err)
	assert.Nil(t, rows[1].Values)
	require.NoError(t, rows[2].Err)
	assert.Equal(t, "fine", rows[2].Values["name"])
}

func TestStreamRowsShortRecordFillsEmpty(t *testing.T) {
	input := "id,name,category\na,foo\n"

	rows := collectRows(t, input)
	require.Len(t, rows, 1)
	require.NoError(t, rows[0].Err)

	v, ok := rows[0].Values["category"]
	assert.True(t, ok)
	assert.Equal(t, "", v)
}

func TestStreamRowsExtraCellsIgnored(t *testing.T) {
	input := "id,name\na,foo,unexpected,extra\n"

	rows := collectRows(t, input)
	require.Len(t, rows, 1)
	require.NoError(t, rows[0].Err)
	assert.Len(t, rows[0].Values, 2)
}

func TestStreamRowsRecordNumbersCountHeader(t *testing.T) {
	input := "id\na\nb\n"

	rows := collectRows(t, input)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Record)
	assert.Equal(t, 3, rows[1].Record)
}

func TestStreamRowsCancelClosesChannel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var sb strings.Builder
	sb.WriteString("id\n")
	for i := 0; i < 10000; i++ {
		sb.WriteString("row\n")
	}

	ch := StreamRows(ctx, strings.NewReader(sb.String()))
	<-ch
	cancel()

	// Drain until the producer notices the cancellation and closes.
	for range ch {
	}
}

func TestStreamRowsEmptyInput(t *testing.T) {
	rows := collectRows(t, "")
	assert.Empty(t, rows)
}
