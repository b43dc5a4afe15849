package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportYear(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	_, err := ts.invoices.CreateInvoice(ctx, "tester", validRequest())
	require.NoError(t, err)

	content, err := ts.export.ExportYear(ctx, 2025)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(invoicesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "0001 - 2025", rows[1][0])
	assert.Equal(t, "Atlas Distribution", rows[1][2])

	lines, err := f.GetRows(linesSheet)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "Prestation", lines[1][1])
}

func TestExportEmptyYear(t *testing.T) {
	ts := newTestServices(t)

	content, err := ts.export.ExportYear(context.Background(), 1999)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(invoicesSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
