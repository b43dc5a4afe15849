package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"facture/internal/draft"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type catalogStub struct {
	products []draft.Product
	clients  []draft.Client
}

func (s catalogStub) ListProducts(context.Context, string) ([]draft.Product, error) {
	return s.products, nil
}

func (s catalogStub) SearchClients(context.Context, string) ([]draft.Client, error) {
	return s.clients, nil
}

const sampleDraft = `
date: 14-03-2025
client:
  name: Atlas Distribution
  city: Casablanca
  ice: "001234567000089"
payment:
  method: effet
  city: Casablanca
  due_date: 14-04-2025
lines:
  - product: vis-6
    quantity: "10"
  - description: Livraison
    unit_price: "50"
`

func writeDraft(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "draft.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestApplyDraftFile(t *testing.T) {
	ctx := context.Background()
	vis := draft.Product{ID: uuid.New(), Reference: "VIS-6", Name: "Vis inox 6mm", PriceTTC: decimal.NewFromInt(12), Stock: 50}

	f, err := readDraftFile(writeDraft(t, sampleDraft))
	require.NoError(t, err)

	e := draft.New(draft.Deps{})
	require.NoError(t, f.apply(ctx, e, catalogStub{products: []draft.Product{vis}}))

	d := e.Snapshot()
	assert.Equal(t, "14-03-2025", d.Date)
	assert.Equal(t, "001234567000089", d.ClientICE)
	assert.Equal(t, draft.Effet{City: "Casablanca", DueDate: "14-04-2025"}, d.Payment)
	require.Len(t, d.Lines, 2)
	assert.Equal(t, vis.ID, d.Lines[0].ProductID)
	assert.Equal(t, "Vis inox 6mm", d.Lines[0].Description)
	assert.True(t, d.Lines[0].Total.Equal(decimal.NewFromInt(120)))
	assert.Equal(t, uuid.Nil, d.Lines[1].ProductID)
	assert.True(t, d.Lines[1].Total.Equal(decimal.NewFromInt(50)))
	assert.NoError(t, draft.Validate(d))
}

func TestApplyDraftFileErrors(t *testing.T) {
	ctx := context.Background()

	f, err := readDraftFile(writeDraft(t, "lines:\n  - product: NOPE\n"))
	require.NoError(t, err)
	assert.ErrorContains(t, f.apply(ctx, draft.New(draft.Deps{}), catalogStub{}), `no product with reference "NOPE"`)

	f, err = readDraftFile(writeDraft(t, "payment:\n  method: virement\n"))
	require.NoError(t, err)
	assert.ErrorContains(t, f.apply(ctx, draft.New(draft.Deps{}), catalogStub{}), "unknown payment method")

	_, err = readDraftFile(writeDraft(t, "lines: [oops"))
	assert.Error(t, err)
}

func TestApplyDraftFileReplacesLines(t *testing.T) {
	ctx := context.Background()
	e := draft.New(draft.Deps{})
	require.NoError(t, e.AddLine(ctx))
	require.NoError(t, e.AddLine(ctx))
	require.NoError(t, e.SetClient("Ancien", "Fès", "001234567000089"))

	f, err := readDraftFile(writeDraft(t, "client:\n  name: Nouveau\nlines:\n  - description: Conseil\n    unit_price: \"300\"\n"))
	require.NoError(t, err)
	require.NoError(t, f.apply(ctx, e, catalogStub{}))

	d := e.Snapshot()
	assert.Equal(t, "Nouveau", d.ClientName)
	assert.Equal(t, "Fès", d.ClientCity)
	require.Len(t, d.Lines, 1)
	assert.Equal(t, "Conseil", d.Lines[0].Description)
	assert.True(t, d.Lines[0].Total.Equal(decimal.NewFromInt(300)))
}

func TestApplyDraftFileResolvesClientByICE(t *testing.T) {
	ctx := context.Background()
	stub := catalogStub{clients: []draft.Client{
		{ID: uuid.New(), Name: "Atlas Bis", City: "Agadir", ICE: "001234567000090"},
		{ID: uuid.New(), Name: "Atlas Distribution", City: "Casablanca", ICE: "001234567000089"},
	}}

	f, err := readDraftFile(writeDraft(t, "client:\n  ice: \"001234567000089\"\npayment:\n  method: cheque\n  number: \"0042\"\n  bank: CIH\n"))
	require.NoError(t, err)
	e := draft.New(draft.Deps{})
	require.NoError(t, f.apply(ctx, e, stub))

	d := e.Snapshot()
	assert.Equal(t, "Atlas Distribution", d.ClientName)
	assert.Equal(t, "Casablanca", d.ClientCity)
	assert.Equal(t, draft.Cheque{Number: "0042", Bank: "CIH"}, d.Payment)

	f, err = readDraftFile(writeDraft(t, "client:\n  ice: \"999999999999999\"\n"))
	require.NoError(t, err)
	assert.ErrorContains(t, f.apply(ctx, draft.New(draft.Deps{}), stub), `no client with ICE "999999999999999"`)
}
