package main

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"

	"facture/internal/handler"
	"facture/internal/repository"
	"facture/internal/service"
	"facture/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func newServer(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	txm := repository.NewTransactionManager(db)
	auditRepo := repository.NewAuditRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)

	inventory := service.NewInventoryService(repository.NewProductRepository(db), repository.NewInventoryTxRepository(db), auditRepo, txm, nil, nil, zap.NewNop())
	clients := service.NewClientService(repository.NewClientRepository(db), invoiceRepo, auditRepo, txm, nil)

	r := gin.New()
	api := r.Group("")
	handler.NewClientHandler(clients).RegisterRoutes(api)
	handler.NewInventoryHandler(inventory).RegisterRoutes(api)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv.URL
}

// run executes facturectl and returns stdout and stderr.
func run(t *testing.T, server string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.Run(append([]string{"facturectl", "--server", server}, args...))
	return out.String(), errOut.String(), err
}

func TestClientsCommands(t *testing.T) {
	server := newServer(t)

	out, _, err := run(t, server, "clients", "add", "--name", "Sahara Négoce", "--ice", "000111222333444", "--city", "Rabat")
	require.NoError(t, err)
	assert.Contains(t, out, "Client Sahara Négoce créé avec succès")
	id := strings.TrimSpace(strings.Split(out, "\n")[0])

	_, errOut, err := run(t, server, "clients", "add", "--name", "Copie", "--ice", "000111222333444", "--city", "Rabat")
	require.Error(t, err)
	assert.NotEmpty(t, errOut)

	out, _, err = run(t, server, "clients", "update", id, "--city", "Salé")
	require.NoError(t, err)
	assert.Contains(t, out, "Client Sahara Négoce mis à jour")

	out, _, err = run(t, server, "clients", "search", "sahara")
	require.NoError(t, err)
	assert.Contains(t, out, "Salé")

	out, _, err = run(t, server, "clients", "rm", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Client supprimé")

	out, _, err = run(t, server, "clients", "search")
	require.NoError(t, err)
	assert.NotContains(t, out, "Sahara")
}

func TestProductsCommands(t *testing.T) {
	server := newServer(t)

	out, _, err := run(t, server, "products", "add", "--ref", "VIS-6", "--name", "Vis inox", "--price", "12", "--stock", "3", "--min-stock", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Produit VIS-6 créé avec succès")
	id := strings.TrimSpace(strings.Split(out, "\n")[0])

	_, _, err = run(t, server, "products", "add", "--ref", "VIS-7", "--name", "Vis", "--price", "douze")
	require.Error(t, err)

	out, _, err = run(t, server, "products", "update", id, "--name", "Vis inox 6mm")
	require.NoError(t, err)
	assert.Contains(t, out, "Produit VIS-6 mis à jour")

	out, _, err = run(t, server, "products", "list", "--search", "vis")
	require.NoError(t, err)
	assert.Contains(t, out, "Vis inox 6mm")
	assert.Contains(t, out, "bas")

	out, _, err = run(t, server, "products", "rm", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Produit supprimé")

	_, _, err = run(t, server, "products", "update", id, "--name", "x")
	require.Error(t, err)
}
