package portal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colegioelo/vagas/pkg/clients/browser"
	"github.com/colegioelo/vagas/pkg/clients/browser/browsertest"
)

func TestReportURL(t *testing.T) {
	cfg := testPortalConfig()
	nav := NewNavigator(&browsertest.Page{}, cfg, nil)

	assert.Equal(t,
		"https://siga.example.com/busca_central_relatorios/?relatorio=aluno_turma/resumo_vagas_por_turma",
		nav.ReportURL("https://siga.example.com/"))

	cfg.ReportPath = "relatorio"
	assert.Equal(t, "https://siga.example.com/relatorio", NewNavigator(nil, cfg, nil).ReportURL("https://siga.example.com"))
}

func TestOpenReport(t *testing.T) {
	page := &browsertest.Page{}
	nav := NewNavigator(page, testPortalConfig(), nil)

	require.NoError(t, nav.OpenReport(context.Background(), "https://bv.example.com"))
	assert.Equal(t, []string{nav.ReportURL("https://bv.example.com")}, page.Navigations)

	page.OnNavigate = func(string) error { return errors.New("net::ERR_TIMED_OUT") }
	assert.ErrorIs(t, nav.OpenReport(context.Background(), "https://bv.example.com"), ErrReportUnavailable)
}

func TestRunReportWaitsForControl(t *testing.T) {
	page := &browsertest.Page{}
	// The generate control is rendered after the view finishes loading.
	page.OnFindButton = func(call int) {
		if call == 3 {
			page.SetButtons("search CONSULTAR")
		}
	}
	nav := NewNavigator(page, testPortalConfig(), nil)

	require.NoError(t, nav.RunReport(context.Background()))
	assert.Equal(t, 3, page.ButtonCalls)
	assert.Equal(t, []string{"button:CONSULTAR"}, page.Clicks)
}

func TestRunReportControlMissing(t *testing.T) {
	page := &browsertest.Page{Buttons: []string{"LIMPAR"}}

	err := NewNavigator(page, testPortalConfig(), nil).RunReport(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReportUnavailable)
	assert.Empty(t, page.Clicks)
}

func TestRunReportClickFails(t *testing.T) {
	page := &browsertest.Page{Buttons: []string{"CONSULTAR"}}
	page.OnClickButton = func([]string) error { return browser.ErrNotFound }

	err := NewNavigator(page, testPortalConfig(), nil).RunReport(context.Background())

	assert.ErrorIs(t, err, ErrReportUnavailable)
}
