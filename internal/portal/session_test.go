package portal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colegioelo/vagas/internal/config"
	"github.com/colegioelo/vagas/internal/domain/models"
	"github.com/colegioelo/vagas/pkg/clients/browser"
	"github.com/colegioelo/vagas/pkg/clients/browser/browsertest"
)

func testPortalConfig() config.PortalConfig {
	return config.PortalConfig{
		LoginURL:        "https://siga.example.com/login/",
		InstitutionCode: "ELO",
		Username:        "reports",
		Password:        "secret",
		Period:          "2026",
		Units:           config.DefaultUnits,
		ReportPath:      "/busca_central_relatorios/?relatorio=aluno_turma/resumo_vagas_por_turma",
		LoginTimeout:    20 * time.Millisecond,
		ReportTimeout:   20 * time.Millisecond,
		PollInterval:    time.Millisecond,
	}
}

// loginPage redirects to the unit-selection screen a few polls after submit.
func loginPage() *browsertest.Page {
	page := &browsertest.Page{Buttons: []string{"ENTRAR"}}
	page.OnClickButton = func(fragments []string) error {
		if fragments[0] == "ENTRAR" {
			page.SetURL("https://siga.example.com/login/unidade/")
		}
		return nil
	}
	return page
}

func TestLogin(t *testing.T) {
	page := loginPage()
	session := NewSession(page, testPortalConfig(), nil)

	require.NoError(t, session.Login(context.Background()))

	assert.Equal(t, []string{"https://siga.example.com/login/"}, page.Navigations)
	assert.Equal(t, map[string]string{
		"#codigoInstituicao": "ELO",
		"#id_login":          "reports",
		"#id_senha":          "secret",
	}, page.Filled)
	assert.Equal(t, []string{"button:ENTRAR"}, page.Clicks)
}

func TestLoginFailures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*browsertest.Page)
	}{
		{
			name: "no redirect",
			setup: func(p *browsertest.Page) {
				p.OnClickButton = nil
			},
		},
		{
			name: "login page unreachable",
			setup: func(p *browsertest.Page) {
				p.OnNavigate = func(string) error { return errors.New("net::ERR_NAME_NOT_RESOLVED") }
			},
		},
		{
			name: "form field missing",
			setup: func(p *browsertest.Page) {
				p.OnFill = func(selector, _ string) error {
					if selector == "#id_senha" {
						return browser.ErrNotFound
					}
					return nil
				}
			},
		},
		{
			name: "submit missing",
			setup: func(p *browsertest.Page) {
				p.SetButtons()
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := loginPage()
			tt.setup(page)

			err := NewSession(page, testPortalConfig(), nil).Login(context.Background())

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrAuthentication)
		})
	}
}

func TestSelectUnitFirstThenSwitch(t *testing.T) {
	page := loginPage()
	session := NewSession(page, testPortalConfig(), nil)
	require.NoError(t, session.Login(context.Background()))
	page.Clicks = nil
	page.SetButtons(
		"Unidade 1 - BV (Boa Viagem) keyboard_arrow_down",
		"2 - CD (Jaboatão) swap_vert",
		"3 - JG (Paulista) swap_vert",
	)

	units := config.DefaultUnits
	require.NoError(t, session.SelectUnit(context.Background(), units[0]))
	require.NoError(t, session.SelectUnit(context.Background(), units[1]))

	assert.Equal(t, []string{
		"text:1 - BV (Boa Viagem)",
		"button:Unidade+keyboard_arrow_down",
		"button:2 - CD (Jaboatão)+swap_vert",
	}, page.Clicks)
}

func TestSelectUnitFailures(t *testing.T) {
	unit := models.UnitDescriptor{ID: "20", Name: "4 - CDR (Cordeiro)", Code: "04-CDR"}

	t.Run("entry missing on selection screen", func(t *testing.T) {
		page := loginPage()
		page.OnClickText = func(string) error { return browser.ErrNotFound }
		session := NewSession(page, testPortalConfig(), nil)
		require.NoError(t, session.Login(context.Background()))

		err := session.SelectUnit(context.Background(), unit)
		assert.ErrorIs(t, err, ErrUnitSwitch)
		assert.ErrorIs(t, err, browser.ErrNotFound)

		// Still on the selection screen, so the next unit is clicked directly.
		page.OnClickText = nil
		require.NoError(t, session.SelectUnit(context.Background(), config.DefaultUnits[0]))
		assert.Equal(t, "text:1 - BV (Boa Viagem)", page.Clicks[len(page.Clicks)-1])
	})

	t.Run("switcher missing", func(t *testing.T) {
		session := NewSession(&browsertest.Page{}, testPortalConfig(), nil)
		assert.ErrorIs(t, session.SelectUnit(context.Background(), unit), ErrUnitSwitch)
	})

	t.Run("entry missing in switcher", func(t *testing.T) {
		page := &browsertest.Page{Buttons: []string{"Unidade 1 - BV keyboard_arrow_down", "2 - CD swap_vert"}}
		session := NewSession(page, testPortalConfig(), nil)
		assert.ErrorIs(t, session.SelectUnit(context.Background(), unit), ErrUnitSwitch)
		assert.Equal(t, []string{"button:Unidade+keyboard_arrow_down"}, page.Clicks)
	})
}

func TestReportBaseURL(t *testing.T) {
	tests := []struct {
		current string
		want    string
		wantErr bool
	}{
		{current: "https://siga.example.com/login/unidade/", want: "https://siga.example.com"},
		{current: "https://bv.siga.example.com:8443/home/?x=1", want: "https://bv.siga.example.com:8443"},
		{current: "about:blank", wantErr: true},
		{current: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.current, func(t *testing.T) {
			page := &browsertest.Page{CurrentURL: tt.current}
			got, err := NewSession(page, testPortalConfig(), nil).ReportBaseURL(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
