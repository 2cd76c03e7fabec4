package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/rezonia/fiscal-br/internal/config"
	"github.com/rezonia/fiscal-br/internal/metrics"
	"github.com/rezonia/fiscal-br/internal/model"
	"github.com/rezonia/fiscal-br/internal/registry"
	"github.com/rezonia/fiscal-br/internal/registry/mocks"
	"github.com/rezonia/fiscal-br/internal/server"
	"github.com/rezonia/fiscal-br/internal/signature/signaturetest"
	"github.com/rezonia/fiscal-br/internal/signature/xmldsig"
)

func newTestServer(t testing.TB) (*server.Server, *mocks.MockClient) {
	t.Helper()
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)

	cfg := &server.Config{
		Address:      ":8080",
		CORSOrigins:  []string{"*"},
		MaxBodyBytes: 1 << 20,
		CallTimeout:  5 * time.Second,
		Metrics:      metrics.New(),
		Registry:     client,
	}
	return server.NewServer(cfg), client
}

func do(t testing.TB, srv *server.Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "parser", "nfe", "testdata", name))
	require.NoError(t, err)
	return data
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var response server.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	assert.Equal(t, "healthy", response.Status)
	assert.Equal(t, "Fiscal BR", response.Server)
	assert.Equal(t, "1.0.0", response.Version)
	_, err := time.Parse(time.RFC3339, response.Timestamp)
	assert.NoError(t, err)
}

func TestRequestID(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(t, srv, http.MethodGet, "/health", "")
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestCORS(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://client.example")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_RestrictedOrigins(t *testing.T) {
	srv := server.NewServer(&server.Config{
		CORSOrigins: []string{"https://app.example"},
		Registry:    mocks.NewMockClient(gomock.NewController(t)),
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListTools(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(t, srv, http.MethodGet, "/api/v1/tools", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Tools []struct {
			Name        string         `json:"name"`
			Description string         `json:"description"`
			InputSchema map[string]any `json:"input_schema"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Tools, 11)
	assert.Equal(t, "validar_cpf", response.Tools[0].Name)
	assert.Equal(t, "object", response.Tools[0].InputSchema["type"])
}

func TestOpenAITools(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(t, srv, http.MethodGet, "/api/v1/tools/openai", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var defs []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &defs))
	require.Len(t, defs, 11)
	assert.Equal(t, "function", defs[0]["type"])

	fn, ok := defs[0]["function"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "validar_cpf", fn["name"])
}

func TestCallTool(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/api/v1/tools/calcular_icms",
		`{"valor": 1000, "uf_origem": "SP", "uf_destino": "RJ", "consumidor_final": true}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"aliquota": 12,
		"valor_icms": 120,
		"tipo_operacao": "Interestadual (Consumidor Final)",
		"difal": {"aliquota_interestadual": 12, "aliquota_interna": 22, "valor_difal": 100}
	}`, w.Body.String())
}

func TestCallTool_UnknownTool(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/api/v1/tools/emitir_nfe", `{}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var response server.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "unknown tool", response.Error)
	assert.Equal(t, "emitir_nfe", response.Details)
}

func TestCallTool_InvalidArguments(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/api/v1/tools/calcular_pis_cofins", `{"valor": 10, "regime": "anual"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response server.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "invalid arguments", response.Error)
	assert.Equal(t, "regime", response.Field)
	assert.Contains(t, response.Details, "cumulativo")
}

func TestCallTool_AmountOutOfRange(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, tool := range []string{"calcular_iss", "calcular_icms"} {
		t.Run(tool, func(t *testing.T) {
			w := do(t, srv, http.MethodPost, "/api/v1/tools/"+tool,
				`{"valor": 1e400, "aliquota": 3, "uf_origem": "SP", "uf_destino": "RJ"}`)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var response server.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, "invalid arguments", response.Error)
			assert.Equal(t, "valor", response.Field)
		})
	}

	w := do(t, srv, http.MethodPost, "/api/v1/tools/calcular_iss", `{"valor": "1e-20000000", "aliquota": 3}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCallTool_BodyTooLarge(t *testing.T) {
	srv := server.NewServer(&server.Config{
		MaxBodyBytes: 16,
		Registry:     mocks.NewMockClient(gomock.NewController(t)),
	})

	w := do(t, srv, http.MethodPost, "/api/v1/tools/validar_cpf", `{"cpf": "529.982.247-25"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestCallTool_ConsultarCNPJ(t *testing.T) {
	srv, client := newTestServer(t)

	client.EXPECT().
		LookupCNPJ(gomock.Any(), "11222333000181").
		Return(nil, model.NewRegistryError(http.StatusTooManyRequests, registry.ErrRateLimited.Error(), registry.ErrRateLimited))

	w := do(t, srv, http.MethodPost, "/api/v1/tools/consultar_cnpj", `{"cnpj": "11.222.333/0001-81"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"sucesso": false, "erro": "Limite de consultas excedido. Aguarde alguns segundos."}`, w.Body.String())
}

func TestValidateEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/validate", bytes.NewReader(fixture(t, "nfeProc.xml")))
	req.Header.Set("Content-Type", "application/xml")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response server.ValidationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	assert.True(t, response.Valid, "errors: %v", response.Errors)
	assert.Equal(t, "35240111222333000181550010000012341123456784", response.AccessKey)
	assert.Equal(t, "nfeProc", response.Layout)
	require.NotNil(t, response.Summary)
	assert.Equal(t, "55", response.Summary.Model)
	assert.Equal(t, "11222333000181", response.Summary.Issuer)
	assert.Equal(t, "52998224725", response.Summary.Recipient)
	assert.Equal(t, 2, response.Summary.Items)
	assert.Equal(t, "1120.00", response.Summary.Total)
	assert.True(t, response.Summary.Authorized)
}

func TestValidateEndpoint_InvalidDocument(t *testing.T) {
	srv, _ := newTestServer(t)

	xml := strings.Replace(string(fixture(t, "nfe.xml")), "<vProd>1000.00</vProd>", "<vProd>999.00</vProd>", 1)
	w := do(t, srv, http.MethodPost, "/api/v1/validate", xml)

	assert.Equal(t, http.StatusOK, w.Code)

	var response server.ValidationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.False(t, response.Valid)
	require.NotEmpty(t, response.Errors)
	assert.Contains(t, strings.Join(response.Errors, "\n"), "vProd")
}

func TestValidateEndpoint_EmptyBody(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/api/v1/validate", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateEndpoint_NotXML(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/api/v1/validate", `{"chave": "123"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateEndpoint_Unparseable(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/api/v1/validate", `<html><body>not an invoice</body></html>`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var response server.ValidationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.False(t, response.Valid)
	require.Len(t, response.Errors, 1)
	assert.Contains(t, response.Errors[0], "XML parsing failed")
}

func TestValidateEndpoint_Signature(t *testing.T) {
	m := metrics.New()
	srv := server.NewServer(&server.Config{
		MaxBodyBytes: 1 << 20,
		CallTimeout:  5 * time.Second,
		Metrics:      m,
		Registry:     mocks.NewMockClient(gomock.NewController(t)),
		Verifier:     xmldsig.NewVerifier(),
	})

	leaf := signaturetest.NewLeaf(t, nil, "EMPRESA EXEMPLO LTDA:11222333000181")
	signed := signaturetest.SignNFe(t, fixture(t, "nfeProc.xml"), leaf)

	w := do(t, srv, http.MethodPost, "/api/v1/validate", string(signed))
	require.Equal(t, http.StatusOK, w.Code)

	var response server.ValidationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Valid, "errors: %v", response.Errors)
	require.NotNil(t, response.Signature)
	assert.True(t, response.Signature.SignatureValid)
	require.NotNil(t, response.Signature.Signer)
	assert.Equal(t, "11222333000181", response.Signature.Signer.CNPJ)

	// unsigned documents only warn outside strict mode
	w = do(t, srv, http.MethodPost, "/api/v1/validate", string(fixture(t, "nfeProc.xml")))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Valid)
	assert.Contains(t, strings.Join(response.Warnings, "\n"), "sem assinatura")

	w = do(t, srv, http.MethodGet, "/metrics", "")
	assert.Contains(t, w.Body.String(), `fiscal_br_nfe_signatures_total{result="valid"} 1`)
	assert.Contains(t, w.Body.String(), `fiscal_br_nfe_signatures_total{result="unsigned"} 1`)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	do(t, srv, http.MethodPost, "/api/v1/tools/validar_cpf", `{"cpf": "52998224725"}`)
	do(t, srv, http.MethodGet, "/health", "")

	w := do(t, srv, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `fiscal_br_tool_calls_total{outcome="ok",tool="validar_cpf"} 1`)
	assert.Contains(t, body, `fiscal_br_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestConfigFrom(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.Port = 9000

	sc := server.ConfigFrom(cfg)
	assert.Equal(t, "0.0.0.0:9000", sc.Address)
	assert.Equal(t, cfg.Tools.CallTimeout, sc.CallTimeout)
	assert.Equal(t, cfg.Registry.BaseURL, sc.RegistryBaseURL)
	assert.Equal(t, cfg.Server.MaxBodyBytes, sc.MaxBodyBytes)
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	srv := server.NewServer(&server.Config{
		Address:  "127.0.0.1:0",
		Registry: mocks.NewMockClient(gomock.NewController(t)),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func BenchmarkCallTool(b *testing.B) {
	srv, _ := newTestServer(b)
	body := `{"valor_produto": 1000, "valor_frete": 100, "uf_origem": "SP", "uf_destino": "RJ", "ncm": "85287200", "regime": "lucro_real"}`

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := do(b, srv, http.MethodPost, "/api/v1/tools/calcular_impostos_nf", body)
		if w.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", w.Code)
		}
	}
}
