// Package registry consults the public CNPJ registry (ReceitaWS). It is the
// only component that performs network I/O; validation of the CNPJ itself is
// left to the caller.
package registry

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks github.com/rezonia/fiscal-br/internal/registry Client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rezonia/fiscal-br/internal/model"
)

const (
	DefaultBaseURL   = "https://receitaws.com.br/v1"
	DefaultUserAgent = "fiscal-br/1.0.0"
)

// Lookup outcomes the tool layer maps onto user-facing messages
var (
	ErrNotFound    = errors.New("CNPJ não encontrado")
	ErrRateLimited = errors.New("Limite de consultas excedido. Aguarde alguns segundos.")
)

// Client looks up company data by CNPJ
type Client interface {
	LookupCNPJ(ctx context.Context, cnpj string) (*Company, error)
}

// Company is the registry record of a CNPJ
type Company struct {
	CNPJ         string
	LegalName    string
	TradeName    string
	Status       string
	Size         string
	ShareCapital decimal.Decimal
	MainActivity Activity
	Address      Address
	OpeningDate  string
}

// Activity is a CNAE code with description
type Activity struct {
	Code        string
	Description string
}

// Address of the company headquarters
type Address struct {
	Street       string
	Number       string
	District     string
	Municipality string
	UF           string
	ZipCode      string
}

// receitaws response body
type apiCompany struct {
	Status     string        `json:"status"`
	Message    string        `json:"message"`
	CNPJ       string        `json:"cnpj"`
	Nome       string        `json:"nome"`
	Fantasia   string        `json:"fantasia"`
	Situacao   string        `json:"situacao"`
	Porte      string        `json:"porte"`
	CapitalSoc string        `json:"capital_social"`
	Abertura   string        `json:"abertura"`
	Logradouro string        `json:"logradouro"`
	Numero     string        `json:"numero"`
	Bairro     string        `json:"bairro"`
	Municipio  string        `json:"municipio"`
	UF         string        `json:"uf"`
	CEP        string        `json:"cep"`
	AtivPrinc  []apiActivity `json:"atividade_principal"`
}

type apiActivity struct {
	Code string `json:"code"`
	Text string `json:"text"`
}

// HTTPClient is the ReceitaWS implementation of Client
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// ClientOption configures the client
type ClientOption func(*clientConfig)

type clientConfig struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// WithBaseURL sets a custom base URL
func WithBaseURL(url string) ClientOption {
	return func(cfg *clientConfig) {
		cfg.baseURL = url
	}
}

// WithHTTPClient sets the underlying HTTP client. Deadlines belong here or on
// the request context; the registry client adds none of its own.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cfg *clientConfig) {
		cfg.httpClient = c
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) ClientOption {
	return func(cfg *clientConfig) {
		cfg.userAgent = ua
	}
}

// userAgentTransport wraps an http.RoundTripper to stamp every request
type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	req.Header.Set("Accept", "application/json")
	if t.base != nil {
		return t.base.RoundTrip(req)
	}
	return http.DefaultTransport.RoundTrip(req)
}

// NewHTTPClient creates a ReceitaWS client
func NewHTTPClient(opts ...ClientOption) *HTTPClient {
	cfg := &clientConfig{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{},
		userAgent:  DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	wrapped := *cfg.httpClient
	wrapped.Transport = &userAgentTransport{
		base:      cfg.httpClient.Transport,
		userAgent: cfg.userAgent,
	}

	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.baseURL, "/"),
		http:    &wrapped,
	}
}

// LookupCNPJ fetches the registry record of a 14-digit CNPJ.
//
// A 404 yields ErrNotFound and a 429 ErrRateLimited, both wrapped in a
// *model.RegistryError. A body with status "ERROR" yields a RegistryError
// carrying the API message.
func (c *HTTPClient) LookupCNPJ(ctx context.Context, cnpj string) (*Company, error) {
	url := fmt.Sprintf("%s/cnpj/%s", c.baseURL, cnpj)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, model.NewRegistryError(0, "failed to build request", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, model.NewRegistryError(0, fmt.Sprintf("Erro ao consultar API: %v", err), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, model.NewRegistryError(resp.StatusCode, ErrNotFound.Error(), ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, model.NewRegistryError(resp.StatusCode, ErrRateLimited.Error(), ErrRateLimited)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, model.NewRegistryError(resp.StatusCode, fmt.Sprintf("Erro: %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, model.NewRegistryError(resp.StatusCode, "failed to read response", err)
	}

	var data apiCompany
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, model.NewRegistryError(resp.StatusCode, "failed to decode response", err)
	}

	if data.Status == "ERROR" {
		msg := data.Message
		if msg == "" {
			msg = "Erro na consulta"
		}
		return nil, model.NewRegistryError(resp.StatusCode, msg, nil)
	}

	return convertCompany(&data), nil
}

func convertCompany(data *apiCompany) *Company {
	company := &Company{
		CNPJ:         data.CNPJ,
		LegalName:    data.Nome,
		TradeName:    data.Fantasia,
		Status:       data.Situacao,
		Size:         data.Porte,
		ShareCapital: decimal.Zero,
		OpeningDate:  data.Abertura,
		Address: Address{
			Street:       data.Logradouro,
			Number:       data.Numero,
			District:     data.Bairro,
			Municipality: data.Municipio,
			UF:           data.UF,
			ZipCode:      data.CEP,
		},
	}

	if capital, err := decimal.NewFromString(strings.TrimSpace(data.CapitalSoc)); err == nil {
		company.ShareCapital = capital
	}

	if len(data.AtivPrinc) > 0 {
		company.MainActivity = Activity{
			Code:        data.AtivPrinc[0].Code,
			Description: data.AtivPrinc[0].Text,
		}
	}

	return company
}
