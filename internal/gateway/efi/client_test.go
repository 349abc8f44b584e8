package efi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/luizlenomoraes/saas-completo-sub000/internal/core/domain"
	"github.com/luizlenomoraes/saas-completo-sub000/internal/core/ports"
)

// fakeEfi serves the OAuth endpoint plus whatever the test registers.
func fakeEfi(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		if user, pass, ok := r.BasicAuth(); !ok || user != "client-id" || pass != "client-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(TokenResponse{AccessToken: "tok-1", TokenType: "Bearer", ExpiresIn: 3600})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := New(&domain.EfiCredentials{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		PixKey:       "vendas@example.com",
	}, Options{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestCreatePayment(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/cob/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Authorization = %q", got)
		}

		var req PixCobRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Valor.Original != "347.00" {
			t.Errorf("valor = %q, want 347.00", req.Valor.Original)
		}
		if req.Chave != "vendas@example.com" {
			t.Errorf("chave = %q", req.Chave)
		}
		if req.Devedor == nil || req.Devedor.CPF != "12345678901" {
			t.Errorf("devedor = %+v, want CPF set", req.Devedor)
		}

		txid := r.URL.Path[len("/v2/cob/"):]
		json.NewEncoder(w).Encode(PixCobResponse{
			TxID:          txid,
			Status:        "ATIVA",
			Valor:         req.Valor,
			Loc:           PixLoc{ID: 77},
			PixCopiaECola: "00020126330014br.gov.bcb.pix...",
		})
	})
	mux.HandleFunc("/v2/loc/77/qrcode", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(QRCodeResponse{
			QRCode:       "00020126330014br.gov.bcb.pix...",
			ImagemQRCode: "data:image/png;base64,iVBORw0KGgo=",
		})
	})

	client := fakeEfi(t, mux)

	result, err := client.CreatePayment(context.Background(), ports.PaymentRequest{
		SaleID:      "sale-1",
		Amount:      domain.Money(34700),
		Method:      domain.MethodPix,
		Description: "Curso Faixa Preta",
		Customer: domain.Customer{
			Name: "Maria Silva",
			CPF:  "12345678901",
		},
	})
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}

	if len(result.ProviderTxID) != 32 {
		t.Errorf("txid %q is not 32 chars", result.ProviderTxID)
	}
	if result.Status != domain.StatusPixCreated {
		t.Errorf("Status = %q, want %q", result.Status, domain.StatusPixCreated)
	}
	if result.Pix == nil || result.Pix.QRCodeBase64 == "" {
		t.Error("expected qr code image from loc endpoint")
	}
}

func TestCreatePaymentRejectsNonPix(t *testing.T) {
	client := fakeEfi(t, http.NewServeMux())

	_, err := client.CreatePayment(context.Background(), ports.PaymentRequest{
		Amount: domain.Money(1000),
		Method: domain.MethodCreditCard,
	})
	if !errors.Is(err, domain.ErrUnsupportedMethod) {
		t.Errorf("err = %v, want ErrUnsupportedMethod", err)
	}
}

func TestGetStatus(t *testing.T) {
	tests := []struct {
		efiStatus string
		want      domain.Status
	}{
		{"ATIVA", domain.StatusPixCreated},
		{"CONCLUIDA", domain.StatusApproved},
		{"REMOVIDA_PELO_USUARIO_RECEBEDOR", domain.StatusCancelled},
		{"REMOVIDA_PELO_PSP", domain.StatusCancelled},
		{"DEVOLVIDO", domain.StatusRefunded},
	}

	for _, tt := range tests {
		t.Run(tt.efiStatus, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/v2/cob/tx-1", func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(PixCobResponse{TxID: "tx-1", Status: tt.efiStatus})
			})
			client := fakeEfi(t, mux)

			got, err := client.GetStatus(context.Background(), "tx-1")
			if err != nil {
				t.Fatalf("GetStatus: %v", err)
			}
			if got != tt.want {
				t.Errorf("GetStatus(%q) = %q, want %q", tt.efiStatus, got, tt.want)
			}
		})
	}
}

func TestTokenIsCachedAcrossRequests(t *testing.T) {
	var authCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/cob/tx-1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(PixCobResponse{TxID: "tx-1", Status: "ATIVA"})
	})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/token" {
			atomic.AddInt32(&authCalls, 1)
			json.NewEncoder(w).Encode(TokenResponse{AccessToken: "tok-1", ExpiresIn: 3600})
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := New(&domain.EfiCredentials{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		PixKey:       "key",
	}, Options{BaseURL: server.URL, HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := client.GetStatus(context.Background(), "tx-1"); err != nil {
			t.Fatalf("GetStatus: %v", err)
		}
	}
	if n := atomic.LoadInt32(&authCalls); n != 1 {
		t.Errorf("auth endpoint hit %d times, want 1", n)
	}
}

func TestRegisterWebhook(t *testing.T) {
	var registered string
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/webhook/vendas@example.com", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		registered = body["webhookUrl"]
		w.WriteHeader(http.StatusOK)
	})
	client := fakeEfi(t, mux)

	if err := client.RegisterWebhook(context.Background(), "https://checkout.example.com/webhooks/efi"); err != nil {
		t.Fatalf("RegisterWebhook: %v", err)
	}
	if registered != "https://checkout.example.com/webhooks/efi" {
		t.Errorf("registered url = %q", registered)
	}
}

func TestExpiredTokenIsRefreshed(t *testing.T) {
	var authCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			atomic.AddInt32(&authCalls, 1)
			json.NewEncoder(w).Encode(TokenResponse{AccessToken: "tok", ExpiresIn: 1})
		default:
			json.NewEncoder(w).Encode(PixCobResponse{TxID: "tx-1", Status: "ATIVA"})
		}
	}))
	t.Cleanup(server.Close)

	tm := NewTokenManager("id", "secret", server.URL, server.Client())
	tm.refreshLead = time.Millisecond

	if _, err := tm.GetToken(); err != nil {
		t.Fatalf("GetToken: %v", err)
	}
	tm.Invalidate()
	if _, err := tm.GetToken(); err != nil {
		t.Fatalf("GetToken after invalidate: %v", err)
	}
	if n := atomic.LoadInt32(&authCalls); n != 2 {
		t.Errorf("auth endpoint hit %d times, want 2", n)
	}
}
