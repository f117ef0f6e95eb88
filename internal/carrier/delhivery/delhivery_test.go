package delhivery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSanitizeText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"221 MG Road", "221 MG Road"},
		{"  Flat #4 & Co; 50% off \\ path  ", "Flat 4  Co 50 off  path"},
		{"&#%;\\", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := SanitizeText(tc.in); got != tc.want {
			t.Errorf("SanitizeText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"+91 98765 43210", "9876543210"},
		{"98765-43210", "9876543210"},
		{"009198765432101", "8765432101"},
		{"12345", "12345"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizePhone(tc.in); got != tc.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTruncateOrderRef(t *testing.T) {
	long := strings.Repeat("A", 60)
	if got := TruncateOrderRef(long); len(got) != OrderRefMaxLen {
		t.Fatalf("expected %d chars, got %d", OrderRefMaxLen, len(got))
	}
	if got := TruncateOrderRef("  DS123  "); got != "DS123" {
		t.Fatalf("expected trimmed ref, got %q", got)
	}
}

func TestBuildShipmentPayloadDefaults(t *testing.T) {
	cfg := &Config{PickupLocation: "dasam-warehouse"}
	payload := BuildShipmentPayload(cfg, CreateInput{
		OrderRef:    "DS123",
		PaymentMode: "Prepaid",
		TotalAmount: "698.00",
		Name:        "Asha & Co",
		Phone:       "+91 98765 43210",
	})

	shipments := payload["shipments"].([]map[string]interface{})
	if len(shipments) != 1 {
		t.Fatalf("expected single shipment, got %d", len(shipments))
	}
	shipment := shipments[0]
	if shipment["weight"] != DefaultWeightGrams || shipment["quantity"] != DefaultQuantity {
		t.Fatalf("expected default package params, got %v", shipment)
	}
	if shipment["shipment_length"] != DefaultDimensionCM {
		t.Fatalf("expected default dimension, got %v", shipment["shipment_length"])
	}
	if shipment["name"] != "Asha  Co" {
		t.Fatalf("expected sanitized name, got %v", shipment["name"])
	}
	if shipment["phone"] != "9876543210" {
		t.Fatalf("expected normalized phone, got %v", shipment["phone"])
	}
	if _, ok := shipment["products_desc"]; ok {
		t.Fatalf("expected products_desc omitted when empty")
	}

	pickup := payload["pickup_location"].(map[string]interface{})
	if pickup["name"] != "dasam-warehouse" {
		t.Fatalf("expected pickup location, got %v", pickup["name"])
	}
}

func TestCreateShipment(t *testing.T) {
	var gotAuth, gotFormat string
	var gotData map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form failed: %v", err)
		}
		gotFormat = r.PostFormValue("format")
		json.Unmarshal([]byte(r.PostFormValue("data")), &gotData)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"packages":[{"waybill":"WB123456","status":"Success"}]}`))
	}))
	defer server.Close()

	cfg := &Config{BaseURL: server.URL, APIToken: "dl_token", PickupLocation: "dasam-warehouse"}
	cfg.Normalize()

	result, err := CreateShipment(context.Background(), cfg, CreateInput{
		OrderRef:    "DS123",
		PaymentMode: "Prepaid",
		TotalAmount: "698.00",
		Name:        "Asha Verma",
		Address:     "221 MG Road",
		City:        "Bengaluru",
		PostalCode:  "560001",
		Phone:       "9876543210",
	})
	if err != nil {
		t.Fatalf("create shipment failed: %v", err)
	}
	if result.Waybill != "WB123456" || result.Status != "Success" {
		t.Fatalf("unexpected result %+v", result)
	}
	if gotAuth != "Token dl_token" {
		t.Fatalf("expected token auth header, got %q", gotAuth)
	}
	if gotFormat != "json" {
		t.Fatalf("expected format=json, got %q", gotFormat)
	}
	if _, ok := gotData["shipments"]; !ok {
		t.Fatalf("expected shipments in payload, got %v", gotData)
	}
}

func TestCreateShipmentSurfacesCarrierRemark(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"packages":[{"waybill":"","status":"Fail","rmk":"pincode not serviceable"}]}`))
	}))
	defer server.Close()

	cfg := &Config{BaseURL: server.URL, APIToken: "dl_token"}
	cfg.Normalize()

	_, err := CreateShipment(context.Background(), cfg, CreateInput{OrderRef: "DS123"})
	if !errors.Is(err, ErrWaybillMissing) {
		t.Fatalf("expected ErrWaybillMissing, got %v", err)
	}
	if !strings.Contains(err.Error(), "pincode not serviceable") {
		t.Fatalf("expected carrier remark in error, got %v", err)
	}
}

func TestCreateShipmentEmptyPackages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"packages":[],"rmk":"ClientWarehouse not found"}`))
	}))
	defer server.Close()

	cfg := &Config{BaseURL: server.URL, APIToken: "dl_token"}
	cfg.Normalize()

	_, err := CreateShipment(context.Background(), cfg, CreateInput{OrderRef: "DS123"})
	if !errors.Is(err, ErrWaybillMissing) {
		t.Fatalf("expected ErrWaybillMissing, got %v", err)
	}
	if !strings.Contains(err.Error(), "ClientWarehouse not found") {
		t.Fatalf("expected top-level remark in error, got %v", err)
	}
}

func TestCreateShipmentConfigValidation(t *testing.T) {
	if _, err := CreateShipment(context.Background(), nil, CreateInput{}); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid for nil config, got %v", err)
	}
	if _, err := CreateShipment(context.Background(), &Config{BaseURL: "https://x"}, CreateInput{}); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid without token, got %v", err)
	}
}

func TestTrackShipment(t *testing.T) {
	var gotWaybill string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotWaybill = r.URL.Query().Get("waybill")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ShipmentData":[{"Shipment":{"Status":{"Status":"In Transit"}}}]}`))
	}))
	defer server.Close()

	cfg := &Config{BaseURL: server.URL, APIToken: "dl_token"}
	cfg.Normalize()

	result, err := TrackShipment(context.Background(), cfg, "WB123456")
	if err != nil {
		t.Fatalf("track shipment failed: %v", err)
	}
	if result.Status != "In Transit" {
		t.Fatalf("expected In Transit, got %q", result.Status)
	}
	if gotWaybill != "WB123456" {
		t.Fatalf("expected waybill query param, got %q", gotWaybill)
	}
}

func TestTrackShipmentValidation(t *testing.T) {
	cfg := &Config{BaseURL: "https://track.delhivery.test", APIToken: "dl_token"}
	cfg.Normalize()
	if _, err := TrackShipment(context.Background(), cfg, "  "); !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed for empty waybill, got %v", err)
	}
}
