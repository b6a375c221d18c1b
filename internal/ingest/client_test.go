package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/paymejunior/backend/internal/entity"
)

func testImage() EncodedImage {
	return EncodedImage{Data: "ZmFrZQ==", Filename: "a.jpg", ContentType: "image/jpeg"}
}

func TestHTTPClient_CreateReportWithReceipt(t *testing.T) {
	var gotReq CreateReportRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/receipts/process", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(CreateReportResponse{
			ReportID:   "report-1",
			ReportName: gotReq.ReportName,
			Expenses:   []entity.Expense{{ID: "exp-1", ReportID: "report-1", Merchant: "Store"}},
			Summary:    entity.BatchSummary{Total: 1, Successful: 1},
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, 5*time.Second, zap.NewNop())

	resp, err := client.CreateReportWithReceipt(context.Background(), "Trip", testImage())
	require.NoError(t, err)

	assert.Equal(t, "Trip", gotReq.ReportName)
	require.Len(t, gotReq.Images, 1)
	assert.Equal(t, "a.jpg", gotReq.Images[0].Filename)

	assert.Equal(t, "report-1", resp.ReportID)
	require.Len(t, resp.Expenses, 1)
	assert.Equal(t, "exp-1", resp.Expenses[0].ID)
}

func TestHTTPClient_AppendReceipt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/receipts/process-single", r.URL.Path)

		var req AppendReceiptRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "report-1", req.ReportID)

		json.NewEncoder(w).Encode(AppendReceiptResponse{
			Success: true,
			Expense: entity.Expense{ID: "exp-2", ReportID: req.ReportID, Merchant: "Lyft"},
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, 5*time.Second, zap.NewNop())

	expense, err := client.AppendReceipt(context.Background(), "report-1", testImage())
	require.NoError(t, err)
	assert.Equal(t, "exp-2", expense.ID)
	assert.Equal(t, "Lyft", expense.Merchant)
}

func TestHTTPClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"error": "could not extract expense data"})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, 5*time.Second, zap.NewNop())

	_, err := client.AppendReceipt(context.Background(), "report-1", testImage())
	require.Error(t, err)

	assert.Equal(t, KindHTTPStatus, KindOf(err))
	var ingErr *Error
	require.ErrorAs(t, err, &ingErr)
	assert.Equal(t, http.StatusUnprocessableEntity, ingErr.Status)
	assert.Equal(t, "could not extract expense data", ingErr.Message)
}

func TestHTTPClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, 20*time.Millisecond, zap.NewNop())

	_, err := client.AppendReceipt(context.Background(), "report-1", testImage())
	require.Error(t, err)
	assert.Equal(t, KindTimeout, KindOf(err))
}

func TestHTTPClient_TransportError(t *testing.T) {
	// Point at a closed server to force a connection error
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewHTTPClient(url, time.Second, zap.NewNop())

	_, err := client.AppendReceipt(context.Background(), "report-1", testImage())
	require.Error(t, err)
	assert.Equal(t, KindUnknown, KindOf(err))
}
