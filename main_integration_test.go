package main_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAppBinary      = "./tradebill_test_app" // Name for the test binary
	testAppPort        = "8089"                 // Port for the test server
	testServiceApiPort = "8091"                 // Port for the Service API
	testAppURL         = "http://localhost:" + testAppPort
	testServiceApiURL  = "http://localhost:" + testServiceApiPort
	startupTimeout     = 15 * time.Second
	healthEndpoint     = testAppURL + "/health"
)

// TestMain manages the setup and teardown of the integration test environment.
func TestMain(m *testing.M) {
	defer func() {
		log.Println("Integration Test Teardown: Cleaning up test binary...")
		_ = os.Remove(testAppBinary)
	}()

	log.Println("Integration Test Setup: Building application...")
	godotenv.Load()
	buildCmd := exec.Command("go", "build", "-o", testAppBinary, ".")
	buildOutput, err := buildCmd.CombinedOutput()
	if err != nil {
		log.Printf("Failed to build application: %v\nOutput:\n%s", err, string(buildOutput))
		os.Exit(1)
	}
	log.Printf("Integration Test Setup: Build successful: %s", testAppBinary)

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}

	appCmd := exec.Command(testAppBinary)
	appCmd.Env = append(os.Environ(),
		"API_PORT="+testAppPort,
		"SERVICE_API_PORT="+testServiceApiPort,
		"MONGO_URI="+mongoURI,
		"MONGO_DB_NAME=tradebill_integration_test",
		"JWT_SECRET=integration-test-secret",
		"GIN_MODE=release",
		"MOCK_SERVICES=true", // Redis-backed email + storage
		"REDIS_ADDR=localhost:6379",
		"SMTP_FROM_ADDRESS=test@example.com",
	)
	appCmd.Stderr = os.Stderr
	appCmd.Stdout = os.Stdout

	log.Println("Integration Test Setup: Starting application process...")
	if err := appCmd.Start(); err != nil {
		log.Printf("Failed to start application process: %v", err)
		os.Exit(1)
	}
	log.Printf("Integration Test Setup: Application process started (PID: %d)...", appCmd.Process.Pid)

	defer func() {
		log.Println("Integration Test Teardown: Shutting down application process...")
		if processErr := appCmd.Process.Signal(syscall.SIGTERM); processErr != nil {
			log.Printf("Integration Test Teardown: Failed to send SIGTERM: %v. Killing.", processErr)
			_ = appCmd.Process.Kill()
		} else {
			_, waitErr := appCmd.Process.Wait()
			if waitErr != nil && waitErr.Error() != "signal: killed" && waitErr.Error() != "exit status 1" {
				log.Printf("Integration Test Teardown: Error waiting for process exit: %v", waitErr)
			}
		}
		log.Println("Integration Test Teardown: Application process stopped.")
	}()

	// Wait for the API to be ready by polling the health endpoint
	log.Printf("Integration Test Setup: Waiting for application to become ready at %s...", healthEndpoint)
	startTime := time.Now()
	ready := false
	for time.Since(startTime) < startupTimeout {
		resp, err := http.Get(healthEndpoint)
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			log.Println("Integration Test Setup: Application is ready!")
			ready = true
			break
		}
		if resp != nil {
			resp.Body.Close()
		}
		time.Sleep(200 * time.Millisecond)
	}

	if !ready {
		log.Printf("Application failed to start within %v", startupTimeout)
		os.Exit(1)
	}

	log.Println("Integration Test Setup: Running tests...")
	exitCode := m.Run()
	log.Printf("Integration Test Teardown: Tests finished with exit code %d.", exitCode)
}

// --- Helpers ---

func doJSON(t *testing.T, method, path, token, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	}
	req, err := http.NewRequest(method, testAppURL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err, "%s %s should not fail", method, path)
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var parsed map[string]interface{}
	if len(bodyBytes) > 0 && bodyBytes[0] == '{' {
		require.NoError(t, json.Unmarshal(bodyBytes, &parsed), "body: %s", string(bodyBytes))
	}
	return resp, parsed
}

// setupLoggedInUser registers a fresh account and returns its JWT.
func setupLoggedInUser(t *testing.T) (email, token string) {
	t.Helper()
	email = fmt.Sprintf("testuser_%d@example.com", time.Now().UnixNano())
	password := "StrongP@ssw0rd123"

	resp, body := doJSON(t, "POST", "/auth/register", "", fmt.Sprintf(`{"email":%q,"password":%q}`, email, password))
	require.Equal(t, http.StatusCreated, resp.StatusCode, "register response: %v", body)
	token, _ = body["access_token"].(string)
	require.NotEmpty(t, token)
	return email, token
}

func createTestProfile(t *testing.T, token string) {
	t.Helper()
	resp, body := doJSON(t, "POST", "/profile", token,
		`{"business_name":"Ace Plumbing","phone":"555-0100","email":"office@aceplumbing.example.com","license_number":"PL-12345"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "create profile response: %v", body)
}

const integrationInvoiceJSON = `{
	"client_name": "Jane Homeowner",
	"client_email": "%s",
	"job_address": "12 Main St",
	"trade_type": "plumbing",
	"tax_rate": 8.25,
	"line_items": [
		{"description": "Service call", "quantity": 1, "unit_price": 1500.00, "category": "labor"},
		{"description": "Water heater", "quantity": 1, "unit_price": 800.00, "category": "parts"},
		{"description": "Copper fittings", "quantity": 10, "unit_price": 12.50, "category": "parts"}
	]
}`

// getEmailFromServiceAPI fetches a mock email stored in Redis via the Service API.
func getEmailFromServiceAPI(t *testing.T, recipient string) map[string]interface{} {
	t.Helper()
	payload := fmt.Sprintf(`{"method":"getTestEmail","arguments":[%q]}`, recipient)
	resp, err := http.Post(testServiceApiURL+"/api", "application/json", bytes.NewReader([]byte(payload)))
	require.NoError(t, err, "Service API request should not fail")
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, "Service API response: %s", string(bodyBytes))

	var parsed struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(bodyBytes, &parsed))
	require.True(t, parsed.Success)
	return parsed.Data
}

// --- Tests ---

func TestIntegration_Health(t *testing.T) {
	resp, err := http.Get(healthEndpoint)
	assert.NoError(t, err)
	if err != nil {
		t.FailNow()
	}
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestIntegration_ComplianceNotes(t *testing.T) {
	resp, body := doJSON(t, "GET", "/invoices/templates/compliance-notes?trade_type=hvac", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	notes, _ := body["compliance_notes"].(string)
	assert.Contains(t, notes, "HVAC")
}

func TestIntegration_InvoicesRequireAuth(t *testing.T) {
	resp, _ := doJSON(t, "GET", "/invoices", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIntegration_FullInvoiceLifecycle(t *testing.T) {
	_, token := setupLoggedInUser(t)
	createTestProfile(t, token)

	clientEmail := fmt.Sprintf("client_%d@example.com", time.Now().UnixNano())

	// Create
	resp, invoice := doJSON(t, "POST", "/invoices", token, fmt.Sprintf(integrationInvoiceJSON, clientEmail))
	require.Equal(t, http.StatusCreated, resp.StatusCode, "create invoice response: %v", invoice)
	invoiceID, _ := invoice["id"].(string)
	require.NotEmpty(t, invoiceID)
	assert.Equal(t, "draft", invoice["status"])

	totals, _ := invoice["totals"].(map[string]interface{})
	require.NotNil(t, totals)
	assert.Equal(t, 2425.00, totals["subtotal"])
	assert.Equal(t, 200.06, totals["tax_amount"])
	assert.Equal(t, 2625.06, totals["total"])

	// Get
	resp, fetched := doJSON(t, "GET", "/invoices/"+invoiceID, token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, invoiceID, fetched["id"])

	// Send: renders the PDF, stores it in mock storage, delivers via mock email
	resp, sent := doJSON(t, "POST", "/invoices/"+invoiceID+"/send", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, "send response: %v", sent)
	assert.Equal(t, "sent", sent["status"])
	pdfURL, _ := sent["pdf_url"].(string)
	assert.Contains(t, pdfURL, "invoices/"+invoiceID+"/")

	// The delivery email landed in the mock outbox
	emailData := getEmailFromServiceAPI(t, clientEmail)
	subject, _ := emailData["subject"].(string)
	assert.Contains(t, subject, "Invoice #"+invoiceID)
	assert.Contains(t, subject, "Ace Plumbing")
	mailBody, _ := emailData["body"].(string)
	assert.Contains(t, mailBody, "Dear Jane Homeowner,")

	// Sending again is rejected with 400
	resp, errBody := doJSON(t, "POST", "/invoices/"+invoiceID+"/send", token, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errMsg, _ := errBody["error"].(string)
	assert.Contains(t, errMsg, "already been sent")
}

func TestIntegration_SendWithoutProfile(t *testing.T) {
	_, token := setupLoggedInUser(t)

	clientEmail := fmt.Sprintf("client_%d@example.com", time.Now().UnixNano())
	resp, invoice := doJSON(t, "POST", "/invoices", token, fmt.Sprintf(integrationInvoiceJSON, clientEmail))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	invoiceID, _ := invoice["id"].(string)

	resp, errBody := doJSON(t, "POST", "/invoices/"+invoiceID+"/send", token, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errMsg, _ := errBody["error"].(string)
	assert.Contains(t, errMsg, "Business profile not set up")

	// The invoice is untouched
	resp, fetched := doJSON(t, "GET", "/invoices/"+invoiceID, token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "draft", fetched["status"])
	_, hasPDF := fetched["pdf_url"]
	assert.False(t, hasPDF)
}

func TestIntegration_OwnershipIsolation(t *testing.T) {
	_, tokenA := setupLoggedInUser(t)
	_, tokenB := setupLoggedInUser(t)

	clientEmail := fmt.Sprintf("client_%d@example.com", time.Now().UnixNano())
	resp, invoice := doJSON(t, "POST", "/invoices", tokenA, fmt.Sprintf(integrationInvoiceJSON, clientEmail))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	invoiceID, _ := invoice["id"].(string)

	// Another user sees 404, indistinguishable from absence
	resp, _ = doJSON(t, "GET", "/invoices/"+invoiceID, tokenB, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
