// Package steps provides step definitions for the BDD integration suite.
package steps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cucumber/godog"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travelbooks/backoffice/config"
	"github.com/travelbooks/backoffice/internal/application/adapter"
	"github.com/travelbooks/backoffice/internal/infra/dependency"
	"github.com/travelbooks/backoffice/internal/integration/adapters"
	"github.com/travelbooks/backoffice/internal/integration/persistence/model"
	"github.com/travelbooks/backoffice/test/integration/mock"
)

const testAuthSecret = "test-auth-secret-for-integration-suite"
const dateLayout = "2006-01-02"

var serverOnce sync.Once
var serverURL string
var testDB *mock.Db
var tokenService adapter.TokenService

func startServer() {
	serverOnce.Do(func() {
		gin.SetMode(gin.TestMode)
		_ = os.Setenv("ENV", "test")
		_ = os.Setenv("AUTH_SECRET", testAuthSecret)

		testDB = mock.NewDb(
			&model.CustomerModel{},
			&model.InvoiceModel{},
			&model.ReceiptModel{},
			&model.MatchModel{},
			&model.DiscrepancyModel{},
			&model.AgingSnapshotModel{},
		)
		tokenService = adapters.NewTokenService(testAuthSecret)

		injector := dependency.NewInjector(config.Load(), testDB.DbConn, mock.NewRedis())
		engine := injector.Router.Setup("test")
		serverURL = httptest.NewServer(engine).URL
	})
}

// testContext carries the per-scenario state: seeded records by name, the
// last response, and the auth header.
type testContext struct {
	client  *http.Client
	headers map[string]string

	customers map[string]uuid.UUID
	invoices  map[string]uuid.UUID
	receipts  []uuid.UUID

	responseStatus int
	responseBody   []byte
}

// InitializeTestSuite sets up resources shared by every scenario.
func InitializeTestSuite(ctx *godog.TestSuiteContext) {
	ctx.BeforeSuite(startServer)
}

// InitializeScenario registers all step definitions.
func InitializeScenario(ctx *godog.ScenarioContext) {
	startServer()

	test := &testContext{
		client: &http.Client{Timeout: 10 * time.Second},
	}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		test.headers = map[string]string{}
		test.customers = map[string]uuid.UUID{}
		test.invoices = map[string]uuid.UUID{}
		test.receipts = nil
		test.responseStatus = 0
		test.responseBody = nil

		if err := testDB.ClearDB(); err != nil {
			return ctx, err
		}
		return ctx, mock.ClearRedis(mock.NewRedis())
	})

	ctx.Given(`^the reconciliation service is running$`, test.theServiceIsRunning)
	ctx.Given(`^a customer "([^"]*)" exists$`, test.aCustomerExists)
	ctx.Given(`^an open invoice "([^"]*)" for "([^"]*)" of "([^"]*)" due on "([^"]*)"$`, test.anOpenInvoiceExists)
	ctx.Given(`^an unmatched receipt of "([^"]*)" for "([^"]*)" paid on "([^"]*)" with memo "([^"]*)"$`, test.anUnmatchedReceiptWithMemo)
	ctx.Given(`^an unmatched receipt of "([^"]*)" for "([^"]*)" paid on "([^"]*)"$`, test.anUnmatchedReceipt)
	ctx.Given(`^I am authenticated as service "([^"]*)"$`, test.iAmAuthenticatedAsService)
	ctx.Given(`^the header is empty$`, test.theHeaderIsEmpty)

	ctx.When(`^I send a "([^"]*)" request to "([^"]*)"$`, test.iSendARequestTo)
	ctx.When(`^I send a "([^"]*)" request to "([^"]*)" with body:$`, test.iSendARequestToWithBody)

	ctx.Then(`^the response status should be (\d+)$`, test.theResponseStatusShouldBe)
	ctx.Then(`^the response field "([^"]*)" should be "([^"]*)"$`, test.theResponseFieldShouldBe)
	ctx.Then(`^the response field "([^"]*)" should exist$`, test.theResponseFieldShouldExist)
	ctx.Then(`^the db should contain (\d+) objects in the "([^"]*)" table$`, test.theDbShouldContainObjectsInTheTable)
	ctx.Then(`^invoice "([^"]*)" should have status "([^"]*)" and allocated "([^"]*)"$`, test.invoiceShouldHaveStatusAndAllocated)
	ctx.Then(`^receipt (\d+) should have status "([^"]*)"$`, test.receiptShouldHaveStatus)
}

func (t *testContext) theServiceIsRunning() error {
	if serverURL == "" {
		return fmt.Errorf("test server is not running")
	}
	return nil
}

func (t *testContext) aCustomerExists(name string) error {
	id := uuid.New()
	t.customers[name] = id
	return testDB.DbConn.Create(&model.CustomerModel{
		ID:   id,
		Name: name,
	}).Error
}

func (t *testContext) anOpenInvoiceExists(number, customer, amount, due string) error {
	customerID, ok := t.customers[customer]
	if !ok {
		return fmt.Errorf("unknown customer %q", customer)
	}
	net, err := decimal.NewFromString(amount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	dueDate, err := time.Parse(dateLayout, due)
	if err != nil {
		return fmt.Errorf("invalid due date %q: %w", due, err)
	}

	id := uuid.New()
	t.invoices[number] = id
	now := time.Now().UTC()
	return testDB.DbConn.Create(&model.InvoiceModel{
		ID:              id,
		CustomerID:      customerID,
		Number:          number,
		IssueDate:       dueDate.AddDate(0, 0, -30),
		DueDate:         dueDate,
		NetAmount:       net,
		AllocatedAmount: decimal.Zero,
		Status:          "open",
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}).Error
}

func (t *testContext) anUnmatchedReceiptWithMemo(amount, customer, paid, memo string) error {
	customerID, ok := t.customers[customer]
	if !ok {
		return fmt.Errorf("unknown customer %q", customer)
	}
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	paymentDate, err := time.Parse(dateLayout, paid)
	if err != nil {
		return fmt.Errorf("invalid payment date %q: %w", paid, err)
	}

	id := uuid.New()
	t.receipts = append(t.receipts, id)
	now := time.Now().UTC()
	return testDB.DbConn.Create(&model.ReceiptModel{
		ID:              id,
		CustomerID:      customerID,
		PaymentDate:     paymentDate,
		Amount:          value,
		Method:          "bank_transfer",
		RawMemoText:     memo,
		AllocatedAmount: decimal.Zero,
		Status:          "unmatched",
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}).Error
}

func (t *testContext) anUnmatchedReceipt(amount, customer, paid string) error {
	return t.anUnmatchedReceiptWithMemo(amount, customer, paid, "")
}

func (t *testContext) iAmAuthenticatedAsService(service string) error {
	token, err := tokenService.IssueServiceToken(context.Background(), service, "reconciliation:write", time.Hour)
	if err != nil {
		return err
	}
	t.headers["Authorization"] = "Bearer " + token
	return nil
}

func (t *testContext) theHeaderIsEmpty() error {
	t.headers = map[string]string{}
	return nil
}

// resolvePlaceholders substitutes seeded record IDs into endpoints and
// request bodies: <invoice:INV-100>, <receipt:1> (1-based seed order) and
// <match:last> / <discrepancy:last> for rows created during the scenario.
func (t *testContext) resolvePlaceholders(s string) (string, error) {
	for number, id := range t.invoices {
		s = strings.ReplaceAll(s, "<invoice:"+number+">", id.String())
	}
	for i, id := range t.receipts {
		s = strings.ReplaceAll(s, fmt.Sprintf("<receipt:%d>", i+1), id.String())
	}
	if strings.Contains(s, "<match:last>") {
		var m model.MatchModel
		err := testDB.DbConn.Where("reverses_match_id IS NULL").Order("created_at DESC").First(&m).Error
		if err != nil {
			return "", fmt.Errorf("no match row to substitute: %w", err)
		}
		s = strings.ReplaceAll(s, "<match:last>", m.ID.String())
	}
	if strings.Contains(s, "<discrepancy:last>") {
		var d model.DiscrepancyModel
		err := testDB.DbConn.Order("detected_at DESC").First(&d).Error
		if err != nil {
			return "", fmt.Errorf("no discrepancy row to substitute: %w", err)
		}
		s = strings.ReplaceAll(s, "<discrepancy:last>", d.ID.String())
	}
	return s, nil
}

func (t *testContext) iSendARequestTo(method, endpoint string) error {
	return t.send(method, endpoint, nil)
}

func (t *testContext) iSendARequestToWithBody(method, endpoint string, body *godog.DocString) error {
	resolved, err := t.resolvePlaceholders(body.Content)
	if err != nil {
		return err
	}
	return t.send(method, endpoint, []byte(resolved))
}

func (t *testContext) send(method, endpoint string, body []byte) error {
	endpoint, err := t.resolvePlaceholders(endpoint)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, serverURL+endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range t.headers {
		req.Header.Set(key, value)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	t.responseStatus = resp.StatusCode
	t.responseBody, err = io.ReadAll(resp.Body)
	return err
}

func (t *testContext) theResponseStatusShouldBe(expected int) error {
	if t.responseStatus != expected {
		return fmt.Errorf("expected status %d, got %d. body: %s", expected, t.responseStatus, string(t.responseBody))
	}
	return nil
}

// fieldValue walks a dot path into the decoded response. Numeric segments
// index into arrays.
func (t *testContext) fieldValue(path string) (any, error) {
	var decoded any
	if err := json.Unmarshal(t.responseBody, &decoded); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}

	current := decoded
	for _, segment := range strings.Split(path, ".") {
		switch value := current.(type) {
		case map[string]any:
			next, ok := value[segment]
			if !ok {
				return nil, fmt.Errorf("field %q not found in path %q", segment, path)
			}
			current = next
		case []any:
			index, err := strconv.Atoi(segment)
			if err != nil || index < 0 || index >= len(value) {
				return nil, fmt.Errorf("invalid array index %q in path %q", segment, path)
			}
			current = value[index]
		default:
			return nil, fmt.Errorf("cannot descend into %q at %q", path, segment)
		}
	}
	return current, nil
}

func (t *testContext) theResponseFieldShouldBe(path, expected string) error {
	value, err := t.fieldValue(path)
	if err != nil {
		return err
	}

	actual := fmt.Sprintf("%v", value)
	if number, ok := value.(float64); ok {
		actual = strconv.FormatFloat(number, 'f', -1, 64)
	}
	if actual != expected {
		return fmt.Errorf("expected field %q to be %q, got %q. body: %s", path, expected, actual, string(t.responseBody))
	}
	return nil
}

func (t *testContext) theResponseFieldShouldExist(path string) error {
	_, err := t.fieldValue(path)
	return err
}

func (t *testContext) theDbShouldContainObjectsInTheTable(expected int, table string) error {
	count, err := testDB.Count(table)
	if err != nil {
		return err
	}
	if count != int64(expected) {
		return fmt.Errorf("expected %d rows in %q, got %d", expected, table, count)
	}
	return nil
}

func (t *testContext) invoiceShouldHaveStatusAndAllocated(number, status, allocated string) error {
	id, ok := t.invoices[number]
	if !ok {
		return fmt.Errorf("unknown invoice %q", number)
	}
	var m model.InvoiceModel
	if err := testDB.DbConn.First(&m, "id = ?", id).Error; err != nil {
		return err
	}
	if m.Status != status {
		return fmt.Errorf("expected invoice %s status %q, got %q", number, status, m.Status)
	}
	expected, err := decimal.NewFromString(allocated)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", allocated, err)
	}
	if !m.AllocatedAmount.Equal(expected) {
		return fmt.Errorf("expected invoice %s allocated %s, got %s", number, expected, m.AllocatedAmount)
	}
	return nil
}

func (t *testContext) receiptShouldHaveStatus(index int, status string) error {
	if index < 1 || index > len(t.receipts) {
		return fmt.Errorf("receipt %d was never seeded", index)
	}
	var m model.ReceiptModel
	if err := testDB.DbConn.First(&m, "id = ?", t.receipts[index-1]).Error; err != nil {
		return err
	}
	if m.Status != status {
		return fmt.Errorf("expected receipt %d status %q, got %q", index, status, m.Status)
	}
	return nil
}
