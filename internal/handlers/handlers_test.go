package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/invoicer-web/internal/api"
	"github.com/diewo77/invoicer-web/internal/config"
	"github.com/diewo77/invoicer-web/internal/db"
	"github.com/diewo77/invoicer-web/internal/devapi"
	"github.com/diewo77/invoicer-web/internal/invoicelines"
	"github.com/diewo77/invoicer-web/internal/models"
	"github.com/diewo77/invoicer-web/internal/pagination"
	"github.com/diewo77/invoicer-web/internal/session"
)

type fixture struct {
	client   *api.Client
	db       *gorm.DB
	sessions *session.MemoryStore
	invoices *InvoiceHandler
	edits    *EditHandler
}

func setup(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Migrate(conn))
	require.NoError(t, db.Seed(conn))

	srv := httptest.NewServer(devapi.New(conn, zerolog.Nop()))
	t.Cleanup(srv.Close)

	client := api.NewClient(config.APIConfig{BaseURL: srv.URL + devapi.Prefix, Timeout: 5})
	store := session.NewMemoryStore()
	return &fixture{
		client:   client,
		db:       conn,
		sessions: store,
		invoices: NewInvoiceHandler(client, store, zerolog.Nop()),
		edits:    NewEditHandler(client, store, zerolog.Nop()),
	}
}

func (f *fixture) product(t *testing.T, label string) models.Product {
	t.Helper()
	var p models.Product
	require.NoError(t, f.db.Where("label = ?", label).First(&p).Error)
	return p
}

func (f *fixture) customerID(t *testing.T) int64 {
	t.Helper()
	var c models.Customer
	require.NoError(t, f.db.Order("id").First(&c).Error)
	return c.ID
}

// createInvoice stores an invoice for the first customer with one line per product label.
func (f *fixture) createInvoice(t *testing.T, labels ...string) *api.Invoice {
	t.Helper()
	return f.createInvoiceFor(t, f.customerID(t), labels...)
}

func (f *fixture) createInvoiceFor(t *testing.T, customerID int64, labels ...string) *api.Invoice {
	t.Helper()
	var lines []invoicelines.NewLine
	for _, label := range labels {
		p := f.product(t, label)
		l, err := invoicelines.LineFromProduct(invoicelines.ProductRef{
			ID: p.ID, Label: p.Label, Unit: p.Unit, VATRate: p.VATRate, UnitPrice: p.UnitPriceWithoutTax, UnitTax: p.UnitTax,
		}, 1)
		require.NoError(t, err)
		lines = append(lines, l)
	}
	attrs, err := invoicelines.NewSubmission(invoicelines.Header{CustomerID: customerID, Date: "2024-03-01", Deadline: "2024-03-31"}, lines)
	require.NoError(t, err)
	inv, err := f.client.CreateInvoice(context.Background(), api.InvoiceRequest{Invoice: attrs})
	require.NoError(t, err)
	return inv
}

func (f *fixture) invoiceCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.Invoice{}).Count(&n).Error)
	return n
}

func get(target string, values map[string]string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range values {
		r.SetPathValue(k, v)
	}
	return r
}

func post(target string, form url.Values, values map[string]string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range values {
		r.SetPathValue(k, v)
	}
	return r
}

func id(v int64) string { return fmt.Sprint(v) }

func sessionFromLocation(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(loc, "/edits/"), "location %q", loc)
	return strings.TrimPrefix(loc, "/edits/")
}

func TestInvoiceList(t *testing.T) {
	f := setup(t)
	f.createInvoice(t, "Consulting")

	rec := httptest.NewRecorder()
	f.invoices.List(rec, get("/invoices?page=1&per_page=20", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Ada Lovelace")
	assert.Contains(t, body, `name="per_page"`)
	assert.Contains(t, body, "/invoices/export.xlsx?page=1&amp;per_page=20")
}

func TestInvoiceList_JSON(t *testing.T) {
	f := setup(t)
	inv := f.createInvoice(t, "Consulting", "Training")

	r := get("/invoices", nil)
	r.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	f.invoices.List(rec, r)
	require.Equal(t, http.StatusOK, rec.Code)

	var page api.InvoicePage
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	require.Len(t, page.Invoices, 1)
	assert.Equal(t, inv.ID, page.Invoices[0].ID)
	assert.Equal(t, 1, page.Pagination.TotalPages)
}

func TestInvoiceShow(t *testing.T) {
	f := setup(t)
	inv := f.createInvoice(t, "Consulting")

	rec := httptest.NewRecorder()
	f.invoices.Show(rec, get("/invoices/"+id(inv.ID), map[string]string{"id": id(inv.ID)}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Consulting")

	rec = httptest.NewRecorder()
	f.invoices.Show(rec, get("/invoices/999", map[string]string{"id": "999"}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvoicePDF(t *testing.T) {
	f := setup(t)
	inv := f.createInvoice(t, "Consulting")
	f.invoices.now = func() time.Time { return time.Date(2024, 3, 5, 14, 7, 9, 0, time.Local) }

	rec := httptest.NewRecorder()
	f.invoices.PDF(rec, get("/invoices/"+id(inv.ID)+"/pdf", map[string]string{"id": id(inv.ID)}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), fmt.Sprintf("invoice_%d_2024-03-05_14-07-09.pdf", inv.ID))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
}

func TestInvoiceExport(t *testing.T) {
	f := setup(t)
	f.createInvoice(t, "Consulting")

	rec := httptest.NewRecorder()
	f.invoices.Export(rec, get("/invoices/export.xlsx", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.NotZero(t, rec.Body.Len())
}

func TestFinalizeAndPay(t *testing.T) {
	f := setup(t)
	inv := f.createInvoice(t, "Consulting")
	ctx := context.Background()

	rec := httptest.NewRecorder()
	f.invoices.Finalize(rec, post("/invoices/"+id(inv.ID)+"/finalize", url.Values{"return": {"/invoices?page=2&per_page=10"}}, map[string]string{"id": id(inv.ID)}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/invoices?page=2&per_page=10", rec.Header().Get("Location"))

	got, err := f.client.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, got.Finalized)
	assert.False(t, got.Paid)

	rec = httptest.NewRecorder()
	f.invoices.Pay(rec, post("/invoices/"+id(inv.ID)+"/pay", url.Values{"return": {"//evil.example"}}, map[string]string{"id": id(inv.ID)}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/invoices", rec.Header().Get("Location"))

	got, err = f.client.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, got.Paid)
	assert.True(t, got.Finalized)
}

func TestDelete(t *testing.T) {
	f := setup(t)
	inv := f.createInvoice(t, "Consulting")

	r := post("/invoices/"+id(inv.ID)+"/delete", nil, map[string]string{"id": id(inv.ID)})
	r.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	f.invoices.Delete(rec, r)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, f.invoiceCount(t))
}

func TestEdit_FinalizedInvoiceIsNotEditable(t *testing.T) {
	f := setup(t)
	inv := f.createInvoice(t, "Consulting")
	yes := true
	_, err := f.client.ChangeStatus(context.Background(), api.StatusChange{ID: inv.ID, Finalized: &yes})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	f.invoices.Edit(rec, get("/invoices/"+id(inv.ID)+"/edit", map[string]string{"id": id(inv.ID)}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/invoices/"+id(inv.ID), rec.Header().Get("Location"))
	assert.Zero(t, f.sessions.Len())
}

func TestEditFlow(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	inv := f.createInvoice(t, "Consulting", "Training")
	book := f.product(t, "Technical book")

	rec := httptest.NewRecorder()
	f.invoices.Edit(rec, get("/invoices/"+id(inv.ID)+"/edit", map[string]string{"id": id(inv.ID)}))
	sid := sessionFromLocation(t, rec)

	rec = httptest.NewRecorder()
	f.edits.Show(rec, get("/edits/"+sid, map[string]string{"sid": sid}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Training")

	rec = httptest.NewRecorder()
	f.edits.ToggleLine(rec, post("/edits/"+sid+"/lines/0/toggle", nil, map[string]string{"sid": sid, "index": "0"}))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = httptest.NewRecorder()
	f.edits.AddLine(rec, post("/edits/"+sid+"/new-lines", url.Values{"product_id": {id(book.ID)}, "quantity": {"2"}}, map[string]string{"sid": sid}))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	s, err := f.sessions.Get(sid)
	require.NoError(t, err)
	assert.True(t, s.Persisted[0].MarkedForRemoval)
	require.Len(t, s.Added, 1)
	assert.Equal(t, 2, s.Added[0].Quantity)

	rec = httptest.NewRecorder()
	f.edits.Save(rec, post("/edits/"+sid+"/save", url.Values{
		"customer_id": {id(inv.CustomerID)},
		"date":        {"2024-03-02"},
		"deadline":    {"2024-04-02"},
	}, map[string]string{"sid": sid}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/invoices/"+id(inv.ID), rec.Header().Get("Location"))

	_, err = f.sessions.Get(sid)
	assert.ErrorIs(t, err, session.ErrNotFound)

	saved, err := f.client.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-02", saved.Date)
	require.Len(t, saved.Lines, 2)
	assert.Equal(t, "Training", saved.Lines[0].Label)
	assert.Equal(t, book.ID, saved.Lines[1].ProductID)
}

func TestEdit_LineErrors(t *testing.T) {
	f := setup(t)
	inv := f.createInvoice(t, "Consulting")
	sid := f.sessions.Create(&session.EditSession{InvoiceID: inv.ID, Header: inv.Header(), Persisted: inv.PersistedLines()})

	tests := []struct {
		name string
		req  *http.Request
		call func(http.ResponseWriter, *http.Request)
	}{
		{"toggle out of range", post("/", nil, map[string]string{"sid": sid, "index": "5"}), f.edits.ToggleLine},
		{"toggle malformed index", post("/", nil, map[string]string{"sid": sid, "index": "x"}), f.edits.ToggleLine},
		{"remove missing new line", post("/", nil, map[string]string{"sid": sid, "index": "0"}), f.edits.RemoveNewLine},
		{"add without product", post("/", url.Values{"quantity": {"1"}}, map[string]string{"sid": sid}), f.edits.AddLine},
		{"add zero quantity", post("/", url.Values{"product_id": {id(f.product(t, "Consulting").ID)}, "quantity": {"0"}}, map[string]string{"sid": sid}), f.edits.AddLine},
		{"add unknown product", post("/", url.Values{"product_id": {"9999"}, "quantity": {"1"}}, map[string]string{"sid": sid}), f.edits.AddLine},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.call(rec, tt.req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	s, err := f.sessions.Get(sid)
	require.NoError(t, err)
	assert.False(t, s.Persisted[0].MarkedForRemoval)
	assert.Empty(t, s.Added)
}

func TestSave_InvalidSendsNothing(t *testing.T) {
	f := setup(t)

	rec := httptest.NewRecorder()
	f.invoices.New(rec, get("/invoices/new", nil))
	sid := sessionFromLocation(t, rec)

	s, err := f.sessions.Get(sid)
	require.NoError(t, err)
	assert.True(t, s.IsNew())
	assert.NotEmpty(t, s.Header.Date)
	assert.NotEmpty(t, s.Header.Deadline)

	rec = httptest.NewRecorder()
	f.edits.Save(rec, post("/edits/"+sid+"/save", url.Values{"customer_id": {""}, "date": {"2024-03-01"}, "deadline": {"2024-03-31"}}, map[string]string{"sid": sid}))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Zero(t, f.invoiceCount(t))

	s, err = f.sessions.Get(sid)
	require.NoError(t, err, "the session survives a failed save")
	assert.Equal(t, "2024-03-31", s.Header.Deadline)
}

func TestSave_CreatesInvoice(t *testing.T) {
	f := setup(t)
	consulting := f.product(t, "Consulting")

	rec := httptest.NewRecorder()
	f.invoices.New(rec, get("/invoices/new", nil))
	sid := sessionFromLocation(t, rec)

	rec = httptest.NewRecorder()
	f.edits.AddLine(rec, post("/", url.Values{"product_id": {id(consulting.ID)}, "quantity": {"3"}}, map[string]string{"sid": sid}))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	r := post("/", url.Values{"customer_id": {id(f.customerID(t))}, "date": {"2024-03-01"}, "deadline": {"2024-03-31"}}, map[string]string{"sid": sid})
	r.Header.Set("Accept", "application/json")
	rec = httptest.NewRecorder()
	f.edits.Save(rec, r)
	require.Equal(t, http.StatusOK, rec.Code)

	var inv api.Invoice
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&inv))
	assert.Equal(t, 324.0, inv.Total.Float())
	assert.Equal(t, int64(1), f.invoiceCount(t))
}

func TestSave_BackendRejectsFinalized(t *testing.T) {
	f := setup(t)
	inv := f.createInvoice(t, "Consulting")
	sid := f.sessions.Create(&session.EditSession{InvoiceID: inv.ID, Header: inv.Header(), Persisted: inv.PersistedLines()})
	yes := true
	_, err := f.client.ChangeStatus(context.Background(), api.StatusChange{ID: inv.ID, Finalized: &yes})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	f.edits.Save(rec, post("/", url.Values{}, map[string]string{"sid": sid}))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	_, err = f.sessions.Get(sid)
	assert.NoError(t, err)
}

// crowdCustomers stores more customers than the edit screen lists, all sorting before
// the returned one.
func (f *fixture) crowdCustomers(t *testing.T) models.Customer {
	t.Helper()
	for i := range customerChoices + 5 {
		c := models.Customer{FirstName: "Client", LastName: fmt.Sprintf("Aaa%02d", i), City: "Nantes"}
		require.NoError(t, f.db.Create(&c).Error)
	}
	last := models.Customer{FirstName: "Zed", LastName: "Zzz", City: "Lyon"}
	require.NoError(t, f.db.Create(&last).Error)
	return last
}

func TestEdit_KeepsCustomerOutsideFirstResults(t *testing.T) {
	f := setup(t)
	zed := f.crowdCustomers(t)
	inv := f.createInvoiceFor(t, zed.ID, "Consulting")
	training := f.product(t, "Training")

	rec := httptest.NewRecorder()
	f.invoices.Edit(rec, get("/invoices/"+id(inv.ID)+"/edit", map[string]string{"id": id(inv.ID)}))
	sid := sessionFromLocation(t, rec)

	rec = httptest.NewRecorder()
	f.edits.Show(rec, get("/edits/"+sid, map[string]string{"sid": sid}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), fmt.Sprintf(`<option value="%d" selected>Zed Zzz</option>`, zed.ID))

	rec = httptest.NewRecorder()
	f.edits.AddLine(rec, post("/", url.Values{"product_id": {id(training.ID)}, "quantity": {"1"}}, map[string]string{"sid": sid}))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	// The form as the browser posts it with the select left alone.
	rec = httptest.NewRecorder()
	f.edits.Save(rec, post("/edits/"+sid+"/save", url.Values{
		"customer_query": {""},
		"customer_id":    {id(zed.ID)},
		"date":           {inv.Date},
		"deadline":       {inv.Deadline},
	}, map[string]string{"sid": sid}))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	saved, err := f.client.GetInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, zed.ID, saved.CustomerID)
	assert.Len(t, saved.Lines, 2)
}

func TestEdit_SearchesCustomers(t *testing.T) {
	f := setup(t)
	zed := f.crowdCustomers(t)

	rec := httptest.NewRecorder()
	f.invoices.New(rec, get("/invoices/new", nil))
	sid := sessionFromLocation(t, rec)

	rec = httptest.NewRecorder()
	f.edits.Show(rec, get("/edits/"+sid, map[string]string{"sid": sid}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Zed Zzz")

	rec = httptest.NewRecorder()
	f.edits.Show(rec, get("/edits/"+sid+"?customer_query=zzz", map[string]string{"sid": sid}))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, fmt.Sprintf(`<option value="%d">Zed Zzz (Lyon)</option>`, zed.ID))
	assert.NotContains(t, body, "Aaa00")
	assert.Contains(t, body, `name="customer_query" value="zzz"`)
}

func TestCustomerOptions(t *testing.T) {
	listed := []api.Customer{{ID: 1, FirstName: "Ada", LastName: "Lovelace", City: "Paris"}}

	tests := []struct {
		name    string
		session session.EditSession
		want    []customerOption
	}{
		{
			name:    "no customer yet",
			session: session.EditSession{},
			want:    []customerOption{{ID: 1, Label: "Ada Lovelace (Paris)"}},
		},
		{
			name:    "customer in results",
			session: session.EditSession{Header: invoicelines.Header{CustomerID: 1}},
			want:    []customerOption{{ID: 1, Label: "Ada Lovelace (Paris)", Selected: true}},
		},
		{
			name:    "customer outside results",
			session: session.EditSession{Header: invoicelines.Header{CustomerID: 9}, CustomerLabel: "Zed Zzz"},
			want: []customerOption{
				{ID: 9, Label: "Zed Zzz", Selected: true},
				{ID: 1, Label: "Ada Lovelace (Paris)"},
			},
		},
		{
			name:    "customer changed without a known label",
			session: session.EditSession{Header: invoicelines.Header{CustomerID: 9}},
			want: []customerOption{
				{ID: 9, Label: "#9", Selected: true},
				{ID: 1, Label: "Ada Lovelace (Paris)"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, customerOptions(&tt.session, listed))
		})
	}
}

func TestEdit_ExpiredSession(t *testing.T) {
	f := setup(t)

	rec := httptest.NewRecorder()
	f.edits.Show(rec, get("/edits/nope", map[string]string{"sid": "nope"}))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/invoices", rec.Header().Get("Location"))
}

func TestCancel(t *testing.T) {
	f := setup(t)
	sid := f.sessions.Create(&session.EditSession{InvoiceID: 42})

	rec := httptest.NewRecorder()
	f.edits.Cancel(rec, post("/", nil, map[string]string{"sid": sid}))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/invoices/42", rec.Header().Get("Location"))
	assert.Zero(t, f.sessions.Len())
}

func TestCatalogLists(t *testing.T) {
	f := setup(t)

	rec := httptest.NewRecorder()
	NewCustomerHandler(f.client, zerolog.Nop()).List(rec, get("/customers?query=paris", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Marie Curie")
	assert.NotContains(t, body, "Alan Turing")

	r := get("/products?per_page=10", nil)
	r.Header.Set("Accept", "application/json")
	rec = httptest.NewRecorder()
	NewProductHandler(f.client, zerolog.Nop()).List(rec, r)
	require.Equal(t, http.StatusOK, rec.Code)
	var page api.ProductPage
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	assert.Len(t, page.Products, 5)
	assert.Equal(t, pagination.PerPageOptions[0], page.Pagination.PageSize)
}
