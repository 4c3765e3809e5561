package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/packlint/internal/store"
)

const validatePayload = `{
	"package_name": "geo.zip",
	"documents": [
		{"name": "stim.json", "content": {"setspec": {"clusters": [
			{"stims": [{"display": {"text": "two plus two"}, "response": {"correctResponse": "4"}}]}
		]}}},
		{"name": "tdf.json", "content": {"tutor": {
			"setspec": {"lessonname": "L", "stimulusfile": "stim.json"},
			"unit": [{"learningsession": {"clusterlist": "0"}}]
		}}}
	],
	"media": []
}`

func validateContext(t *testing.T, payload string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/packages/validate", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", "user-1")
	return c, rec
}

func TestValidateStoresRun(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	query := regexp.QuoteMeta(`INSERT INTO validation_runs (id, user_id, package_name, valid, error_count, warning_count, report) VALUES ($1,$2,$3,$4,$5,$6,$7)`)
	mock.ExpectExec(query).
		WithArgs(sqlmock.AnyArg(), "user-1", "geo.zip", true, 0, 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := &PackagesHandler{Store: &store.Store{DB: db}}
	c, rec := validateContext(t, validatePayload)
	if err := h.validate(c); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp ValidateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.RunID == "" || !resp.Report.Summary.Valid {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Report.Summary.Counts.TDF != 1 || resp.Report.Summary.Counts.Stimulus != 1 {
		t.Fatalf("counts = %+v", resp.Report.Summary.Counts)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestValidateInvalidPackage(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	payload := `{
		"package_name": "broken.zip",
		"documents": [{"name": "stim.json", "content": {"setspec": {"clusters": []}}}]
	}`
	query := regexp.QuoteMeta(`INSERT INTO validation_runs`)
	mock.ExpectExec(query).
		WithArgs(sqlmock.AnyArg(), "user-1", "broken.zip", false, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := &PackagesHandler{Store: &store.Store{DB: db}}
	c, rec := validateContext(t, payload)
	if err := h.validate(c); err != nil {
		t.Fatalf("validate: %v", err)
	}

	var resp ValidateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Report.Summary.Valid {
		t.Fatal("package without TDFs must be invalid")
	}
	if len(resp.Report.Summary.Errors) == 0 {
		t.Fatal("expected structural errors")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestValidateRejectsEmptyDocuments(t *testing.T) {
	h := &PackagesHandler{}
	c, _ := validateContext(t, `{"documents": []}`)
	err := h.validate(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("err = %v", err)
	}
}

func TestRequestDigestDistinguishesContent(t *testing.T) {
	a := ValidateRequest{Documents: []DocumentPayload{{Name: "a.json", Content: []byte(`{}`)}}}
	b := ValidateRequest{Documents: []DocumentPayload{{Name: "a.json", Content: []byte(`{"x":1}`)}}}
	if requestDigest(a, false) == requestDigest(b, false) {
		t.Fatal("different content must not collide")
	}
	if requestDigest(a, false) == requestDigest(a, true) {
		t.Fatal("timeline flag must be part of the digest")
	}
	if requestDigest(a, false) != requestDigest(a, false) {
		t.Fatal("digest must be stable")
	}
}
