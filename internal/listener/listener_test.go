package listener

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/objfilter/objfilter/internal/filter"
	"github.com/objfilter/objfilter/internal/runtime"
	"github.com/objfilter/objfilter/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func testListener(t *testing.T, passwordHash string) *Listener {
	t.Helper()

	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := zap.NewNop().Sugar()

	s, err := store.New(db, logger)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Setup(ctx))

	for name, pages := range map[string]int{"thick-books": 300, "all-books": 0} {
		priority := 0
		if name == "all-books" {
			priority = 9
		}
		def := filter.Filter{
			Name:     name,
			Priority: priority,
			LogicalExpression: filter.Rule{
				Criterion:       "pages",
				Operator:        filter.GreaterThanEqual,
				ComparisonValue: pages,
			}.Map(),
		}.Map()
		require.NoError(t, s.Upsert(ctx, def))
	}

	rt := runtime.NewFilters(s, logger)
	require.NoError(t, rt.UpdateFromStore(ctx))

	return NewListener("localhost:0", passwordHash, rt, logger)
}

func post(t *testing.T, l *Listener, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	l.mux.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestClassify(t *testing.T) {
	t.Parallel()

	l := testListener(t, "")

	t.Run("FirstMatchWins", func(t *testing.T) {
		rec, body := post(t, l, "/classify", `{"object": {"pages": 400}}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, body["match"])
		assert.Equal(t, "thick-books", body["filter"])
		assert.NotEmpty(t, body["request_id"])
	})

	t.Run("FallbackMatch", func(t *testing.T) {
		rec, body := post(t, l, "/classify", `{"object": {"pages": 100}}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "all-books", body["filter"])
	})

	t.Run("NoMatch", func(t *testing.T) {
		rec, body := post(t, l, "/classify", `{"object": {"pages": -1}}`)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, false, body["match"])
	})

	t.Run("EvaluationError", func(t *testing.T) {
		rec, body := post(t, l, "/classify", `{"object": {"pages": "many"}}`)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, body["error"], "cannot order")
	})

	t.Run("MalformedBody", func(t *testing.T) {
		rec, body := post(t, l, "/classify", `{"object": `)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, body["error"], "cannot parse JSON body")
	})

	t.Run("GetRejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/classify", nil)
		rec := httptest.NewRecorder()
		l.mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	l := testListener(t, "")

	inline := `{
		"name": "inline", "description": "", "priority": 0, "object_types": ["object"],
		"logical_expression": {
			"criterion": "pages", "operator": ">", "comparison_value": 300,
			"parameters": [], "multi_value_behavior": "none"
		}
	}`

	t.Run("True", func(t *testing.T) {
		rec, body := post(t, l, "/evaluate", `{"object": {"pages": 400}, "filter": `+inline+`}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, body["result"])
	})

	t.Run("False", func(t *testing.T) {
		rec, body := post(t, l, "/evaluate", `{"object": {"pages": 100}, "filter": `+inline+`}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, false, body["result"])
	})

	t.Run("InvalidDefinition", func(t *testing.T) {
		rec, body := post(t, l, "/evaluate", `{
			"object": {"pages": 100},
			"filter": {"criterion": "pages", "operator": ">", "comparison_value": 300}
		}`)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.NotEmpty(t, body["error"])
	})
}

func TestAuthentication(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("sesame"), bcrypt.MinCost)
	require.NoError(t, err)

	l := testListener(t, string(hash))

	t.Run("MissingCredentials", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/classify", strings.NewReader(`{"object": {"pages": 400}}`))
		rec := httptest.NewRecorder()
		l.mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")
	})

	t.Run("WrongPassword", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/classify", strings.NewReader(`{"object": {"pages": 400}}`))
		req.SetBasicAuth("anyone", "mellon")
		rec := httptest.NewRecorder()
		l.mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("CorrectPassword", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/classify", strings.NewReader(`{"object": {"pages": 400}}`))
		req.SetBasicAuth("anyone", "sesame")
		rec := httptest.NewRecorder()
		l.mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
