package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"blackjack-table-go/internal/database"
	"blackjack-table-go/internal/game/common"
	"blackjack-table-go/internal/models"
	"blackjack-table-go/internal/session"

	"github.com/gin-gonic/gin"
)

type testServer struct {
	db     *sql.DB
	store  *session.Store
	engine *gin.Engine
	userID int64
}

// newTestServer wires the table routes behind a stub auth middleware
// that injects a fixed user id, so tests exercise handlers without
// minting tokens.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenAndMigrate(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenAndMigrate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	u, err := models.CreateUser(db, "owner", "hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	ts := &testServer{db: db, store: session.NewStore(), userID: u.ID}

	engine := gin.New()
	api := engine.Group("/api")
	api.Use(func(c *gin.Context) {
		c.Set("userID", ts.userID)
		c.Next()
	})
	RegisterTableRoutes(api, db, ts.store)
	ts.engine = engine
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func (ts *testServer) ownerChips(t *testing.T) int64 {
	t.Helper()
	u, err := models.GetUserByID(ts.db, ts.userID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	return u.Chips
}

type stateEnvelope struct {
	TableID string    `json:"table_id"`
	State   RoundView `json:"state"`
}

func decodeState(t *testing.T, w *httptest.ResponseRecorder) stateEnvelope {
	t.Helper()
	var env stateEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return env
}

func (ts *testServer) createTable(t *testing.T) string {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/tables", gin.H{"seats": []gin.H{
		{"name": "Ada", "buy_in": 100},
		{"name": "Ben", "buy_in": 100},
	}})
	if w.Code != http.StatusCreated {
		t.Fatalf("create table: status %d body %s", w.Code, w.Body.String())
	}
	env := decodeState(t, w)
	if env.TableID == "" {
		t.Fatal("create table returned no id")
	}
	return env.TableID
}

// rigDeck stacks the live table's deck so draws come out in order.
func (ts *testServer) rigDeck(t *testing.T, tableID string, order ...string) {
	t.Helper()
	tbl, ok := ts.store.Lookup(tableID)
	if !ok {
		t.Fatalf("table %s not in store", tableID)
	}
	r, unlock := tbl.Acquire()
	defer unlock()
	deck := make([]common.Card, len(order))
	for i, s := range order {
		c, err := common.ParseCard(s)
		if err != nil {
			t.Fatalf("ParseCard(%q): %v", s, err)
		}
		deck[len(order)-1-i] = c
	}
	r.Deck = deck
}

func TestCreateTableDebitsWallet(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createTable(t)

	if got := ts.ownerChips(t); got != 800 {
		t.Errorf("owner chips = %d, want 800 after two 100 buy-ins", got)
	}

	rec, err := models.GetTableRecord(ts.db, id)
	if err != nil {
		t.Fatalf("GetTableRecord: %v", err)
	}
	if rec.Status != "live" || rec.BuyInTotal != 200 {
		t.Errorf("record = %+v, want live with buy-in 200", rec)
	}

	w := ts.do(t, http.MethodGet, "/api/tables/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get table: status %d", w.Code)
	}
	state := decodeState(t, w).State
	if state.Phase != "betting" || len(state.Players) != 2 {
		t.Errorf("state = phase %s players %d, want betting/2", state.Phase, len(state.Players))
	}
}

func TestCreateTableRejectsOverdraft(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/api/tables", gin.H{"seats": []gin.H{
		{"name": "Ada", "buy_in": 2000},
	}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for insufficient chips", w.Code)
	}
	if got := ts.ownerChips(t); got != 1000 {
		t.Errorf("owner chips = %d, want untouched 1000", got)
	}
}

func TestRoundFlowOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createTable(t)
	// Ada natural, Ben 20, dealer 17.
	ts.rigDeck(t, id, "AS", "KS", "KH", "QH", "10D", "7D")

	w := ts.do(t, http.MethodPost, "/api/tables/"+id+"/bet", gin.H{"player_id": 1, "amount": 10})
	if w.Code != http.StatusOK {
		t.Fatalf("bet 1: status %d body %s", w.Code, w.Body.String())
	}
	w = ts.do(t, http.MethodPost, "/api/tables/"+id+"/bet", gin.H{"player_id": 2, "amount": 20})
	if w.Code != http.StatusOK {
		t.Fatalf("bet 2: status %d body %s", w.Code, w.Body.String())
	}
	state := decodeState(t, w).State
	if state.Phase != "playing" || !state.DealerHoleHidden || len(state.DealerHand) != 1 {
		t.Fatalf("after deal: phase %s hole hidden %v dealer cards %d", state.Phase, state.DealerHoleHidden, len(state.DealerHand))
	}

	w = ts.do(t, http.MethodPost, "/api/tables/"+id+"/stand", gin.H{"player_id": 2})
	if w.Code != http.StatusOK {
		t.Fatalf("stand: status %d body %s", w.Code, w.Body.String())
	}
	state = decodeState(t, w).State
	if state.Phase != "results" || state.DealerHoleHidden {
		t.Fatalf("after stand: phase %s hole hidden %v", state.Phase, state.DealerHoleHidden)
	}
	if state.Players[0].Balance != 115 || state.Players[1].Balance != 120 {
		t.Errorf("balances = %d/%d, want 115/120", state.Players[0].Balance, state.Players[1].Balance)
	}

	// Settlement lands in history exactly once.
	results, err := models.ListRoundResultsByTable(ts.db, id, 0)
	if err != nil {
		t.Fatalf("ListRoundResultsByTable: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("history rows = %d, want 2", len(results))
	}

	w = ts.do(t, http.MethodGet, "/api/tables/"+id+"/history", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("history: status %d", w.Code)
	}

	// Next round carries balances into fresh betting.
	w = ts.do(t, http.MethodPost, "/api/tables/"+id+"/next", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("next: status %d body %s", w.Code, w.Body.String())
	}
	state = decodeState(t, w).State
	if state.Phase != "betting" || state.RoundNumber != 2 {
		t.Errorf("round 2 state = phase %s round %d", state.Phase, state.RoundNumber)
	}
}

func TestActionErrorsMapToStatusCodes(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createTable(t)

	cases := []struct {
		name string
		path string
		body any
		want int
	}{
		{"unknown table", "/api/tables/nope/bet", gin.H{"player_id": 1, "amount": 10}, http.StatusNotFound},
		{"out of turn bet", "/api/tables/" + id + "/bet", gin.H{"player_id": 2, "amount": 10}, http.StatusConflict},
		{"invalid bet", "/api/tables/" + id + "/bet", gin.H{"player_id": 1, "amount": 0}, http.StatusBadRequest},
		{"bet over balance", "/api/tables/" + id + "/bet", gin.H{"player_id": 1, "amount": 101}, http.StatusBadRequest},
		{"unknown player", "/api/tables/" + id + "/bet", gin.H{"player_id": 9, "amount": 10}, http.StatusBadRequest},
		{"hit during betting", "/api/tables/" + id + "/hit", gin.H{"player_id": 1}, http.StatusConflict},
		{"next during betting", "/api/tables/" + id + "/next", nil, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, tc.path, tc.body)
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestOnlyOwnerMayAct(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createTable(t)

	intruder, err := models.CreateUser(ts.db, "intruder", "hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	ts.userID = intruder.ID

	w := ts.do(t, http.MethodPost, "/api/tables/"+id+"/bet", gin.H{"player_id": 1, "amount": 10})
	if w.Code != http.StatusForbidden {
		t.Errorf("foreign bet: status %d, want 403", w.Code)
	}
	w = ts.do(t, http.MethodDelete, "/api/tables/"+id, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("foreign close: status %d, want 403", w.Code)
	}

	// Read-only snapshots stay open to spectators.
	w = ts.do(t, http.MethodGet, "/api/tables/"+id, nil)
	if w.Code != http.StatusOK {
		t.Errorf("spectator get: status %d, want 200", w.Code)
	}
}

func TestCloseTableRefundsBalances(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createTable(t)

	w := ts.do(t, http.MethodDelete, "/api/tables/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("close: status %d body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Refunded int64 `json:"refunded"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Refunded != 200 {
		t.Errorf("refunded = %d, want the untouched 200 buy-in", resp.Refunded)
	}
	if got := ts.ownerChips(t); got != 1000 {
		t.Errorf("owner chips = %d, want restored 1000", got)
	}

	rec, err := models.GetTableRecord(ts.db, id)
	if err != nil {
		t.Fatalf("GetTableRecord: %v", err)
	}
	if rec.Status != "closed" {
		t.Errorf("record status = %s, want closed", rec.Status)
	}
	if w := ts.do(t, http.MethodGet, "/api/tables/"+id, nil); w.Code != http.StatusNotFound {
		t.Errorf("get after close: status %d, want 404", w.Code)
	}
}

func TestGameOverClosesRecord(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/tables", gin.H{"seats": []gin.H{{"name": "Ada", "buy_in": 10}}})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status %d", w.Code)
	}
	id := decodeState(t, w).TableID
	// Ada busts her whole bankroll: 10+6 then a king, dealer stands on 17.
	ts.rigDeck(t, id, "10H", "6H", "9S", "8S", "KD")

	for _, step := range []struct {
		path string
		body any
	}{
		{"/bet", gin.H{"player_id": 1, "amount": 10}},
		{"/hit", gin.H{"player_id": 1}},
		{"/next", nil},
	} {
		w = ts.do(t, http.MethodPost, fmt.Sprintf("/api/tables/%s%s", id, step.path), step.body)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: status %d body %s", step.path, w.Code, w.Body.String())
		}
	}
	state := decodeState(t, w).State
	if state.Phase != "finished" {
		t.Fatalf("phase = %s, want finished", state.Phase)
	}

	rec, err := models.GetTableRecord(ts.db, id)
	if err != nil {
		t.Fatalf("GetTableRecord: %v", err)
	}
	if rec.Status != "closed" {
		t.Errorf("record status = %s, want closed once everyone is broke", rec.Status)
	}
}
