package http_test

import (
	"net/http"
	"strconv"
	"strings"
	"testing"

	"brainbuster-service/internal/domain"
	"brainbuster-service/internal/testutil"
)

func login(t *testing.T, base, username, password string) domain.AuthResult {
	t.Helper()
	r := call(t, http.MethodPost, base+"/api/auth/login", "", map[string]string{"username": username, "password": password})
	expectStatus(t, r, http.StatusOK)
	var res domain.AuthResult
	r.decode(t, &res)
	return res
}

func TestRegisterLoginRefresh(t *testing.T) {
	stack := testutil.NewStack(t)
	base := stack.URL()

	r := call(t, http.MethodPost, base+"/api/auth/register", "", map[string]string{"username": "alice", "password": "secret1"})
	expectStatus(t, r, http.StatusCreated)
	var reg domain.AuthResult
	r.decode(t, &reg)
	if reg.Token == "" || reg.RefreshToken == "" || reg.User.Role != domain.RoleUser {
		t.Fatalf("unexpected register response %+v", reg)
	}

	expectStatus(t, call(t, http.MethodPost, base+"/api/auth/register", "", map[string]string{"username": "alice", "password": "secret1"}), http.StatusConflict)
	expectStatus(t, call(t, http.MethodPost, base+"/api/auth/register", "", map[string]string{"username": "al", "password": "secret1"}), http.StatusBadRequest)
	expectStatus(t, call(t, http.MethodPost, base+"/api/auth/login", "", map[string]string{"username": "alice", "password": "wrong!"}), http.StatusUnauthorized)
	expectStatus(t, call(t, http.MethodPost, base+"/api/auth/login", "", map[string]string{"username": "nobody", "password": "secret1"}), http.StatusUnauthorized)

	res := login(t, base, "alice", "secret1")

	r = call(t, http.MethodPost, base+"/api/auth/refresh", "", map[string]string{"refreshToken": res.RefreshToken})
	expectStatus(t, r, http.StatusOK)
	// an access token is not accepted as a refresh token
	expectStatus(t, call(t, http.MethodPost, base+"/api/auth/refresh", "", map[string]string{"refreshToken": res.Token}), http.StatusUnauthorized)

	r = call(t, http.MethodPost, base+"/api/auth/validate", "", map[string]string{"token": res.Token, "username": "alice"})
	expectStatus(t, r, http.StatusOK)
	var valid bool
	r.decode(t, &valid)
	if !valid {
		t.Fatalf("expected token valid for alice")
	}
	r = call(t, http.MethodPost, base+"/api/auth/validate", "", map[string]string{"token": res.Token, "username": "admin"})
	r.decode(t, &valid)
	if valid {
		t.Fatalf("expected token invalid for another user")
	}

	r = call(t, http.MethodGet, base+"/api/users/me", res.Token, nil)
	expectStatus(t, r, http.StatusOK)
	var me domain.User
	r.decode(t, &me)
	if me.Username != "alice" {
		t.Fatalf("unexpected me %+v", me)
	}
	if strings.Contains(string(r.body), "password") {
		t.Fatalf("user payload leaks password hash: %s", string(r.body))
	}
}

func TestProtectedRoutes(t *testing.T) {
	stack := testutil.NewStack(t, testutil.SampleQuestions(2)...)
	base := stack.URL()

	expectStatus(t, call(t, http.MethodGet, base+"/api/users/me", "", nil), http.StatusUnauthorized)
	expectStatus(t, call(t, http.MethodGet, base+"/api/users/me", "garbage", nil), http.StatusUnauthorized)
	expectStatus(t, call(t, http.MethodGet, base+"/api/questions/search", "", nil), http.StatusUnauthorized)
	// a bad token is rejected even on optionally authenticated routes
	expectStatus(t, call(t, http.MethodPost, base+"/api/sp/sessions", "garbage", domain.CreateSessionRequest{NumQuestions: 1}), http.StatusUnauthorized)

	_ = call(t, http.MethodPost, base+"/api/auth/register", "", map[string]string{"username": "alice", "password": "secret1"})
	user := login(t, base, "alice", "secret1")
	admin := login(t, base, "admin", "admin123")

	expectStatus(t, call(t, http.MethodGet, base+"/api/users", user.Token, nil), http.StatusForbidden)
	expectStatus(t, call(t, http.MethodGet, base+"/api/users", admin.Token, nil), http.StatusOK)

	r := call(t, http.MethodPost, base+"/api/admin/users", admin.Token, map[string]string{"username": "root2", "password": "secret2"})
	expectStatus(t, r, http.StatusCreated)
	var created domain.User
	r.decode(t, &created)
	if created.Role != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %q", created.Role)
	}
	expectStatus(t, call(t, http.MethodPost, base+"/api/admin/users", user.Token, map[string]string{"username": "root3", "password": "secret3"}), http.StatusForbidden)

	expectStatus(t, call(t, http.MethodDelete, base+"/api/users/"+strconv.FormatInt(created.ID, 10), admin.Token, nil), http.StatusNoContent)
	expectStatus(t, call(t, http.MethodDelete, base+"/api/users/"+strconv.FormatInt(created.ID, 10), admin.Token, nil), http.StatusNotFound)
}

func TestQuestionRoutes(t *testing.T) {
	stack := testutil.NewStack(t, testutil.SampleQuestions(3)...)
	base := stack.URL()
	admin := login(t, base, "admin", "admin123")
	_ = call(t, http.MethodPost, base+"/api/auth/register", "", map[string]string{"username": "alice", "password": "secret1"})
	user := login(t, base, "alice", "secret1")

	r := call(t, http.MethodGet, base+"/api/questions/search?category=GENERAL", user.Token, nil)
	expectStatus(t, r, http.StatusOK)
	var list []domain.Question
	r.decode(t, &list)
	if len(list) != 3 {
		t.Fatalf("expected bare list of 3, got %d", len(list))
	}

	r = call(t, http.MethodGet, base+"/api/questions/search?page=0&size=2&sort=-id", user.Token, nil)
	expectStatus(t, r, http.StatusOK)
	var page domain.Page[domain.Question]
	r.decode(t, &page)
	if page.TotalElements != 3 || page.TotalPages != 2 || len(page.Content) != 2 || page.Content[0].ID != 3 {
		t.Fatalf("unexpected page %+v", page)
	}

	newQ := map[string]any{
		"type": "multiple", "difficulty": "hard", "category": "Extra", "question": "  Trimmed?  ",
		"correctAnswer": "yes", "incorrectAnswers": []string{"no", " no ", "", "yes", "maybe"},
	}
	expectStatus(t, call(t, http.MethodPost, base+"/api/questions", user.Token, newQ), http.StatusForbidden)

	r = call(t, http.MethodPost, base+"/api/questions", admin.Token, newQ)
	expectStatus(t, r, http.StatusCreated)
	var q domain.Question
	r.decode(t, &q)
	if q.Question != "Trimmed?" || len(q.IncorrectAnswers) != 2 || q.IncorrectAnswers[0] != "no" || q.IncorrectAnswers[1] != "maybe" {
		t.Fatalf("unexpected normalised question %+v", q)
	}
	id := strconv.FormatInt(q.ID, 10)

	// the new category is immediately playable
	expectStatus(t, call(t, http.MethodPost, base+"/api/sp/sessions", "", domain.CreateSessionRequest{NumQuestions: 1, Category: "extra"}), http.StatusCreated)

	bad := map[string]any{"type": "multiple", "difficulty": "hard", "category": "Extra", "question": "Q", "correctAnswer": "a", "incorrectAnswers": []string{"a", " "}}
	expectStatus(t, call(t, http.MethodPost, base+"/api/questions", admin.Token, bad), http.StatusBadRequest)

	newQ["question"] = "Updated?"
	r = call(t, http.MethodPut, base+"/api/questions/"+id, admin.Token, newQ)
	expectStatus(t, r, http.StatusOK)
	r = call(t, http.MethodGet, base+"/api/questions/"+id, user.Token, nil)
	expectStatus(t, r, http.StatusOK)
	r.decode(t, &q)
	if q.Question != "Updated?" {
		t.Fatalf("expected updated question, got %+v", q)
	}

	expectStatus(t, call(t, http.MethodDelete, base+"/api/questions/"+id, admin.Token, nil), http.StatusNoContent)
	expectStatus(t, call(t, http.MethodGet, base+"/api/questions/"+id, user.Token, nil), http.StatusNotFound)
	expectStatus(t, call(t, http.MethodPut, base+"/api/questions/"+id, admin.Token, newQ), http.StatusNotFound)
	expectStatus(t, call(t, http.MethodGet, base+"/api/questions/abc", user.Token, nil), http.StatusBadRequest)

	// deleting invalidated the pool: the category is empty again
	expectStatus(t, call(t, http.MethodPost, base+"/api/sp/sessions", "", domain.CreateSessionRequest{NumQuestions: 1, Category: "extra"}), http.StatusUnprocessableEntity)
}
