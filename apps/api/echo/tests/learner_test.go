package tests

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/trezcool/microlearn/core/learner"
	"github.com/trezcool/microlearn/testutil"
)

func Test_learnerApi_query(t *testing.T) {
	setup(t)

	path := func(search, ordering string, statuses ...learner.Status) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		for _, s := range statuses {
			v.Add("status", string(s))
		}
		return "/v1/learners?" + v.Encode()
	}

	now := time.Now()
	amani := testutil.CreateLearner(t, learnerRepo, "Amani", "243812345678", 2, now.Add(-time.Hour))
	baraka := testutil.CreateLearner(t, learnerRepo, "Baraka", "254700000000", 0, now)
	_, token := adminToken(t)

	runHTTPTests(t, []httpTest{
		{name: "Auth required", path: "/v1/learners", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "newest first", path: "/v1/learners", token: token, wantData: marchallList(t, baraka, amani)},
		{name: "search by phone", path: path("2547", ""), token: token, wantData: marchallList(t, baraka)},
		{name: "search (unknown)", path: path("lol", ""), token: token, wantData: marchallList(t)},
		{name: "status=inactive", path: path("", "", learner.StatusInactive), token: token, wantData: marchallList(t)},
		{name: "order by -total_courses", path: path("", "-total_courses"), token: token, wantData: marchallList(t, amani, baraka)},
	})
}

func Test_learnerApi_create(t *testing.T) {
	setup(t)
	admin, token := adminToken(t)

	runHTTPTests(t, []httpTest{
		{
			name: "required fields", method: http.MethodPost, path: "/v1/learners", token: token,
			body: marchallObj(t, learner.NewLearner{}), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": "this field is required", "phone": "this field is required"}),
		},
		{
			name: "invalid phone", method: http.MethodPost, path: "/v1/learners", token: token,
			body: marchallObj(t, learner.NewLearner{Name: "Amani", Phone: "12-34"}), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"phone": "enter a valid phone number, with its country code"}),
		},
	})

	rec := serve(http.MethodPost, "/v1/learners", token, marchallObj(t, learner.NewLearner{
		Name: " Amani ", Email: "AMANI@test.cd", Phone: "+243 81 234 5678",
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var l learner.Learner
	unmarshal(t, rec, &l)
	want := learner.Learner{
		ID: l.ID, Name: "Amani", Email: "amani@test.cd", Phone: "243812345678", Status: learner.StatusActive,
		CreatedBy: admin.ID, CreatedAt: l.CreatedAt, UpdatedAt: l.UpdatedAt,
	}
	if l != want {
		t.Errorf("failed! learner = %+v; want %+v", l, want)
	}
}

func Test_learnerApi_detail(t *testing.T) {
	setup(t)
	_, token := adminToken(t)
	l := testutil.CreateLearner(t, learnerRepo, "Amani", "243812345678", 1)

	runHTTPTests(t, []httpTest{
		{name: "retrieve", path: "/v1/learners/" + l.ID, token: token, wantData: marchallObj(t, l)},
		{
			name: "unknown", path: "/v1/learners/lol", token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: learner.ErrNotFound.Error()}),
		},
		{
			name: "invalid email", method: http.MethodPut, path: "/v1/learners/" + l.ID, token: token,
			body:     marchallObj(t, map[string]string{"email": "lol"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"email": "email must be a valid email address"}),
		},
	})

	rec := serve(http.MethodPut, "/v1/learners/"+l.ID, token, marchallObj(t, map[string]string{"name": "Amani K."}))
	var updated learner.Learner
	unmarshal(t, rec, &updated)
	if rec.Code != http.StatusOK || updated.Name != "Amani K." || updated.Phone != l.Phone || updated.TotalCourses != 1 {
		t.Errorf("failed! update = %v %+v", rec.Code, updated)
	}

	rec = serve(http.MethodPost, "/v1/learners/"+l.ID+"/toggle-status", token)
	unmarshal(t, rec, &updated)
	if rec.Code != http.StatusOK || updated.Status != learner.StatusInactive {
		t.Errorf("failed! toggle = %v %s", rec.Code, updated.Status)
	}

	if rec = serve(http.MethodDelete, "/v1/learners/"+l.ID, token); rec.Code != http.StatusNoContent {
		t.Errorf("failed! delete code = %v; want %v", rec.Code, http.StatusNoContent)
	}
	if rec = serve(http.MethodGet, "/v1/learners/"+l.ID, token); rec.Code != http.StatusNotFound {
		t.Errorf("failed! code after delete = %v; want %v", rec.Code, http.StatusNotFound)
	}
}
