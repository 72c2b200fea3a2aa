package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	echoapi "github.com/mwalimu/alama/apps/api/echo"
	"github.com/mwalimu/alama/core/user"
)

func Test_userApi_login(t *testing.T) {
	app := setup(t)

	usr := createUser(t, "Teacher", "teacher", "teacher@test.cd", "LePassword123", []string{user.RoleTeacher}, true)
	createUser(t, "Gone", "ghost1", "ghost@test.cd", "LePassword123", nil, false)

	login := func(uname, pwd string) []byte {
		return marchallObj(t, map[string]interface{}{"username": uname, "password": pwd})
	}

	tests := []httpTest{
		{name: "Unknown user fails", method: http.MethodPost, path: "/v1/users/login", body: login("lol", "lol"), wantCode: http.StatusBadRequest},
		{name: "Wrong password fails", method: http.MethodPost, path: "/v1/users/login", body: login("teacher", "lol"), wantCode: http.StatusBadRequest},
		{name: "Deactivated account is rejected", method: http.MethodPost, path: "/v1/users/login", body: login("ghost1", "LePassword123"), wantCode: http.StatusForbidden},
		{name: "Login with username", method: http.MethodPost, path: "/v1/users/login", body: login("teacher", "LePassword123"), wantCode: http.StatusOK},
		{name: "Login with email", method: http.MethodPost, path: "/v1/users/login", body: login("teacher@test.cd", "LePassword123"), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if rec.Code == http.StatusOK {
				var res echoapi.LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
					t.Fatalf("unmarshalling response failed: %v", err)
				}
				assert.NotEmpty(t, res.Token)
			}
		})
	}

	t.Run("Login records last login", func(t *testing.T) {
		refreshed, err := usrRepo.GetUserByID(context.Background(), usr.ID)
		if err != nil {
			t.Fatalf("GetUserByID() failed: %v", err)
		}
		assert.False(t, refreshed.LastLogin.IsZero())
	})
}

func Test_userApi_tokenRefresh(t *testing.T) {
	app := setup(t)

	usr := createUser(t, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)

	req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", getToken(t, usr))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var res echoapi.LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshalling response failed: %v", err)
	}
	assert.NotEmpty(t, res.Token)
}

func Test_userApi_query(t *testing.T) {
	app := setup(t)

	path := func(search string, isActive *bool, roles ...string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if isActive != nil {
			v.Add("is_active", strconv.FormatBool(*isActive))
		}
		for _, r := range roles {
			v.Add("role", r)
		}
		return "/v1/users?" + v.Encode()
	}
	bPtr := func(b bool) *bool { return &b }

	admin := createUser(t, "Admin", "admin1", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher := createUser(t, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	std := createUser(t, "Hero", "hero01", "hero@test.cd", "", []string{user.RoleStudent}, true)
	naughty := createUser(t, "N Dog", "ndog01", "ndog@test.cd", "", []string{user.RoleStudent}, false)

	adminToken := getToken(t, admin)
	empty := []byte("[]") // handlers return an empty list, never null

	tests := []httpTest{
		{name: "Auth required", method: http.MethodGet, path: "/v1/users", wantCode: http.StatusUnauthorized},
		{name: "Admin required", method: http.MethodGet, path: "/v1/users", token: getToken(t, std), wantCode: http.StatusForbidden},
		{name: "Get all", method: http.MethodGet, path: "/v1/users", token: adminToken, wantCode: http.StatusOK,
			wantData: marchallList(t, admin, teacher, std, naughty)},
		{name: "search (unknown)", method: http.MethodGet, path: path("lol", nil), token: adminToken, wantCode: http.StatusOK, wantData: empty},
		{name: "search=hero", method: http.MethodGet, path: path("hero", nil), token: adminToken, wantCode: http.StatusOK,
			wantData: marchallList(t, std)},
		{name: "role=teacher:", method: http.MethodGet, path: path("", nil, user.RoleTeacher), token: adminToken, wantCode: http.StatusOK,
			wantData: marchallList(t, teacher)},
		{name: "role=student:", method: http.MethodGet, path: path("", nil, user.RoleStudent), token: adminToken, wantCode: http.StatusOK,
			wantData: marchallList(t, std, naughty)},
		{name: "is_active=false", method: http.MethodGet, path: path("", bPtr(false)), token: adminToken, wantCode: http.StatusOK,
			wantData: marchallList(t, naughty)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_register(t *testing.T) {
	app := setup(t)

	admin := createUser(t, "Admin", "admin1", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher := createUser(t, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)

	body := func(uname string, roles ...string) []byte {
		return marchallObj(t, map[string]interface{}{
			"name":             "New Teacher",
			"username":         uname,
			"email":            uname + "@test.cd",
			"password":         "Str0ng&Safe",
			"password_confirm": "Str0ng&Safe",
			"roles":            roles,
		})
	}

	tests := []httpTest{
		{name: "Auth required", method: http.MethodPost, path: "/v1/users/register", body: body("newbie"), wantCode: http.StatusUnauthorized},
		{name: "Admin required", method: http.MethodPost, path: "/v1/users/register", body: body("newbie"),
			token: getToken(t, teacher), wantCode: http.StatusForbidden},
		{name: "Admin registers a teacher", method: http.MethodPost, path: "/v1/users/register", body: body("newbie", user.RoleTeacher),
			token: getToken(t, admin), wantCode: http.StatusCreated},
		{name: "Duplicate username rejected", method: http.MethodPost, path: "/v1/users/register", body: body("newbie", user.RoleTeacher),
			token: getToken(t, admin), wantCode: http.StatusBadRequest},
		{name: "Cannot grant a role above their own", method: http.MethodPost, path: "/v1/users/register", body: body("newprin", user.RoleAdminPrincipal),
			token: getToken(t, admin), wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_detail(t *testing.T) {
	app := setup(t)

	admin := createUser(t, "Admin", "admin1", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	std := createUser(t, "Hero", "hero01", "hero@test.cd", "", []string{user.RoleStudent}, true)
	other := createUser(t, "Other", "other1", "other@test.cd", "", []string{user.RoleStudent}, true)

	stdToken := getToken(t, std)
	adminToken := getToken(t, admin)

	idPath := func(id int) string { return "/v1/users/" + strconv.Itoa(id) }

	tests := []httpTest{
		{name: "Retrieve self", method: http.MethodGet, path: idPath(std.ID), token: stdToken, wantCode: http.StatusOK,
			wantData: marchallObj(t, std)},
		{name: "Others are hidden from non-admins", method: http.MethodGet, path: idPath(other.ID), token: stdToken, wantCode: http.StatusNotFound},
		{name: "Admin retrieves anyone", method: http.MethodGet, path: idPath(other.ID), token: adminToken, wantCode: http.StatusOK,
			wantData: marchallObj(t, other)},
		{name: "Non-admin cannot change own roles", method: http.MethodPut, path: idPath(std.ID), token: stdToken,
			body: marchallObj(t, map[string]interface{}{"roles": []string{user.RoleAdmin}}), wantCode: http.StatusForbidden},
		{name: "Non-admin cannot delete", method: http.MethodDelete, path: idPath(std.ID), token: stdToken, wantCode: http.StatusForbidden},
		{name: "Admin cannot delete themselves", method: http.MethodDelete, path: idPath(admin.ID), token: adminToken, wantCode: http.StatusForbidden},
		{name: "Admin deletes a user", method: http.MethodDelete, path: idPath(other.ID), token: adminToken, wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
