package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"

	echoapi "github.com/trezcool/microlearn/apps/api/echo"
	"github.com/trezcool/microlearn/core"
	"github.com/trezcool/microlearn/core/user"
	emailsvc "github.com/trezcool/microlearn/services/email"
	"github.com/trezcool/microlearn/testutil"
)

func Test_userApi_login(t *testing.T) {
	setup(t)

	testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.cd", "LolC@t123", []string{user.RoleAdmin}, true)
	testutil.CreateUser(t, usrRepo, "N Dog", "ndog", "ndog@test.cd", "LolC@t123", []string{user.RoleAdmin}, false)

	reqMsg := "this field is required"
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echoapi.LoginRequest{Username: reqMsg, Password: reqMsg}),
		},
		{
			name: "unknown user", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, echoapi.LoginRequest{Username: "lol", Password: "LolC@t123"}),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, echoapi.LoginRequest{Username: "admin", Password: "lol"}),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "inactive user", wantCode: http.StatusForbidden,
			body:     marchallObj(t, echoapi.LoginRequest{Username: "ndog", Password: "LolC@t123"}),
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "by username", body: marchallObj(t, echoapi.LoginRequest{Username: " ADMIN ", Password: "LolC@t123"})},
		{name: "by email", body: marchallObj(t, echoapi.LoginRequest{Username: "admin@test.cd", Password: "LolC@t123"})},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/login"
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var respData echoapi.LoginResponse
				unmarshal(t, rec, &respData)
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}

	admin, err := usrRepo.GetUser(context.Background(), user.GetFilter{Username: "admin"})
	if err != nil {
		t.Fatalf("GetUser() failed: %v", err)
	}
	if admin.LastLogin.IsZero() {
		t.Error("failed! last_login not set")
	}
}

func Test_userApi_userRefreshToken(t *testing.T) {
	setup(t)

	naughty := testutil.CreateUser(t, usrRepo, "N Dog", "ndog", "ndog@test.cd", "", []string{user.RoleAdmin}, false)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)

	now := time.Now()
	unrefreshableClaims := &echoapi.Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   admin.ID,
			Audience:  "Dashboard",
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		OrigIssuedAt: now.Add(-2 * conf.Server.JWTRefreshExpirationDelta).Unix(), // older than threshold
		IsAdmin:      admin.IsAdmin(),
		Roles:        admin.Roles,
	}
	unrefreshableToken, err := echoapi.GenerateToken(conf, unrefreshableClaims)
	if err != nil {
		t.Fatalf("GenerateToken(): %v", err)
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Inactive user not allowed", token: getToken(t, naughty), wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"})},
		{name: "Refresh period expired", token: unrefreshableToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"})},
		{name: "Token refreshed", token: getToken(t, admin), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/token-refresh"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			// cannot guess new token.. just check that it's not empty
			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData echoapi.LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userQuery(t *testing.T) {
	setup(t)

	path := func(search, ordering string, roles ...string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		for _, r := range roles {
			v.Add("role", r)
		}
		return "/v1/users?" + v.Encode()
	}

	operator := testutil.CreateUser(t, usrRepo, "Operator", "oper", "oper@test.cd", "", nil, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	super := testutil.CreateUser(t, usrRepo, "Boss", "boss", "boss@test.cd", "", []string{user.RoleAdminSuper}, true)
	token := getToken(t, admin)

	runHTTPTests(t, []httpTest{
		{name: "Auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Admin required", path: "/v1/users", token: getToken(t, operator), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "Get all", path: "/v1/users", token: token, wantData: marchallList(t, operator, admin, super)},
		{name: "search (unknown)", path: path("lol", ""), token: token, wantData: marchallList(t)},
		{name: "search=BOSS", path: path("BOSS", ""), token: token, wantData: marchallList(t, super)},
		{name: "role=admin:super", path: path("", "", user.RoleAdminSuper), token: token, wantData: marchallList(t, super)},
		{name: "order by -name", path: path("", "-name"), token: token, wantData: marchallList(t, operator, super, admin)},
		{name: "order by name", path: path("", "name"), token: token, wantData: marchallList(t, admin, super, operator)},
		{name: "roles", path: "/v1/users/roles", token: token, wantData: marchallObj(t, user.Roles)},
	})
}

func Test_userApi_userCreate(t *testing.T) {
	setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	super := testutil.CreateUser(t, usrRepo, "Boss", "boss", "boss@test.cd", "", []string{user.RoleAdminSuper}, true)
	token := getToken(t, super)

	runHTTPTests(t, []httpTest{
		{name: "Super admin required", method: http.MethodPost, path: "/v1/users/register", token: getToken(t, admin), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{
			name: "required fields", method: http.MethodPost, path: "/v1/users/register", token: token,
			body: marchallObj(t, user.NewUser{}), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"name":             "this field is required",
				"username":         "one of username or email is required",
				"email":            "one of username or email is required",
				"password":         "password must contain at least 8 characters",
				"password_confirm": "this field is required",
			}),
		},
		{
			name: "username taken", method: http.MethodPost, path: "/v1/users/register", token: token,
			body:     marchallObj(t, user.NewUser{Name: "x", Username: "ADMIN", Password: "LolC@t123", PasswordConfirm: "LolC@t123"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"username": user.ErrUsernameExists.Error()}),
		},
	})

	rec := serve(http.MethodPost, "/v1/users/register", token, marchallObj(t, user.NewUser{
		Name: "Operator", Username: "oper", Email: "OPER@test.cd", Password: "LolC@t123", PasswordConfirm: "LolC@t123",
		Roles: []string{user.RoleAdmin},
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var created user.User
	unmarshal(t, rec, &created)
	if created.ID == "" || created.Email != "oper@test.cd" || !created.IsAdmin() || !created.Active() {
		t.Errorf("failed! created = %+v", created)
	}
}

func Test_userApi_userDetail(t *testing.T) {
	setup(t)

	operator := testutil.CreateUser(t, usrRepo, "Operator", "oper", "oper@test.cd", "", nil, true)
	other := testutil.CreateUser(t, usrRepo, "Other", "other", "other@test.cd", "", nil, true)
	super := testutil.CreateUser(t, usrRepo, "Boss", "boss", "boss@test.cd", "", []string{user.RoleAdminSuper}, true)
	operToken := getToken(t, operator)
	superToken := getToken(t, super)
	notFound := marchallObj(t, httpErr{Error: "not found"})

	runHTTPTests(t, []httpTest{
		{name: "self", path: "/v1/users/" + operator.ID, token: operToken, wantData: marchallObj(t, operator)},
		{name: "other user hidden", path: "/v1/users/" + other.ID, token: operToken, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "admin sees all", path: "/v1/users/" + other.ID, token: superToken, wantData: marchallObj(t, other)},
		{name: "unknown", path: "/v1/users/lol", token: superToken, wantCode: http.StatusNotFound, wantData: notFound},
		{
			name: "non admin cannot set roles", method: http.MethodPut, path: "/v1/users/" + operator.ID, token: operToken,
			body: marchallObj(t, map[string]interface{}{"roles": []string{user.RoleAdmin}}), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{name: "cannot delete self", method: http.MethodDelete, path: "/v1/users/" + super.ID, token: superToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
	})

	rec := serve(http.MethodPut, "/v1/users/"+operator.ID, operToken, marchallObj(t, map[string]interface{}{"name": "Renamed"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var updated user.User
	unmarshal(t, rec, &updated)
	if updated.Name != "Renamed" || updated.Username != operator.Username {
		t.Errorf("failed! updated = %+v", updated)
	}

	if rec = serve(http.MethodDelete, "/v1/users/"+other.ID, superToken); rec.Code != http.StatusNoContent {
		t.Errorf("failed! delete code = %v; want %v", rec.Code, http.StatusNoContent)
	}
	if _, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: other.ID}); err != user.ErrNotFound {
		t.Errorf("failed! GetUser() err = %v; want %v", err, user.ErrNotFound)
	}
}

func Test_userApi_passwordReset(t *testing.T) {
	setup(t)

	operator := testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleAdmin}, true)
	testutil.CreateUser(t, usrRepo, "Gone", "gone", "gone@test.cd", "", []string{user.RoleAdmin}, false)
	successData := marchallObj(t, echoapi.SuccessResponse{Success: "If the email address supplied is associated with an active account on this system, " +
		"an email will arrive in your inbox shortly with instructions to reset your password."})
	linkRegex := regexp.MustCompile("/password-reset/[^/\\s\"]+/[^/\\s\"]+")

	type extraTest struct {
		emailSent bool
		to        mail.Address
	}
	tests := []httpTest{
		{
			name: "required fields", body: marchallObj(t, map[string]string{}), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echoapi.PasswordResetRequest{Email: "this field is required"}),
		},
		{
			name: "invalid email", body: marchallObj(t, echoapi.PasswordResetRequest{Email: "lol"}), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echoapi.PasswordResetRequest{Email: "email must be a valid email address"}),
		},
		{
			name: "unknown email", body: marchallObj(t, echoapi.PasswordResetRequest{Email: "lol@test.cd"}),
			wantCode: http.StatusOK, wantData: successData, extra: extraTest{},
		},
		{
			name: "inactive user", body: marchallObj(t, echoapi.PasswordResetRequest{Email: "gone@test.cd"}),
			wantCode: http.StatusOK, wantData: successData, extra: extraTest{},
		},
		{
			name: "known email", body: marchallObj(t, echoapi.PasswordResetRequest{Email: " HERO@test.cd "}),
			wantCode: http.StatusOK, wantData: successData,
			extra: extraTest{emailSent: true, to: mail.Address{Name: operator.Name, Address: operator.Email}},
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/password-reset"

		t.Run(tt.name, func(t *testing.T) {
			emailsvc.ResetSentMessages()

			rec := serve(tt.method, tt.path, "", tt.body)
			checkCodeAndData(t, tt, rec)

			extra, ok := tt.extra.(extraTest)
			if !ok {
				return
			}
			if !extra.emailSent {
				if len(emailsvc.SentMessages) > 0 {
					t.Errorf("failed! len(SentMessages) = %d; want 0", len(emailsvc.SentMessages))
				}
				return
			}
			if len(emailsvc.SentMessages) != 1 {
				t.Fatalf("failed! len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
			}
			msg := emailsvc.SentMessages[0]
			if msg.To[0] != extra.to {
				t.Errorf("failed! To = %v; want %v", msg.To[0], extra.to)
			}
			for _, content := range []string{msg.TextContent, msg.HTMLContent} {
				if !strings.Contains(content, extra.to.Name) {
					t.Errorf("failed! content does not contain recipient's name %q", extra.to.Name)
				}
				if !linkRegex.MatchString(content) {
					t.Errorf("failed! content does not match %v", linkRegex)
				}
			}
		})
	}
}

func Test_userApi_passwordResetConfirm(t *testing.T) {
	setup(t)

	operator := testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.cd", "lol", []string{user.RoleAdmin}, true)
	tokens := resetTokens()
	validUID := user.EncodeUID(operator)
	validToken, err := tokens.Make(operator)
	if err != nil {
		t.Fatalf("Make(): %v", err)
	}

	// generate an expired token
	dayLate := conf.PasswordResetTimeoutDelta + (24 * time.Hour)
	core.NowFunc = func() time.Time { return time.Now().Add(-dayLate) }
	expiredToken, err := tokens.Make(operator)
	core.NowFunc = time.Now // reset
	if err != nil {
		t.Fatalf("Make(): %v", err)
	}

	reqMsg := "this field is required"
	invalid := "invalid value"
	newPwd := "LolC@t123"
	tests := []httpTest{
		{
			name: "required fields", body: marchallObj(t, map[string]string{}), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, user.ResetUserPassword{Token: reqMsg, UID: reqMsg, Password: "password must contain at least 8 characters", PasswordConfirm: reqMsg}),
		},
		{
			name: "invalid pwd: no whitespace", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "l o loll", PasswordConfirm: "l o loll"}),
			wantData: marchallObj(t, map[string]string{"password": "password must not contain whitespace"}),
		},
		{
			name: "invalid pwd: complexity", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "lol12345", PasswordConfirm: "lol12345"}),
			wantData: marchallObj(t, map[string]string{"password": "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character"}),
		},
		{
			name: "password_confirm must equal password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: newPwd, PasswordConfirm: "lol"}),
			wantData: marchallObj(t, map[string]string{"password_confirm": "password_confirm must be equal to Password"}),
		},
		{
			name: "malformed uid", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "not base64!", Password: newPwd, PasswordConfirm: newPwd}),
			wantData: marchallObj(t, map[string]string{"uid": invalid}),
		},
		{
			name: "user not found", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: user.EncodeUID(user.User{ID: "999"}), Password: newPwd, PasswordConfirm: newPwd}),
			wantData: marchallObj(t, map[string]string{"uid": invalid}),
		},
		{
			name: "invalid token", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "HE4TS-sigsig-sig", UID: validUID, Password: newPwd, PasswordConfirm: newPwd}),
			wantData: marchallObj(t, map[string]string{"token": invalid}),
		},
		{
			name: "expired token", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: expiredToken, UID: validUID, Password: newPwd, PasswordConfirm: newPwd}),
			wantData: marchallObj(t, map[string]string{"token": invalid}),
		},
		{
			name: "valid token", wantCode: http.StatusOK,
			body:     marchallObj(t, user.ResetUserPassword{Token: validToken, UID: validUID, Password: newPwd, PasswordConfirm: newPwd}),
			wantData: marchallObj(t, echoapi.SuccessResponse{Success: "Password has been reset with the new password."}),
		},
		{
			name: "token used twice", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: validToken, UID: validUID, Password: "N3w@Passw0rd", PasswordConfirm: "N3w@Passw0rd"}),
			wantData: marchallObj(t, map[string]string{"token": invalid}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/password-reset-confirm"

		t.Run(tt.name, func(t *testing.T) {
			rec := serve(tt.method, tt.path, "", tt.body)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				refreshed, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: operator.ID})
				if err != nil {
					t.Fatalf("GetUser() failed, %v", err)
				}
				if bytes.Equal(refreshed.PasswordHash, operator.PasswordHash) {
					t.Fatal("failed to update new password")
				}
				if err = refreshed.CheckPassword(newPwd); err != nil {
					t.Errorf("failed! CheckPassword() = %v", err)
				}
			}
		})
	}

	rec := serve(http.MethodPost, "/v1/users/login", "", marchallObj(t, echoapi.LoginRequest{Username: "hero", Password: newPwd}))
	if rec.Code != http.StatusOK {
		t.Errorf("failed! login with the new password: code = %v; body %s", rec.Code, rec.Body.String())
	}
}
