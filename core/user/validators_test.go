package user

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/microlearn/core"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func newValidator() *validator.Validate {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	LoadCommonPasswords(nopLogger{})
	return validate
}

func TestNewUser_passwordPolicy(t *testing.T) {
	validate := newValidator()

	tests := []struct {
		name    string
		pwd     string
		wantTag string
	}{
		{name: "too short", pwd: "Ab1!", wantTag: pwdMinLenTag},
		{name: "whitespace", pwd: "Abcd 1234!", wantTag: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890", wantTag: pwdNotAllNumTag},
		{name: "no special char", pwd: "Abcd12345", wantTag: pwdComplexityTag},
		{name: "similar to username", pwd: "Jonsnow1!", wantTag: pwdAttrSimTag},
		{name: "common", pwd: "Microlearn@123", wantTag: pwdNoCommonTag},
		{name: "valid", pwd: "Tr0ub4dor&3x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := NewUser{
				Name:            "Admin",
				Username:        "jonsnow1",
				Password:        tt.pwd,
				PasswordConfirm: tt.pwd,
			}
			err := validate.Struct(nu)
			if tt.wantTag == "" {
				if err != nil {
					t.Errorf("validate.Struct() unexpected error = %v", err)
				}
				return
			}
			vErrs, ok := err.(validator.ValidationErrors)
			if !ok {
				t.Fatalf("validate.Struct() error = %v, want validator.ValidationErrors", err)
			}
			var found bool
			for _, fe := range vErrs {
				if fe.Field() == "password" && fe.Tag() == tt.wantTag {
					found = true
				}
			}
			if !found {
				t.Errorf("validate.Struct() error = %v, want tag %s", err, tt.wantTag)
			}
		})
	}
}

func TestNewUser_roles(t *testing.T) {
	validate := newValidator()

	tests := []struct {
		name    string
		roles   []string
		wantErr bool
	}{
		{name: "no roles"},
		{name: "admin", roles: []string{RoleAdmin}},
		{name: "super admin", roles: []string{RoleAdmin, RoleAdminSuper}},
		{name: "unknown role", roles: []string{RoleAdmin, "teacher:"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := NewUser{
				Name:            "Admin",
				Email:           "admin@microlearn.test",
				Password:        "Tr0ub4dor&3x",
				PasswordConfirm: "Tr0ub4dor&3x",
				Roles:           tt.roles,
			}
			if err := validate.Struct(nu); (err != nil) != tt.wantErr {
				t.Errorf("validate.Struct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMaxRolePriority(t *testing.T) {
	if got := MaxRolePriority([]string{RoleAdmin}); got >= MaxRolePriority([]string{RoleAdminSuper}) {
		t.Errorf("MaxRolePriority(admin) = %d, want less than super admin", got)
	}
	if got := MaxRolePriority(nil); got != 0 {
		t.Errorf("MaxRolePriority(nil) = %d, want 0", got)
	}
}
