package pos

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return token
}

func TestParseTokenInfo(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name         string
		token        string
		wantJWT      bool
		wantIdentity string
		wantExpiry   time.Time
	}{
		{
			name:         "email claim",
			token:        signedToken(t, jwt.MapClaims{"sub": "12", "email": "cashier@shop.test", "exp": exp.Unix()}),
			wantJWT:      true,
			wantIdentity: "cashier@shop.test",
			wantExpiry:   exp,
		},
		{
			name:         "name claim",
			token:        signedToken(t, jwt.MapClaims{"name": "Ram"}),
			wantJWT:      true,
			wantIdentity: "Ram",
		},
		{
			name:         "subject only",
			token:        signedToken(t, jwt.MapClaims{"sub": "7"}),
			wantJWT:      true,
			wantIdentity: "user 7",
		},
		{
			name:         "opaque",
			token:        "42|PlainSanctumToken",
			wantIdentity: "authenticated user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseTokenInfo(tt.token)
			if info.IsJWT != tt.wantJWT {
				t.Fatalf("IsJWT = %v", info.IsJWT)
			}
			if got := info.Identity(); got != tt.wantIdentity {
				t.Errorf("Identity = %q, want %q", got, tt.wantIdentity)
			}
			if !info.ExpiresAt.Equal(tt.wantExpiry) {
				t.Errorf("ExpiresAt = %s, want %s", info.ExpiresAt, tt.wantExpiry)
			}
		})
	}
}

func TestTokenInfo_Expired(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	if (TokenInfo{}).Expired(now) {
		t.Error("a token without expiry never expires")
	}
	if !(TokenInfo{ExpiresAt: now.Add(-time.Minute)}).Expired(now) {
		t.Error("expected a past expiry to be expired")
	}
	if (TokenInfo{ExpiresAt: now.Add(time.Hour)}).Expired(now) {
		t.Error("expected a future expiry to be valid")
	}
}

func TestLogin_StoresToken(t *testing.T) {
	var body map[string]string
	r := mux.NewRouter()
	r.HandleFunc("/login", func(w http.ResponseWriter, req *http.Request) {
		_ = json.NewDecoder(req.Body).Decode(&body)
		writeJSON(w, http.StatusOK, map[string]string{"token": "new-token", "message": "Welcome back"})
	}).Methods(http.MethodPost)

	c := newTestClient(t, r, "")
	msg, err := c.Login(context.Background(), " cashier@shop.test ", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if msg != "Welcome back" {
		t.Errorf("message = %q", msg)
	}
	if body["email"] != "cashier@shop.test" || body["password"] != "pw" {
		t.Errorf("unexpected body %v", body)
	}
	if c.Token() != "new-token" {
		t.Fatalf("token = %q", c.Token())
	}

	if err := c.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if err := c.RequireToken(); err != ErrNotLoggedIn {
		t.Fatalf("RequireToken after logout = %v", err)
	}
}

func TestLogin_Failures(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/login", func(w http.ResponseWriter, req *http.Request) {
		var in map[string]string
		_ = json.NewDecoder(req.Body).Decode(&in)
		if in["password"] == "wrong" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Account locked"})
	})

	c := newTestClient(t, r, "")
	ctx := context.Background()

	if _, err := c.Login(ctx, "", "pw"); err == nil {
		t.Error("expected an error for a blank email")
	}
	if _, err := c.Login(ctx, "a@b.c", "wrong"); !IsUnauthorized(err) {
		t.Errorf("expected unauthorized, got %v", err)
	}
	if _, err := c.Login(ctx, "a@b.c", "right"); err == nil || err.Error() != "API error (200): Account locked" {
		t.Errorf("expected missing token error, got %v", err)
	}
	if c.Token() != "" {
		t.Error("no token should be stored after a failed login")
	}
}

func TestRegisterRequest_Validate(t *testing.T) {
	valid := RegisterRequest{Name: "Sita", Email: "sita@shop.test", Password: "pw", PasswordConfirmation: "pw"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	tests := map[string]func(r *RegisterRequest){
		"blank name":  func(r *RegisterRequest) { r.Name = " " },
		"bad email":   func(r *RegisterRequest) { r.Email = "sita" },
		"no password": func(r *RegisterRequest) { r.Password, r.PasswordConfirmation = "", "" },
		"mismatch":    func(r *RegisterRequest) { r.PasswordConfirmation = "other" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			r := valid
			mutate(&r)
			if err := r.Validate(); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestRegister_DoesNotLogIn(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/register", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]string{"message": "Registered", "token": "ignored"})
	}).Methods(http.MethodPost)

	c := newTestClient(t, r, "")
	msg, err := c.Register(context.Background(), RegisterRequest{Name: "Sita", Email: "sita@shop.test", Password: "pw", PasswordConfirmation: "pw"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if msg != "Registered" {
		t.Errorf("message = %q", msg)
	}
	if c.Token() != "" {
		t.Error("Register must not store a token")
	}
}
