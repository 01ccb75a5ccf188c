package routes

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vehicleoffer_go/config"
	"vehicleoffer_go/repository"
	"vehicleoffer_go/services"
	"vehicleoffer_go/storage"
	"vehicleoffer_go/utils"

	"github.com/gin-gonic/gin"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type api struct {
	t *testing.T
	r *gin.Engine
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.RegisterValidators()

	dir := t.TempDir()
	svc := services.New(services.Dependencies{
		Store:  repository.NewMemoryStore().Store(),
		Images: storage.NewLocalStore(dir, "/uploads"),
		JWT:    config.NewJWTService(&config.JWTConfig{SecretKey: "k", ExpirationTime: time.Hour, Issuer: "vehicleoffer"}),
		Market: &config.MarketConfig{
			ReadRetryAttempts: 1,
			ReadRetryBase:     time.Millisecond,
			MaxImages:         10,
			MaxImageSize:      1 << 20,
			OfferRateLimit:    10,
		},
	})

	r := gin.New()
	SetupRoutes(r, Dependencies{Services: svc, UploadDir: dir})
	return &api{t: t, r: r}
}

func (a *api) do(method, path, token string, body interface{}) (int, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return a.serve(req)
}

func (a *api) serve(req *http.Request) (int, envelope) {
	a.t.Helper()
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		a.t.Fatalf("%s %s: invalid body %q", req.Method, req.URL.Path, w.Body.String())
	}
	return w.Code, env
}

func (a *api) signUp(name, role string) string {
	a.t.Helper()
	status, env := a.do(http.MethodPost, "/api/auth/signup", "", gin.H{
		"name": name, "email": name + "@example.com", "password": "secret123", "role": role,
	})
	if status != http.StatusCreated {
		a.t.Fatalf("sign up %s: %d %s", name, status, env.Message)
	}
	var res struct {
		Token string `json:"token"`
	}
	json.Unmarshal(env.Data, &res)
	return res.Token
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestSignUpValidation(t *testing.T) {
	a := newAPI(t)

	status, env := a.do(http.MethodPost, "/api/auth/signup", "", gin.H{
		"name": "x", "email": "not-an-email", "password": "1", "role": "admin",
	})
	if status != http.StatusUnprocessableEntity || env.Code != utils.CodeValidationError {
		t.Fatalf("status = %d, code = %d", status, env.Code)
	}
	errs := decode[struct {
		Errors map[string]string `json:"errors"`
	}](t, env.Data).Errors
	for _, field := range []string{"email", "password", "role"} {
		if errs[field] == "" {
			t.Fatalf("missing error for %s: %v", field, errs)
		}
	}

	a.signUp("kamal", "buyer")
	status, env = a.do(http.MethodPost, "/api/auth/signup", "", gin.H{
		"name": "kamal", "email": "kamal@example.com", "password": "secret123", "role": "buyer",
	})
	if status != http.StatusConflict || env.Code != utils.CodeConflict {
		t.Fatalf("duplicate: status = %d, code = %d", status, env.Code)
	}
}

func TestMarketplaceFlow(t *testing.T) {
	a := newAPI(t)
	seller := a.signUp("seller", "seller")
	buyer := a.signUp("buyer", "buyer")

	// buyers cannot list
	listingBody := gin.H{
		"title": "Honda Vezel", "description": "2016, hybrid", "location": "Kandy",
		"asking_price": 8500000, "minimum_acceptable_price": 8000000,
		"image_urls": []string{"/uploads/x.jpg"},
	}
	if status, _ := a.do(http.MethodPost, "/api/listings", buyer, listingBody); status != http.StatusForbidden {
		t.Fatalf("buyer create: status = %d", status)
	}

	status, env := a.do(http.MethodPost, "/api/listings", seller, listingBody)
	if status != http.StatusCreated {
		t.Fatalf("create: %d %s", status, env.Message)
	}
	listing := decode[struct {
		ID string `json:"id"`
	}](t, env.Data)

	// anonymous offer below asking
	status, env = a.do(http.MethodPost, "/api/listings/"+listing.ID+"/offers", "", gin.H{
		"buyer_name": "Sunil", "buyer_phone": "0712345678", "offer_amount": 8200000,
	})
	if status != http.StatusCreated {
		t.Fatalf("offer: %d %s", status, env.Message)
	}
	offer := decode[struct {
		ID string `json:"id"`
	}](t, env.Data)

	// at asking price is rejected
	status, env = a.do(http.MethodPost, "/api/listings/"+listing.ID+"/offers", buyer, gin.H{
		"buyer_name": "B", "buyer_phone": "0712345678", "offer_amount": 8500000,
	})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("offer at asking: %d", status)
	}

	// public view hides minimum price
	_, env = a.do(http.MethodGet, "/api/listings/"+listing.ID, "", nil)
	public := decode[map[string]interface{}](t, env.Data)
	if _, ok := public["minimum_acceptable_price"]; ok {
		t.Fatal("public view exposes minimum price")
	}
	if public["offer_count"].(float64) != 1 || public["best_offer"].(float64) != 8200000 {
		t.Fatalf("unexpected summary: %v", public)
	}

	// only the owner sees offers
	if status, _ := a.do(http.MethodGet, "/api/listings/"+listing.ID+"/offers", buyer, nil); status != http.StatusForbidden {
		t.Fatalf("buyer offers: %d", status)
	}
	status, env = a.do(http.MethodGet, "/api/listings/"+listing.ID+"/offers", seller, nil)
	if status != http.StatusOK || len(decode[[]interface{}](t, env.Data)) != 1 {
		t.Fatalf("owner offers: %d", status)
	}

	// accept
	status, env = a.do(http.MethodPost, "/api/listings/"+listing.ID+"/offers/"+offer.ID+"/accept", seller, nil)
	if status != http.StatusOK {
		t.Fatalf("accept: %d %s", status, env.Message)
	}

	// further offers refused
	status, env = a.do(http.MethodPost, "/api/listings/"+listing.ID+"/offers", "", gin.H{
		"buyer_name": "Late", "buyer_phone": "0712345678", "offer_amount": 8400000,
	})
	if status != http.StatusConflict || env.Code != utils.CodeConflict {
		t.Fatalf("offer after sale: %d %d", status, env.Code)
	}

	// no longer in the public list, moved to inactive on the dashboard
	_, env = a.do(http.MethodGet, "/api/listings", "", nil)
	if n := len(decode[[]interface{}](t, env.Data)); n != 0 {
		t.Fatalf("active listings = %d", n)
	}
	_, env = a.do(http.MethodGet, "/api/listings/mine", seller, nil)
	dash := decode[struct {
		Active   []interface{} `json:"active"`
		Inactive []interface{} `json:"inactive"`
	}](t, env.Data)
	if len(dash.Active) != 0 || len(dash.Inactive) != 1 {
		t.Fatalf("dashboard = %d active, %d inactive", len(dash.Active), len(dash.Inactive))
	}
}

func TestSignOutAndMe(t *testing.T) {
	a := newAPI(t)
	token := a.signUp("nimal", "buyer")

	status, env := a.do(http.MethodGet, "/api/auth/me", token, nil)
	if status != http.StatusOK {
		t.Fatalf("me: %d", status)
	}
	me := decode[map[string]interface{}](t, env.Data)
	if me["email"] != "nimal@example.com" {
		t.Fatalf("me = %v", me)
	}
	if _, leaked := me["password_hash"]; leaked {
		t.Fatal("password hash serialised")
	}

	status, env = a.do(http.MethodGet, "/api/users/"+me["id"].(string), "", nil)
	if status != http.StatusOK {
		t.Fatalf("public profile: %d", status)
	}
	if _, ok := decode[map[string]interface{}](t, env.Data)["email"]; ok {
		t.Fatal("public profile exposes email")
	}

	if status, _ := a.do(http.MethodPost, "/api/auth/signout", token, nil); status != http.StatusOK {
		t.Fatalf("signout: %d", status)
	}
	if status, _ := a.do(http.MethodGet, "/api/auth/me", "", nil); status != http.StatusUnauthorized {
		t.Fatalf("anonymous me: %d", status)
	}
}

func TestUploadImages(t *testing.T) {
	a := newAPI(t)
	seller := a.signUp("seller", "seller")

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, name := range []string{"a.jpg", "b.png"} {
		part, _ := w.CreateFormFile("images", name)
		part.Write([]byte("data-" + name))
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/uploads/images", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+seller)

	status, env := a.serve(req)
	if status != http.StatusCreated {
		t.Fatalf("upload: %d %s", status, env.Message)
	}
	urls := decode[struct {
		URLs []string `json:"urls"`
	}](t, env.Data).URLs
	if len(urls) != 2 {
		t.Fatalf("urls = %v", urls)
	}

	get := httptest.NewRecorder()
	a.r.ServeHTTP(get, httptest.NewRequest(http.MethodGet, urls[0], nil))
	if get.Code != http.StatusOK || get.Body.String() != "data-a.jpg" {
		t.Fatalf("static serve: %d %q", get.Code, get.Body.String())
	}
}

func TestUnknownListing(t *testing.T) {
	a := newAPI(t)
	status, env := a.do(http.MethodGet, "/api/listings/does-not-exist", "", nil)
	if status != http.StatusNotFound || env.Code != utils.CodeNotFound {
		t.Fatalf("status = %d, code = %d", status, env.Code)
	}
}
