package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vehicleoffer_go/services"
	"vehicleoffer_go/utils"

	"github.com/gin-gonic/gin"
)

func TestRespondErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err    error
		status int
		code   int
	}{
		{&services.ValidationError{Errors: map[string]string{"offer_amount": "bad"}}, http.StatusUnprocessableEntity, utils.CodeValidationError},
		{services.ErrUnauthorized, http.StatusUnauthorized, utils.CodeUnauthorized},
		{services.ErrInvalidCredentials, http.StatusUnauthorized, utils.CodeUnauthorized},
		{services.ErrForbidden, http.StatusForbidden, utils.CodeForbidden},
		{services.ErrNotFound, http.StatusNotFound, utils.CodeNotFound},
		{services.ErrListingNotActive, http.StatusConflict, utils.CodeConflict},
		{services.ErrWindowClosed, http.StatusConflict, utils.CodeConflict},
		{services.ErrOfferAlreadyAccepted, http.StatusConflict, utils.CodeConflict},
		{services.ErrTooManyAttempts, http.StatusTooManyRequests, utils.CodeTooManyRequests},
		{fmt.Errorf("%w: %w", services.ErrConnectivity, errors.New("i/o timeout")), http.StatusServiceUnavailable, utils.CodeServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError, utils.CodeInternalServerError},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		respondError(c, nil, tc.err)

		if w.Code != tc.status {
			t.Fatalf("%v: status = %d, want %d", tc.err, w.Code, tc.status)
		}
		if want := fmt.Sprintf(`"code":%d`, tc.code); !strings.Contains(w.Body.String(), want) {
			t.Fatalf("%v: body %s lacks %s", tc.err, w.Body.String(), want)
		}
	}
}
