package handler

import (
	"fmt"
	"net/http"

	"github.com/mcoot/idgateway/internal/api/apierr"
	"github.com/mcoot/idgateway/internal/api/middleware"
	"github.com/mcoot/idgateway/internal/api/response"
)

// HomeText is the body of GET /
const HomeText = "idgateway server"

// GuestName is greeted when the request has no session username
const GuestName = "Guest"

// Home handles GET /
func Home(w http.ResponseWriter, _ *http.Request) {
	response.Text(w, http.StatusOK, HomeText)
}

// Greet handles GET /greet
func Greet(w http.ResponseWriter, r *http.Request) {
	name := middleware.GetPrincipal(r.Context()).DisplayName()
	if name == "" {
		name = GuestName
	}
	response.Text(w, http.StatusOK, fmt.Sprintf("Welcome, %s!", name))
}

// Health handles GET /health
func Health(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.HealthResponse{Status: "ok"})
}

// NotFound answers unknown routes with a JSON 404
func NotFound(w http.ResponseWriter, _ *http.Request) {
	apierr.WriteError(w, apierr.NewNotFoundError())
}
