package handlers_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/dom/phim-stream/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name           string
		request        any
		setup          func(ts *testutil.TestServer)
		expectedStatus int
		checkResponse  func(*testing.T, *http.Response)
	}{
		{
			name: "successful registration",
			request: map[string]string{
				"name":     "An",
				"email":    "an@example.com",
				"password": "secret1",
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var body map[string]any
				testutil.AssertJSONResponse(t, resp, &body)
				assert.NotEmpty(t, body["message"])
				assert.NotContains(t, body, "token", "registration never issues a token")
			},
		},
		{
			name: "missing name",
			request: map[string]string{
				"email":    "an@example.com",
				"password": "secret1",
			},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var body struct {
					Fields map[string]string `json:"fields"`
				}
				testutil.AssertJSONResponse(t, resp, &body)
				assert.Equal(t, "is required", body.Fields["name"])
			},
		},
		{
			name: "invalid email",
			request: map[string]string{
				"name":     "An",
				"email":    "an.example.com",
				"password": "secret1",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "short password",
			request: map[string]string{
				"name":     "An",
				"email":    "an@example.com",
				"password": "123",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "duplicate email",
			request: map[string]string{
				"name":     "An",
				"email":    "taken@example.com",
				"password": "secret1",
			},
			setup: func(ts *testutil.TestServer) {
				testutil.NewAccountBuilder().
					WithEmail("taken@example.com").
					Build(t, ts.Repos.Account)
			},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, resp *http.Response) {
				testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "Email already in use")
			},
		},
		{
			name:           "empty request body",
			request:        map[string]string{},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := testutil.NewTestServer(t, nil)

			if tt.setup != nil {
				tt.setup(ts)
			}

			resp := testutil.DoJSON(t, http.MethodPost, ts.APIURL("/auth/register"), "", tt.request)
			defer resp.Body.Close()

			testutil.AssertStatusCode(t, resp, tt.expectedStatus)
			if tt.checkResponse != nil {
				tt.checkResponse(t, resp)
			}
		})
	}
}

func TestAuthHandler_Register_MalformedBody(t *testing.T) {
	ts := testutil.NewTestServer(t, nil)

	resp, err := http.Post(ts.APIURL("/auth/register"), "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()

	testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "Invalid request body")
}

func TestAuthHandler_Register_OversizedBody(t *testing.T) {
	ts := testutil.NewTestServer(t, nil)

	body := `{"name":"` + strings.Repeat("a", 1<<20) + `","email":"an@example.com","password":"secret1"}`
	resp, err := http.Post(ts.APIURL("/auth/register"), "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "Invalid request body")

	count, err := ts.Repos.Account.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count, "oversized registration must not create an account")
}

func TestAuthHandler_Login(t *testing.T) {
	ts := testutil.NewTestServer(t, nil)
	account, password := testutil.NewAccountBuilder().
		WithName("An").
		WithEmail("an@example.com").
		Build(t, ts.Repos.Account)

	tests := []struct {
		name           string
		request        map[string]string
		expectedStatus int
		checkResponse  func(*testing.T, *http.Response)
	}{
		{
			name: "successful login",
			request: map[string]string{
				"email":    account.Email,
				"password": password,
			},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var result testutil.LoginResponse
				testutil.AssertJSONResponse(t, resp, &result)
				assert.NotEmpty(t, result.Message)
				assert.Equal(t, "An", result.User.Name)
				assert.Equal(t, "an@example.com", result.User.Email)

				claims := testutil.DecodeTokenClaims(t, result.Token)
				assert.Equal(t, account.ID.String(), claims["sub"])
				assert.Equal(t, "an@example.com", claims["email"])
				assert.Equal(t, "An", claims["name"])
			},
		},
		{
			name: "wrong password",
			request: map[string]string{
				"email":    account.Email,
				"password": "wrongpassword",
			},
			expectedStatus: http.StatusUnauthorized,
			checkResponse: func(t *testing.T, resp *http.Response) {
				testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, "Invalid email or password")
			},
		},
		{
			name: "non-existent email",
			request: map[string]string{
				"email":    "nobody@example.com",
				"password": password,
			},
			expectedStatus: http.StatusUnauthorized,
			checkResponse: func(t *testing.T, resp *http.Response) {
				testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, "Invalid email or password")
			},
		},
		{
			name: "missing password",
			request: map[string]string{
				"email": account.Email,
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing everything",
			request:        map[string]string{},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := testutil.DoJSON(t, http.MethodPost, ts.APIURL("/auth/login"), "", tt.request)
			defer resp.Body.Close()

			testutil.AssertStatusCode(t, resp, tt.expectedStatus)
			if tt.checkResponse != nil {
				tt.checkResponse(t, resp)
			}
		})
	}
}

func TestAuthHandler_WrongMethod(t *testing.T) {
	ts := testutil.NewTestServer(t, nil)

	resp, err := http.Get(ts.APIURL("/auth/login"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
