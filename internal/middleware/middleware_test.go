package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/vtc-gradebook-api/internal/models"
	appErrors "github.com/noah-isme/vtc-gradebook-api/pkg/errors"
	"github.com/noah-isme/vtc-gradebook-api/pkg/logger"
)

type validatorStub struct {
	claims *models.JWTClaims
	err    error
}

func (v validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return v.claims, v.err
}

type observerStub struct {
	path   string
	status int
}

func (o *observerStub) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	o.path = path
	o.status = status
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/gradebooks/:id/marks", append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": c.GetString(logger.UserIDKey)})
	})...)
	return r
}

func TestJWTRejectsMissingAndInvalidTokens(t *testing.T) {
	r := newRouter(JWT(validatorStub{}))

	for _, header := range []string{"", "Basic abc", "Bearer ", "Bearer bad"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/gradebooks/gb-1/marks", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
	}
}

func TestJWTStoresClaims(t *testing.T) {
	claims := &models.JWTClaims{UserID: "trainer-1", Role: models.RoleTrainer}
	r := newRouter(JWT(validatorStub{claims: claims}), RequireRoles(models.RoleTrainer))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/gradebooks/gb-1/marks", nil)
	req.Header.Set("Authorization", "Bearer good")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "trainer-1")
}

func TestRequireRolesForbidsOtherRoles(t *testing.T) {
	claims := &models.JWTClaims{UserID: "trainee-1", Role: models.RoleTrainee}
	r := newRouter(JWT(validatorStub{claims: claims}), RequireRoles(models.RoleTrainer, models.RoleAdmin))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/gradebooks/gb-1/marks", nil)
	req.Header.Set("Authorization", "Bearer good")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "FORBIDDEN")
}

func TestRequireRolesWithoutClaims(t *testing.T) {
	r := newRouter(RequireRoles(models.RoleTrainer))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/gradebooks/gb-1/marks", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	obs := &observerStub{}
	r := newRouter(Metrics(obs))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/gradebooks/gb-42/marks", nil))

	assert.Equal(t, "/gradebooks/:id/marks", obs.path)
	assert.Equal(t, http.StatusOK, obs.status)
}

func TestAuditLogsSuccessfulMutations(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	claims := &models.JWTClaims{UserID: "trainer-1", Role: models.RoleTrainer}
	r := newRouter(JWT(validatorStub{claims: claims}), Audit(zap.New(core), "mark.save"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/gradebooks/gb-7/marks", nil)
	req.Header.Set("Authorization", "Bearer good")
	r.ServeHTTP(w, req)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "gradebook_mutation", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "mark.save", fields["action"])
	assert.Equal(t, "gb-7", fields["gradebook_id"])
	assert.Equal(t, "trainer-1", fields["actor_id"])
}

func TestAuditSkipsFailedRequests(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := newRouter(Audit(zap.New(core), "mark.save"), JWT(validatorStub{}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/gradebooks/gb-7/marks", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, logs.Len())
}
