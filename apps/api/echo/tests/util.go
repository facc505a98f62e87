package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	echoapi "github.com/trezcool/tathmini/apps/api/echo"
	"github.com/trezcool/tathmini/core"
	"github.com/trezcool/tathmini/core/assessment"
	"github.com/trezcool/tathmini/core/submission"
	"github.com/trezcool/tathmini/core/user"
	emailsvc "github.com/trezcool/tathmini/services/email"
	metricsvc "github.com/trezcool/tathmini/services/metrics"
	reportsvc "github.com/trezcool/tathmini/services/report"
	"github.com/trezcool/tathmini/tests"
)

var (
	errMissingToken  = httpErr{Error: "missing or malformed jwt"}
	errInvalidToken  = httpErr{Error: "invalid or expired jwt"}
	errRevoked       = httpErr{Error: "session expired or revoked"}
	errForbidden     = httpErr{Error: "permission denied"}
	errNotFound      = httpErr{Error: "not found"}
	errAuthFailed    = httpErr{Error: "invalid email or password"}
	errFieldRequired = "this field is required"
)

type env struct {
	conf    *core.Config
	app     *echoapi.Server
	repos   testutil.Repos
	usrSvc  user.Service
	metrics *metricsvc.Metrics
}

// setup returns a server backed by fresh in-memory repositories.
func setup(t *testing.T) env {
	conf := core.NewTestConfig()
	logger := testutil.NewLogger(conf)
	repos := testutil.NewRepos()
	validate, translator := testutil.NewTranslatedValidate()
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	emailsvc.ResetSentMessages()

	subSvc := submission.NewService(repos.Submissions, repos.Assessments, repos.Users, validate)
	usrSvc := user.NewService(repos.Users, subSvc, mailSvc, validate, conf)
	metrics := metricsvc.New()

	app := echoapi.NewServer(nil, &echoapi.Deps{
		Conf:          conf,
		Logger:        logger,
		Validate:      validate,
		Translator:    translator,
		MailSvc:       mailSvc,
		UserSvc:       usrSvc,
		AssessmentSvc: assessment.NewService(repos.Assessments, repos.Users, validate),
		SubmissionSvc: subSvc,
		ReportWriter:  reportsvc.NewExcelWriter(),
		Metrics:       metrics,
	})
	return env{conf: conf, app: app, repos: repos, usrSvc: usrSvc, metrics: metrics}
}

// getToken signs in usr without checking its password.
func (e env) getToken(t *testing.T, usr user.User) string {
	now := core.Now()
	sess := user.Session{
		ID:        core.NewID(),
		UserID:    usr.ID,
		Role:      usr.Role,
		CreatedBy: usr.CreatedBy,
		Name:      usr.Name,
		Email:     usr.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(e.conf.Server.JWTExpirationDelta),
	}
	if err := e.repos.Users.CreateSession(context.Background(), sess); err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	token, err := e.app.GenerateToken(sess)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func (e env) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.app.ServeHTTP(rec, req)
	return rec
}

// run executes table driven HTTP tests, checking the code and, when set, the JSON body.
func (e env) run(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(newAuthRequest(tt.method, tt.path, tt.token, tt.body))
			if tt.wantData == nil {
				assert.Equalf(t, tt.wantCode, rec.Code, "body: %s", rec.Body.String())
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) *http.Request {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func newRequest(method, path string, data ...[]byte) *http.Request {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func unmarshall(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("json.Unmarshal(%s): %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func fields(kv ...string) map[string]string {
	m := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	return m
}

func dueIn(d time.Duration) time.Time {
	return core.Now().Add(d).Truncate(time.Second)
}
