package echoweb

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/stlconsulting/mentoria/core"
	"github.com/stlconsulting/mentoria/core/catalog"
	"github.com/stlconsulting/mentoria/core/schedule"
	"github.com/stlconsulting/mentoria/core/submission"
	"github.com/stlconsulting/mentoria/core/user"
	emailsvc "github.com/stlconsulting/mentoria/services/email"
	logsvc "github.com/stlconsulting/mentoria/services/logger"
	inmemdb "github.com/stlconsulting/mentoria/storage/database/inmem"
	filestore "github.com/stlconsulting/mentoria/storage/files"
	testutil "github.com/stlconsulting/mentoria/tests"
)

var (
	app       Server
	usrRepo   user.Repository
	schedRepo schedule.Repository
	catRepo   catalog.Repository
)

func TestMain(m *testing.M) {
	conf := core.NewConfig()
	conf.TestMode = true

	logger := logsvc.NewStdLogger(log.New(io.Discard, "", 0))

	db := inmemdb.NewDB()
	usrRepo = inmemdb.NewUserRepository(db)
	schedRepo = inmemdb.NewScheduleRepository(db)
	catRepo = inmemdb.NewCatalogRepository(db)

	uploadsDir, err := os.MkdirTemp("", "mentoria-web-test")
	if err != nil {
		fmt.Printf("os.MkdirTemp(): %v", err)
		os.Exit(1)
	}
	files := filestore.New(uploadsDir)

	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewServiceMock(usrRepo, mailSvc, conf)
	schedSvc := schedule.NewService(schedRepo, inmemdb.NewTxRunner())
	catSvc := catalog.NewService(catRepo, files, logger)
	subSvc := submission.NewService(inmemdb.NewSubmissionRepository(db), catSvc, files, logger)

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator, logger)
	core.ParseEmailTemplates(conf, logger)

	app = NewServer(ServerDeps{
		Conf:          conf,
		Logger:        logger,
		UserSvc:       usrSvc,
		ScheduleSvc:   schedSvc,
		CatalogSvc:    catSvc,
		SubmissionSvc: subSvc,
		Validate:      validate,
		Translator:    translator,
	})

	code := m.Run()
	_ = os.RemoveAll(uploadsDir)
	os.Exit(code)
}

func doRequest(req *http.Request, cookies []*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func get(path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	return doRequest(httptest.NewRequest(http.MethodGet, path, nil), cookies)
}

func postForm(path string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return doRequest(req, cookies)
}

func checkRedirect(t *testing.T, rec *httptest.ResponseRecorder, location string) {
	t.Helper()
	if rec.Code != http.StatusFound {
		t.Fatalf("code = %d, want %d (body: %s)", rec.Code, http.StatusFound, rec.Body.String())
	}
	if got := rec.Header().Get("Location"); got != location {
		t.Fatalf("Location = %q, want %q", got, location)
	}
}

func login(t *testing.T, email, pwd string) []*http.Cookie {
	t.Helper()
	rec := postForm("/login", url.Values{"email": {email}, "password": {pwd}}, nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("login failed: code = %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc == "/login" {
		t.Fatalf("login rejected for %s", email)
	}
	return rec.Result().Cookies()
}

func Test_public_pages(t *testing.T) {
	for _, path := range []string{"/", "/about", "/login", "/register", "/forgot-password"} {
		if rec := get(path, nil); rec.Code != http.StatusOK {
			t.Errorf("GET %s code = %d, want 200", path, rec.Code)
		}
	}
}

func Test_auth_flow(t *testing.T) {
	const pwd = "G0od#Pass2026"

	t.Run("register", func(t *testing.T) {
		rec := postForm("/register", url.Values{
			"username":         {"joana"},
			"email":            {"joana@test.br"},
			"password":         {pwd},
			"confirm_password": {pwd},
		}, nil)
		checkRedirect(t, rec, "/login")

		if _, err := usrRepo.GetUser(context.Background(), user.GetFilter{Email: "joana@test.br"}); err != nil {
			t.Fatalf("registered user not found: %v", err)
		}
	})

	t.Run("register password mismatch", func(t *testing.T) {
		rec := postForm("/register", url.Values{
			"username":         {"maria"},
			"email":            {"maria@test.br"},
			"password":         {pwd},
			"confirm_password": {"outra"},
		}, nil)
		checkRedirect(t, rec, "/register")

		if _, err := usrRepo.GetUser(context.Background(), user.GetFilter{Email: "maria@test.br"}); err != user.ErrNotFound {
			t.Fatalf("user should not be created; err = %v", err)
		}
	})

	t.Run("login wrong password", func(t *testing.T) {
		rec := postForm("/login", url.Values{"email": {"joana@test.br"}, "password": {"errada"}}, nil)
		checkRedirect(t, rec, "/login")
	})

	t.Run("login and access the portal", func(t *testing.T) {
		cookies := login(t, "joana@test.br", pwd)

		if rec := get("/mentor_area", cookies); rec.Code != http.StatusOK {
			t.Errorf("GET /mentor_area code = %d, want 200", rec.Code)
		}
		if rec := get("/profile", cookies); rec.Code != http.StatusOK {
			t.Errorf("GET /profile code = %d, want 200", rec.Code)
		}
		// mentees are kept out of the admin area
		if rec := get("/admin/dashboard", cookies); rec.Code != http.StatusForbidden {
			t.Errorf("GET /admin/dashboard code = %d, want 403", rec.Code)
		}
	})

	t.Run("login required", func(t *testing.T) {
		checkRedirect(t, get("/modulo_01", nil), "/login")
	})

	t.Run("deactivated account", func(t *testing.T) {
		usr := testutil.CreateUser(t, usrRepo, "off", "off@test.br", pwd, user.RoleMentee, nil, false)
		rec := postForm("/login", url.Values{"email": {usr.Email}, "password": {pwd}}, nil)
		checkRedirect(t, rec, "/login")
	})
}

func Test_portal_booking(t *testing.T) {
	const pwd = "G0od#Pass2026"
	ctx := context.Background()

	mentor := testutil.CreateUser(t, usrRepo, "chefe", "chefe@test.br", pwd, user.RoleMentor, nil, true)
	mentee := testutil.CreateUser(t, usrRepo, "pedro", "pedro@test.br", pwd, user.RoleMentee, &mentor.ID, true)

	loc := testutil.CreateLocation(t, schedRepo, mentor.ID, "Escritório", schedule.LocationPresencial)

	mentorCookies := login(t, mentor.Email, pwd)

	// the mentor opens a slot through the dashboard
	rec := postForm("/admin/agenda/add", url.Values{
		"datetime_slot": {"2030-05-10T14:00"},
		"location_id":   {fmt.Sprint(loc.ID)},
	}, mentorCookies)
	checkRedirect(t, rec, "/admin/dashboard")

	slots, err := schedRepo.OpenSlots(ctx, mentor.ID, time.Time{})
	if err != nil || len(slots) != 1 {
		t.Fatalf("OpenSlots() = %v, %v; want 1 slot", slots, err)
	}
	slot := slots[0]

	menteeCookies := login(t, mentee.Email, pwd)

	if rec := get("/modulo_01", menteeCookies); rec.Code != http.StatusOK {
		t.Fatalf("GET /modulo_01 code = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	rec = postForm("/agendar", url.Values{
		"availability_id": {fmt.Sprint(slot.ID)},
		"notes":           {"prefiro de manhã"},
	}, menteeCookies)
	checkRedirect(t, rec, "/modulo_01")

	appt, err := schedRepo.GetUserAppointment(ctx, mentee.ID, "Módulo 1")
	if err != nil {
		t.Fatalf("GetUserAppointment() failed: %v", err)
	}
	if appt.Status != schedule.StatusPending {
		t.Errorf("Status = %q, want %q", appt.Status, schedule.StatusPending)
	}

	// double booking the same slot by someone else fails with a flash
	other := testutil.CreateUser(t, usrRepo, "rita", "rita@test.br", pwd, user.RoleMentee, &mentor.ID, true)
	otherCookies := login(t, other.Email, pwd)
	rec = postForm("/agendar", url.Values{"availability_id": {fmt.Sprint(slot.ID)}}, otherCookies)
	checkRedirect(t, rec, "/modulo_01")
	if _, err = schedRepo.GetUserAppointment(ctx, other.ID, "Módulo 1"); err != schedule.ErrNotFound {
		t.Errorf("no appointment should exist for the loser; err = %v", err)
	}

	// the mentor confirms from the dashboard
	if rec := get("/admin/dashboard", mentorCookies); rec.Code != http.StatusOK {
		t.Fatalf("GET /admin/dashboard code = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}
	rec = get(fmt.Sprintf("/admin/agenda/confirm/%d", appt.ID), mentorCookies)
	checkRedirect(t, rec, "/admin/dashboard")

	appt, _ = schedRepo.GetAppointment(ctx, appt.ID)
	if appt.Status != schedule.StatusConfirmed {
		t.Errorf("Status = %q, want %q", appt.Status, schedule.StatusConfirmed)
	}
}

func Test_portal_submission(t *testing.T) {
	const pwd = "G0od#Pass2026"

	mentee := testutil.CreateUser(t, usrRepo, "ana", "ana@test.br", pwd, user.RoleMentee, nil, true)
	task := testutil.CreateTask(t, catRepo, "Módulo 1", "Plano de negócio", true)

	cookies := login(t, mentee.Email, pwd)

	var body strings.Builder
	w := multipart.NewWriter(&body)
	_ = w.WriteField("task_id", fmt.Sprint(task.ID))
	fw, _ := w.CreateFormFile("file", "plano.pdf")
	_, _ = fw.Write([]byte("conteúdo"))
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload/atividade", strings.NewReader(body.String()))
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := doRequest(req, cookies)
	checkRedirect(t, rec, "/modulo_01")

	rec = postForm("/delete/atividade", url.Values{"task_id": {fmt.Sprint(task.ID)}}, cookies)
	checkRedirect(t, rec, "/modulo_01")
}

func Test_api_newsletter(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/newsletter/subscribe", strings.NewReader(`{"email":"fan@test.br"}`))
	req.Header.Set("Content-Type", "application/json")
	if rec := doRequest(req, nil); rec.Code != http.StatusOK {
		t.Errorf("code = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/newsletter/subscribe", strings.NewReader(`{"email":"lol"}`))
	req.Header.Set("Content-Type", "application/json")
	if rec := doRequest(req, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("code = %d, want 400", rec.Code)
	}
}
