package user_test

import (
	"io"
	"log"
	"regexp"
	"testing"

	"github.com/pkg/errors"

	"github.com/stlconsulting/mentoria/core"
	"github.com/stlconsulting/mentoria/core/user"
	emailsvc "github.com/stlconsulting/mentoria/services/email"
	logsvc "github.com/stlconsulting/mentoria/services/logger"
	inmemdb "github.com/stlconsulting/mentoria/storage/database/inmem"
	testutil "github.com/stlconsulting/mentoria/tests"
)

var resetURLRx = regexp.MustCompile(`/reset-password/(\S+)`)

func setup(t *testing.T) (user.Repository, user.Service, *core.Config) {
	t.Helper()

	conf := core.NewConfig()
	conf.TestMode = true
	core.ParseEmailTemplates(conf, logsvc.NewStdLogger(log.New(io.Discard, "", 0)))

	repo := inmemdb.NewUserRepository(inmemdb.NewDB())
	svc := user.NewServiceMock(repo, emailsvc.NewConsoleServiceMock(conf), conf)
	return repo, svc, conf
}

func Test_service_Create(t *testing.T) {
	_, svc, _ := setup(t)

	usr, err := svc.Create(user.NewUser{Username: "awe", Email: "awe@test.br", Password: "LePassw0rd!"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if !usr.IsMentee() {
		t.Errorf("Role = %q, want the mentee default", usr.Role)
	}
	if !usr.IsActive {
		t.Error("new users must be active")
	}
	if err = usr.CheckPassword("LePassw0rd!"); err != nil {
		t.Errorf("CheckPassword() failed: %v", err)
	}

	t.Run("uniqueness", func(t *testing.T) {
		err := svc.CheckUniqueness("awe", "other@test.br")
		var vErr *core.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("CheckUniqueness() error = %v, want ValidationError", err)
		}
		if len(vErr.Fields) == 0 || vErr.Fields[0].Field != "username" {
			t.Errorf("Fields = %+v, want a username error", vErr.Fields)
		}

		err = svc.CheckUniqueness("other", "awe@test.br")
		if !errors.As(err, &vErr) {
			t.Fatalf("CheckUniqueness() error = %v, want ValidationError", err)
		}
		if len(vErr.Fields) == 0 || vErr.Fields[0].Field != "email" {
			t.Errorf("Fields = %+v, want an email error", vErr.Fields)
		}

		if err = svc.CheckUniqueness("awe", "awe@test.br", usr); err != nil {
			t.Errorf("CheckUniqueness() with exclusion failed: %v", err)
		}
	})
}

func Test_service_MentorFor(t *testing.T) {
	repo, svc, _ := setup(t)

	t.Run("no mentor registered", func(t *testing.T) {
		mentee := testutil.CreateMentee(t, repo, "solo", "solo@test.br", nil)
		if _, err := svc.MentorFor(mentee); err != user.ErrNoMentor {
			t.Fatalf("MentorFor() error = %v, want ErrNoMentor", err)
		}
	})

	boss := testutil.CreateMentor(t, repo, "boss", "boss@test.br")
	other := testutil.CreateMentor(t, repo, "other", "other@test.br")

	t.Run("assigned mentor", func(t *testing.T) {
		mentee := testutil.CreateMentee(t, repo, "awe", "awe@test.br", &other.ID)
		mentor, err := svc.MentorFor(mentee)
		if err != nil {
			t.Fatalf("MentorFor() failed: %v", err)
		}
		if mentor.ID != other.ID {
			t.Errorf("mentor = %d, want the assigned %d", mentor.ID, other.ID)
		}
	})

	t.Run("fallback to the first active mentor", func(t *testing.T) {
		mentee := testutil.CreateMentee(t, repo, "lost", "lost@test.br", nil)
		mentor, err := svc.MentorFor(mentee)
		if err != nil {
			t.Fatalf("MentorFor() failed: %v", err)
		}
		if mentor.ID != boss.ID {
			t.Errorf("mentor = %d, want the first mentor %d", mentor.ID, boss.ID)
		}
	})

	t.Run("dangling assignment falls back", func(t *testing.T) {
		ghost := 666
		mentee := testutil.CreateMentee(t, repo, "ghosted", "ghosted@test.br", &ghost)
		mentor, err := svc.MentorFor(mentee)
		if err != nil {
			t.Fatalf("MentorFor() failed: %v", err)
		}
		if mentor.ID != boss.ID {
			t.Errorf("mentor = %d, want the first mentor %d", mentor.ID, boss.ID)
		}
	})
}

func Test_service_PasswordReset(t *testing.T) {
	repo, svc, _ := setup(t)
	emailsvc.ClearSentMessages()

	usr := testutil.CreateUser(t, repo, "awe", "awe@test.br", "0ldPassword!", user.RoleMentee, nil, true)

	t.Run("unknown email", func(t *testing.T) {
		if err := svc.RequestPasswordReset("lol@test.br"); err != user.ErrNotFound {
			t.Fatalf("RequestPasswordReset() error = %v, want ErrNotFound", err)
		}
	})

	if err := svc.RequestPasswordReset(usr.Email); err != nil {
		t.Fatalf("RequestPasswordReset() failed: %v", err)
	}
	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("len(SentMessages) = %d, want 1", len(emailsvc.SentMessages))
	}
	msg := emailsvc.SentMessages[0]
	if msg.Subject != "Redefinição de Senha" {
		t.Errorf("Subject = %q", msg.Subject)
	}

	m := resetURLRx.FindStringSubmatch(msg.TextContent)
	if m == nil {
		t.Fatalf("no reset link in %q", msg.TextContent)
	}
	token := m[1]

	t.Run("tampered token", func(t *testing.T) {
		err := svc.ResetPassword(user.ResetUserPassword{
			Token: token + "x", Password: "NewPassword1!", PasswordConfirm: "NewPassword1!",
		})
		var vErr *core.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("ResetPassword() error = %v, want ValidationError", err)
		}
	})

	if err := svc.ResetPassword(user.ResetUserPassword{
		Token: token, Password: "NewPassword1!", PasswordConfirm: "NewPassword1!",
	}); err != nil {
		t.Fatalf("ResetPassword() failed: %v", err)
	}

	refreshed, err := svc.GetByEmail(usr.Email)
	if err != nil {
		t.Fatalf("GetByEmail() failed: %v", err)
	}
	if err = refreshed.CheckPassword("NewPassword1!"); err != nil {
		t.Errorf("CheckPassword() failed after reset: %v", err)
	}

	t.Run("token is single-use", func(t *testing.T) {
		err := svc.ResetPassword(user.ResetUserPassword{
			Token: token, Password: "An0therPass!", PasswordConfirm: "An0therPass!",
		})
		var vErr *core.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("ResetPassword() error = %v, want ValidationError", err)
		}
	})
}
