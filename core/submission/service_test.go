package submission_test

import (
	"io"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/stlconsulting/mentoria/core"
	"github.com/stlconsulting/mentoria/core/catalog"
	"github.com/stlconsulting/mentoria/core/submission"
	logsvc "github.com/stlconsulting/mentoria/services/logger"
	inmemdb "github.com/stlconsulting/mentoria/storage/database/inmem"
	filestore "github.com/stlconsulting/mentoria/storage/files"
	testutil "github.com/stlconsulting/mentoria/tests"
)

func setup(t *testing.T) (catalog.Repository, submission.Service, *filestore.Store) {
	t.Helper()

	db := inmemdb.NewDB()
	files := filestore.New(t.TempDir())
	logger := logsvc.NewStdLogger(log.New(io.Discard, "", 0))

	catRepo := inmemdb.NewCatalogRepository(db)
	catSvc := catalog.NewService(catRepo, files, logger)
	svc := submission.NewService(inmemdb.NewSubmissionRepository(db), catSvc, files, logger)
	return catRepo, svc, files
}

func Test_service_Upload(t *testing.T) {
	catRepo, svc, files := setup(t)

	task := testutil.CreateTask(t, catRepo, "Módulo 1", "Plano de negócio", true)
	noUpload := testutil.CreateTask(t, catRepo, "Módulo 1", "Leitura", false)

	t.Run("unknown task", func(t *testing.T) {
		_, err := svc.Upload(10, 666, "plano.pdf", strings.NewReader("x"))
		if errors.Cause(err) != catalog.ErrNotFound {
			t.Fatalf("Upload() error = %v, want catalog.ErrNotFound", err)
		}
	})

	t.Run("task does not accept uploads", func(t *testing.T) {
		_, err := svc.Upload(10, noUpload.ID, "plano.pdf", strings.NewReader("x"))
		if errors.Cause(err) != submission.ErrUploadNotAllowed {
			t.Fatalf("Upload() error = %v, want ErrUploadNotAllowed", err)
		}
	})

	t.Run("rejected extension", func(t *testing.T) {
		for _, name := range []string{"virus.exe", "plano.docx", "plano", "PLANO.PDF.zip"} {
			_, err := svc.Upload(10, task.ID, name, strings.NewReader("x"))
			var vErr *core.ValidationError
			if !errors.As(err, &vErr) {
				t.Errorf("Upload(%q) error = %v, want ValidationError", name, err)
			}
		}
	})

	t.Run("ok", func(t *testing.T) {
		ut, err := svc.Upload(10, task.ID, "Plano Final (v2).pdf", strings.NewReader("conteúdo"))
		if err != nil {
			t.Fatalf("Upload() failed: %v", err)
		}
		if ut.Status != submission.StatusDone {
			t.Errorf("Status = %q, want %q", ut.Status, submission.StatusDone)
		}
		if ut.SubmittedAt == nil {
			t.Error("SubmittedAt should be set")
		}
		if want := "user_10_task_1_Plano_Final_v2.pdf"; !strings.HasSuffix(ut.FilePath, ".pdf") || !strings.Contains(ut.FilePath, "Plano_Final") {
			t.Errorf("FilePath = %q, want something like %q", ut.FilePath, want)
		}
		if _, err := os.Stat(files.Path("modulo_1", core.FileKindSubmissions, ut.FilePath)); err != nil {
			t.Errorf("stored file missing: %v", err)
		}

		// replacing with a differently named file removes the previous one
		prev := ut.FilePath
		ut2, err := svc.Upload(10, task.ID, "outro.pptx", strings.NewReader("novo"))
		if err != nil {
			t.Fatalf("Upload() failed: %v", err)
		}
		if ut2.ID != ut.ID {
			t.Errorf("expected the row to be reused; got %d != %d", ut2.ID, ut.ID)
		}
		if _, err := os.Stat(files.Path("modulo_1", core.FileKindSubmissions, prev)); !os.IsNotExist(err) {
			t.Errorf("previous file should be removed; stat err = %v", err)
		}
	})
}

func Test_service_DeleteAndDownload(t *testing.T) {
	catRepo, svc, files := setup(t)

	task := testutil.CreateTask(t, catRepo, "Módulo 1", "Plano de negócio", true)

	ut, err := svc.Upload(10, task.ID, "plano.pdf", strings.NewReader("conteúdo"))
	if err != nil {
		t.Fatalf("Upload() failed: %v", err)
	}

	got, file, err := svc.Download(ut.ID)
	if err != nil {
		t.Fatalf("Download() failed: %v", err)
	}
	data, _ := io.ReadAll(file)
	_ = file.Close()
	if string(data) != "conteúdo" {
		t.Errorf("Download() content = %q", data)
	}
	if got.FilePath != ut.FilePath {
		t.Errorf("FilePath = %q, want %q", got.FilePath, ut.FilePath)
	}

	if err = svc.Delete(10, task.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	byTask, err := svc.ForUser(10)
	if err != nil {
		t.Fatalf("ForUser() failed: %v", err)
	}
	reset, ok := byTask[task.ID]
	if !ok {
		t.Fatal("the row must survive deletion")
	}
	if reset.Status != submission.StatusPending {
		t.Errorf("Status = %q, want %q", reset.Status, submission.StatusPending)
	}
	if reset.FilePath != "" || reset.SubmittedAt != nil {
		t.Errorf("expected a cleared row; got FilePath=%q SubmittedAt=%v", reset.FilePath, reset.SubmittedAt)
	}
	if _, err := os.Stat(files.Path("modulo_1", core.FileKindSubmissions, ut.FilePath)); !os.IsNotExist(err) {
		t.Errorf("file should be removed; stat err = %v", err)
	}

	t.Run("no submission to delete", func(t *testing.T) {
		if err := svc.Delete(99, task.ID); errors.Cause(err) != submission.ErrNotFound {
			t.Errorf("Delete() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("download pending row", func(t *testing.T) {
		if _, _, err := svc.Download(ut.ID); errors.Cause(err) != submission.ErrNotFound {
			t.Errorf("Download() error = %v, want ErrNotFound", err)
		}
	})
}
