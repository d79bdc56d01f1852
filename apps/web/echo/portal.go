package echoweb

import (
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/stlconsulting/mentoria/core/catalog"
	"github.com/stlconsulting/mentoria/core/schedule"
	"github.com/stlconsulting/mentoria/core/submission"
	"github.com/stlconsulting/mentoria/core/user"
)

// moduleOneName is the single program module currently offered.
const moduleOneName = "Módulo 1"

func intParam(ctx echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id <= 0 {
		return 0, errHTTPNotFound
	}
	return id, nil
}

func intForm(ctx echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(ctx.FormValue(name))
	if err != nil || id <= 0 {
		return 0, errHTTPNotFound
	}
	return id, nil
}

func attachmentType(filename string) string {
	if ct := mime.TypeByExtension(filepath.Ext(filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func (s *server) mentorArea(ctx echo.Context) error {
	usr := contextUser(ctx)

	mentor, err := s.deps.UserSvc.MentorFor(usr)
	if err != nil && err != user.ErrNoMentor {
		return errors.Wrap(err, "resolving mentor")
	}
	return s.render(ctx, http.StatusOK, "mentor_area", echo.Map{"Mentor": mentor})
}

func (s *server) profile(ctx echo.Context) error {
	return s.render(ctx, http.StatusOK, "profile", echo.Map{})
}

func (s *server) moduleOne(ctx echo.Context) error {
	usr := contextUser(ctx)

	var appt *schedule.Appointment
	if a, err := s.deps.ScheduleSvc.AppointmentFor(usr.ID, moduleOneName); err == nil {
		appt = &a
	} else if err != schedule.ErrNotFound {
		return errors.Wrap(err, "getting appointment")
	}

	var slots []schedule.Slot
	mentor, err := s.deps.UserSvc.MentorFor(usr)
	switch err {
	case nil:
		if slots, err = s.deps.ScheduleSvc.OpenSlots(mentor.ID); err != nil {
			return errors.Wrap(err, "querying open slots")
		}
	case user.ErrNoMentor:
		// no mentor registered yet; no slots to offer
	default:
		return errors.Wrap(err, "resolving mentor")
	}

	tasks, err := s.deps.CatalogSvc.Tasks(moduleOneName)
	if err != nil {
		return errors.Wrap(err, "querying tasks")
	}
	statuses, err := s.deps.SubmissionSvc.ForUser(usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}

	type taskRow struct {
		Task       catalog.Task
		Submission *submission.UserTask
	}
	rows := make([]taskRow, 0, len(tasks))
	for _, t := range tasks {
		row := taskRow{Task: t}
		if ut, ok := statuses[t.ID]; ok {
			ut := ut
			row.Submission = &ut
		}
		rows = append(rows, row)
	}

	return s.render(ctx, http.StatusOK, "modulo_01", echo.Map{
		"Mentor":      mentor,
		"Appointment": appt,
		"Slots":       slots,
		"Tasks":       rows,
	})
}

func (s *server) bookAppointment(ctx echo.Context) error {
	usr := contextUser(ctx)

	var data schedule.BookAppointment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BookAppointment")
	}
	if data.ModuleName == "" {
		data.ModuleName = moduleOneName
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		s.flashValidationErrs(ctx, err)
		return ctx.Redirect(http.StatusFound, "/modulo_01")
	}

	if _, err := s.deps.ScheduleSvc.Book(usr.ID, data); err != nil {
		switch errors.Cause(err) {
		case schedule.ErrSlotTaken:
			s.flash(ctx, "Este horário não está mais disponível. Escolha outro.")
		case schedule.ErrNotFound:
			s.flash(ctx, "Horário não encontrado.")
		default:
			return errors.Wrap(err, "booking appointment")
		}
		return ctx.Redirect(http.StatusFound, "/modulo_01")
	}

	s.flash(ctx, "Agendamento enviado. Aguarde a confirmação do seu mentor.")
	return ctx.Redirect(http.StatusFound, "/modulo_01")
}

func (s *server) downloadResource(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	res, file, err := s.deps.CatalogSvc.DownloadResource(id)
	if err != nil {
		return errHTTPNotFound
	}
	//goland:noinspection GoUnhandledErrorResult
	defer file.Close()

	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+res.Filename+`"`)
	return ctx.Stream(http.StatusOK, attachmentType(res.Filename), file)
}

func (s *server) uploadSubmission(ctx echo.Context) error {
	usr := contextUser(ctx)

	taskID, err := intForm(ctx, "task_id")
	if err != nil {
		s.flash(ctx, "Atividade inválida.")
		return ctx.Redirect(http.StatusFound, "/modulo_01")
	}
	fileHdr, err := ctx.FormFile("file")
	if err != nil {
		s.flash(ctx, "Selecione um arquivo para enviar.")
		return ctx.Redirect(http.StatusFound, "/modulo_01")
	}
	src, err := fileHdr.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	//goland:noinspection GoUnhandledErrorResult
	defer src.Close()

	if _, err = s.deps.SubmissionSvc.Upload(usr.ID, taskID, fileHdr.Filename, src); err != nil {
		if s.flashValidationErrs(ctx, err) {
			return ctx.Redirect(http.StatusFound, "/modulo_01")
		}
		switch errors.Cause(err) {
		case submission.ErrUploadNotAllowed:
			s.flash(ctx, "Esta atividade não aceita envio de arquivos.")
		default:
			return errors.Wrap(err, "uploading submission")
		}
		return ctx.Redirect(http.StatusFound, "/modulo_01")
	}

	s.flash(ctx, "Atividade enviada com sucesso.")
	return ctx.Redirect(http.StatusFound, "/modulo_01")
}

func (s *server) deleteSubmission(ctx echo.Context) error {
	usr := contextUser(ctx)

	taskID, err := intForm(ctx, "task_id")
	if err != nil {
		s.flash(ctx, "Atividade inválida.")
		return ctx.Redirect(http.StatusFound, "/modulo_01")
	}

	if err = s.deps.SubmissionSvc.Delete(usr.ID, taskID); err != nil {
		if errors.Cause(err) == submission.ErrNotFound {
			s.flash(ctx, "Nenhum envio encontrado para esta atividade.")
			return ctx.Redirect(http.StatusFound, "/modulo_01")
		}
		return errors.Wrap(err, "deleting submission")
	}

	s.flash(ctx, "Envio removido. A atividade voltou para pendente.")
	return ctx.Redirect(http.StatusFound, "/modulo_01")
}
