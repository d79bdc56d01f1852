package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/stlconsulting/mentoria/core/catalog"
	"github.com/stlconsulting/mentoria/core/schedule"
	"github.com/stlconsulting/mentoria/core/submission"
	"github.com/stlconsulting/mentoria/core/user"
)

const dashboardPath = "/admin/dashboard"

func (s *server) dashboard(ctx echo.Context) error {
	mentor := contextUser(ctx)

	pending, err := s.deps.ScheduleSvc.PendingForMentor(mentor.ID)
	if err != nil {
		return errors.Wrap(err, "querying pending appointments")
	}
	appts, err := s.deps.ScheduleSvc.AllForMentor(mentor.ID)
	if err != nil {
		return errors.Wrap(err, "querying appointments")
	}
	mentees, err := s.deps.UserSvc.MenteesOf(mentor.ID)
	if err != nil {
		return errors.Wrap(err, "querying mentees")
	}
	locations, err := s.deps.ScheduleSvc.Locations(mentor.ID)
	if err != nil {
		return errors.Wrap(err, "querying locations")
	}
	slots, err := s.deps.ScheduleSvc.OpenSlots(mentor.ID)
	if err != nil {
		return errors.Wrap(err, "querying open slots")
	}
	tasks, err := s.deps.CatalogSvc.Tasks(moduleOneName)
	if err != nil {
		return errors.Wrap(err, "querying tasks")
	}
	resources, err := s.deps.CatalogSvc.Resources("")
	if err != nil {
		return errors.Wrap(err, "querying resources")
	}

	return s.render(ctx, http.StatusOK, "dashboard", echo.Map{
		"Pending":   pending,
		"Schedules": appts,
		"Mentees":   mentees,
		"Locations": locations,
		"Slots":     slots,
		"Tasks":     tasks,
		"Resources": resources,
	})
}

// Appointments

func (s *server) confirmAppointment(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if _, err = s.deps.ScheduleSvc.Confirm(id); err != nil {
		if errors.Cause(err) == schedule.ErrNotFound {
			return errHTTPNotFound
		}
		return errors.Wrap(err, "confirming appointment")
	}
	s.flash(ctx, "Agendamento confirmado.")
	return ctx.Redirect(http.StatusFound, dashboardPath)
}

func (s *server) rejectAppointment(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if _, err = s.deps.ScheduleSvc.Reject(id); err != nil {
		if errors.Cause(err) == schedule.ErrNotFound {
			return errHTTPNotFound
		}
		return errors.Wrap(err, "rejecting appointment")
	}
	s.flash(ctx, "Agendamento recusado. O horário voltou a ficar disponível.")
	return ctx.Redirect(http.StatusFound, dashboardPath)
}

// Slots

func (s *server) addSlot(ctx echo.Context) error {
	mentor := contextUser(ctx)

	var data schedule.NewSlot
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSlot")
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		s.flashValidationErrs(ctx, err)
		return ctx.Redirect(http.StatusFound, dashboardPath)
	}

	if _, err := s.deps.ScheduleSvc.CreateSlot(mentor.ID, data); err != nil {
		if s.flashValidationErrs(ctx, err) {
			return ctx.Redirect(http.StatusFound, dashboardPath)
		}
		switch errors.Cause(err) {
		case schedule.ErrNotFound:
			s.flash(ctx, "Local não encontrado.")
		case schedule.ErrForbidden:
			return errHTTPForbidden
		default:
			return errors.Wrap(err, "creating slot")
		}
		return ctx.Redirect(http.StatusFound, dashboardPath)
	}

	s.flash(ctx, "Horário adicionado.")
	return ctx.Redirect(http.StatusFound, dashboardPath)
}

func (s *server) deleteSlot(ctx echo.Context) error {
	mentor := contextUser(ctx)

	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err = s.deps.ScheduleSvc.DeleteSlot(mentor.ID, id); err != nil {
		switch errors.Cause(err) {
		case schedule.ErrSlotBooked:
			s.flash(ctx, "Este horário tem um agendamento e não pode ser removido.")
			return ctx.Redirect(http.StatusFound, dashboardPath)
		case schedule.ErrNotFound:
			return errHTTPNotFound
		case schedule.ErrForbidden:
			return errHTTPForbidden
		}
		return errors.Wrap(err, "deleting slot")
	}

	s.flash(ctx, "Horário removido.")
	return ctx.Redirect(http.StatusFound, dashboardPath)
}

// Locations

func (s *server) addLocation(ctx echo.Context) error {
	mentor := contextUser(ctx)

	var data schedule.NewLocation
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLocation")
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		s.flashValidationErrs(ctx, err)
		return ctx.Redirect(http.StatusFound, dashboardPath)
	}

	if _, err := s.deps.ScheduleSvc.CreateLocation(mentor.ID, data); err != nil {
		return errors.Wrap(err, "creating location")
	}
	s.flash(ctx, "Local adicionado.")
	return ctx.Redirect(http.StatusFound, dashboardPath)
}

func (s *server) editLocation(ctx echo.Context) error {
	mentor := contextUser(ctx)

	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	var data schedule.NewLocation
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLocation")
	}
	if err = data.Validate(s.deps.Validate); err != nil {
		s.flashValidationErrs(ctx, err)
		return ctx.Redirect(http.StatusFound, dashboardPath)
	}

	if _, err = s.deps.ScheduleSvc.UpdateLocation(mentor.ID, id, data); err != nil {
		switch errors.Cause(err) {
		case schedule.ErrNotFound:
			return errHTTPNotFound
		case schedule.ErrForbidden:
			return errHTTPForbidden
		}
		return errors.Wrap(err, "updating location")
	}
	s.flash(ctx, "Local atualizado.")
	return ctx.Redirect(http.StatusFound, dashboardPath)
}

func (s *server) deleteLocation(ctx echo.Context) error {
	mentor := contextUser(ctx)

	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err = s.deps.ScheduleSvc.DeleteLocation(mentor.ID, id); err != nil {
		switch errors.Cause(err) {
		case schedule.ErrNotFound:
			return errHTTPNotFound
		case schedule.ErrForbidden:
			return errHTTPForbidden
		}
		return errors.Wrap(err, "deleting location")
	}
	s.flash(ctx, "Local removido.")
	return ctx.Redirect(http.StatusFound, dashboardPath)
}

// Tasks

func (s *server) createTask(ctx echo.Context) error {
	var data catalog.NewTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTask")
	}
	if data.ModuleName == "" {
		data.ModuleName = moduleOneName
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		s.flashValidationErrs(ctx, err)
		return ctx.Redirect(http.StatusFound, dashboardPath)
	}

	if _, err := s.deps.CatalogSvc.CreateTask(data); err != nil {
		return errors.Wrap(err, "creating task")
	}
	s.flash(ctx, "Atividade criada.")
	return ctx.Redirect(http.StatusFound, dashboardPath)
}

func (s *server) editTask(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	var data catalog.NewTask
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTask")
	}
	if data.ModuleName == "" {
		data.ModuleName = moduleOneName
	}
	if err = data.Validate(s.deps.Validate); err != nil {
		s.flashValidationErrs(ctx, err)
		return ctx.Redirect(http.StatusFound, dashboardPath)
	}

	if _, err = s.deps.CatalogSvc.UpdateTask(id, data); err != nil {
		if errors.Cause(err) == catalog.ErrNotFound {
			return errHTTPNotFound
		}
		return errors.Wrap(err, "updating task")
	}
	s.flash(ctx, "Atividade atualizada.")
	return ctx.Redirect(http.StatusFound, dashboardPath)
}

func (s *server) deleteTask(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err = s.deps.CatalogSvc.DeleteTask(id); err != nil {
		return errors.Wrap(err, "deleting task")
	}
	s.flash(ctx, "Atividade removida.")
	return ctx.Redirect(http.StatusFound, dashboardPath)
}

// Submissions

func (s *server) downloadSubmission(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	ut, file, err := s.deps.SubmissionSvc.Download(id)
	if err != nil {
		if errors.Cause(err) == submission.ErrNotFound {
			return errHTTPNotFound
		}
		return errors.Wrap(err, "downloading submission")
	}
	//goland:noinspection GoUnhandledErrorResult
	defer file.Close()

	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+ut.FilePath+`"`)
	return ctx.Stream(http.StatusOK, attachmentType(ut.FilePath), file)
}

// Users

func (s *server) toggleUserStatus(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	usr, err := s.deps.UserSvc.ToggleActive(id)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errHTTPNotFound
		}
		return errors.Wrap(err, "toggling user status")
	}

	if usr.IsActive {
		s.flash(ctx, "Usuário reativado.")
	} else {
		s.flash(ctx, "Usuário desativado.")
	}
	return ctx.Redirect(http.StatusFound, dashboardPath)
}

// Resources

func (s *server) uploadResource(ctx echo.Context) error {
	mentor := contextUser(ctx)

	var data catalog.NewResource
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewResource")
	}
	if data.ModuleName == "" {
		data.ModuleName = moduleOneName
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		s.flashValidationErrs(ctx, err)
		return ctx.Redirect(http.StatusFound, dashboardPath)
	}

	fileHdr, err := ctx.FormFile("file")
	if err != nil {
		s.flash(ctx, "Selecione um arquivo para enviar.")
		return ctx.Redirect(http.StatusFound, dashboardPath)
	}
	src, err := fileHdr.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	//goland:noinspection GoUnhandledErrorResult
	defer src.Close()

	if _, err = s.deps.CatalogSvc.UploadResource(mentor.ID, data, fileHdr.Filename, src); err != nil {
		return errors.Wrap(err, "uploading resource")
	}
	s.flash(ctx, "Material enviado.")
	return ctx.Redirect(http.StatusFound, dashboardPath)
}

func (s *server) downloadResourceAdmin(ctx echo.Context) error {
	return s.downloadResource(ctx)
}

func (s *server) deleteResource(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err = s.deps.CatalogSvc.DeleteResource(id); err != nil {
		if errors.Cause(err) == catalog.ErrNotFound {
			return errHTTPNotFound
		}
		return errors.Wrap(err, "deleting resource")
	}
	s.flash(ctx, "Material removido.")
	return ctx.Redirect(http.StatusFound, dashboardPath)
}
