package echoweb

import (
	"fmt"
	htmltmpl "html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/stlconsulting/mentoria/core"
	"github.com/stlconsulting/mentoria/core/user"
	appfs "github.com/stlconsulting/mentoria/fs"
)

const webTemplateDir = "assets/templates/web"

// renderer serves the embedded web templates. Each page is parsed together
// with the _base layout; pages fill the "content" block.
type renderer struct {
	templates map[string]*htmltmpl.Template
}

var _ echo.Renderer = (*renderer)(nil)

func newRenderer(conf *core.Config, logger core.Logger) *renderer {
	r := &renderer{templates: make(map[string]*htmltmpl.Template)}

	entries, err := fs.ReadDir(appfs.FS, webTemplateDir)
	if err != nil {
		logger.Error(fmt.Sprintf("echoweb.newRenderer: %v", err), err)
		return r
	}

	base := path.Join(webTemplateDir, "_base.gohtml")
	for _, entry := range entries {
		fname := entry.Name()
		if strings.HasPrefix(fname, "_") || path.Ext(fname) != ".gohtml" {
			continue
		}

		tmpl, err := htmltmpl.ParseFS(appfs.FS, base, path.Join(webTemplateDir, fname))
		if err != nil {
			logger.Error(fmt.Sprintf("echoweb.newRenderer: %v", err), err)
			continue
		}
		if conf.Debug || conf.TestMode {
			tmpl = tmpl.Option("missingkey=error")
		}
		r.templates[strings.TrimSuffix(fname, ".gohtml")] = tmpl
	}
	return r
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return errors.Errorf("template %q not found", name)
	}
	return tmpl.Execute(w, data)
}

// render fills in the ambient template context before delegating to the renderer.
func (s *server) render(ctx echo.Context, code int, name string, data echo.Map) error {
	if data == nil {
		data = echo.Map{}
	}
	data["AppName"] = s.deps.Conf.AppName
	data["Flashes"] = s.popFlashes(ctx)
	if usr, ok := ctx.Get(ctxUserKey).(user.User); ok {
		// pass a pointer: User's methods have pointer receivers, which templates
		// cannot call on a non-addressable value
		data["User"] = &usr
	} else {
		data["User"] = nil
	}
	return ctx.Render(code, name, data)
}
