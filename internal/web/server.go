// Package web serves the single-page upload form. Each session keeps only the
// last uploaded file name and text; artifacts are rebuilt on every request.
package web

import (
	"io"
	"strings"
	"time"

	"ics-egress/internal/auth"
	"ics-egress/internal/errors"
	"ics-egress/internal/job"
	"ics-egress/internal/logger"
	"ics-egress/internal/pipeline"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/helmet/v2"
)

const (
	keyAuthenticated = "authenticated"
	keyFilename      = "filename"
	keyScript        = "script"
	localsSession    = "session"
)

// Options configures a Server.
type Options struct {
	AppName    string
	BodyLimit  int
	Production bool
	Gate       *auth.Gate
	Defaults   job.Defaults
}

type Server struct {
	app      *fiber.App
	store    *session.Store
	gate     *auth.Gate
	defaults job.Defaults
	title    string
}

func New(opts Options) *Server {
	if opts.AppName == "" {
		opts.AppName = "ICS Egress Framework"
	}
	s := &Server{
		store:    session.New(session.Config{Expiration: 12 * time.Hour, CookieHTTPOnly: true, CookieSameSite: fiber.CookieSameSiteLaxMode}),
		gate:     opts.Gate,
		defaults: opts.Defaults,
		title:    opts.AppName,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               opts.AppName,
		BodyLimit:             opts.BodyLimit,
		DisableStartupMessage: true,
		UnescapePath:          true,
		ErrorHandler:          s.handleError,
	})

	s.app.Use(recover.New())
	s.app.Use(requestLogger)
	if opts.Production {
		s.app.Use(helmet.New())
	}

	s.app.Get("/", s.withSession, s.index)
	s.app.Post("/login", s.withSession, s.login)
	s.app.Post("/logout", s.withSession, s.logout)
	s.app.Post("/upload", s.withSession, s.requireAuth, s.upload)
	s.app.Get("/download/:name", s.withSession, s.requireAuth, s.download)

	return s
}

// App exposes the underlying fiber app, mainly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	logger.Logger.Infow("Form server listening", "addr", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	logger.Logger.Debugw("request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"latency", time.Since(start))
	return err
}

func (s *Server) withSession(c *fiber.Ctx) error {
	sess, err := s.store.Get(c)
	if err != nil {
		return errors.Wrap(err, "load session")
	}
	c.Locals(localsSession, sess)
	return c.Next()
}

func sessionOf(c *fiber.Ctx) *session.Session {
	return c.Locals(localsSession).(*session.Session)
}

func isAuthenticated(sess *session.Session) bool {
	ok, _ := sess.Get(keyAuthenticated).(bool)
	return ok
}

// requireAuth answers with the bare login page; nothing about the session leaks.
func (s *Server) requireAuth(c *fiber.Ctx) error {
	if !isAuthenticated(sessionOf(c)) {
		return s.render(c, fiber.StatusUnauthorized, newPage(s.title))
	}
	return c.Next()
}

func (s *Server) index(c *fiber.Ctx) error {
	sess := sessionOf(c)
	p := newPage(s.title)
	if !isAuthenticated(sess) {
		return s.render(c, fiber.StatusOK, p)
	}
	p.Authenticated = true

	bundle, filename, script, err := s.currentBundle(sess)
	if err != nil {
		p.Error = err.Error()
		return s.render(c, fiber.StatusOK, p)
	}
	if bundle == nil {
		return s.render(c, fiber.StatusOK, p)
	}

	arts, err := bundle.Artifacts()
	if err != nil {
		return err
	}
	p.Filename = filename
	p.Script = script
	p.Tabs = tabsFor(arts)
	return s.render(c, fiber.StatusOK, p)
}

func (s *Server) login(c *fiber.Ctx) error {
	sess := sessionOf(c)
	if err := s.gate.Check(c.FormValue("password")); err != nil {
		logger.Logger.Warnw("Rejected login", "ip", c.IP())
		p := newPage(s.title)
		p.Error = "Incorrect password."
		return s.render(c, fiber.StatusUnauthorized, p)
	}

	if err := sess.Regenerate(); err != nil {
		return errors.Wrap(err, "regenerate session")
	}
	sess.Set(keyAuthenticated, true)
	if err := sess.Save(); err != nil {
		return errors.Wrap(err, "save session")
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

func (s *Server) logout(c *fiber.Ctx) error {
	if err := sessionOf(c).Destroy(); err != nil {
		return errors.Wrap(err, "destroy session")
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

func (s *Server) upload(c *fiber.Ctx) error {
	sess := sessionOf(c)
	fh, err := c.FormFile("script")
	if err != nil {
		return s.badUpload(c, "No file uploaded.")
	}

	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "open upload")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return errors.Wrap(err, "read upload")
	}
	if err := pipeline.CheckUpload(fh.Filename, data); err != nil {
		msg := err.Error()
		if hints := errors.FlattenHints(err); hints != "" {
			msg += " (" + hints + ")"
		}
		return s.badUpload(c, msg)
	}

	sess.Set(keyFilename, fh.Filename)
	sess.Set(keyScript, string(data))
	if err := sess.Save(); err != nil {
		return errors.Wrap(err, "save session")
	}
	logger.Logger.Infow("Script uploaded", "file", fh.Filename, "bytes", len(data))
	return c.Redirect("/", fiber.StatusSeeOther)
}

func (s *Server) badUpload(c *fiber.Ctx, msg string) error {
	p := newPage(s.title)
	p.Authenticated = true
	p.Error = msg
	return s.render(c, fiber.StatusBadRequest, p)
}

func (s *Server) download(c *fiber.Ctx) error {
	bundle, _, _, err := s.currentBundle(sessionOf(c))
	if err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}
	if bundle == nil {
		return fiber.NewError(fiber.StatusNotFound, "no script uploaded")
	}

	name := c.Params("name")
	art, ok, err := bundle.Artifact(name)
	if err != nil {
		return err
	}
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "unknown artifact")
	}

	c.Attachment(art.Name)
	c.Set(fiber.HeaderContentType, contentType(art.Name))
	return c.SendString(art.Content)
}

// currentBundle rebuilds the artifacts from the session's last upload. A nil
// bundle with a nil error means nothing was uploaded yet.
func (s *Server) currentBundle(sess *session.Session) (*pipeline.Bundle, string, string, error) {
	filename, _ := sess.Get(keyFilename).(string)
	script, ok := sess.Get(keyScript).(string)
	if !ok || filename == "" {
		return nil, "", "", nil
	}
	b, err := pipeline.Build(filename, script, s.defaults)
	if err != nil {
		return nil, filename, script, err
	}
	return b, filename, script, nil
}

func (s *Server) render(c *fiber.Ctx, status int, p page) error {
	var sb strings.Builder
	if err := pageTemplate.Execute(&sb, p); err != nil {
		return errors.Wrap(err, "render page")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).SendString(sb.String())
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	} else {
		logger.Logger.Errorw("Request failed", "path", c.Path(), "error", err)
	}
	msg := "internal error"
	if fe != nil {
		msg = fe.Message
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(code).SendString(msg)
}

func contentType(name string) string {
	switch {
	case strings.HasSuffix(name, ".json"):
		return fiber.MIMEApplicationJSONCharsetUTF8
	default:
		return fiber.MIMETextPlainCharsetUTF8
	}
}
