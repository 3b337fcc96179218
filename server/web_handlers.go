package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-session/session/v3"
	"go.uber.org/zap"

	"github.com/verdant-labs/verdant/errors"
)

// sessionTokenKey is where the browser flow keeps the identity token
// between the login post and later page loads.
const sessionTokenKey = "identity_token"

const loginPage = `<!DOCTYPE html>
<html><head><title>Login</title></head><body>
<h1>Login</h1>
<form method="post" action="/auth/login">
<label>Username <input name="username"></label>
<label>Password <input name="password" type="password"></label>
<button type="submit">Sign in</button>
</form>
</body></html>`

// HandleLoginPage serves the login form for the browser flow.
func (s *Server) HandleLoginPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(loginPage))
}

// HandleWebLogin authenticates the posted form, stores the identity token in
// the session and redirects to the media client. Failures redirect back to
// the form; the browser flow leaks no more than the JSON API does.
func (s *Server) HandleWebLogin(c *gin.Context) {
	username := c.PostForm("username")
	pass := c.PostForm("password")

	token, err := s.Issuer.Issue(c.Request.Context(), username, pass)
	if err != nil {
		if !errors.Is(err, errors.ErrInvalidCredentials) {
			s.logger.Error("web login failed", zap.Error(err))
		}
		c.Redirect(http.StatusFound, "/auth/login")
		return
	}

	sess, err := session.Start(c.Request.Context(), c.Writer, c.Request)
	if err != nil {
		s.logger.Error("session start failed", zap.Error(err))
		c.Redirect(http.StatusFound, "/auth/login")
		return
	}
	sess.Set(sessionTokenKey, token)
	if err := sess.Save(); err != nil {
		s.logger.Error("session save failed", zap.Error(err))
		c.Redirect(http.StatusFound, "/auth/login")
		return
	}
	c.Redirect(http.StatusFound, "/media/client")
}

// sessionToken recovers the identity token stored by HandleWebLogin, or "".
func sessionToken(c *gin.Context) string {
	sess, err := session.Start(c.Request.Context(), c.Writer, c.Request)
	if err != nil {
		return ""
	}
	v, ok := sess.Get(sessionTokenKey)
	if !ok {
		return ""
	}
	token, _ := v.(string)
	return token
}

const clientPage = `<!DOCTYPE html>
<html><head><title>Rooms</title></head><body>
<h1>Connected as %s</h1>
<p>Request a media token via <code>GET /rpc/token?room=NAME</code>.</p>
</body></html>`

// HandleMediaClient is the protected landing page of the browser flow. It
// relies on the same bearer middleware as the JSON API, with the session as
// the token carrier.
func (s *Server) HandleMediaClient(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, clientPage, Subject(c))
}
