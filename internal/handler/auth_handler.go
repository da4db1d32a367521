package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/astrathh/taskify-habitory/internal/auth"
	"github.com/astrathh/taskify-habitory/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	sessionUserKey  = "user_id"
	sessionEmailKey = "email"
	sessionNameKey  = "name"
)

type credentialsPayload struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type registerPayload struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"max=120"`
	Password string `json:"password" binding:"required,min=6"`
}

type passwordPayload struct {
	Current string `json:"current_password" binding:"required"`
	Next    string `json:"new_password" binding:"required,min=6"`
}

// Register 注册账号
func (a *API) Register(c *gin.Context) {
	var payload registerPayload
	if !bindJSON(c, &payload) {
		return
	}

	user, err := a.users.Register(c.Request.Context(), payload.Email, payload.Name, payload.Password)
	if err != nil {
		a.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// Login 校验邮箱密码，写入 cookie 会话并签发 bearer token
func (a *API) Login(c *gin.Context) {
	var payload credentialsPayload
	if !bindJSON(c, &payload) {
		return
	}

	user, err := a.users.Authenticate(c.Request.Context(), payload.Email, payload.Password)
	if err != nil {
		a.handleError(c, err)
		return
	}

	s := service.SessionFor(user)
	session := sessions.Default(c)
	session.Set(sessionUserKey, s.UserID)
	session.Set(sessionEmailKey, s.Email)
	session.Set(sessionNameKey, s.Name)
	if err := session.Save(); err != nil {
		a.log.Error("save session failed", "error", err)
		respondError(c, http.StatusInternalServerError, tr(c, msgSessionFailed))
		return
	}

	token, expiresAt, err := a.tokens.Issue(s)
	if err != nil {
		a.handleError(c, err)
		return
	}

	a.log.WithUser(user.ID).Info("user signed in")
	c.JSON(http.StatusOK, gin.H{
		"user":       user,
		"token":      token,
		"expires_at": expiresAt.Format(time.RFC3339),
	})
}

// Logout 清除会话并广播登出事件
func (a *API) Logout(c *gin.Context) {
	if s, ok := requestUser(c); ok {
		a.users.SignOut(s.UserID)
		a.log.WithUser(s.UserID).Info("user signed out")
	}

	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	_ = session.Save()

	c.JSON(http.StatusOK, gin.H{"signed_out": true})
}

// Me 返回当前登录用户
func (a *API) Me(c *gin.Context) {
	s, _ := requestUser(c)
	user, err := a.users.Get(c.Request.Context(), s.UserID)
	if err != nil {
		a.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ChangePassword 修改当前用户密码
func (a *API) ChangePassword(c *gin.Context) {
	var payload passwordPayload
	if !bindJSON(c, &payload) {
		return
	}

	s, _ := requestUser(c)
	if err := a.users.ChangePassword(c.Request.Context(), s.UserID, payload.Current, payload.Next); err != nil {
		a.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

// AuthRequired accepts a bearer token or the cookie session and stores the
// resulting auth.Session on the request context.
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := a.resolveSession(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, tr(c, msgLoginRequired))
			c.Abort()
			return
		}
		c.Request = c.Request.WithContext(auth.WithSession(c.Request.Context(), s))
		c.Next()
	}
}

func (a *API) resolveSession(c *gin.Context) (auth.Session, bool) {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		s, err := a.tokens.Parse(strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")))
		if err != nil {
			return auth.Session{}, false
		}
		return s, true
	}

	session := sessions.Default(c)
	userID, _ := session.Get(sessionUserKey).(string)
	if userID == "" {
		return auth.Session{}, false
	}
	email, _ := session.Get(sessionEmailKey).(string)
	name, _ := session.Get(sessionNameKey).(string)
	return auth.Session{UserID: userID, Email: email, Name: name}, true
}
