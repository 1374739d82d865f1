package server

import (
	"net/http"

	"hear-me-out/internal/game"

	"github.com/gin-gonic/gin"
)

const (
	playerCookie   = "hmo_player"
	nameCookie     = "hmo_name"
	identityMaxAge = 30 * 24 * 60 * 60
)

// identity is the browser's stable player id plus its last display name. Both
// live in cookies so any instance behind a load balancer can serve the player.
type identity struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
}

func (s *Server) identify(c *gin.Context) identity {
	id, err := c.Cookie(playerCookie)
	if err != nil || !game.ValidPlayerID(id) {
		id = game.NewPlayerID()
		setIdentityCookie(c, playerCookie, id)
	}
	name, _ := c.Cookie(nameCookie)
	if name != "" {
		if normalized, err := game.ValidateName(name, s.cfg.MaxNameLength); err == nil {
			name = normalized
		} else {
			name = ""
		}
	}
	return identity{PlayerID: id, Name: name}
}

func (s *Server) rememberName(c *gin.Context, who *identity, name string) {
	who.Name = name
	setIdentityCookie(c, nameCookie, name)
}

// resolveName prefers the name sent with the request and falls back to the
// remembered one.
func (s *Server) resolveName(c *gin.Context, who *identity, requested string) (string, bool) {
	if requested != "" {
		name, err := game.ValidateName(requested, s.cfg.MaxNameLength)
		if err != nil {
			writeEngineError(c, err)
			return "", false
		}
		s.rememberName(c, who, name)
		return name, true
	}
	if who.Name != "" {
		return who.Name, true
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
	return "", false
}

func setIdentityCookie(c *gin.Context, name, value string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, identityMaxAge, "/", "", false, true)
}

func (s *Server) handleGetMe(c *gin.Context) {
	c.JSON(http.StatusOK, s.identify(c))
}

func (s *Server) handleSetMe(c *gin.Context) {
	var req nameRequest
	if !bindJSON(c, &req, nameMessages, "invalid name") {
		return
	}
	who := s.identify(c)
	if _, ok := s.resolveName(c, &who, req.Name); !ok {
		return
	}
	c.JSON(http.StatusOK, who)
}
