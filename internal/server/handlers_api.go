package server

import (
	"net/http"

	"hear-me-out/internal/game"

	"github.com/gin-gonic/gin"
)

type roomURI struct {
	Code string `uri:"code" binding:"required,max=12"`
}

type nameRequest struct {
	Name string `json:"name" binding:"required,name"`
}

type optionalNameRequest struct {
	Name string `json:"name" binding:"omitempty,name"`
}

type inventionRequest struct {
	Text string `json:"text" binding:"required,invention"`
}

type drawingRequest struct {
	Drawing string `json:"drawing" binding:"required,drawing"`
	Pitch   string `json:"pitch" binding:"pitch"`
}

type nextPresenterRequest struct {
	ObservedIndex *int `json:"observed_index" binding:"omitempty,min=0"`
}

var nameMessages = bindMessages{
	"Name": {
		"required": "name is required",
		"name":     "name must be 1-20 printable characters",
	},
}

var inventionMessages = bindMessages{
	"Text": {
		"required":  "invention is required",
		"invention": "invention is too long or not valid text",
	},
}

var drawingMessages = bindMessages{
	"Drawing": {
		"required": "drawing is required",
		"drawing":  "drawing must be an image data URL within the size limit",
	},
	"Pitch": {
		"pitch": "pitch is too long or not valid text",
	},
}

var nextPresenterMessages = bindMessages{
	"ObservedIndex": {
		"min": "observed_index must not be negative",
	},
}

func (s *Server) roomCode(c *gin.Context) (string, bool) {
	var uri roomURI
	if !bindURI(c, &uri) {
		return "", false
	}
	return game.NormalizeRoomID(uri.Code), true
}

func (s *Server) handleCreateRoom(c *gin.Context) {
	var req optionalNameRequest
	if !bindOptionalJSON(c, &req, nameMessages, "invalid name") {
		return
	}
	who := s.identify(c)
	name, ok := s.resolveName(c, &who, req.Name)
	if !ok {
		return
	}
	code, err := s.engine.CreateRoom(c.Request.Context(), game.Player{ID: who.PlayerID, Name: name})
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"room_id":   code,
		"player_id": who.PlayerID,
	})
}

func (s *Server) handleGetRoom(c *gin.Context) {
	code, ok := s.roomCode(c)
	if !ok {
		return
	}
	room, err := s.engine.GetRoom(c.Request.Context(), code)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (s *Server) handleJoinRoom(c *gin.Context) {
	code, ok := s.roomCode(c)
	if !ok {
		return
	}
	var req optionalNameRequest
	if !bindOptionalJSON(c, &req, nameMessages, "invalid name") {
		return
	}
	who := s.identify(c)
	name, ok := s.resolveName(c, &who, req.Name)
	if !ok {
		return
	}
	if err := s.engine.JoinRoom(c.Request.Context(), code, game.Player{ID: who.PlayerID, Name: name}); err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"room_id":   code,
		"player_id": who.PlayerID,
	})
}

func (s *Server) handleStartGame(c *gin.Context) {
	code, ok := s.roomCode(c)
	if !ok {
		return
	}
	who := s.identify(c)
	if err := s.engine.StartGame(c.Request.Context(), code, who.PlayerID); err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleSubmitInvention(c *gin.Context) {
	code, ok := s.roomCode(c)
	if !ok {
		return
	}
	var req inventionRequest
	if !bindJSON(c, &req, inventionMessages, "invalid invention") {
		return
	}
	who := s.identify(c)
	if err := s.engine.SubmitInvention(c.Request.Context(), code, who.PlayerID, req.Text); err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleCheckInventions(c *gin.Context) {
	code, ok := s.roomCode(c)
	if !ok {
		return
	}
	advanced, err := s.engine.CheckAllInventionsSubmitted(c.Request.Context(), code)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"advanced": advanced})
}

func (s *Server) handleSubmitDrawing(c *gin.Context) {
	code, ok := s.roomCode(c)
	if !ok {
		return
	}
	var req drawingRequest
	if !bindJSON(c, &req, drawingMessages, "invalid drawing") {
		return
	}
	who := s.identify(c)
	if err := s.engine.SubmitDrawingAndPitch(c.Request.Context(), code, who.PlayerID, req.Drawing, req.Pitch); err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleFinishDrawing(c *gin.Context) {
	code, ok := s.roomCode(c)
	if !ok {
		return
	}
	advanced, err := s.engine.FinishDrawing(c.Request.Context(), code)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"advanced": advanced})
}

func (s *Server) handleAdvancePresenter(c *gin.Context) {
	code, ok := s.roomCode(c)
	if !ok {
		return
	}
	who := s.identify(c)
	if err := s.engine.AdvancePresenter(c.Request.Context(), code, who.PlayerID); err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleAdvanceOrFinish(c *gin.Context) {
	code, ok := s.roomCode(c)
	if !ok {
		return
	}
	var req nextPresenterRequest
	if !bindOptionalJSON(c, &req, nextPresenterMessages, "invalid request") {
		return
	}
	observed := -1
	if req.ObservedIndex != nil {
		observed = *req.ObservedIndex
	}
	who := s.identify(c)
	phase, err := s.engine.AdvanceOrFinish(c.Request.Context(), code, who.PlayerID, observed)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"phase": phase})
}

func (s *Server) handleEndGame(c *gin.Context) {
	code, ok := s.roomCode(c)
	if !ok {
		return
	}
	who := s.identify(c)
	if err := s.engine.EndGame(c.Request.Context(), code, who.PlayerID); err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
