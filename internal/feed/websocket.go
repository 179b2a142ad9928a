package feed

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"medisync/internal/access"
	apperrors "medisync/internal/errors"
	"medisync/internal/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades authenticated requests to websocket feed connections.
type Handler struct {
	hub *Hub
}

// NewHandler creates a new handler bound to the given Hub.
func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// Connect godoc
// @Summary Subscribe to change notifications
// @Description Upgrades to a websocket. Send {"action":"subscribe","topics":["patients"]} to follow topics.
// @Tags feed
// @Security BearerAuth
// @Success 101
// @Failure 401 {object} errors.ErrorResponse
// @Router /feed/ws [get]
func (h *Handler) Connect(c echo.Context) error {
	session := access.SessionFrom(c)
	if session.User == nil {
		return c.JSON(http.StatusUnauthorized, apperrors.ErrorResponse{
			Error:    "authentication required",
			Code:     "UNAUTHENTICATED",
			Redirect: access.LoginPath,
		})
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := NewClient(uuid.NewString(), TopicPolicy(session.User))
	h.hub.Register(client)

	go h.writePump(client, ws)
	go h.readPump(client, ws)
	return nil
}

// TopicPolicy limits a user to the topics their role may read.
func TopicPolicy(user *model.User) func(topic string) bool {
	return func(topic string) bool {
		switch {
		case topic == TopicUsers:
			return access.Can(user.Role, access.ManageUsers)
		case topic == TopicPatients || strings.HasPrefix(topic, TopicPatients+"/"):
			return true
		case topic == AssigneeTasksTopic(user.ID):
			return true
		case topic == TopicTasks || strings.HasPrefix(topic, TopicTasks+"/"):
			return access.Can(user.Role, access.ViewAllTasks)
		}
		return false
	}
}

func (h *Handler) readPump(client *Client, ws *websocket.Conn) {
	defer func() {
		h.hub.Unregister(client)
		ws.Close()
	}()

	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		h.hub.ProcessMessage(client, msg)
	}
}

func (h *Handler) writePump(client *Client, ws *websocket.Conn) {
	defer ws.Close()

	for message := range client.Send {
		if err := ws.WriteMessage(websocket.TextMessage, message); err != nil {
			break
		}
	}
}
