package websockets

import (
	"context"
	"palcontent/internal/models"
	"time"

	"github.com/google/uuid"
)

const AUTH_HANDSHAKE_TIMEOUT = 10 * time.Second

func systemMessage(messageType, action string, data map[string]any) Message {
	if data == nil {
		data = map[string]any{}
	}
	data["action"] = action
	return Message{
		ID:        uuid.New().String(),
		Type:      messageType,
		Channel:   SYSTEM_CHANNEL,
		Action:    action,
		Data:      data,
		Timestamp: time.Now(),
	}
}

func (c *Client) startAuthTimeout() {
	log := c.Manager.log.Function("startAuthTimeout")

	time.AfterFunc(AUTH_HANDSHAKE_TIMEOUT, func() {
		if c.Status() != STATUS_UNAUTHENTICATED {
			return
		}
		log.Warn("Client failed to authenticate within timeout, disconnecting",
			"clientID", c.ID,
			"timeout", AUTH_HANDSHAKE_TIMEOUT)

		c.Manager.reply(c, systemMessage(MESSAGE_TYPE_AUTH_FAILURE, "authentication_timeout",
			map[string]any{"reason": "Authentication timeout"}))
		c.closeSoon()
	})
}

func (c *Client) closeSoon() {
	time.AfterFunc(100*time.Millisecond, func() {
		if c.Connection != nil {
			_ = c.Connection.Close()
		}
	})
}

// handleAuthResponse validates the bearer token sent after auth_request and
// binds the client to the matching active user.
func (c *Client) handleAuthResponse(message Message) {
	log := c.Manager.log.Function("handleAuthResponse")

	if c.Status() != STATUS_UNAUTHENTICATED {
		log.Warn("Auth response from already authenticated client", "clientID", c.ID)
		return
	}

	token, _ := message.Data["token"].(string)
	if token == "" {
		c.sendAuthFailure("Invalid token format")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), AUTH_HANDSHAKE_TIMEOUT)
	defer cancel()

	tokenInfo, err := c.Manager.auth.ValidateToken(ctx, token)
	if err != nil {
		log.Info("WebSocket token validation failed", "clientID", c.ID, "error", err.Error())
		c.sendAuthFailure("Authentication failed")
		return
	}

	user, err := c.Manager.users.GetByAuthUserID(ctx, c.Manager.db.SQLWithContext(ctx), tokenInfo.UserID)
	if err != nil || !user.IsActive {
		log.Info("WebSocket user not found or inactive", "clientID", c.ID, "authUserID", tokenInfo.UserID)
		c.sendAuthFailure("User not found")
		return
	}

	c.UserID = user.ID
	c.FranchiseeID = user.FranchiseeID
	c.TechnicianID = user.TechnicianID
	c.IsAdmin = user.IsAdmin()
	c.IsTechnician = user.Role == models.RoleTechnician
	c.status.Store(STATUS_AUTHENTICATED)

	log.Info("WebSocket client authenticated", "clientID", c.ID, "userID", user.ID, "role", user.Role)

	data := map[string]any{"userId": user.ID.String(), "role": string(user.Role)}
	if user.FranchiseeID != nil {
		data["franchiseeId"] = user.FranchiseeID.String()
	}
	success := systemMessage(MESSAGE_TYPE_AUTH_SUCCESS, "authenticated", data)
	success.UserID = user.ID.String()
	c.Manager.reply(c, success)
}

func (c *Client) sendAuthFailure(reason string) {
	c.Manager.log.Function("sendAuthFailure").Info("Auth failure sent, closing connection", "clientID", c.ID, "reason", reason)

	c.Manager.reply(c, systemMessage(MESSAGE_TYPE_AUTH_FAILURE, "authentication_failed",
		map[string]any{"reason": reason}))
	c.closeSoon()
}

func (c *Client) sendAuthRequest() error {
	log := c.Manager.log.Function("sendAuthRequest")

	request := systemMessage(MESSAGE_TYPE_AUTH_REQUEST, "authenticate", nil)
	if err := c.Connection.WriteJSON(request); err != nil {
		return log.Err("failed to send auth request", err, "clientID", c.ID)
	}
	return nil
}

func (c *Client) handleUnauthenticatedMessage(message Message) {
	c.Manager.log.Function("handleUnauthenticatedMessage").Warn(
		"Blocking message from unauthenticated client",
		"clientID", c.ID,
		"type", message.Type,
	)

	c.Manager.reply(c, systemMessage(MESSAGE_TYPE_AUTH_FAILURE, "authentication_required",
		map[string]any{"reason": "Authentication required"}))
}
