package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/thraizz/kingdom-server-go/internal/session"
	"github.com/thraizz/kingdom-server-go/internal/table"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Time allowed for one table command.
	commandTimeout = 5 * time.Second
)

var errLoginRequired = errors.New("login required")

// Client is one websocket connection.
type Client struct {
	srv     *Server
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
	logger  *zap.Logger

	done      chan struct{}
	closeOnce sync.Once

	// Only the read goroutine touches the fields below.
	session *session.Session
	name    string
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// enqueue never blocks; a slow client is cut off.
func (c *Client) enqueue(data []byte) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- data:
	default:
		c.logger.Warn("send buffer full, closing connection")
		c.close()
	}
}

func (c *Client) reply(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("failed to marshal reply", zap.Error(err))
		return
	}
	c.enqueue(data)
}

func (c *Client) replyError(err error) {
	c.reply(ErrorMessage{Error: err.Error()})
}

// readPump decodes inbound frames and dispatches them in order.
func (c *Client) readPump() {
	defer func() {
		c.disconnect()
		c.close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		c.session.UpdateActivity()
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Info("websocket read error", zap.Error(err))
			}
			return
		}
		c.session.UpdateActivity()

		if !c.limiter.Allow() {
			c.reply(ErrorMessage{Error: "rate limit exceeded"})
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Debug("malformed frame", zap.Error(err))
			c.reply(ErrorMessage{Error: "malformed message"})
			continue
		}
		c.handle(msg)
	}
}

// writePump drains the send buffer and keeps the connection alive.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("websocket write error", zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handle(msg ClientMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	var err error
	switch {
	case msg.Login != nil:
		err = c.login(ctx, msg)
	case msg.Resume != "":
		err = c.resume(ctx, msg.Resume)
	case c.name == "":
		err = errLoginRequired
	case msg.List:
		c.reply(TableList{Tables: c.srv.tables.List()})
	case msg.Create != nil:
		var info table.Info
		if info, err = c.srv.tables.Create(*msg.Create); err == nil {
			c.reply(Created{Created: info})
		}
	case msg.Join != "":
		err = c.join(ctx, msg.Join)
	case msg.Start:
		err = c.withSeat(func(tableID string, _ int) error {
			return c.srv.tables.Start(ctx, tableID)
		})
	case msg.Leave:
		err = c.withSeat(func(tableID string, playerID int) error {
			if err := c.srv.tables.Leave(ctx, tableID, playerID); err != nil {
				return err
			}
			c.srv.hub.unbind(playerID, c)
			c.session.ClearSeat()
			return nil
		})
	case msg.Chat != nil:
		err = c.withSeat(func(tableID string, playerID int) error {
			return c.srv.tables.Chat(ctx, tableID, playerID, *msg.Chat)
		})
	case msg.Decision != nil:
		err = c.withSeat(func(tableID string, playerID int) error {
			result, err := c.srv.tables.Respond(ctx, tableID, playerID, *msg.Decision)
			if err == nil {
				c.logger.Debug("decision response",
					zap.String("key", *msg.Decision),
					zap.Stringer("result", result),
				)
			}
			return err
		})
	default:
		c.reply(ErrorMessage{Error: "unknown message"})
	}

	if err != nil {
		c.replyError(err)
	}
}

func (c *Client) login(ctx context.Context, msg ClientMessage) error {
	if c.name != "" {
		return errors.New("already logged in")
	}
	id, err := c.srv.authenticator.Authenticate(ctx, *msg.Login)
	if err != nil {
		return err
	}
	c.name = id.Name
	c.session.SetUserName(id.Name)
	c.logger.Info("player logged in",
		zap.String("username", id.Name),
		zap.Bool("guest", id.Guest),
	)
	c.reply(Welcome{Welcome: WelcomeBody{Session: c.session.ID, Name: id.Name, Guest: id.Guest}})
	return nil
}

// resume adopts an earlier session, rebinding its seat to this connection.
func (c *Client) resume(ctx context.Context, sessionID string) error {
	if c.name != "" {
		return errors.New("already logged in")
	}
	old, ok := c.srv.sessions.GetSession(sessionID)
	if !ok || old.UserName() == "" {
		return errors.New("unknown session")
	}

	fresh := c.session
	c.session = old
	c.name = old.UserName()
	old.OnClose(c.close)
	old.UpdateActivity()
	fresh.OnClose(nil)
	c.srv.sessions.RemoveSession(fresh.ID)

	c.logger.Info("session resumed",
		zap.String("username", c.name),
		zap.String("resumed_session_id", old.ID),
	)
	c.reply(Welcome{Welcome: WelcomeBody{Session: old.ID, Name: c.name}})

	tableID, playerID, seated := old.Seat()
	if !seated {
		return nil
	}
	c.srv.hub.bind(playerID, c)
	c.reply(Joined{Joined: JoinedBody{Table: tableID, PlayerID: playerID}})
	_, err := c.srv.tables.Reconnect(ctx, tableID, playerID)
	return err
}

func (c *Client) join(ctx context.Context, tableID string) error {
	if _, _, seated := c.session.Seat(); seated {
		return errors.New("already seated")
	}
	playerID, err := c.srv.tables.Join(ctx, tableID, c.name)
	if err != nil {
		return err
	}
	c.session.SetSeat(tableID, playerID)
	c.srv.hub.bind(playerID, c)
	c.reply(Joined{Joined: JoinedBody{Table: tableID, PlayerID: playerID}})

	// Joining the last seat starts the game before the hub knows this
	// connection, so catch up on the kingdom and the first decision.
	_, err = c.srv.tables.Reconnect(ctx, tableID, playerID)
	return err
}

func (c *Client) withSeat(fn func(tableID string, playerID int) error) error {
	tableID, playerID, seated := c.session.Seat()
	if !seated {
		return table.ErrNotSeated
	}
	return fn(tableID, playerID)
}

// disconnect releases the seat binding when the connection drops. The
// session survives until its lease expires so the player can resume.
func (c *Client) disconnect() {
	tableID, playerID, seated := c.session.Seat()
	if !seated {
		return
	}
	c.srv.hub.unbind(playerID, c)
	if c.srv.hub.Connected(playerID) {
		// another connection took over this seat
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if err := c.srv.tables.Leave(ctx, tableID, playerID); err != nil && !errors.Is(err, table.ErrTableNotFound) {
		c.logger.Warn("failed to release seat", zap.Error(err))
	}
	if !c.srv.tables.Seated(tableID, playerID) {
		c.session.ClearSeat()
	}
}
