// Package live serves template instances over a websocket.
//
// A client joins a topic with the URL of the page it shows. The URL is
// routed through Config.Mux to a View, whose source is compiled into a
// template.Template. The join reply carries the first virtual tree; every
// frame with pending changes is pushed to the client as a patch set.
package live

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/canopyclimate/clay/changeset"
	"github.com/canopyclimate/clay/compiler"
	"github.com/canopyclimate/clay/internal/json"
	"github.com/canopyclimate/clay/internal/validate"
	"github.com/canopyclimate/clay/live/internal/phx"
	"github.com/canopyclimate/clay/scope"
	"github.com/canopyclimate/clay/template"
	"github.com/canopyclimate/clay/vdom"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	// DefaultEventRate is the number of client events per second a socket
	// accepts when Config.EventRate is zero.
	DefaultEventRate = 50
	// DefaultEventBurst is used when Config.EventBurst is zero.
	DefaultEventBurst = 20
)

// ErrNoTemplate is returned by Set and Update when ctx was not handed out
// by a joined socket.
var ErrNoTemplate = errors.New("live: no template in context")

// Config is the configuration for a live application.
type Config struct {
	// Mux is a http.Handler that routes join URLs to Views with SetView.
	Mux http.Handler `validate:"required"`
	// Helpers are the hooks available to helper attributes in every View.
	Helpers compiler.Helpers
	// FrameInterval is the period at which patches are pushed.
	// Zero means template.DefaultFrameInterval.
	FrameInterval time.Duration `validate:"gte=0"`
	// EventRate and EventBurst limit client events per socket.
	EventRate  float64 `validate:"gte=0"`
	EventBurst int     `validate:"gte=0"`
	// Logger defaults to log.Default().
	Logger *log.Logger
}

// View supplies the template source for a page.
type View interface {
	Template() string
}

// Mounter is implemented by Views that fill in the scope on join.
// The template exists by the time Mount runs, so goroutines started from
// Mount may call Set and Update with ctx. ctx is canceled when the client
// leaves.
type Mounter interface {
	Mount(ctx context.Context, s scope.Scope) error
}

// NewWebsocketHandler returns a http.Handler that upgrades HTTP requests to
// websockets and serves live templates over them.
func NewWebsocketHandler(c Config) (*WebsocketHandler, error) {
	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("live: invalid config: %w", err)
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
	if c.EventRate == 0 {
		c.EventRate = DefaultEventRate
	}
	if c.EventBurst == 0 {
		c.EventBurst = DefaultEventBurst
	}
	return &WebsocketHandler{config: c, changes: changeset.NewGoPlaygroundConfig()}, nil
}

// WebsocketHandler handles websocket requests and message routing.
type WebsocketHandler struct {
	config  Config
	changes *changeset.Config
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (x *WebsocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied to the client.
		x.config.Logger.Printf("live: upgrade: %v", err)
		return
	}
	defer conn.Close()
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	s := &socket{
		id:      uuid.NewString(),
		req:     r,
		conn:    conn,
		config:  x.config,
		form:    changeset.New[changeset.Mutation](x.changes),
		logger:  x.config.Logger,
		limiter: rate.NewLimiter(rate.Limit(x.config.EventRate), x.config.EventBurst),
		msg:     make(chan *phx.Msg),
		readerr: make(chan error, 1),
		push:    make(chan []byte),
		drawerr: make(chan error, 1),
	}
	go s.read(ctx)
	s.serve(ctx)
}

// A socket tracks an individual websocket connection.
type socket struct {
	id      string
	req     *http.Request // http request that initiated this websocket connection
	conn    *websocket.Conn
	config  Config
	form    *changeset.Changeset[changeset.Mutation] // merged form events of the joined view
	logger  *log.Logger
	limiter *rate.Limiter
	msg     chan *phx.Msg
	readerr chan error
	push    chan []byte // patch pushes from the draw loop
	drawerr chan error

	// Set on join.
	view    View
	tmpl    *template.Template
	topic   string
	joinRef string
	stop    context.CancelFunc
}

func (s *socket) read(ctx context.Context) {
	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			s.readerr <- fmt.Errorf("websocket read: %w", err)
			return
		}
		pm, err := phx.Parse(msg)
		if err != nil {
			s.readerr <- fmt.Errorf("malformed phx message: %w", err)
			return
		}
		select {
		case s.msg <- pm:
		case <-ctx.Done():
			return
		}
	}
}

func (s *socket) serve(ctx context.Context) {
	defer s.leave()
	for {
		var out []byte
		select {
		case pm := <-s.msg:
			r, err := s.handle(ctx, pm)
			if err != nil {
				s.logger.Printf("live: socket %s: %s: %v", s.id, pm.Event, err)
				r, err = phx.NewErrorReply(*pm, err.Error(), nil).JSON()
				if err != nil {
					s.logger.Printf("live: socket %s: %v", s.id, err)
					return
				}
			}
			out = r
		case out = <-s.push:
		case err := <-s.drawerr:
			s.logger.Printf("live: socket %s: draw: %v", s.id, err)
			return
		case err := <-s.readerr:
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Printf("live: socket %s: %v", s.id, err)
			}
			return
		case <-ctx.Done():
			return
		}
		if out == nil {
			continue
		}
		if err := s.conn.WriteMessage(websocket.TextMessage, out); err != nil {
			// the client has gone away
			s.logger.Printf("live: socket %s: write: %v", s.id, err)
			return
		}
	}
}

// handle rate limits client events before dispatching them.
// Heartbeats are never limited.
func (s *socket) handle(ctx context.Context, msg *phx.Msg) ([]byte, error) {
	if msg.Event != "heartbeat" && !s.limiter.Allow() {
		return nil, errors.New("too many events")
	}
	return s.dispatch(ctx, msg)
}

func (s *socket) dispatch(ctx context.Context, msg *phx.Msg) ([]byte, error) {
	switch msg.Event {
	case "phx_join":
		return s.join(ctx, msg)
	case "heartbeat":
		return phx.NewHeartbeat(msg.MsgRef).JSON()
	case "set":
		if err := s.joined(msg); err != nil {
			return nil, err
		}
		path, ok := msg.String("path")
		if !ok {
			return nil, fmt.Errorf("set: path not found in payload")
		}
		if err := validate.Struct(&changeset.Mutation{Path: path}); err != nil {
			var verr *validate.Error
			if errors.As(err, &verr) {
				return phx.NewErrorReply(*msg, "invalid mutation", verr.Fields).JSON()
			}
			return nil, fmt.Errorf("set: %w", err)
		}
		if err := s.tmpl.Set(path, msg.Payload["value"]); err != nil {
			return nil, err
		}
		return phx.NewEmptyReply(*msg).JSON()
	case "form":
		if err := s.joined(msg); err != nil {
			return nil, err
		}
		return s.handleForm(msg)
	case "phx_leave":
		if err := s.joined(msg); err != nil {
			return nil, err
		}
		if err := s.leave(); err != nil {
			return nil, err
		}
		return phx.NewEmptyReply(*msg).JSON()
	}
	return nil, fmt.Errorf("unknown event: %q", msg.Event)
}

func (s *socket) joined(msg *phx.Msg) error {
	if s.tmpl == nil {
		return fmt.Errorf("%s: not joined", msg.Event)
	}
	if msg.Topic != s.topic {
		return fmt.Errorf("%s: unknown topic %q", msg.Event, msg.Topic)
	}
	return nil
}

func (s *socket) join(ctx context.Context, msg *phx.Msg) ([]byte, error) {
	if !strings.HasPrefix(msg.Topic, "lv:") {
		return nil, fmt.Errorf("unknown join topic: %q", msg.Topic)
	}
	if s.tmpl != nil {
		return nil, fmt.Errorf("already joined %q", s.topic)
	}
	urlStr, ok := msg.String("url")
	if !ok {
		urlStr, ok = msg.String("redirect")
	}
	if !ok || urlStr == "" {
		return nil, fmt.Errorf("no url or redirect found in payload")
	}
	u, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("could not parse url: %w", err)
	}
	r := s.req.Clone(s.req.Context())
	r.URL = u
	view, code := s.config.viewForRequest(r)
	if code >= 500 {
		return nil, fmt.Errorf("routing %s: status %d", u.Path, code)
	}
	if view == nil {
		return nil, fmt.Errorf("no view for %s", u.Path)
	}

	sc := scope.Scope{}
	t, err := template.New(view.Template(), sc, template.Config{
		Helpers:       s.config.Helpers,
		FrameInterval: s.config.FrameInterval,
		Logger:        s.logger,
	})
	if err != nil {
		return nil, err
	}
	viewCtx, stop := context.WithCancel(withTemplate(ctx, t))
	if m, ok := view.(Mounter); ok {
		if err := m.Mount(viewCtx, sc); err != nil {
			stop()
			t.Destroy()
			return nil, fmt.Errorf("mount: %w", err)
		}
	}
	shadow := t.CreateElement()
	if shadow == nil {
		stop()
		return nil, template.ErrDestroyed
	}
	rendered, err := shadow.Node().JSON()
	if err != nil {
		stop()
		t.Destroy()
		return nil, err
	}

	s.view, s.tmpl, s.stop = view, t, stop
	s.topic, s.joinRef = msg.Topic, msg.JoinRef
	go func() {
		target := &remote{
			ctx:     viewCtx,
			shadow:  shadow,
			topic:   msg.Topic,
			joinRef: msg.JoinRef,
			push:    s.push,
		}
		err := t.DrawLoop(viewCtx, target)
		if err != nil && !errors.Is(err, context.Canceled) {
			select {
			case s.drawerr <- err:
			default:
			}
		}
	}()
	return phx.NewRendered(*msg, rendered).JSON()
}

// handleForm applies a url-encoded "path=...&value=..." mutation. Fields
// missing from an event keep the value from earlier events of the same view;
// a "_target" field limits error reporting to the named field.
func (s *socket) handleForm(msg *phx.Msg) ([]byte, error) {
	raw, ok := msg.String("value")
	if !ok {
		return nil, fmt.Errorf("form: value not found in payload")
	}
	vals, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("form: %w", err)
	}
	cs := s.form
	if err := cs.Update(vals, "submit"); err != nil {
		return nil, fmt.Errorf("form: %w", err)
	}
	if !cs.Valid() {
		fields := make(map[string]string)
		for _, k := range []string{"path", "value"} {
			if cs.HasError(k) {
				fields[k] = cs.Error(k).Error()
			}
		}
		return phx.NewErrorReply(*msg, "invalid mutation", fields).JSON()
	}
	if err := s.tmpl.Set(cs.Value("path"), cs.Value("value")); err != nil {
		return nil, err
	}
	return phx.NewEmptyReply(*msg).JSON()
}

// leave tears down the joined template, if any.
// Views that implement io.Closer are closed.
func (s *socket) leave() error {
	if s.tmpl == nil {
		return nil
	}
	s.stop()
	s.tmpl.Destroy()
	var err error
	if c, ok := s.view.(io.Closer); ok {
		err = c.Close()
	}
	s.view, s.tmpl, s.stop = nil, nil, nil
	s.topic, s.joinRef = "", ""
	s.form.Reset()
	return err
}

// remote is the draw target of a joined socket. It keeps a server-side
// mirror of the client's tree and forwards each patch set as a push.
type remote struct {
	ctx     context.Context
	shadow  *vdom.Element
	topic   string
	joinRef string
	push    chan<- []byte
}

func (r *remote) Apply(ps *vdom.PatchSet) error {
	// Encode before touching the shadow so that it never moves ahead of the
	// client.
	b, err := ps.JSON()
	if errors.Is(err, json.ErrInvalidUTF8) {
		ps = validPatchSet(ps)
		b, err = ps.JSON()
	}
	if err != nil {
		return err
	}
	push, err := phx.NewPatch(&r.joinRef, r.topic, b).JSON()
	if err != nil {
		return err
	}
	if err := r.shadow.Apply(ps); err != nil {
		return err
	}
	select {
	case r.push <- push:
		return nil
	case <-r.ctx.Done():
		return r.ctx.Err()
	}
}

// validPatchSet returns a copy of ps with invalid UTF-8 in every string
// replaced by U+FFFD.
func validPatchSet(ps *vdom.PatchSet) *vdom.PatchSet {
	out := &vdom.PatchSet{Ops: make([]vdom.Op, len(ps.Ops))}
	for i, op := range ps.Ops {
		op.Key = validString(op.Key)
		op.Value = validString(op.Value)
		op.Node = validNode(op.Node)
		out.Ops[i] = op
	}
	return out
}

func validNode(n *vdom.Node) *vdom.Node {
	if n == nil {
		return nil
	}
	c := &vdom.Node{
		Type:  n.Type,
		Tag:   validString(n.Tag),
		Text:  validString(n.Text),
		Attrs: validMap(n.Attrs),
		Style: validMap(n.Style),
	}
	if n.Hooks != nil {
		c.Hooks = make(map[string]vdom.HookValue, len(n.Hooks))
		for k, hv := range n.Hooks {
			hv.Value = validString(hv.Value)
			c.Hooks[validString(k)] = hv
		}
	}
	for _, child := range n.Children {
		c.Children = append(c.Children, validNode(child))
	}
	return c
}

func validMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[validString(k)] = validString(v)
	}
	return c
}

func validString(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}

type templateContextKey struct{}

// withTemplate returns a context built by associating t with ctx.
func withTemplate(ctx context.Context, t *template.Template) context.Context {
	return context.WithValue(ctx, templateContextKey{}, t)
}

// templateValue returns the template, if any, associated with ctx.
func templateValue(ctx context.Context) *template.Template {
	t, _ := ctx.Value(templateContextKey{}).(*template.Template)
	return t
}

// Set stores value at path in the scope of the template joined with ctx.
func Set(ctx context.Context, path string, value any) error {
	t := templateValue(ctx)
	if t == nil {
		return ErrNoTemplate
	}
	return t.Set(path, value)
}

// Update runs fn on the scope of the template joined with ctx and reports
// mutations at paths.
func Update(ctx context.Context, fn func(scope.Scope), paths ...string) error {
	t := templateValue(ctx)
	if t == nil {
		return ErrNoTemplate
	}
	return t.Update(fn, paths...)
}
